package transcript

import (
	"context"
	"time"

	"taskpilot/pkg/db"
)

// Record is one line of the append-only transcript.
type Record struct {
	ID        int64  `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// Store persists transcript records. Records are only ever appended; nothing
// rewrites history.
type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Append adds one record to the transcript.
func (s *Store) Append(ctx context.Context, role, content string) (Record, error) {
	now := time.Now().Unix()

	res, err := s.db.Write.ExecContext(ctx,
		`INSERT INTO records(role, content, created_at) VALUES(?, ?, ?)`,
		role, content, now)
	if err != nil {
		return Record{}, err
	}

	id, _ := res.LastInsertId()
	return Record{ID: id, Role: role, Content: content, CreatedAt: now}, nil
}

// List returns every record in append order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Read.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM records ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Role, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
