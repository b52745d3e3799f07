package credentials

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"taskpilot/pkg/db"
)

var errEmptySecretName = errors.New("secret name cannot be empty")

// Registry records which secret names exist so they can be listed without
// probing the keyring, which stores values but not an index.
type Registry struct {
	db *db.DB
}

func NewRegistry(database *db.DB) *Registry {
	return &Registry{db: database}
}

func (r *Registry) Register(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errEmptySecretName
	}

	now := time.Now().Unix()
	_, err := r.db.Write.ExecContext(ctx,
		`INSERT INTO secrets(name, created_at, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET updated_at = ?`,
		trimmed, now, now, now)
	return err
}

func (r *Registry) Unregister(ctx context.Context, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errEmptySecretName
	}

	_, err := r.db.Write.ExecContext(ctx, `DELETE FROM secrets WHERE name = ?`, trimmed)
	return err
}

func (r *Registry) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Read.QueryContext(ctx, `SELECT name FROM secrets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}
