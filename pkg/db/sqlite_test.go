package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndQuery(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Write.Exec(`CREATE TABLE items(id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = database.Write.Exec(`INSERT INTO items(name) VALUES(?)`, "a")
	require.NoError(t, err)

	var name string
	require.NoError(t, database.Read.QueryRow(`SELECT name FROM items`).Scan(&name))
	assert.Equal(t, "a", name)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Write.Exec(`CREATE TABLE items(id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = database.WithTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items(name) VALUES(?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, database.Read.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count))
	assert.Zero(t, count)
}
