package cli

import (
	"fmt"

	"taskpilot/config"
	"taskpilot/internal/credentials"
	"taskpilot/internal/tasky"
	"taskpilot/pkg/db"
	"taskpilot/pkg/migration"
)

// openDatabase opens the local sqlite database and applies pending
// migrations. Callers own the returned handle.
func openDatabase() (*db.DB, error) {
	path, err := config.GetDatabasePath()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := migration.NewRunner(database.Write).Run(); err != nil {
		database.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return database, nil
}

// newClient builds a tool endpoint client from the saved configuration. The
// auth token comes from the keyring when the config does not carry one.
func newClient() (*tasky.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	token := cfg.Endpoint.AuthToken
	if token == "" {
		if stored, err := credentials.GetEndpointToken(); err == nil {
			token = stored
		}
	}
	return tasky.New(cfg.Endpoint.Address, token), nil
}
