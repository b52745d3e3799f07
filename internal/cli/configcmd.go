package cli

import (
	"errors"
	"fmt"
	"os"

	"taskpilot/config"
	"taskpilot/internal/credentials"
)

// InitConfig writes a default endpoint configuration unless one exists.
func InitConfig() error {
	path, err := config.GetConfigFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := config.Save(config.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote default config to %s\n", path)
	return nil
}

// SetEndpointToken stores the endpoint auth token in the keyring, prompting
// when no value is given.
func SetEndpointToken(value string) error {
	token, err := ensureSecretInput(value, "Enter endpoint auth token: ")
	if err != nil {
		return err
	}
	if err := credentials.SetEndpointToken(token); err != nil {
		return err
	}
	if err := registerSecret(credentials.EndpointTokenName); err != nil {
		return err
	}
	fmt.Println("Stored endpoint auth token in the system keyring")
	return nil
}

// ClearEndpointToken removes the endpoint auth token from the keyring.
func ClearEndpointToken() error {
	if err := credentials.DeleteEndpointToken(); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return fmt.Errorf("no endpoint auth token is stored")
		}
		return err
	}
	if err := unregisterSecret(credentials.EndpointTokenName); err != nil {
		return err
	}
	fmt.Println("Removed endpoint auth token from the system keyring")
	return nil
}

// ShowConfig prints the effective configuration.
func ShowConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Printf("endpoint: %s\n", cfg.Endpoint.Address)
	if cfg.Endpoint.AuthToken != "" {
		fmt.Println("auth token: set")
	} else {
		fmt.Println("auth token: not set")
	}
	if len(cfg.Approval.AllowTools) > 0 {
		fmt.Printf("always allowed: %v\n", cfg.Approval.AllowTools)
	}
	if cfg.Approval.SkipConfirm {
		fmt.Println("confirmations: skipped")
	}
	return nil
}
