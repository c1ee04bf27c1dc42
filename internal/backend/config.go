package backend

import (
	"errors"
	"fmt"

	"produtivo/internal/config"
)

// Config holds what the factory needs for either backend.
type Config struct {
	Type Type

	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(appConfig.ExportBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid export backend in config: %s", appConfig.ExportBackend)
	}
	return Config{
		Type:            t,
		SpreadsheetID:   appConfig.GoogleSpreadsheetID,
		SheetName:       appConfig.GoogleSheetName,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SheetsBackend {
		if c.SpreadsheetID == "" {
			return errors.New("spreadsheet id is required for sheets backend")
		}
		if c.CredentialsJSON == "" && c.CredentialsFile == "" {
			return errors.New("service account credentials are required for sheets backend")
		}
	}
	return nil
}

// BackendTypes returns all valid backend types.
func BackendTypes() []Type {
	return []Type{MemoryBackend, SheetsBackend}
}
