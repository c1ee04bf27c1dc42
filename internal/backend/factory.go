package backend

import (
	"context"
	"fmt"

	plog "produtivo/internal/log"
	gsheet "produtivo/internal/sheets/google"
	"produtivo/internal/sheets/memory"
)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *plog.Logger
}

// NewFactory creates a new exporter factory.
func NewFactory(logger *plog.Logger) Factory {
	if logger == nil {
		logger = plog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(plog.ComponentSheets)}
}

// CreateExporter implements Factory.CreateExporter.
func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsBackend:
		return f.createSheetsExporter(ctx, config)
	case MemoryBackend:
		return f.createMemoryExporter()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*Result, error) {
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.SpreadsheetID,
		SheetName:       config.SheetName,
		CredentialsJSON: config.CredentialsJSON,
		CredentialsFile: config.CredentialsFile,
		Logger:          f.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet header: %w", err)
	}

	f.logger.Info("Initialized Google Sheets exporter",
		"spreadsheet_id", config.SpreadsheetID,
		"sheet", config.SheetName)
	return &Result{Exporter: client, Cleanup: func() error { return nil }}, nil
}

func (f *DefaultFactory) createMemoryExporter() (*Result, error) {
	f.logger.Info("Initialized memory exporter")
	return &Result{Exporter: memory.New(), Cleanup: func() error { return nil }}, nil
}
