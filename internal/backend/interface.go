// Package backend builds the spreadsheet exporter selected by
// configuration.
package backend

import (
	"context"

	"produtivo/internal/sheets"
)

// CleanupFunc releases resources held by an exporter.
type CleanupFunc func() error

// Result is a ready exporter and its cleanup.
type Result struct {
	Exporter sheets.TransactionExporter
	Cleanup  CleanupFunc
}

// Factory creates exporters from configuration.
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (*Result, error)
}

// Type names an export backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SheetsBackend:
		return true
	}
	return false
}
