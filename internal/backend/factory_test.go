package backend

import (
	"context"
	"testing"

	"produtivo/internal/config"
	"produtivo/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{ExportBackend: "sqlite"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		ExportBackend:            "sheets",
		GoogleSpreadsheetID:      "sheet-id",
		GoogleSheetName:          "Transactions",
		GoogleServiceAccountJSON: "{}",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SheetsBackend || cfg.SpreadsheetID != "sheet-id" || cfg.CredentialsJSON != "{}" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sheets", Config{Type: SheetsBackend, SpreadsheetID: "id", CredentialsFile: "sa.json"}, false},
		{"sheets without id", Config{Type: SheetsBackend, CredentialsJSON: "{}"}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, SpreadsheetID: "id"}, true},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateMemoryExporter(t *testing.T) {
	res, err := NewFactory(nil).CreateExporter(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateExporter() error = %v", err)
	}
	if _, ok := res.Exporter.(*memory.Store); !ok {
		t.Errorf("exporter = %T, want *memory.Store", res.Exporter)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestBackendTypes(t *testing.T) {
	for _, bt := range BackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if Type("sqlite").IsValid() {
		t.Error("sqlite should not be valid")
	}
}
