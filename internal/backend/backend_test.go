package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycare/internal/config"
	"daycare/internal/core"
	"daycare/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, MemoryLedger, cfg.Type)

	cfg, err = FromAppConfig(&config.Config{
		GoogleSpreadsheetID:   "abc",
		GoogleLedgerSheet:     "Ledger",
		GoogleCredentialsJSON: "{}",
	})
	require.NoError(t, err)
	assert.Equal(t, GoogleLedger, cfg.Type)
	assert.Equal(t, "abc", cfg.GoogleSpreadsheetID)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "memory", cfg: Config{Type: MemoryLedger}},
		{name: "unknown type", cfg: Config{Type: "postgres"}, wantErr: "invalid ledger type"},
		{name: "google without id", cfg: Config{Type: GoogleLedger, GoogleCredentialsJSON: "{}"}, wantErr: "spreadsheet ID"},
		{name: "google without credentials", cfg: Config{Type: GoogleLedger, GoogleSpreadsheetID: "abc"}, wantErr: "credentials"},
		{name: "google", cfg: Config{Type: GoogleLedger, GoogleSpreadsheetID: "abc", GoogleCredentialsFile: "sa.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateLedgerMemory(t *testing.T) {
	res, err := NewFactory(nil).CreateLedger(context.Background(), Config{Type: MemoryLedger})
	require.NoError(t, err)
	assert.Equal(t, MemoryLedger, res.Type)

	_, err = res.Ledger.AppendEntry(context.Background(), core.LedgerEntry{Entity: "income", Action: "created", ID: 1})
	require.NoError(t, err)
	assert.Len(t, res.Ledger.(*memory.Ledger).Entries(), 1)
}

func TestCreateLedgerGoogleMissingCredentialsFile(t *testing.T) {
	_, err := NewFactory(nil).CreateLedger(context.Background(), Config{
		Type:                  GoogleLedger,
		GoogleSpreadsheetID:   "abc",
		GoogleCredentialsFile: "/non/existent.json",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}
