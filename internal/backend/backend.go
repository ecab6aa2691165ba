// Package backend selects and builds the ledger writer used by the worker.
package backend

import (
	"context"
	"fmt"
	"time"

	"daycare/internal/config"
	applog "daycare/internal/log"
	"daycare/internal/sheets"
	gsheet "daycare/internal/sheets/google"
	"daycare/internal/sheets/memory"
)

// LedgerType names a ledger implementation.
type LedgerType string

const (
	GoogleLedger LedgerType = "google"
	MemoryLedger LedgerType = "memory"
)

func (t LedgerType) String() string { return string(t) }

// IsValid returns true if the ledger type is known.
func (t LedgerType) IsValid() bool {
	switch t {
	case GoogleLedger, MemoryLedger:
		return true
	default:
		return false
	}
}

// Config holds what is needed to build a ledger.
type Config struct {
	Type LedgerType

	GoogleSpreadsheetID   string
	GoogleSheet           string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// FromAppConfig picks the Google ledger when a spreadsheet is configured and
// the in-memory ledger otherwise.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := MemoryLedger
	if cfg.GoogleSpreadsheetID != "" {
		t = GoogleLedger
	}
	return Config{
		Type:                  t,
		GoogleSpreadsheetID:   cfg.GoogleSpreadsheetID,
		GoogleSheet:           cfg.GoogleLedgerSheet,
		GoogleCredentialsFile: cfg.GoogleCredentialsFile,
		GoogleCredentialsJSON: cfg.GoogleCredentialsJSON,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid ledger type: %s", c.Type)
	}
	if c.Type == GoogleLedger {
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google spreadsheet ID is required for the google ledger")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("either a credentials file or credentials JSON must be provided for the google ledger")
		}
	}
	return nil
}

// Result is a ready ledger plus an optional cleanup.
type Result struct {
	Ledger  sheets.LedgerWriter
	Type    LedgerType
	Cleanup func() error
}

// Factory builds ledgers.
type Factory struct {
	logger *applog.Logger
	// headerTimeout bounds the header check on the Google ledger.
	headerTimeout time.Duration
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentSheets), headerTimeout: 30 * time.Second}
}

// CreateLedger builds the ledger described by cfg.
func (f *Factory) CreateLedger(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case GoogleLedger:
		return f.createGoogleLedger(ctx, cfg)
	default:
		f.logger.Info("Initialized in-memory ledger")
		return &Result{Ledger: memory.New(), Type: MemoryLedger}, nil
	}
}

func (f *Factory) createGoogleLedger(ctx context.Context, cfg Config) (*Result, error) {
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		Sheet:           cfg.GoogleSheet,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	headerCtx, cancel := context.WithTimeout(ctx, f.headerTimeout)
	defer cancel()
	if err := client.EnsureHeader(headerCtx); err != nil {
		f.logger.Warn("Could not verify ledger header", applog.FieldError, err)
	}

	f.logger.Info("Initialized Google Sheets ledger",
		"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheet)
	return &Result{Ledger: client, Type: GoogleLedger}, nil
}
