package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"daycare/internal/core"
	applog "daycare/internal/log"
	ports "daycare/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Ledger column layout, one bookkeeping line per row.
var ledgerHeader = []any{"Timestamp", "Entity", "Action", "ID", "Date", "Label", "Amount", "Personal"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *applog.Logger
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// Options selects the spreadsheet and the service-account credentials.
// CredentialsJSON takes precedence over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	Sheet           string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets ledger client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.Sheet, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = "Ledger"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(spreadsheetID),
		sheet:         strings.TrimSpace(sheet),
		logger:        logger.WithComponent(applog.ComponentSheets),
	}
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// EnsureHeader writes the column header into row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:H1", c.sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	vr := &gsheet.ValueRange{Values: [][]any{ledgerHeader}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header in %s: %w", c.sheet, err)
	}
	c.logger.InfoContext(ctx, "Ledger header written", "sheet", c.sheet)
	return nil
}

// AppendEntry appends e below the last row of the ledger sheet and returns
// the updated range.
func (c *Client) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:H", c.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{entryRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Ledger line appended",
		applog.FieldOperation, applog.OpAppend,
		applog.FieldEntity, e.Entity,
		applog.FieldEntityID, e.ID,
		"range", ref)
	return ref, nil
}

// entryRow renders e in ledger column order. Amounts are signed from the
// daycare's point of view: expenses are negative, deletions reverse the sign.
func entryRow(e core.LedgerEntry) []any {
	personal := ""
	if e.Personal {
		personal = "yes"
	}
	return []any{
		e.Timestamp.UTC().Format(time.RFC3339),
		e.Entity,
		e.Action,
		strconv.FormatInt(e.ID, 10),
		e.Date,
		e.Label,
		signedAmount(e),
		personal,
	}
}

func signedAmount(e core.LedgerEntry) float64 {
	amount := e.Amount
	if e.Entity == "expense" {
		amount = -amount
	}
	if e.Action == "deleted" {
		amount = -amount
	}
	return amount
}
