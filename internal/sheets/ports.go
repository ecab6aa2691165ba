package sheets

import (
	"context"

	"daycare/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter appends bookkeeping lines to an external ledger.
	LedgerWriter interface {
		AppendEntry(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}
)
