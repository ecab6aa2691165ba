package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"daycare/internal/amqp"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/sheets"
)

// RecordReader loads the committed state of a bookkeeping row.
type RecordReader interface {
	GetIncome(ctx context.Context, id int64) (core.Income, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
}

// LedgerWorker turns record events into ledger lines.
type LedgerWorker struct {
	store  RecordReader
	ledger sheets.LedgerWriter
	logger *applog.Logger
}

func NewLedgerWorker(store RecordReader, ledger sheets.LedgerWriter, logger *applog.Logger) *LedgerWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LedgerWorker{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleRecordEvent appends one ledger line for ev. Created and updated rows
// are re-read from the store; a row deleted since the event was published
// falls back to the snapshot carried by the message.
func (w *LedgerWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		applog.FieldEntity, ev.Entity,
		applog.FieldEntityID, ev.ID,
		"action", ev.Action)

	entry, err := w.entryFor(ctx, ev)
	if err != nil {
		return err
	}

	ref, err := w.ledger.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Ledger entry written",
		applog.FieldEntity, ev.Entity,
		applog.FieldEntityID, ev.ID,
		applog.FieldAmount, entry.Amount,
		"ledger_ref", ref)
	return nil
}

func (w *LedgerWorker) entryFor(ctx context.Context, ev *amqp.RecordEvent) (core.LedgerEntry, error) {
	entry := core.LedgerEntry{
		Timestamp: ev.Timestamp,
		Entity:    ev.Entity,
		Action:    ev.Action,
		ID:        ev.ID,
	}

	switch ev.Entity {
	case amqp.EntityIncome:
		in, err := w.loadIncome(ctx, ev)
		if err != nil {
			return entry, err
		}
		entry.Date = in.Date
		entry.Label = in.Source
		entry.Amount = in.Amount
	case amqp.EntityExpense:
		ex, err := w.loadExpense(ctx, ev)
		if err != nil {
			return entry, err
		}
		entry.Date = ex.Date
		entry.Label = expenseLabel(ex)
		entry.Amount = ex.Amount
		entry.Personal = ex.IsPersonal
	default:
		return entry, fmt.Errorf("unknown entity %q", ev.Entity)
	}
	return entry, nil
}

func (w *LedgerWorker) loadIncome(ctx context.Context, ev *amqp.RecordEvent) (core.Income, error) {
	var in core.Income
	if ev.Action != amqp.ActionDeleted {
		row, err := w.store.GetIncome(ctx, ev.ID)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, core.ErrNotFound) || len(ev.Snapshot) == 0 {
			return in, fmt.Errorf("get income %d: %w", ev.ID, err)
		}
		w.logger.WarnContext(ctx, "Income row gone, using event snapshot", applog.FieldEntityID, ev.ID)
	}
	if err := json.Unmarshal(ev.Snapshot, &in); err != nil {
		return in, fmt.Errorf("decode income snapshot: %w", err)
	}
	return in, nil
}

func (w *LedgerWorker) loadExpense(ctx context.Context, ev *amqp.RecordEvent) (core.Expense, error) {
	var ex core.Expense
	if ev.Action != amqp.ActionDeleted {
		row, err := w.store.GetExpense(ctx, ev.ID)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, core.ErrNotFound) || len(ev.Snapshot) == 0 {
			return ex, fmt.Errorf("get expense %d: %w", ev.ID, err)
		}
		w.logger.WarnContext(ctx, "Expense row gone, using event snapshot", applog.FieldEntityID, ev.ID)
	}
	if err := json.Unmarshal(ev.Snapshot, &ex); err != nil {
		return ex, fmt.Errorf("decode expense snapshot: %w", err)
	}
	return ex, nil
}

// expenseLabel is "category / vendor", or just the category without a vendor.
func expenseLabel(ex core.Expense) string {
	if ex.Vendor == nil || strings.TrimSpace(*ex.Vendor) == "" {
		return ex.Category
	}
	return ex.Category + " / " + strings.TrimSpace(*ex.Vendor)
}
