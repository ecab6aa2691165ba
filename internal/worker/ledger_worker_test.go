package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daycare/internal/amqp"
	"daycare/internal/core"
	"daycare/internal/sheets/memory"
)

type fakeReader struct {
	income   map[int64]core.Income
	expenses map[int64]core.Expense
	err      error
}

func (f *fakeReader) GetIncome(_ context.Context, id int64) (core.Income, error) {
	if f.err != nil {
		return core.Income{}, f.err
	}
	in, ok := f.income[id]
	if !ok {
		return core.Income{}, core.NotFound("income", id)
	}
	return in, nil
}

func (f *fakeReader) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	if f.err != nil {
		return core.Expense{}, f.err
	}
	ex, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.NotFound("expense", id)
	}
	return ex, nil
}

type failingLedger struct{}

func (failingLedger) AppendEntry(context.Context, core.LedgerEntry) (string, error) {
	return "", errors.New("quota exceeded")
}

func newEvent(t *testing.T, entity, action string, id int64, row any) *amqp.RecordEvent {
	t.Helper()
	ev, err := amqp.NewRecordEvent(entity, action, id, row)
	require.NoError(t, err)
	return ev
}

func TestHandleRecordEventReadsCommittedRow(t *testing.T) {
	reader := &fakeReader{
		income: map[int64]core.Income{
			3: {ID: 3, Date: "2024-03-01", Source: "Tuition", Amount: 850},
		},
	}
	ledger := memory.New()
	w := NewLedgerWorker(reader, ledger, nil)

	// The snapshot is stale; the stored row wins.
	stale := core.Income{ID: 3, Date: "2024-02-01", Source: "Old", Amount: 1}
	ev := newEvent(t, amqp.EntityIncome, amqp.ActionUpdated, 3, stale)
	require.NoError(t, w.HandleRecordEvent(context.Background(), ev))

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, core.LedgerEntry{
		Timestamp: ev.Timestamp,
		Entity:    "income",
		Action:    "updated",
		ID:        3,
		Date:      "2024-03-01",
		Label:     "Tuition",
		Amount:    850,
	}, entries[0])
}

func TestHandleRecordEventExpenseLabel(t *testing.T) {
	vendor := "Costco"
	reader := &fakeReader{
		expenses: map[int64]core.Expense{
			7: {ID: 7, Date: "2024-03-02", Category: "Food", Vendor: &vendor, Amount: 42.5, IsPersonal: true},
			8: {ID: 8, Date: "2024-03-03", Category: "Rent", Amount: 1200},
		},
	}
	ledger := memory.New()
	w := NewLedgerWorker(reader, ledger, nil)

	require.NoError(t, w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityExpense, amqp.ActionCreated, 7, nil)))
	require.NoError(t, w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityExpense, amqp.ActionCreated, 8, nil)))

	entries := ledger.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Food / Costco", entries[0].Label)
	assert.True(t, entries[0].Personal)
	assert.Equal(t, "Rent", entries[1].Label)
	assert.False(t, entries[1].Personal)
}

func TestHandleRecordEventDeletedUsesSnapshot(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(&fakeReader{}, ledger, nil)

	row := core.Expense{ID: 9, Date: "2024-03-04", Category: "Toys", Amount: 19.99}
	require.NoError(t, w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityExpense, amqp.ActionDeleted, 9, row)))

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "deleted", entries[0].Action)
	assert.Equal(t, "Toys", entries[0].Label)
	assert.Equal(t, 19.99, entries[0].Amount)
}

func TestHandleRecordEventFallsBackWhenRowIsGone(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(&fakeReader{}, ledger, nil)

	row := core.Income{ID: 4, Date: "2024-03-05", Source: "Subsidy", Amount: 300}
	require.NoError(t, w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityIncome, amqp.ActionCreated, 4, row)))

	entries := ledger.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Subsidy", entries[0].Label)
}

func TestHandleRecordEventErrors(t *testing.T) {
	t.Run("missing row without snapshot", func(t *testing.T) {
		w := NewLedgerWorker(&fakeReader{}, memory.New(), nil)
		err := w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityIncome, amqp.ActionCreated, 1, nil))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("store failure is returned for requeue", func(t *testing.T) {
		reader := &fakeReader{err: core.Storage("read", errors.New("disk I/O error"))}
		w := NewLedgerWorker(reader, memory.New(), nil)
		row := core.Expense{ID: 1, Category: "Food"}
		err := w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityExpense, amqp.ActionUpdated, 1, row))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrStorage)
	})

	t.Run("ledger failure", func(t *testing.T) {
		row := core.Expense{ID: 2, Category: "Food"}
		w := NewLedgerWorker(&fakeReader{}, failingLedger{}, nil)
		err := w.HandleRecordEvent(context.Background(), newEvent(t, amqp.EntityExpense, amqp.ActionDeleted, 2, row))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("unknown entity", func(t *testing.T) {
		w := NewLedgerWorker(&fakeReader{}, memory.New(), nil)
		ev := &amqp.RecordEvent{Entity: "child", Action: amqp.ActionCreated, ID: 1, Timestamp: time.Now()}
		assert.Error(t, w.HandleRecordEvent(context.Background(), ev))
	})
}
