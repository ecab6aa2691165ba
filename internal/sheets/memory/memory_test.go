package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"daycare/internal/core"
)

func TestLedgerAppendAndEntries(t *testing.T) {
	l := New()
	e := core.LedgerEntry{
		Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Entity:    "income",
		Action:    "created",
		ID:        4,
		Date:      "2024-03-01",
		Label:     "Parent fees",
		Amount:    120.5,
	}

	ref, err := l.AppendEntry(context.Background(), e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	got := l.Entries()
	if len(got) != 1 || got[0] != e {
		t.Fatalf("unexpected entries: %+v", got)
	}
	got[0].Label = "mutated"
	if l.Entries()[0].Label != "Parent fees" {
		t.Fatal("Entries must return a copy")
	}
}

func TestLedgerRejectsIncompleteEntries(t *testing.T) {
	l := New()
	for _, e := range []core.LedgerEntry{
		{Action: "created", ID: 1},
		{Entity: "expense", ID: 1},
		{Entity: "expense", Action: "deleted"},
	} {
		if _, err := l.AppendEntry(context.Background(), e); err == nil {
			t.Errorf("expected error for %+v", e)
		}
	}
	if n := len(l.Entries()); n != 0 {
		t.Fatalf("rejected entries must not be stored, got %d", n)
	}
}

func TestLedgerConcurrentAppend(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = l.AppendEntry(context.Background(), core.LedgerEntry{Entity: "expense", Action: "created", ID: id})
		}(int64(i))
	}
	wg.Wait()
	if n := len(l.Entries()); n != 50 {
		t.Fatalf("expected 50 entries, got %d", n)
	}
}
