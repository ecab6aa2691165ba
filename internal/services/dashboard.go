package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"daycare/internal/cache"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// Dashboard computes the current month's totals.
type Dashboard struct {
	store  *storage.Store
	cache  cache.Cache[core.DashboardSummary]
	now    func() time.Time
	logger *applog.Logger
}

func NewDashboard(store *storage.Store, c cache.Cache[core.DashboardSummary], now func() time.Time, logger *applog.Logger) *Dashboard {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Dashboard{
		store:  store,
		cache:  c,
		now:    now,
		logger: logger.WithComponent(applog.ComponentDashboard),
	}
}

// Summary returns income and non-personal expenses for the month containing
// now. On failure it returns a zeroed summary with Error set, together with
// the error.
func (d *Dashboard) Summary(ctx context.Context) (core.DashboardSummary, error) {
	from, to := core.MonthWindow(d.now())
	key := from[:7]
	if d.cache != nil {
		if s, ok := d.cache.Get(key); ok {
			return s, nil
		}
	}

	var income, expenses float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := d.store.SumIncome(gctx, from, to)
		if err != nil {
			return fmt.Errorf("sum income: %w", err)
		}
		income = v
		return nil
	})
	g.Go(func() error {
		v, err := d.store.SumExpenses(gctx, from, to, false)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		expenses = v
		return nil
	})

	if err := g.Wait(); err != nil {
		d.logger.ErrorContext(ctx, "Dashboard summary failed",
			applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		return core.DashboardSummary{
			PeriodStart: from,
			PeriodEnd:   to,
			Error:       "could not compute monthly totals",
		}, err
	}

	s := core.DashboardSummary{
		MonthlyIncome:   core.RoundAmount(income),
		MonthlyExpenses: core.RoundAmount(expenses),
		PeriodStart:     from,
		PeriodEnd:       to,
	}
	if d.cache != nil {
		d.cache.Set(key, s)
	}
	return s, nil
}
