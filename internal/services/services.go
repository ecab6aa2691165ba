// Package services holds the record services behind the HTTP surface. Each
// service validates its input, runs one unit of work against the store and
// keeps attachments, the dashboard cache and the ledger feed in step.
package services

import (
	"context"
	"strings"
	"time"

	"daycare/internal/amqp"
	"daycare/internal/attachment"
	"daycare/internal/cache"
	"daycare/internal/core"
	applog "daycare/internal/log"
	"daycare/internal/storage"
)

// EventPublisher delivers ledger events. Implementations must not block for long.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store       *storage.Store
	Attachments *attachment.Manager
	// Publisher may be nil, in which case no ledger events are sent.
	Publisher EventPublisher
	// SummaryCache may be nil to disable dashboard caching.
	SummaryCache cache.Cache[core.DashboardSummary]
	Logger       *applog.Logger
	Now          func() time.Time
}

// Services bundles the record services.
type Services struct {
	Children   *ChildService
	Parents    *ParentService
	Income     *IncomeService
	Expenses   *ExpenseService
	Attendance *AttendanceService
	Documents  *DocumentService
	Settings   *SettingsService
	Dashboard  *Dashboard
}

func New(d Deps) *Services {
	if d.Logger == nil {
		d.Logger = applog.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	logger := d.Logger.WithComponent(applog.ComponentServices)
	ev := &events{publisher: d.Publisher, cache: d.SummaryCache, logger: logger}

	return &Services{
		Children:   &ChildService{store: d.Store, logger: logger},
		Parents:    &ParentService{store: d.Store, logger: logger},
		Income:     &IncomeService{store: d.Store, events: ev, logger: logger},
		Expenses:   &ExpenseService{store: d.Store, files: d.Attachments, events: ev, logger: logger},
		Attendance: &AttendanceService{store: d.Store, logger: logger},
		Documents:  &DocumentService{store: d.Store, files: d.Attachments, now: d.Now, logger: logger},
		Settings:   &SettingsService{store: d.Store, logger: logger},
		Dashboard:  NewDashboard(d.Store, d.SummaryCache, d.Now, d.Logger),
	}
}

// events fans a committed bookkeeping change out to the dashboard cache and
// the ledger feed. Neither can fail the request.
type events struct {
	publisher EventPublisher
	cache     cache.Cache[core.DashboardSummary]
	logger    *applog.Logger
}

func (e *events) recordChanged(ctx context.Context, entity, action string, id int64, row any) {
	if e.cache != nil {
		e.cache.Purge()
	}
	if e.publisher == nil {
		return
	}
	ev, err := amqp.NewRecordEvent(entity, action, id, row)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to build ledger event",
			applog.FieldEntity, entity, applog.FieldEntityID, id, applog.FieldError, err)
		return
	}
	if err := e.publisher.PublishRecordEvent(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish ledger event",
			applog.FieldEntity, entity,
			applog.FieldEntityID, id,
			"action", action,
			applog.FieldError, err)
	}
}

func trim(s string) string { return strings.TrimSpace(s) }

// optional trims s and returns nil when nothing is left.
func optional(s string) *string { return core.StringPtr(strings.TrimSpace(s)) }

func parseAmount(raw string) (float64, error) {
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return 0, core.Validation("invalid amount",
			map[string]string{"amount": "must be a non-negative number with at most two decimals"})
	}
	return amount, nil
}

func checkDateRange(from, to string) error {
	fields := map[string]string{}
	if from != "" && !core.ValidDate(from) {
		fields["from"] = dateMessage
	}
	if to != "" && !core.ValidDate(to) {
		fields["to"] = dateMessage
	}
	if len(fields) > 0 {
		return core.Validation("invalid date filter", fields)
	}
	return nil
}
