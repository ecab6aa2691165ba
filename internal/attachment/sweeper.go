package attachment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	applog "daycare/internal/log"
)

// ReferenceLister returns every filename still referenced by a row.
type ReferenceLister interface {
	AttachmentReferences(ctx context.Context) ([]string, error)
}

// SweepReport summarizes one reconciliation pass.
type SweepReport struct {
	Scanned  int
	Removed  []string
	Kept     int
	Dangling []string
	Errors   int
}

// Sweeper removes files no row references any more and reports rows whose
// file is missing. Files younger than the grace period are left alone so a
// create whose row is not committed yet is never raced.
type Sweeper struct {
	manager *Manager
	refs    ReferenceLister
	grace   time.Duration
	dryRun  bool
	logger  *applog.Logger
	now     func() time.Time
}

func NewSweeper(m *Manager, refs ReferenceLister, grace time.Duration, dryRun bool, logger *applog.Logger) *Sweeper {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Sweeper{
		manager: m,
		refs:    refs,
		grace:   grace,
		dryRun:  dryRun,
		logger:  logger.WithComponent(applog.ComponentAttachment),
		now:     time.Now,
	}
}

// Name identifies the sweep in scheduler logs.
func (s *Sweeper) Name() string { return "attachment_sweep" }

// Run performs one pass over the attachment directory.
func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport

	referenced, err := s.refs.AttachmentReferences(ctx)
	if err != nil {
		return report, fmt.Errorf("list references: %w", err)
	}
	want := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		want[name] = struct{}{}
	}

	entries, err := os.ReadDir(s.manager.Dir())
	if err != nil {
		return report, fmt.Errorf("read attachment directory: %w", err)
	}

	present := make(map[string]struct{}, len(entries))
	cutoff := s.now().Add(-s.grace)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		present[name] = struct{}{}
		report.Scanned++

		if _, ok := want[name]; ok {
			report.Kept++
			continue
		}
		info, err := entry.Info()
		if err != nil {
			report.Errors++
			continue
		}
		if info.ModTime().After(cutoff) {
			report.Kept++
			continue
		}
		if s.dryRun {
			s.logger.InfoContext(ctx, "Orphaned attachment found (dry run)", applog.FieldFilename, name)
			report.Removed = append(report.Removed, name)
			continue
		}
		if err := os.Remove(filepath.Join(s.manager.Dir(), name)); err != nil {
			s.logger.WarnContext(ctx, "Could not remove orphaned attachment",
				applog.FieldFilename, name, applog.FieldError, err)
			report.Errors++
			continue
		}
		s.logger.InfoContext(ctx, "Removed orphaned attachment", applog.FieldFilename, name)
		report.Removed = append(report.Removed, name)
	}

	for _, name := range referenced {
		if _, ok := present[name]; !ok {
			report.Dangling = append(report.Dangling, name)
			s.logger.WarnContext(ctx, "Row references a missing attachment", applog.FieldFilename, name)
		}
	}

	s.logger.InfoContext(ctx, "Attachment sweep finished",
		applog.FieldOperation, applog.OpSweep,
		"scanned", report.Scanned,
		"removed", len(report.Removed),
		"dangling", len(report.Dangling),
		"errors", report.Errors,
		"dry_run", s.dryRun)
	return report, nil
}
