package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
	"github.com/govpub/govpub/backend/go-services/pkg/metrics"
)

// RunReport summarises one pass of the scheduled publication runner.
type RunReport struct {
	Due       int      `json:"due"`
	Published []string `json:"published"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed"`
	Warnings  []string `json:"warnings,omitempty"`
}

// RunScheduledPublications publishes every scheduled edition that is due.
// Editions are handled one by one and a failure never stops the pass. Safe
// to run repeatedly or concurrently: an edition another run already published
// fails the state guard and is reported as skipped.
func (s *Service) RunScheduledPublications(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	defer func() { metrics.TaskDuration.WithLabelValues("scheduled-publications").Observe(time.Since(start).Seconds()) }()

	due, err := s.repo.ListDueScheduled(ctx, s.clock())
	if err != nil {
		return nil, fmt.Errorf("list due editions: %w", err)
	}
	report := &RunReport{Due: len(due), Published: []string{}, Skipped: []string{}, Failed: []string{}}
	for _, e := range due {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		res, err := s.publishOne(ctx, e.ID)
		switch {
		case err == nil:
			report.Published = append(report.Published, e.ID)
			report.Warnings = append(report.Warnings, res.Warnings...)
			metrics.ScheduledPublications.WithLabelValues("published").Inc()
		case isSkip(err):
			report.Skipped = append(report.Skipped, e.ID)
			metrics.ScheduledPublications.WithLabelValues("skipped").Inc()
			logger.Debugw("scheduled edition skipped", logger.Fields{"edition": e.ID, "error": err})
		default:
			report.Failed = append(report.Failed, e.ID)
			metrics.ScheduledPublications.WithLabelValues("failed").Inc()
			logger.Errorw("scheduled publication failed", logger.Fields{"edition": e.ID, "error": err})
		}
	}
	logger.Infow("scheduled publication run finished", logger.Fields{
		"due": report.Due, "published": len(report.Published), "skipped": len(report.Skipped), "failed": len(report.Failed),
	})
	return report, nil
}

func (s *Service) publishOne(ctx context.Context, editionID string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic publishing edition %s: %v", editionID, r)
		}
	}()
	return s.PublishScheduled(ctx, editionID)
}

// isSkip is true when the edition was no longer eligible by the time we got
// to it, typically because a concurrent run or an editor moved it first.
func isSkip(err error) bool {
	if _, ok := edition.AsGuardViolation(err); ok {
		return true
	}
	return errors.Is(err, edition.ErrConflict) || errors.Is(err, edition.ErrNotFound)
}
