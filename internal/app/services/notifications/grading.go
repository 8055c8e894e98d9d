package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/metrics"
	"github.com/scholarport/application-service/internal/app/storage"
	"github.com/scholarport/application-service/pkg/logger"
)

// GradingResultHandler applies grading outcomes to applications. Entries are
// independent facts, so one failing entry never blocks the rest; failures
// are collected and returned joined.
type GradingResultHandler struct {
	store storage.ApplicationStore
	log   *logger.Logger
}

// NewGradingResultHandler constructs the handler.
func NewGradingResultHandler(store storage.ApplicationStore, log *logger.Logger) *GradingResultHandler {
	if log == nil {
		log = logger.NewDefault("grading-handler")
	}
	return &GradingResultHandler{store: store, log: log}
}

// Handle processes every entry of the notice, continuing past failures.
// A non-nil return leaves the inbound message queued; reprocessing rewrites
// the same status, grade, reason and selected values.
func (h *GradingResultHandler) Handle(ctx context.Context, notice GradingResultNotice) error {
	var errs []error
	for _, entry := range notice.Applications {
		if err := h.processEntry(ctx, entry); err != nil {
			h.log.WithError(err).
				WithField("application_id", entry.ApplicationID).
				Warn("grading result entry failed")
			metrics.RecordGradingResult(entry.Status, false)
			errs = append(errs, fmt.Errorf("application %d: %w", entry.ApplicationID, err))
			continue
		}
		metrics.RecordGradingResult(entry.Status, true)
	}
	return errors.Join(errs...)
}

func (h *GradingResultHandler) processEntry(ctx context.Context, entry GradingResultEntry) error {
	app, err := h.store.GetApplication(ctx, entry.ApplicationID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}

	next, mut, err := application.Apply(app.Status, application.GradingResult{
		Outcome: entry.Status,
		Grade:   entry.Grade,
		Reason:  entry.Reason,
	})
	if err != nil {
		return err
	}

	grade := mut.Grade
	reason := mut.Reason
	if _, err := h.store.UpdateStatus(ctx, app.ID, next, &grade, &reason); err != nil {
		return fmt.Errorf("persist status: %w", err)
	}
	if err := h.store.UpdateSelected(ctx, app.ID, mut.Selected); err != nil {
		return fmt.Errorf("persist selected flag: %w", err)
	}

	h.log.WithField("application_id", app.ID).
		WithField("status", string(next)).
		WithField("selected", mut.Selected).
		WithField("grade", mut.Grade).
		Info("grading result applied")
	return nil
}
