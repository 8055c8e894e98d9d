package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/metrics"
	"github.com/scholarport/application-service/internal/app/queue"
	"github.com/scholarport/application-service/internal/app/storage"
	"github.com/scholarport/application-service/pkg/logger"
)

// DeadlineHandler processes scholarship deadline notices: it moves every
// submitted application of the scholarship to Under Evaluation and forwards
// the whole batch to the grading queue.
type DeadlineHandler struct {
	store           storage.ApplicationStore
	client          queue.Client
	gradingQueueURL string
	log             *logger.Logger
}

// NewDeadlineHandler constructs the handler. gradingQueueURL is the outbound
// to-grading queue.
func NewDeadlineHandler(store storage.ApplicationStore, client queue.Client, gradingQueueURL string, log *logger.Logger) *DeadlineHandler {
	if log == nil {
		log = logger.NewDefault("deadline-handler")
	}
	return &DeadlineHandler{
		store:           store,
		client:          client,
		gradingQueueURL: gradingQueueURL,
		log:             log,
	}
}

// Handle runs one deadline cycle. The status writes happen in a single store
// transaction and the outbound send only after that commit; on any failure
// the whole cycle errors so the inbound message stays queued and the cycle
// reruns on redelivery. Rerunning is idempotent: applications already under
// evaluation transition no further and the batch payload is rebuilt from the
// same rows.
func (h *DeadlineHandler) Handle(ctx context.Context, notice DeadlineNotice) error {
	apps, err := h.store.ListApplicationsByScholarship(ctx, notice.ScholarshipID)
	if err != nil {
		return fmt.Errorf("list applications for scholarship %d: %w", notice.ScholarshipID, err)
	}

	var transition []int64
	for _, app := range apps {
		next, mut, err := application.Apply(app.Status, application.DeadlineReached{})
		if err != nil {
			return fmt.Errorf("apply deadline to application %d: %w", app.ID, err)
		}
		if mut.StatusChanged && next == application.StatusUnderEvaluation {
			transition = append(transition, app.ID)
		}
	}

	if len(transition) > 0 {
		if err := h.store.TransitionStatusBatch(ctx, transition, application.StatusUnderEvaluation); err != nil {
			return fmt.Errorf("transition scholarship %d batch: %w", notice.ScholarshipID, err)
		}
	}

	batch := buildGradingBatch(notice, apps)
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode grading batch: %w", err)
	}
	if err := h.client.Send(ctx, h.gradingQueueURL, string(body)); err != nil {
		return fmt.Errorf("send grading batch for scholarship %d: %w", notice.ScholarshipID, err)
	}
	metrics.RecordBatchSent()

	h.log.WithField("scholarship_id", notice.ScholarshipID).
		WithField("applications", len(apps)).
		WithField("transitioned", len(transition)).
		Info("deadline processed, batch sent to grading")
	return nil
}

// buildGradingBatch shapes the outbound message. Every application of the
// scholarship is included, an empty scholarship still yields an empty list,
// and the per-application status is never part of the payload.
func buildGradingBatch(notice DeadlineNotice, apps []application.Application) GradingBatch {
	batch := GradingBatch{
		Applications:  make([]GradingBatchApplication, 0, len(apps)),
		ScholarshipID: notice.ScholarshipID,
		JuryIDs:       notice.JuryIDs,
		Spots:         notice.Spots,
		ClosedAt:      notice.ClosedAt,
	}

	for _, app := range apps {
		out := GradingBatchApplication{
			ID:            app.ID,
			UserID:        app.UserID,
			ScholarshipID: app.ScholarshipID,
			Name:          app.Name,
			CreatedAt:     app.CreatedAt.UTC().Format(time.RFC3339),
			Documents:     make([]GradingBatchDocument, 0, len(app.Documents)),
		}
		for _, doc := range app.Documents {
			out.Documents = append(out.Documents, GradingBatchDocument{
				ID:       doc.ID,
				Name:     doc.Name,
				FilePath: doc.FilePath,
			})
		}
		batch.Applications = append(batch.Applications, out)
	}
	return batch
}
