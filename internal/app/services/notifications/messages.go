// Package notifications implements the asynchronous status-transition
// pipeline: queue pollers, message dispatch and the two notification
// handlers that drive the application state machine.
package notifications

// DeadlineNotice announces that a scholarship's deadline has passed and the
// grading round should begin.
type DeadlineNotice struct {
	ScholarshipID int64   `json:"scholarship_id"`
	JuryIDs       []int64 `json:"jury_ids"`
	Spots         int     `json:"spots"`
	ClosedAt      string  `json:"closed_at"`
}

// GradingResultEntry is the grading outcome for a single application.
// Status carries the grading labels "Accepted" or "Declined".
type GradingResultEntry struct {
	ApplicationID int64   `json:"application_id"`
	Status        string  `json:"status"`
	Grade         float64 `json:"grade"`
	Reason        string  `json:"reason"`
}

// GradingResultNotice is the batch of grading outcomes for one round.
type GradingResultNotice struct {
	Applications []GradingResultEntry `json:"applications"`
}

// GradingBatchDocument is a document reference forwarded to the grading round.
type GradingBatchDocument struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
}

// GradingBatchApplication is one application as seen by the grading round.
// The internal status deliberately never appears here.
type GradingBatchApplication struct {
	ID            int64                  `json:"id"`
	UserID        string                 `json:"user_id"`
	ScholarshipID int64                  `json:"scholarship_id"`
	Name          string                 `json:"name"`
	CreatedAt     string                 `json:"created_at"`
	Documents     []GradingBatchDocument `json:"documents"`
}

// GradingBatch is the outbound message sent to the grading queue after a
// deadline notice is processed.
type GradingBatch struct {
	Applications  []GradingBatchApplication `json:"applications"`
	ScholarshipID int64                     `json:"scholarship_id"`
	JuryIDs       []int64                   `json:"jury_ids"`
	Spots         int                       `json:"spots"`
	ClosedAt      string                    `json:"closed_at"`
}
