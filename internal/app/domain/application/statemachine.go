package application

import "fmt"

// Grading outcome labels as emitted by the grading round.
const (
	OutcomeAccepted = "Accepted"
	OutcomeDeclined = "Declined"
)

// Event is a lifecycle event applied to an application status.
type Event interface {
	event()
}

// DeadlineReached is raised when the owning scholarship's deadline passes.
type DeadlineReached struct{}

func (DeadlineReached) event() {}

// GradingResult carries the outcome of the external grading round for one
// application.
type GradingResult struct {
	Outcome string
	Grade   float64
	Reason  string
}

func (GradingResult) event() {}

// Mutation describes the persistent side effects of a transition beyond the
// status column itself.
type Mutation struct {
	StatusChanged bool
	SetSelected   bool
	Selected      bool
	SetGrade      bool
	Grade         float64
	Reason        string
}

// Apply maps (current status, event) to the resulting status and mutation.
// It is pure: callers persist the outcome.
//
// The deadline transition only fires from Submitted. The upstream system
// moved every application of the scholarship regardless of state, which
// silently reverted terminal decisions; here terminal and already-evaluating
// applications are left untouched, which also makes redelivery a no-op.
//
// Grading results always overwrite status, grade, reason and the selected
// flag, so reprocessing the same result converges on the same row.
func Apply(current Status, ev Event) (Status, Mutation, error) {
	switch e := ev.(type) {
	case DeadlineReached:
		if current != StatusSubmitted {
			return current, Mutation{}, nil
		}
		return StatusUnderEvaluation, Mutation{StatusChanged: true}, nil

	case GradingResult:
		var next Status
		var selected bool
		switch e.Outcome {
		case OutcomeAccepted:
			next = StatusApproved
			selected = true
		case OutcomeDeclined:
			next = StatusRejected
			selected = false
		default:
			return current, Mutation{}, fmt.Errorf("unknown grading outcome %q", e.Outcome)
		}
		return next, Mutation{
			StatusChanged: true,
			SetSelected:   true,
			Selected:      selected,
			SetGrade:      true,
			Grade:         e.Grade,
			Reason:        e.Reason,
		}, nil

	default:
		return current, Mutation{}, fmt.Errorf("unsupported event %T", ev)
	}
}
