package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/scholarport/application-service/internal/app/queue"
	"github.com/scholarport/application-service/pkg/logger"
)

// ErrUnknownQueue reports a dispatch for a queue role with no registered
// handler. Reaching it means the poller set and the dispatcher disagree.
var ErrUnknownQueue = errors.New("unknown queue role")

// MalformedPayloadError reports a message body that does not decode into the
// schema expected for its queue role.
type MalformedPayloadError struct {
	Role queue.Role
	Err  error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload on %s queue: %v", e.Role, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

// Dispatcher routes a raw message body to the handler registered for the
// queue role it arrived on. The role, not the message content, determines
// the decoding schema: the two notification shapes are not self-describing.
type Dispatcher struct {
	deadline *DeadlineHandler
	grading  *GradingResultHandler
	log      *logger.Logger
}

// NewDispatcher wires the two notification handlers.
func NewDispatcher(deadline *DeadlineHandler, grading *GradingResultHandler, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NewDefault("notification-dispatcher")
	}
	return &Dispatcher{deadline: deadline, grading: grading, log: log}
}

// Dispatch decodes body per the role's schema and invokes the matching
// handler.
func (d *Dispatcher) Dispatch(ctx context.Context, role queue.Role, body string) error {
	switch role {
	case queue.RoleDeadline:
		var notice DeadlineNotice
		if err := json.Unmarshal([]byte(body), &notice); err != nil {
			return &MalformedPayloadError{Role: role, Err: err}
		}
		if notice.ScholarshipID == 0 {
			return &MalformedPayloadError{Role: role, Err: errors.New("scholarship_id is required")}
		}
		return d.deadline.Handle(ctx, notice)

	case queue.RoleGradingResult:
		var notice GradingResultNotice
		if err := json.Unmarshal([]byte(body), &notice); err != nil {
			return &MalformedPayloadError{Role: role, Err: err}
		}
		return d.grading.Handle(ctx, notice)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownQueue, role)
	}
}
