// Package application holds the scholarship application entities and the
// pure status state machine driven by the notification pipeline.
package application

import "time"

// Status is the lifecycle state of an application. The string values are the
// canonical labels shared with the grading system and the database.
type Status string

const (
	StatusSubmitted       Status = "Submitted"
	StatusUnderEvaluation Status = "Under Evaluation"
	StatusApproved        Status = "Approved"
	StatusRejected        Status = "Rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusUnderEvaluation, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is a scholarship application submitted by a user.
type Application struct {
	ID            int64
	UserID        string
	ScholarshipID int64
	Name          string
	CreatedAt     time.Time
	Status        Status
	Grade         *float64
	Reason        *string
	UserResponse  *string
	Selected      bool
	Documents     []Document
}

// Document is a supporting file attached to an application. Name is the
// uploaded filename with its extension stripped.
type Document struct {
	ID            int64
	ApplicationID int64
	Name          string
	FilePath      string
}
