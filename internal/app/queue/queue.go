// Package queue provides receive/delete/send access to the notification
// queues the service polls and publishes to.
package queue

import (
	"context"
	"time"
)

// Role identifies what a configured queue is used for. Handler routing keys
// off the role, never off the literal endpoint string.
type Role string

const (
	// RoleDeadline carries scholarship deadline notifications.
	RoleDeadline Role = "deadline"
	// RoleGradingResult carries grading outcomes from the grading round.
	RoleGradingResult Role = "grading-result"
	// RoleGrading is the outbound queue consumed by the grading round.
	RoleGrading Role = "grading"
)

// Message is a single received queue message. ReceiptHandle must be passed
// back to Delete to acknowledge it.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Client abstracts the queue provider. Semantics are at-least-once: a
// received message stays on the queue until deleted and is redelivered after
// the provider's visibility timeout.
type Client interface {
	Receive(ctx context.Context, queueURL string, maxMessages int64, wait time.Duration) ([]Message, error)
	Delete(ctx context.Context, queueURL, receiptHandle string) error
	Send(ctx context.Context, queueURL, body string) error
}
