package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryClient is an in-process Client with SQS-like visibility semantics:
// a received message becomes invisible until its visibility timeout lapses
// or it is deleted. Intended for tests and local development.
type MemoryClient struct {
	mu         sync.Mutex
	nextID     int64
	queues     map[string][]*memoryMessage
	visibility time.Duration
}

type memoryMessage struct {
	id           string
	body         string
	receipt      string
	invisibleTil time.Time
}

var _ Client = (*MemoryClient)(nil)

// NewMemoryClient creates an empty in-memory queue set.
func NewMemoryClient(visibility time.Duration) *MemoryClient {
	if visibility <= 0 {
		visibility = 30 * time.Second
	}
	return &MemoryClient{
		nextID:     1,
		queues:     make(map[string][]*memoryMessage),
		visibility: visibility,
	}
}

func (c *MemoryClient) Receive(ctx context.Context, queueURL string, maxMessages int64, _ time.Duration) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var out []Message
	for _, m := range c.queues[queueURL] {
		if int64(len(out)) >= maxMessages {
			break
		}
		if m.invisibleTil.After(now) {
			continue
		}
		m.invisibleTil = now.Add(c.visibility)
		m.receipt = fmt.Sprintf("%s-r%d", m.id, c.nextID)
		c.nextID++
		out = append(out, Message{ID: m.id, Body: m.body, ReceiptHandle: m.receipt})
	}
	return out, nil
}

func (c *MemoryClient) Delete(_ context.Context, queueURL, receiptHandle string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := c.queues[queueURL]
	for i, m := range msgs {
		if m.receipt == receiptHandle {
			c.queues[queueURL] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("receipt %q not found on %s", receiptHandle, queueURL)
}

func (c *MemoryClient) Send(_ context.Context, queueURL, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := fmt.Sprintf("m%d", c.nextID)
	c.nextID++
	c.queues[queueURL] = append(c.queues[queueURL], &memoryMessage{id: id, body: body})
	return nil
}

// Len reports how many messages sit on the queue, visible or not.
func (c *MemoryClient) Len(queueURL string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[queueURL])
}

// Peek returns the bodies currently on the queue in order.
func (c *MemoryClient) Peek(queueURL string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	bodies := make([]string, 0, len(c.queues[queueURL]))
	for _, m := range c.queues[queueURL] {
		bodies = append(bodies, m.body)
	}
	return bodies
}
