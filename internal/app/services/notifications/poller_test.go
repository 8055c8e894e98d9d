package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/queue"
	"github.com/scholarport/application-service/internal/app/storage/memory"
)

const deadlineURL = "https://queue.test/deadline"

func TestPoller_DeletesOnSuccess(t *testing.T) {
	store := memory.New()
	client := queue.NewMemoryClient(time.Minute)
	a := seedApplication(t, store, "user-a", 42, "Alice")

	if err := client.Send(context.Background(), deadlineURL, `{"scholarship_id":42}`); err != nil {
		t.Fatalf("send: %v", err)
	}

	p := NewPoller(queue.RoleDeadline, deadlineURL, client, newTestDispatcher(store, client), PollerConfig{}, nil)
	p.cycle(context.Background())

	if n := client.Len(deadlineURL); n != 0 {
		t.Fatalf("message not deleted after successful dispatch, %d left", n)
	}
	got, _ := store.GetApplication(context.Background(), a.ID)
	if got.Status != application.StatusUnderEvaluation {
		t.Fatalf("message not processed: %q", got.Status)
	}
}

func TestPoller_KeepsMessageOnFailure(t *testing.T) {
	store := memory.New()
	client := queue.NewMemoryClient(time.Minute)

	if err := client.Send(context.Background(), deadlineURL, `garbage`); err != nil {
		t.Fatalf("send: %v", err)
	}

	p := NewPoller(queue.RoleDeadline, deadlineURL, client, newTestDispatcher(store, client), PollerConfig{}, nil)
	p.cycle(context.Background())

	if n := client.Len(deadlineURL); n != 1 {
		t.Fatalf("failed message must stay on the queue, %d left", n)
	}
}

type countingClient struct {
	queue.Client
	inFlight atomic.Int64
	peak     atomic.Int64
	release  chan struct{}
}

func (c *countingClient) Receive(ctx context.Context, queueURL string, max int64, wait time.Duration) ([]queue.Message, error) {
	cur := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if cur <= peak || c.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	<-c.release
	return nil, nil
}

func TestPoller_BoundsInFlightCycles(t *testing.T) {
	client := &countingClient{Client: queue.NewMemoryClient(0), release: make(chan struct{})}
	p := NewPoller(queue.RoleDeadline, deadlineURL, client, newTestDispatcher(memory.New(), client), PollerConfig{
		Interval:    time.Millisecond,
		MaxInFlight: 3,
	}, nil)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Let ticks pile up against the blocked receive.
	time.Sleep(50 * time.Millisecond)
	close(client.release)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if peak := client.peak.Load(); peak > 3 {
		t.Fatalf("in-flight cycles exceeded ceiling: %d", peak)
	}
}

func TestPoller_StartStop(t *testing.T) {
	client := queue.NewMemoryClient(0)
	p := NewPoller(queue.RoleDeadline, deadlineURL, client, newTestDispatcher(memory.New(), client), PollerConfig{
		Interval: 5 * time.Millisecond,
		Wait:     time.Millisecond,
	}, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("second start must be a no-op: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}
}
