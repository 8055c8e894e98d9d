package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/scholarport/application-service/internal/app/metrics"
	"github.com/scholarport/application-service/internal/app/queue"
	"github.com/scholarport/application-service/internal/app/system"
	"github.com/scholarport/application-service/pkg/logger"
)

var _ system.Service = (*Poller)(nil)

// PollerConfig tunes a single queue poller.
type PollerConfig struct {
	// Interval between receive attempts.
	Interval time.Duration
	// Wait is the long-poll window passed to the provider.
	Wait time.Duration
	// MaxInFlight caps concurrently running receive+process cycles.
	MaxInFlight int
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = 2 * time.Second
	}
	if c.Wait <= 0 {
		c.Wait = 5 * time.Second
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 10
	}
	return c
}

// Poller repeatedly receives from one queue and hands messages to the
// dispatcher. Successfully dispatched messages are deleted; failed ones are
// left for the provider's redelivery, no retry logic lives here.
type Poller struct {
	role       queue.Role
	queueURL   string
	client     queue.Client
	dispatcher *Dispatcher
	cfg        PollerConfig
	log        *logger.Logger

	sem chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewPoller constructs a lifecycle-managed poller for one queue.
func NewPoller(role queue.Role, queueURL string, client queue.Client, dispatcher *Dispatcher, cfg PollerConfig, log *logger.Logger) *Poller {
	if log == nil {
		log = logger.NewDefault("queue-poller")
	}
	cfg = cfg.withDefaults()
	return &Poller{
		role:       role,
		queueURL:   queueURL,
		client:     client,
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.WithField("queue", string(role)),
		sem:        make(chan struct{}, cfg.MaxInFlight),
	}
}

func (p *Poller) Name() string { return "queue-poller-" + string(p.role) }

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				p.spawnCycle(runCtx)
			}
		}
	}()

	p.log.WithField("interval", p.cfg.Interval.String()).
		WithField("max_in_flight", p.cfg.MaxInFlight).
		Info("queue poller started")
	return nil
}

func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.log.Info("queue poller stopped")
	return nil
}

// spawnCycle runs one receive+process cycle unless the in-flight ceiling is
// already reached, in which case the tick is skipped.
func (p *Poller) spawnCycle(ctx context.Context) {
	select {
	case p.sem <- struct{}{}:
	default:
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		p.cycle(ctx)
	}()
}

func (p *Poller) cycle(ctx context.Context) {
	msgs, err := p.client.Receive(ctx, p.queueURL, 1, p.cfg.Wait)
	metrics.RecordPoll(string(p.role), len(msgs) > 0, err)
	if err != nil {
		if ctx.Err() == nil {
			p.log.WithError(err).Warn("queue receive failed")
		}
		return
	}

	for _, msg := range msgs {
		start := time.Now()
		err := p.dispatcher.Dispatch(ctx, p.role, msg.Body)
		metrics.RecordDispatch(string(p.role), time.Since(start), err == nil)
		if err != nil {
			// Leave the message for the provider's redelivery.
			p.log.WithError(err).
				WithField("message_id", msg.ID).
				Warn("dispatch failed, message left on queue")
			continue
		}
		if err := p.client.Delete(ctx, p.queueURL, msg.ReceiptHandle); err != nil {
			p.log.WithError(err).
				WithField("message_id", msg.ID).
				Warn("delete after dispatch failed")
		}
	}
}
