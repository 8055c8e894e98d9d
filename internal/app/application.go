// Package app ties the domain services together and manages their
// lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/scholarport/application-service/internal/app/blob"
	"github.com/scholarport/application-service/internal/app/queue"
	applicationssvc "github.com/scholarport/application-service/internal/app/services/applications"
	"github.com/scholarport/application-service/internal/app/services/notifications"
	"github.com/scholarport/application-service/internal/app/storage"
	"github.com/scholarport/application-service/internal/app/storage/memory"
	"github.com/scholarport/application-service/internal/app/system"
	"github.com/scholarport/application-service/pkg/logger"
)

// QueueEndpoints names the three queues the pipeline talks to.
type QueueEndpoints struct {
	DeadlineURL      string
	GradingResultURL string
	GradingURL       string
}

// PollerSettings tunes all queue pollers.
type PollerSettings struct {
	Interval    time.Duration
	Wait        time.Duration
	MaxInFlight int
}

// Dependencies carries the collaborators the application wires together.
// A nil Store defaults to the in-memory implementation; a nil Queue
// defaults to an in-memory queue set.
type Dependencies struct {
	Store  storage.ApplicationStore
	Queue  queue.Client
	Blobs  blob.Storage
	Queues QueueEndpoints
	Poller PollerSettings
}

// Application owns the services and their lifecycle manager.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Applications *applicationssvc.Service
	Dispatcher   *notifications.Dispatcher
}

// New builds a fully initialised application.
func New(deps Dependencies, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if deps.Store == nil {
		deps.Store = memory.New()
	}
	if deps.Queue == nil {
		log.Warn("no queue client configured; using in-memory queues")
		deps.Queue = queue.NewMemoryClient(0)
	}

	manager := system.NewManager()

	appsService := applicationssvc.New(deps.Store, deps.Blobs, log)

	deadline := notifications.NewDeadlineHandler(deps.Store, deps.Queue, deps.Queues.GradingURL, log)
	grading := notifications.NewGradingResultHandler(deps.Store, log)
	dispatcher := notifications.NewDispatcher(deadline, grading, log)

	pollerCfg := notifications.PollerConfig{
		Interval:    deps.Poller.Interval,
		Wait:        deps.Poller.Wait,
		MaxInFlight: deps.Poller.MaxInFlight,
	}
	pollers := []system.Service{
		notifications.NewPoller(queue.RoleDeadline, deps.Queues.DeadlineURL, deps.Queue, dispatcher, pollerCfg, log),
		notifications.NewPoller(queue.RoleGradingResult, deps.Queues.GradingResultURL, deps.Queue, dispatcher, pollerCfg, log),
	}
	for _, svc := range pollers {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:      manager,
		log:          log,
		Applications: appsService,
		Dispatcher:   dispatcher,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
