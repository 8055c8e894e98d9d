// Package system defines the lifecycle contract shared by the service's
// long-running components and the manager that drives them.
package system

import "context"

// Service represents a lifecycle-managed component. All background modules
// implement this interface so the manager can start and stop them
// deterministically.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
