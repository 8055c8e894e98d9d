// Package storage defines the persistence contracts consumed by the
// application services.
package storage

import (
	"context"

	"github.com/scholarport/application-service/internal/app/domain/application"
)

// ApplicationStore persists applications and their documents.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app application.Application) (application.Application, error)
	CreateDocument(ctx context.Context, doc application.Document) (application.Document, error)

	// GetApplication returns one application with its documents loaded.
	GetApplication(ctx context.Context, id int64) (application.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string, offset, limit int) ([]application.Application, error)
	// ListApplicationsByScholarship returns every application for the
	// scholarship with documents loaded, ordered by id.
	ListApplicationsByScholarship(ctx context.Context, scholarshipID int64) ([]application.Application, error)

	// UpdateStatus writes the status and, when non-nil, grade and reason.
	UpdateStatus(ctx context.Context, id int64, status application.Status, grade *float64, reason *string) (application.Application, error)
	UpdateSelected(ctx context.Context, id int64, selected bool) error

	// TransitionStatusBatch moves all given applications to status inside a
	// single transaction. Either every row is updated or none are.
	TransitionStatusBatch(ctx context.Context, ids []int64, status application.Status) error
}
