// Package applications implements the submission-side operations: creating
// applications with their supporting documents and querying them.
package applications

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarport/application-service/internal/app/blob"
	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/storage"
	"github.com/scholarport/application-service/pkg/logger"
)

// Upload is one document file submitted alongside an application.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Service coordinates application submission and queries.
type Service struct {
	store storage.ApplicationStore
	blobs blob.Storage
	log   *logger.Logger
}

// New constructs the applications service.
func New(store storage.ApplicationStore, blobs blob.Storage, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	return &Service{store: store, blobs: blobs, log: log}
}

// Submit creates an application in the Submitted state and stores its
// documents. Document names are the uploaded filenames without extension.
func (s *Service) Submit(ctx context.Context, userID string, scholarshipID int64, name string, uploads []Upload) (application.Application, error) {
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if userID == "" {
		return application.Application{}, fmt.Errorf("user_id is required")
	}
	if scholarshipID == 0 {
		return application.Application{}, fmt.Errorf("scholarship_id is required")
	}
	if name == "" {
		return application.Application{}, fmt.Errorf("name is required")
	}

	app, err := s.store.CreateApplication(ctx, application.Application{
		UserID:        userID,
		ScholarshipID: scholarshipID,
		Name:          name,
		Status:        application.StatusSubmitted,
	})
	if err != nil {
		return application.Application{}, err
	}

	for _, upload := range uploads {
		if err := s.attachDocument(ctx, app.ID, upload); err != nil {
			return application.Application{}, fmt.Errorf("attach document %q: %w", upload.Filename, err)
		}
	}

	s.log.WithField("application_id", app.ID).
		WithField("scholarship_id", scholarshipID).
		WithField("documents", len(uploads)).
		Info("application submitted")

	return s.store.GetApplication(ctx, app.ID)
}

func (s *Service) attachDocument(ctx context.Context, appID int64, upload Upload) error {
	if s.blobs == nil {
		return fmt.Errorf("document storage not configured")
	}

	key := fmt.Sprintf("%d/%s%s", appID, uuid.NewString(), path.Ext(upload.Filename))
	location, err := s.blobs.Save(ctx, key, upload.Content, upload.ContentType)
	if err != nil {
		return err
	}

	_, err = s.store.CreateDocument(ctx, application.Document{
		ApplicationID: appID,
		Name:          documentName(upload.Filename),
		FilePath:      location,
	})
	return err
}

// Get fetches one application with its documents.
func (s *Service) Get(ctx context.Context, id int64) (application.Application, error) {
	return s.store.GetApplication(ctx, id)
}

// ListByUser lists a user's applications with offset/limit paging.
func (s *Service) ListByUser(ctx context.Context, userID string, offset, limit int) ([]application.Application, error) {
	return s.store.ListApplicationsByUser(ctx, userID, offset, limit)
}

// UpdateStatus is the manual status override used by operators.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status application.Status) (application.Application, error) {
	if !status.Valid() {
		return application.Application{}, fmt.Errorf("invalid status %q", status)
	}
	app, err := s.store.UpdateStatus(ctx, id, status, nil, nil)
	if err != nil {
		return application.Application{}, err
	}
	s.log.WithField("application_id", id).
		WithField("status", string(status)).
		Info("application status updated")
	return app, nil
}

// DocumentURL returns a time-limited retrieval URL for a stored document.
func (s *Service) DocumentURL(ctx context.Context, doc application.Document, expiry time.Duration) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("document storage not configured")
	}
	return s.blobs.SignedURL(ctx, doc.FilePath, expiry)
}

// documentName strips the extension from an uploaded filename.
func documentName(filename string) string {
	base := path.Base(filename)
	return strings.TrimSuffix(base, path.Ext(base))
}
