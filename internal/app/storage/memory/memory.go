// Package memory provides an in-memory ApplicationStore. It is safe for
// concurrent use and is primarily intended for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/storage"
)

// Store is an in-memory implementation of storage.ApplicationStore.
type Store struct {
	mu           sync.RWMutex
	nextAppID    int64
	nextDocID    int64
	applications map[int64]application.Application
	documents    map[int64][]application.Document
}

var _ storage.ApplicationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextAppID:    1,
		nextDocID:    1,
		applications: make(map[int64]application.Application),
		documents:    make(map[int64][]application.Document),
	}
}

func (s *Store) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID == 0 {
		app.ID = s.nextAppID
		s.nextAppID++
	} else if _, exists := s.applications[app.ID]; exists {
		return application.Application{}, fmt.Errorf("application %d already exists", app.ID)
	} else if app.ID >= s.nextAppID {
		s.nextAppID = app.ID + 1
	}

	if app.Status == "" {
		app.Status = application.StatusSubmitted
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	app.Documents = nil

	s.applications[app.ID] = app
	return s.loadLocked(app.ID), nil
}

func (s *Store) CreateDocument(_ context.Context, doc application.Document) (application.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[doc.ApplicationID]; !ok {
		return application.Document{}, fmt.Errorf("application %d not found", doc.ApplicationID)
	}
	if doc.ID == 0 {
		doc.ID = s.nextDocID
		s.nextDocID++
	}
	s.documents[doc.ApplicationID] = append(s.documents[doc.ApplicationID], doc)
	return doc, nil
}

func (s *Store) GetApplication(_ context.Context, id int64) (application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.applications[id]; !ok {
		return application.Application{}, fmt.Errorf("application %d not found", id)
	}
	return s.loadLocked(id), nil
}

func (s *Store) ListApplicationsByUser(_ context.Context, userID string, offset, limit int) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, app := range s.applications {
		if app.UserID == userID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	result := make([]application.Application, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.loadLocked(id))
	}
	return result, nil
}

func (s *Store) ListApplicationsByScholarship(_ context.Context, scholarshipID int64) ([]application.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, app := range s.applications {
		if app.ScholarshipID == scholarshipID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]application.Application, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.loadLocked(id))
	}
	return result, nil
}

func (s *Store) UpdateStatus(_ context.Context, id int64, status application.Status, grade *float64, reason *string) (application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return application.Application{}, fmt.Errorf("application %d not found", id)
	}
	app.Status = status
	if grade != nil {
		g := *grade
		app.Grade = &g
	}
	if reason != nil {
		r := *reason
		app.Reason = &r
	}
	s.applications[id] = app
	return s.loadLocked(id), nil
}

func (s *Store) UpdateSelected(_ context.Context, id int64, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return fmt.Errorf("application %d not found", id)
	}
	app.Selected = selected
	s.applications[id] = app
	return nil
}

func (s *Store) TransitionStatusBatch(_ context.Context, ids []int64, status application.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before writing so the batch stays all-or-nothing.
	for _, id := range ids {
		if _, ok := s.applications[id]; !ok {
			return fmt.Errorf("application %d not found", id)
		}
	}
	for _, id := range ids {
		app := s.applications[id]
		app.Status = status
		s.applications[id] = app
	}
	return nil
}

func (s *Store) loadLocked(id int64) application.Application {
	app := s.applications[id]
	app.Grade = cloneFloat(app.Grade)
	app.Reason = cloneString(app.Reason)
	app.UserResponse = cloneString(app.UserResponse)
	app.Documents = append([]application.Document(nil), s.documents[id]...)
	return app
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
