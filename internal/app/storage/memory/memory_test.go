package memory

import (
	"context"
	"testing"

	"github.com/scholarport/application-service/internal/app/domain/application"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, err := store.CreateApplication(ctx, application.Application{
		UserID:        "user-a",
		ScholarshipID: 42,
		Name:          "Alice",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if app.ID == 0 {
		t.Fatalf("id not assigned")
	}
	if app.Status != application.StatusSubmitted {
		t.Fatalf("default status = %q", app.Status)
	}
	if app.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	doc, err := store.CreateDocument(ctx, application.Document{
		ApplicationID: app.ID,
		Name:          "transcript",
		FilePath:      "files/transcript.pdf",
	})
	if err != nil {
		t.Fatalf("create document: %v", err)
	}
	if doc.ID == 0 {
		t.Fatalf("document id not assigned")
	}

	got, err := store.GetApplication(ctx, app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Documents) != 1 || got.Documents[0].Name != "transcript" {
		t.Fatalf("documents not loaded: %#v", got.Documents)
	}
}

func TestStore_CreateDocumentRequiresApplication(t *testing.T) {
	store := New()
	if _, err := store.CreateDocument(context.Background(), application.Document{ApplicationID: 5}); err == nil {
		t.Fatalf("expected error for missing application")
	}
}

func TestStore_ListByScholarshipOrdered(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 42, Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if _, err := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 7, Name: "Dave"}); err != nil {
		t.Fatalf("create other scholarship: %v", err)
	}

	apps, err := store.ListApplicationsByScholarship(ctx, 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("expected 3 applications, got %d", len(apps))
	}
	for i := 1; i < len(apps); i++ {
		if apps[i].ID <= apps[i-1].ID {
			t.Fatalf("not ordered by id: %v", apps)
		}
	}
}

func TestStore_ListByUserPaging(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.CreateApplication(ctx, application.Application{UserID: "user-a", ScholarshipID: 1, Name: "App"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	page, err := store.ListApplicationsByUser(ctx, "user-a", 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}

	tail, err := store.ListApplicationsByUser(ctx, "user-a", 4, 10)
	if err != nil {
		t.Fatalf("list tail: %v", err)
	}
	if len(tail) != 1 {
		t.Fatalf("expected tail of 1, got %d", len(tail))
	}
}

func TestStore_UpdateStatusAndSelected(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, _ := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 1, Name: "App"})

	grade := 8.5
	reason := "strong essay"
	updated, err := store.UpdateStatus(ctx, app.ID, application.StatusApproved, &grade, &reason)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != application.StatusApproved || *updated.Grade != 8.5 || *updated.Reason != "strong essay" {
		t.Fatalf("update not applied: %#v", updated)
	}

	// Nil grade/reason leave existing values in place.
	updated, err = store.UpdateStatus(ctx, app.ID, application.StatusRejected, nil, nil)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Grade == nil || *updated.Grade != 8.5 {
		t.Fatalf("nil grade overwrote existing value: %v", updated.Grade)
	}

	if err := store.UpdateSelected(ctx, app.ID, true); err != nil {
		t.Fatalf("update selected: %v", err)
	}
	got, _ := store.GetApplication(ctx, app.ID)
	if !got.Selected {
		t.Fatalf("selected not persisted")
	}
}

func TestStore_TransitionStatusBatchAllOrNothing(t *testing.T) {
	store := New()
	ctx := context.Background()

	a, _ := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 1, Name: "A"})
	b, _ := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 1, Name: "B"})

	err := store.TransitionStatusBatch(ctx, []int64{a.ID, 9999, b.ID}, application.StatusUnderEvaluation)
	if err == nil {
		t.Fatalf("expected error for unknown id")
	}

	got, _ := store.GetApplication(ctx, a.ID)
	if got.Status != application.StatusSubmitted {
		t.Fatalf("partial batch applied: %q", got.Status)
	}

	if err := store.TransitionStatusBatch(ctx, []int64{a.ID, b.ID}, application.StatusUnderEvaluation); err != nil {
		t.Fatalf("batch: %v", err)
	}
	for _, id := range []int64{a.ID, b.ID} {
		got, _ := store.GetApplication(ctx, id)
		if got.Status != application.StatusUnderEvaluation {
			t.Fatalf("application %d not transitioned", id)
		}
	}
}

func TestStore_ReturnsClones(t *testing.T) {
	store := New()
	ctx := context.Background()

	app, _ := store.CreateApplication(ctx, application.Application{UserID: "u", ScholarshipID: 1, Name: "A"})
	grade := 5.0
	if _, err := store.UpdateStatus(ctx, app.ID, application.StatusApproved, &grade, nil); err != nil {
		t.Fatalf("update: %v", err)
	}

	first, _ := store.GetApplication(ctx, app.ID)
	*first.Grade = 99

	second, _ := store.GetApplication(ctx, app.ID)
	if *second.Grade != 5.0 {
		t.Fatalf("store leaked internal state: %v", *second.Grade)
	}
}
