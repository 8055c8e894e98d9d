package notifications

import (
	"context"
	"testing"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/storage/memory"
)

func underEvaluation(t *testing.T, store *memory.Store, userID string, scholarshipID int64, name string) application.Application {
	t.Helper()
	app := seedApplication(t, store, userID, scholarshipID, name)
	got, err := store.UpdateStatus(context.Background(), app.ID, application.StatusUnderEvaluation, nil, nil)
	if err != nil {
		t.Fatalf("move to under evaluation: %v", err)
	}
	return got
}

func TestGradingResultHandler_Accepted(t *testing.T) {
	store := memory.New()
	a := underEvaluation(t, store, "user-a", 42, "Alice")

	handler := NewGradingResultHandler(store, nil)
	err := handler.Handle(context.Background(), GradingResultNotice{Applications: []GradingResultEntry{
		{ApplicationID: a.ID, Status: "Accepted", Grade: 9.5, Reason: "top candidate"},
	}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := store.GetApplication(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if got.Status != application.StatusApproved {
		t.Fatalf("status = %q, want %q", got.Status, application.StatusApproved)
	}
	if !got.Selected {
		t.Fatalf("accepted application must be selected")
	}
	if got.Grade == nil || *got.Grade != 9.5 {
		t.Fatalf("grade not persisted: %v", got.Grade)
	}
	if got.Reason == nil || *got.Reason != "top candidate" {
		t.Fatalf("reason not persisted: %v", got.Reason)
	}
}

func TestGradingResultHandler_Declined(t *testing.T) {
	store := memory.New()
	a := underEvaluation(t, store, "user-a", 42, "Alice")

	handler := NewGradingResultHandler(store, nil)
	err := handler.Handle(context.Background(), GradingResultNotice{Applications: []GradingResultEntry{
		{ApplicationID: a.ID, Status: "Declined", Grade: 4.2, Reason: "incomplete documents"},
	}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, _ := store.GetApplication(context.Background(), a.ID)
	if got.Status != application.StatusRejected {
		t.Fatalf("status = %q, want %q", got.Status, application.StatusRejected)
	}
	if got.Selected {
		t.Fatalf("declined application must not be selected")
	}
}

func TestGradingResultHandler_FailureIsolation(t *testing.T) {
	store := memory.New()
	a := underEvaluation(t, store, "user-a", 42, "Alice")
	b := underEvaluation(t, store, "user-b", 42, "Bob")

	handler := NewGradingResultHandler(store, nil)
	err := handler.Handle(context.Background(), GradingResultNotice{Applications: []GradingResultEntry{
		{ApplicationID: 9999, Status: "Accepted", Grade: 8, Reason: "missing row"},
		{ApplicationID: a.ID, Status: "Unknown", Grade: 8, Reason: "bad label"},
		{ApplicationID: b.ID, Status: "Accepted", Grade: 7.5, Reason: "good"},
	}})
	if err == nil {
		t.Fatalf("expected joined error for failed entries")
	}

	got, _ := store.GetApplication(context.Background(), b.ID)
	if got.Status != application.StatusApproved {
		t.Fatalf("later entry not processed after earlier failures: %q", got.Status)
	}
}

func TestGradingResultHandler_Idempotent(t *testing.T) {
	store := memory.New()
	a := underEvaluation(t, store, "user-a", 42, "Alice")

	handler := NewGradingResultHandler(store, nil)
	notice := GradingResultNotice{Applications: []GradingResultEntry{
		{ApplicationID: a.ID, Status: "Accepted", Grade: 9.5, Reason: "top candidate"},
	}}
	if err := handler.Handle(context.Background(), notice); err != nil {
		t.Fatalf("first handle: %v", err)
	}
	first, _ := store.GetApplication(context.Background(), a.ID)

	if err := handler.Handle(context.Background(), notice); err != nil {
		t.Fatalf("second handle: %v", err)
	}
	second, _ := store.GetApplication(context.Background(), a.ID)

	if first.Status != second.Status || first.Selected != second.Selected ||
		*first.Grade != *second.Grade || *first.Reason != *second.Reason {
		t.Fatalf("redelivery diverged: %#v vs %#v", first, second)
	}
}
