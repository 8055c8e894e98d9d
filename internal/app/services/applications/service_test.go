package applications

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scholarport/application-service/internal/app/domain/application"
	"github.com/scholarport/application-service/internal/app/storage/memory"
)

type fakeBlobs struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{saved: make(map[string][]byte)}
}

func (f *fakeBlobs) Save(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[key] = data
	return "blobs/" + key, nil
}

func (f *fakeBlobs) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://files.test/%s?sig=abc", key), nil
}

func TestService_Submit(t *testing.T) {
	store := memory.New()
	blobs := newFakeBlobs()
	svc := New(store, blobs, nil)

	app, err := svc.Submit(context.Background(), "user-a", 42, "Alice", []Upload{
		{Filename: "transcript.pdf", ContentType: "application/pdf", Content: bytes.NewReader([]byte("pdf bytes"))},
		{Filename: "essay.final.docx", Content: bytes.NewReader([]byte("essay"))},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if app.Status != application.StatusSubmitted {
		t.Fatalf("status = %q, want %q", app.Status, application.StatusSubmitted)
	}
	if len(app.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(app.Documents))
	}
	if app.Documents[0].Name != "transcript" {
		t.Fatalf("extension not stripped: %q", app.Documents[0].Name)
	}
	if app.Documents[1].Name != "essay.final" {
		t.Fatalf("only the last extension is stripped: %q", app.Documents[1].Name)
	}
	for _, doc := range app.Documents {
		if !strings.HasPrefix(doc.FilePath, "blobs/") {
			t.Fatalf("document location not taken from blob storage: %q", doc.FilePath)
		}
	}
	if len(blobs.saved) != 2 {
		t.Fatalf("files not stored: %d", len(blobs.saved))
	}
}

func TestService_SubmitValidation(t *testing.T) {
	svc := New(memory.New(), newFakeBlobs(), nil)

	cases := []struct {
		name          string
		userID        string
		scholarshipID int64
		appName       string
	}{
		{"missing user", "", 42, "Alice"},
		{"missing scholarship", "user-a", 0, "Alice"},
		{"missing name", "user-a", 42, "  "},
	}
	for _, tc := range cases {
		if _, err := svc.Submit(context.Background(), tc.userID, tc.scholarshipID, tc.appName, nil); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestService_ListAndGet(t *testing.T) {
	store := memory.New()
	svc := New(store, newFakeBlobs(), nil)

	submitted, err := svc.Submit(context.Background(), "user-a", 42, "Alice", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), "user-b", 42, "Bob", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	mine, err := svc.ListByUser(context.Background(), "user-a", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != submitted.ID {
		t.Fatalf("list by user wrong: %#v", mine)
	}

	got, err := svc.Get(context.Background(), submitted.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("get returned wrong application: %#v", got)
	}
}

func TestService_UpdateStatus(t *testing.T) {
	store := memory.New()
	svc := New(store, newFakeBlobs(), nil)

	app, err := svc.Submit(context.Background(), "user-a", 42, "Alice", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), app.ID, application.StatusUnderEvaluation)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != application.StatusUnderEvaluation {
		t.Fatalf("status = %q", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), app.ID, application.Status("Lost")); err == nil {
		t.Fatalf("expected error for invalid status")
	}
}

func TestService_DocumentURL(t *testing.T) {
	svc := New(memory.New(), newFakeBlobs(), nil)

	url, err := svc.DocumentURL(context.Background(), application.Document{FilePath: "42/key.pdf"}, time.Minute)
	if err != nil {
		t.Fatalf("document url: %v", err)
	}
	if !strings.Contains(url, "42/key.pdf") {
		t.Fatalf("unexpected url %q", url)
	}
}
