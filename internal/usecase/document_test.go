package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/repository"
)

type fakeDocumentRepo struct {
	docs      []*domain.ScheduleDocument
	lastInput repository.ListDocumentsInput
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error) {
	created := *doc
	created.ID = fmt.Sprintf("doc-%d", len(f.docs))
	created.CreatedAt = time.Now()
	f.docs = append(f.docs, &created)
	return &created, nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id, ownerID string) (*domain.ScheduleDocument, error) {
	for _, d := range f.docs {
		if d.ID == id && d.OwnerID == ownerID {
			return d, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) List(_ context.Context, input repository.ListDocumentsInput) ([]*domain.ScheduleDocument, error) {
	f.lastInput = input
	out := f.docs
	if len(out) > input.Limit {
		out = out[:input.Limit]
	}
	return out, nil
}

func (f *fakeDocumentRepo) Update(_ context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error) {
	for i, d := range f.docs {
		if d.ID == doc.ID {
			f.docs[i] = doc
			return doc, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) Delete(_ context.Context, id, _ string) error {
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrDocumentNotFound
}

func (f *fakeDocumentRepo) ClaimDueReminders(context.Context, int, func(*domain.ScheduleDocument) time.Time) ([]*domain.ScheduleDocument, error) {
	return nil, nil
}

func seedDocs(repo *fakeDocumentRepo, n int) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		repo.docs = append(repo.docs, &domain.ScheduleDocument{
			ID:        fmt.Sprintf("doc-%d", i),
			OwnerID:   "alice",
			Name:      fmt.Sprintf("Routine %d", i),
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		})
	}
}

func TestCreateDocument_ValidReminderCron(t *testing.T) {
	repo := &fakeDocumentRepo{}
	uc := NewDocumentUsecase(repo)

	cron := "0 9 * * 1"
	to := "alice@example.com"
	doc, err := uc.CreateDocument(context.Background(), SaveDocumentInput{
		OwnerID:      "alice",
		Name:         "Morning",
		ReminderCron: &cron,
		ReminderTo:   &to,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.NextRemindAt == nil {
		t.Fatal("expected next_remind_at to be computed")
	}
	if !doc.NextRemindAt.After(time.Now()) {
		t.Fatalf("next_remind_at = %s, want future", doc.NextRemindAt)
	}
	if doc.Items == nil {
		t.Fatal("nil items must be normalized to an empty slice")
	}
}

func TestCreateDocument_InvalidReminderCron(t *testing.T) {
	repo := &fakeDocumentRepo{}
	uc := NewDocumentUsecase(repo)

	cron := "not a cron"
	_, err := uc.CreateDocument(context.Background(), SaveDocumentInput{
		OwnerID:      "alice",
		Name:         "Morning",
		ReminderCron: &cron,
	})
	if !errors.Is(err, domain.ErrInvalidReminderCron) {
		t.Fatalf("err = %v, want ErrInvalidReminderCron", err)
	}
	if len(repo.docs) != 0 {
		t.Fatal("nothing should be persisted")
	}
}

func TestListDocuments_LimitClamped(t *testing.T) {
	repo := &fakeDocumentRepo{}
	uc := NewDocumentUsecase(repo)

	if _, err := uc.ListDocuments(context.Background(), ListDocumentsInput{OwnerID: "alice"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := repo.lastInput.Limit; got != 21 {
		t.Fatalf("repo limit = %d, want default 20 plus peek row", got)
	}

	if _, err := uc.ListDocuments(context.Background(), ListDocumentsInput{OwnerID: "alice", Limit: 500}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := repo.lastInput.Limit; got != 101 {
		t.Fatalf("repo limit = %d, want cap 100 plus peek row", got)
	}
}

func TestListDocuments_CursorRoundTrip(t *testing.T) {
	repo := &fakeDocumentRepo{}
	seedDocs(repo, 4)
	uc := NewDocumentUsecase(repo)

	first, err := uc.ListDocuments(context.Background(), ListDocumentsInput{OwnerID: "alice", Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Documents) != 3 {
		t.Fatalf("documents = %d", len(first.Documents))
	}
	if first.NextCursor == nil {
		t.Fatal("expected a next cursor with a fourth row available")
	}

	// The cursor must anchor on the last returned document so the next
	// page starts exactly where this one ended.
	if _, err := uc.ListDocuments(context.Background(), ListDocumentsInput{
		OwnerID: "alice",
		Cursor:  *first.NextCursor,
		Limit:   3,
	}); err != nil {
		t.Fatalf("list with cursor: %v", err)
	}
	last := first.Documents[2]
	if repo.lastInput.CursorTime == nil || !repo.lastInput.CursorTime.Equal(last.CreatedAt) {
		t.Fatalf("cursor time = %v, want %v", repo.lastInput.CursorTime, last.CreatedAt)
	}
	if repo.lastInput.CursorID != last.ID {
		t.Fatalf("cursor id = %q, want %q", repo.lastInput.CursorID, last.ID)
	}
}

func TestListDocuments_NoCursorOnFullLastPage(t *testing.T) {
	repo := &fakeDocumentRepo{}
	seedDocs(repo, 3)
	uc := NewDocumentUsecase(repo)

	result, err := uc.ListDocuments(context.Background(), ListDocumentsInput{OwnerID: "alice", Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Documents) != 3 {
		t.Fatalf("documents = %d", len(result.Documents))
	}
	if result.NextCursor != nil {
		t.Fatal("no cursor expected when nothing was peeked")
	}
}

func TestListDocuments_BadCursor(t *testing.T) {
	repo := &fakeDocumentRepo{}
	uc := NewDocumentUsecase(repo)

	_, err := uc.ListDocuments(context.Background(), ListDocumentsInput{OwnerID: "alice", Cursor: "%%%"})
	if err == nil {
		t.Fatal("expected error for a malformed cursor")
	}
}
