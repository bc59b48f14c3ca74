package repository

import (
	"context"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
)

type ListDocumentsInput struct {
	OwnerID    string
	CursorTime *time.Time // cursor on (created_at DESC, id DESC)
	CursorID   string
	Limit      int
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error)
	GetByID(ctx context.Context, id, ownerID string) (*domain.ScheduleDocument, error)
	List(ctx context.Context, input ListDocumentsInput) ([]*domain.ScheduleDocument, error)
	Update(ctx context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error)
	Delete(ctx context.Context, id, ownerID string) error
	// Atomic: claim documents whose reminder is due and advance
	// next_remind_at — one tx, FOR UPDATE SKIP LOCKED across replicas.
	ClaimDueReminders(ctx context.Context, limit int, computeNext func(*domain.ScheduleDocument) time.Time) ([]*domain.ScheduleDocument, error)
}
