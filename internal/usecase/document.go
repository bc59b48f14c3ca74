package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/repository"
	"github.com/robfig/cron/v3"
)

type DocumentUsecase struct {
	repo repository.DocumentRepository
}

func NewDocumentUsecase(repo repository.DocumentRepository) *DocumentUsecase {
	return &DocumentUsecase{repo: repo}
}

type SaveDocumentInput struct {
	OwnerID      string
	Name         string
	Items        []domain.Row
	ReminderCron *string
	ReminderTo   *string
}

func (u *DocumentUsecase) CreateDocument(ctx context.Context, input SaveDocumentInput) (*domain.ScheduleDocument, error) {
	doc, err := u.newDocument(input)
	if err != nil {
		return nil, err
	}

	created, err := u.repo.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return created, nil
}

func (u *DocumentUsecase) UpdateDocument(ctx context.Context, id string, input SaveDocumentInput) (*domain.ScheduleDocument, error) {
	doc, err := u.newDocument(input)
	if err != nil {
		return nil, err
	}
	doc.ID = id

	updated, err := u.repo.Update(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return updated, nil
}

func (u *DocumentUsecase) newDocument(input SaveDocumentInput) (*domain.ScheduleDocument, error) {
	if input.Items == nil {
		input.Items = []domain.Row{}
	}

	doc := &domain.ScheduleDocument{
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Items:        input.Items,
		ReminderCron: input.ReminderCron,
		ReminderTo:   input.ReminderTo,
	}

	if input.ReminderCron != nil {
		sched, err := cron.ParseStandard(*input.ReminderCron)
		if err != nil {
			return nil, domain.ErrInvalidReminderCron
		}
		next := sched.Next(time.Now())
		doc.NextRemindAt = &next
	}

	return doc, nil
}

func (u *DocumentUsecase) GetDocument(ctx context.Context, id, ownerID string) (*domain.ScheduleDocument, error) {
	doc, err := u.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (u *DocumentUsecase) DeleteDocument(ctx context.Context, id, ownerID string) error {
	if err := u.repo.Delete(ctx, id, ownerID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

type ListDocumentsInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

type ListDocumentsResult struct {
	Documents  []*domain.ScheduleDocument
	NextCursor *string
}

type documentCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func decodeDocumentCursor(s string) (*time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c documentCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	return &c.CreatedAt, c.ID, nil
}

func encodeDocumentCursor(createdAt time.Time, id string) string {
	b, _ := json.Marshal(documentCursor{CreatedAt: createdAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *DocumentUsecase) ListDocuments(ctx context.Context, input ListDocumentsInput) (ListDocumentsResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.ListDocumentsInput{
		OwnerID: input.OwnerID,
		Limit:   limit + 1,
	}

	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeDocumentCursor(input.Cursor)
		if err != nil {
			return ListDocumentsResult{}, fmt.Errorf("bad cursor: %w", err)
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	docs, err := u.repo.List(ctx, repoInput)
	if err != nil {
		return ListDocumentsResult{}, fmt.Errorf("list documents: %w", err)
	}

	var nextCursor *string
	if len(docs) == limit+1 {
		// Anchor the cursor on the last returned row; the next page's
		// strict tuple comparison then starts at the peeked row.
		docs = docs[:limit]
		last := docs[limit-1]
		s := encodeDocumentCursor(last.CreatedAt, last.ID)
		nextCursor = &s
	}

	return ListDocumentsResult{Documents: docs, NextCursor: nextCursor}, nil
}
