package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/repository"
)

const documentColumns = `id, owner_id, name, items, reminder_cron, reminder_to,
	       next_remind_at, created_at, updated_at`

type DocumentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) *DocumentRepository {
	return &DocumentRepository{pool: pool, logger: logger.With("component", "document_repo")}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error) {
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	query := `
		INSERT INTO documents (owner_id, name, items, reminder_cron, reminder_to, next_remind_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + documentColumns

	row := r.pool.QueryRow(ctx, query,
		doc.OwnerID, doc.Name, items, doc.ReminderCron, doc.ReminderTo, doc.NextRemindAt,
	)

	created, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDocumentNameConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.ScheduleDocument, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND owner_id = $2`

	return scanDocument(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *DocumentRepository) List(ctx context.Context, input repository.ListDocumentsInput) ([]*domain.ScheduleDocument, error) {
	args := []any{input.OwnerID}
	where := []string{"owner_id = $1"}

	if input.CursorTime != nil {
		args = append(args, *input.CursorTime, input.CursorID)
		where = append(where, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, input.Limit)

	query := fmt.Sprintf(`
		SELECT `+documentColumns+`
		FROM documents
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		strings.Join(where, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.ScheduleDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.ScheduleDocument) (*domain.ScheduleDocument, error) {
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	query := `
		UPDATE documents
		SET name = $3, items = $4, reminder_cron = $5, reminder_to = $6,
		    next_remind_at = $7, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + documentColumns

	row := r.pool.QueryRow(ctx, query,
		doc.ID, doc.OwnerID, doc.Name, items, doc.ReminderCron, doc.ReminderTo, doc.NextRemindAt,
	)

	updated, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDocumentNameConflict
		}
		return nil, err
	}
	return updated, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ClaimDueReminders atomically claims documents whose reminder is due and
// advances next_remind_at — no partial state on crash, no double-firing
// across replicas thanks to FOR UPDATE SKIP LOCKED.
func (r *DocumentRepository) ClaimDueReminders(ctx context.Context, limit int, computeNext func(*domain.ScheduleDocument) time.Time) ([]*domain.ScheduleDocument, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rows, err := tx.Query(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE reminder_cron IS NOT NULL
		  AND reminder_to IS NOT NULL
		  AND next_remind_at <= NOW()
		ORDER BY next_remind_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim reminders: %w", err)
	}

	var docs []*domain.ScheduleDocument
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			rows.Close()
			err = scanErr
			return nil, err
		}
		docs = append(docs, doc)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}

	for _, doc := range docs {
		next := computeNext(doc)
		if _, err = tx.Exec(ctx,
			`UPDATE documents SET next_remind_at = $2, updated_at = NOW() WHERE id = $1`,
			doc.ID, next,
		); err != nil {
			return nil, fmt.Errorf("advance reminder for document %s: %w", doc.ID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (*domain.ScheduleDocument, error) {
	var doc domain.ScheduleDocument
	var items []byte

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Name, &items,
		&doc.ReminderCron, &doc.ReminderTo, &doc.NextRemindAt,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(items, &doc.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items for document %s: %w", doc.ID, err)
	}
	return &doc, nil
}
