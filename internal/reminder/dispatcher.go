package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/email"
	"github.com/pacer-app/pacer/internal/metrics"
	"github.com/pacer-app/pacer/internal/repository"
	"github.com/robfig/cron/v3"
)

// Dispatcher emails "time to practice" reminders for documents with a
// reminder cron set.
type Dispatcher struct {
	repo     repository.DocumentRepository
	sender   email.Sender
	logger   *slog.Logger
	interval time.Duration
}

func NewDispatcher(repo repository.DocumentRepository, sender email.Sender, logger *slog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		sender:   sender,
		logger:   logger.With("component", "reminder_dispatcher"),
		interval: interval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("reminder dispatcher started", "interval", d.interval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder dispatcher shut down")
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	docs, err := d.repo.ClaimDueReminders(ctx, 100, d.computeNext)
	if err != nil {
		d.logger.Error("claim due reminders", "error", err)
		return
	}

	for _, doc := range docs {
		subject := fmt.Sprintf("Time to practice: %s", doc.Name)
		body := fmt.Sprintf(`<p>Your practice schedule <strong>%s</strong> is waiting.</p>`, doc.Name)
		if err := d.sender.Send(ctx, *doc.ReminderTo, subject, body); err != nil {
			d.logger.Error("send reminder", "document_id", doc.ID, "error", err)
			continue
		}
		metrics.RemindersSentTotal.Inc()
		d.logger.Info("reminder sent", "document_id", doc.ID, "to", *doc.ReminderTo)
	}
}

// computeNext returns the next future fire time, skipping any missed runs.
func (d *Dispatcher) computeNext(doc *domain.ScheduleDocument) time.Time {
	sched, err := cron.ParseStandard(*doc.ReminderCron)
	if err != nil {
		// Expression was validated on save; this should never happen.
		d.logger.Error("invalid reminder cron in document", "document_id", doc.ID, "cron", *doc.ReminderCron, "error", err)
		return time.Now().Add(time.Hour) // safe fallback
	}

	from := time.Now()
	if doc.NextRemindAt != nil && doc.NextRemindAt.After(from) {
		from = *doc.NextRemindAt
	}
	next := sched.Next(from)
	now := time.Now()
	for next.Before(now) {
		next = sched.Next(next)
	}
	return next
}
