package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shepherd/internal/adapters/email"
	outboxStore "shepherd/internal/adapters/storage/outbox"
	"shepherd/internal/domain/checkin"
	domain "shepherd/internal/domain/outbox"
)

// Outbox result label values.
const (
	OutboxResultDone      = "done"
	OutboxResultRetry     = "retry"
	OutboxResultFailed    = "failed"
	OutboxResultAbandoned = "abandoned"
)

// OutboxQueue is the outbox store surface the processor needs.
type OutboxQueue interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
}

// OutboxRecorder counts processed entries.
type OutboxRecorder interface {
	OutboxProcessed(action, result string)
}

// OutboxProcessor runs queued side effects with exponential backoff.
type OutboxProcessor struct {
	store     OutboxQueue
	executors map[string]ActionExecutor
	clock     Clock
	metrics   OutboxRecorder
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's id for the action and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// NewOutboxProcessor creates a processor. clock and metrics may be nil.
func NewOutboxProcessor(store OutboxQueue, executors map[string]ActionExecutor, clock Clock, metrics OutboxRecorder) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		clock:     clock,
		metrics:   metrics,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
}

// ProcessPending runs every due entry in one batch.
// PRE: Context is valid
// POST: Returns how many entries were attempted; entries in backoff are skipped
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox entries: %w", err)
	}

	now := p.clock.now()
	attempted := 0
	for _, entry := range entries {
		if now.Before(entry.DueAt(p.baseDelay, p.maxDelay)) {
			continue
		}
		attempted++
		if err := p.run(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return attempted, nil
}

// run executes one entry and persists its new state.
func (p *OutboxProcessor) run(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.ErrorMessage = "no executor registered for action type: " + entry.ActionType
		entry.MarkAbandoned()
		p.record(entry.ActionType, OutboxResultAbandoned)
		slog.Warn("outbox_action_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType)
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.clock.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	switch {
	case err != nil:
		entry.MarkFailed(err)
		result := OutboxResultRetry
		if entry.Status == domain.StatusFailed {
			result = OutboxResultFailed
		}
		p.record(entry.ActionType, result)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err.Error())
	default:
		entry.MarkSuccess(externalID)
		p.record(entry.ActionType, OutboxResultDone)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) record(action, result string) {
	if p.metrics != nil {
		p.metrics.OutboxProcessed(action, result)
	}
}

// ProcessSingle runs one entry immediately, ignoring backoff (admin retry).
// A failed entry is granted one extra attempt.
// PRE: entryID is non-empty
// POST: Returns the entry's new state; done and abandoned entries yield CONFLICT
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) (domain.Entry, error) {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return domain.Entry{}, lookupFailed(err, outboxStore.ErrNotFound, "outbox entry")
	}
	switch entry.Status {
	case domain.StatusDone, domain.StatusAbandoned:
		return domain.Entry{}, checkin.Wrap(checkin.CodeConflict, domain.ErrTerminal.Error(), domain.ErrTerminal)
	case domain.StatusFailed:
		entry.MaxAttempts = entry.Attempts + 1
	}
	if err := p.run(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return p.store.GetByID(ctx, entryID)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned; a done entry yields CONFLICT
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return lookupFailed(err, outboxStore.ErrNotFound, "outbox entry")
	}
	if entry.Status == domain.StatusDone {
		return checkin.Wrap(checkin.CodeConflict, domain.ErrTerminal.Error(), domain.ErrTerminal)
	}
	entry.MarkAbandoned()
	slog.Info("outbox_action_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType, "by", "admin")
	return p.store.Save(ctx, entry)
}

// --- Visitor Welcome Executor ---

// ErrNoRecipient is returned for a welcome payload without an email address.
var ErrNoRecipient = errors.New("welcome payload has no email address")

// VisitorWelcomeExecutor renders and sends the first-visit welcome email.
type VisitorWelcomeExecutor struct {
	Sender     email.Sender
	ChurchName string
}

// Execute sends the welcome email described by a WelcomePayload.
// PRE: payload is valid JSON matching WelcomePayload
// POST: email accepted by the provider, returns its message id
// INVARIANT: outbox entry status managed by caller
func (e *VisitorWelcomeExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p WelcomePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.Email == "" {
		return "", ErrNoRecipient
	}
	subject, html, err := email.RenderWelcome(email.WelcomeData{Name: p.Name, ServiceName: p.ServiceName, ChurchName: e.ChurchName})
	if err != nil {
		return "", err
	}
	receipt, err := e.Sender.Send(ctx, email.Message{
		To:      p.Email,
		Subject: subject,
		HTML:    html,
		Tag:     domain.ActionTypeVisitorWelcome,
	})
	if err != nil {
		return "", fmt.Errorf("send welcome to visitor %s: %w", p.VisitorID, err)
	}
	return receipt.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
