package web

import (
	"net/http"
	"strconv"
	"time"

	"shepherd/internal/domain/checkin"
	"shepherd/internal/domain/outbox"
)

// outboxView is an outbox entry as shown to admins. The payload is omitted
// because it carries visitor contact details.
type outboxView struct {
	ID              string    `json:"id"`
	ActionType      string    `json:"actionType"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	MaxAttempts     int       `json:"maxAttempts"`
	LastAttemptedAt time.Time `json:"lastAttemptedAt,omitzero"`
	CreatedAt       time.Time `json:"createdAt"`
	ExternalID      string    `json:"externalId,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

func toOutboxView(e outbox.Entry) outboxView {
	return outboxView{
		ID: e.ID, ActionType: e.ActionType, Status: e.Status, Attempts: e.Attempts, MaxAttempts: e.MaxAttempts,
		LastAttemptedAt: e.LastAttemptedAt, CreatedAt: e.CreatedAt, ExternalID: e.ExternalID, ErrorMessage: e.ErrorMessage,
	}
}

type outboxListing struct {
	Counts  map[string]int `json:"counts"`
	Entries []outboxView   `json:"entries"`
}

// handleAdminOutbox lists failed entries, or pending ones with
// ?status=pending, along with counts per status.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var (
		entries []outbox.Entry
		err     error
	)
	switch r.URL.Query().Get("status") {
	case "", outbox.StatusFailed:
		entries, err = stores.Outbox.ListFailed(ctx, limit)
	case outbox.StatusPending:
		entries, err = stores.Outbox.ListPending(ctx, limit)
	default:
		badRequest(w, "status must be failed or pending")
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	counts, err := stores.Outbox.CountByStatus(ctx)
	if err != nil {
		internalError(w, err)
		return
	}

	out := outboxListing{Counts: counts, Entries: make([]outboxView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, toOutboxView(e))
	}
	writeOK(w, out)
}

// handleAdminOutboxRetry runs one entry now, ignoring its backoff.
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if outboxProcessor == nil {
		writeAdminError(w, checkin.NewError(checkin.CodeConflict, "the outbox worker is not running"))
		return
	}
	e, err := outboxProcessor.ProcessSingle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, toOutboxView(e))
}

func handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if outboxProcessor == nil {
		writeAdminError(w, checkin.NewError(checkin.CodeConflict, "the outbox worker is not running"))
		return
	}
	if err := outboxProcessor.AbandonEntry(r.Context(), r.PathValue("id")); err != nil {
		writeAdminError(w, err)
		return
	}
	writeOK(w, nil)
}

// handleAdminPerf summarises recent request and query timings.
// ?minutes= sets the look-back (default 15), ?top= the list length.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		writeAdminError(w, checkin.NewError(checkin.CodeNotFound, "performance collection is disabled"))
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	top, err := strconv.Atoi(r.URL.Query().Get("top"))
	if err != nil || top <= 0 || top > 50 {
		top = 10
	}
	writeOK(w, perfCollector.Snapshot(time.Now().Add(-time.Duration(minutes)*time.Minute), top))
}
