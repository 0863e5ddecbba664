package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/motion-granted/engine/internal/domain/order"
	"github.com/motion-granted/engine/internal/domain/phase"
	"github.com/motion-granted/engine/internal/service"
)

// CreateOrder opens a new order at intake.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[order.CreateRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.OrderNumber, "order_number") ||
		!requireField(w, req.MotionType, "motion_type") ||
		!requireField(w, string(req.PricingTier), "pricing_tier") ||
		!requireField(w, string(req.MotionTypeTier), "motion_type_tier") {
		return
	}
	if req.AmountPaidCents < 0 {
		writeError(w, http.StatusBadRequest, "amount_paid_cents must not be negative")
		return
	}

	o, err := h.Orders.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "order not created")
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ListOrders returns orders, optionally filtered by ?status=a,b.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	var statuses []order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, order.Status(strings.TrimSpace(s)))
		}
	}
	orders, err := h.Orders.List(r.Context(), statuses)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order by id.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// SearchOrders runs fuzzy free-text search over orders.
func (h *Handlers) SearchOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if !requireField(w, q, "q") {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	matches, err := h.Search.Search(r.Context(), q, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// ListExecutions returns the phase execution history for an order.
func (h *Handlers) ListExecutions(w http.ResponseWriter, r *http.Request) {
	execs, err := h.Orders.Executions(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, execs)
}

// versionedRequest is the body shape shared by the checkpoint commands.
// ExpectedVersion is the caller's last-observed status version; a stale
// value gets a 409 and the caller refetches.
type versionedRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	Reason          string `json:"reason,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
}

// StartOrder moves a paid intake order into processing and schedules its
// first pipeline phase.
func (h *Handlers) StartOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	if err := h.Driver.Kickoff(r.Context(), urlParam(r, "id"), req.ExpectedVersion); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// AdvancePhase executes the order's current phase once, synchronously.
// Normally phases run off the queue; this is the operator escape hatch.
func (h *Handlers) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	if err := h.Driver.ExecutePhase(r.Context(), id, o.CurrentPhase, req.ExpectedVersion); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	o, err = h.Orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ApproveOrder completes an order awaiting customer approval.
func (h *Handlers) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	if err := h.Orders.ApproveCheckpoint(r.Context(), urlParam(r, "id"), req.ExpectedVersion); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestChanges sends an approved-pending order back for a revision cycle.
func (h *Handlers) RequestChanges(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Feedback, "feedback") {
		return
	}
	id := urlParam(r, "id")
	if err := h.Orders.RequestChanges(r.Context(), id, req.ExpectedVersion, req.Feedback); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	h.scheduleCurrentPhase(r, id)
	w.WriteHeader(http.StatusNoContent)
}

// CancelOrder cancels on customer request and returns the refund suggestion.
func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	sug, err := h.Orders.Cancel(r.Context(), urlParam(r, "id"), req.ExpectedVersion, req.Reason)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

// PlaceHold pauses processing pending customer input.
func (h *Handlers) PlaceHold(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Reason, "reason") {
		return
	}
	if err := h.Orders.PlaceHold(r.Context(), urlParam(r, "id"), req.ExpectedVersion, req.Reason, h.HoldWindow); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveHold resumes a held order.
func (h *Handlers) ResolveHold(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[versionedRequest](w, r)
	if !ok {
		return
	}
	id := urlParam(r, "id")
	if err := h.Orders.ResolveHold(r.Context(), id, req.ExpectedVersion); err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	h.scheduleCurrentPhase(r, id)
	w.WriteHeader(http.StatusNoContent)
}

// scheduleCurrentPhase re-enqueues the order's current phase after it
// re-entered processing. Failures are logged, not surfaced: the capacity
// sweep picks up anything the queue missed.
func (h *Handlers) scheduleCurrentPhase(r *http.Request, id string) {
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		return
	}
	if err := h.Driver.Schedule(r.Context(), id, o.CurrentPhase, o.StatusVersion); err != nil {
		slog.Error("schedule phase after resume", "order_id", id, "error", err)
	}
}

// GetRefundSuggestion returns the advisory refund for the order's current
// pipeline position.
func (h *Handlers) GetRefundSuggestion(w http.ResponseWriter, r *http.Request) {
	sug, err := h.Refunds.SuggestForOrder(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, sug)
}

// DecideRefund applies an admin refund decision.
func (h *Handlers) DecideRefund(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[service.DecideRequest](w, r)
	if !ok {
		return
	}
	req.OrderID = urlParam(r, "id")
	if !requireField(w, req.AdminID, "admin_id") {
		return
	}

	rec, err := h.Refunds.Decide(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetCitations returns the extracted citations for (order, phase).
func (h *Handlers) GetCitations(w http.ResponseWriter, r *http.Request) {
	p, err := phase.ParseCode(urlParam(r, "phase"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid phase code")
		return
	}
	rs, err := h.Citations.Results(r.Context(), urlParam(r, "id"), p)
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}
	if rs == nil {
		writeError(w, http.StatusNotFound, "no citations extracted for this phase")
		return
	}
	writeJSON(w, http.StatusOK, rs)
}
