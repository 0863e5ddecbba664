package http

import (
	"net/http"
	"strconv"
)

// costSummaryResponse wraps the ledger aggregates with the derived retry
// overhead, which is omitted until any primary spend exists.
type costSummaryResponse struct {
	OrderID              string   `json:"order_id"`
	TotalCents           int64    `json:"total_cents"`
	PrimaryCents         int64    `json:"primary_cents"`
	RetryCents           int64    `json:"retry_cents"`
	EntryCount           int      `json:"entry_count"`
	TokensIn             int64    `json:"tokens_in"`
	TokensOut            int64    `json:"tokens_out"`
	RetryOverheadPercent *float64 `json:"retry_overhead_percent,omitempty"`
}

// GetOrderCosts returns the aggregate cost view for one order.
func (h *Handlers) GetOrderCosts(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Costs.Summary(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "order not found")
		return
	}

	resp := costSummaryResponse{
		OrderID:      sum.OrderID,
		TotalCents:   sum.TotalCents,
		PrimaryCents: sum.PrimaryCents,
		RetryCents:   sum.RetryCents,
		EntryCount:   sum.EntryCount,
		TokensIn:     sum.TokensIn,
		TokensOut:    sum.TokensOut,
	}
	if pct, ok := sum.RetryOverheadPercent(); ok {
		resp.RetryOverheadPercent = &pct
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDailyCosts returns the daily spend series, default 30 days.
func (h *Handlers) GetDailyCosts(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	series, err := h.Costs.Daily(r.Context(), days)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}
