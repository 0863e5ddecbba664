package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router. Every
// mutating order endpoint takes the caller's expected_version in its body;
// stale versions come back as 409.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/healthz", h.Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", h.GetVersion)

		// Orders
		r.Get("/orders", h.ListOrders)
		r.Post("/orders", h.CreateOrder)
		r.Get("/orders/search", h.SearchOrders)
		r.Get("/orders/{id}", h.GetOrder)
		r.Get("/orders/{id}/executions", h.ListExecutions)

		// Pipeline commands
		r.Post("/orders/{id}/start", h.StartOrder)
		r.Post("/orders/{id}/advance-phase", h.AdvancePhase)

		// Checkpoint commands
		r.Post("/orders/{id}/approve", h.ApproveOrder)
		r.Post("/orders/{id}/request-changes", h.RequestChanges)
		r.Post("/orders/{id}/cancel", h.CancelOrder)

		// Holds
		r.Post("/orders/{id}/hold", h.PlaceHold)
		r.Post("/orders/{id}/hold/resolve", h.ResolveHold)

		// Refunds
		r.Get("/orders/{id}/refund-suggestion", h.GetRefundSuggestion)
		r.Post("/orders/{id}/refund-decision", h.DecideRefund)

		// Citations
		r.Get("/orders/{id}/citations/{phase}", h.GetCitations)

		// Costs
		r.Get("/orders/{id}/costs", h.GetOrderCosts)
		r.Get("/costs/daily", h.GetDailyCosts)
	})
}
