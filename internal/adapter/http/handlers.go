// Package http provides the engine's HTTP command surface.
package http

import (
	"net/http"
	"time"

	"github.com/motion-granted/engine/internal/service"
)

// Version is the reported engine version; overridable at link time.
var Version = "0.1.0"

// Handlers bundles the services behind the HTTP surface.
type Handlers struct {
	Orders    *service.OrderService
	Costs     *service.CostService
	Citations *service.CitationService
	Refunds   *service.RefundService
	Search    *service.SearchService
	Driver    *service.PhaseDriver

	// HoldWindow is how long a newly placed hold waits for customer input.
	HoldWindow time.Duration
}

// NewHandlers creates the handler set.
func NewHandlers(
	orders *service.OrderService,
	costs *service.CostService,
	citations *service.CitationService,
	refunds *service.RefundService,
	search *service.SearchService,
	driver *service.PhaseDriver,
	holdWindow time.Duration,
) *Handlers {
	return &Handlers{
		Orders:     orders,
		Costs:      costs,
		Citations:  citations,
		Refunds:    refunds,
		Search:     search,
		Driver:     driver,
		HoldWindow: holdWindow,
	}
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetVersion reports the running engine version.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}
