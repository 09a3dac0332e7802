package executivehttp

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes attaches the executive KPI API under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.handleOverview)
	r.Get("/financial", h.handleFinancial)
	r.Get("/inventory", h.handleInventory)
	r.Get("/customers", h.handleCustomers)
	r.Get("/profitability", h.handleProfitability)
	r.Get("/snapshots", h.handleSnapshots)

	// Manual snapshot triggers are cheap to request and expensive to run,
	// so they get their own tighter limit.
	r.Group(func(g chi.Router) {
		g.Use(httprate.LimitByIP(10, time.Minute))
		g.Post("/snapshots/daily", h.handleTriggerDaily)
		g.Post("/snapshots/monthly", h.handleTriggerMonthly)
	})
}
