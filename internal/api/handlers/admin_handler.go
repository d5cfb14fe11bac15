package handlers

import (
	"context"
	"net/http"

	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/application/services"
	"github.com/Satyam1013/Free-Health-Camp-sub000/internal/domain/entities"
)

// LedgerService defines the ledger operations used by the admin handler
type LedgerService interface {
	UpdateProviderRevenue(ctx context.Context, providerID string, update entities.RevenueUpdate) (*entities.Provider, error)
}

// DashboardService defines the reporting operations used by the admin handler
type DashboardService interface {
	GetDashboardAggregates(ctx context.Context) (*entities.DashboardAggregates, error)
}

// SweepRunner triggers a registered sweep by name
type SweepRunner interface {
	Run(ctx context.Context, name string) (*services.SweepReport, error)
	Names() []string
}

// AdminHandler handles ledger administration, reporting and manual sweeps
type AdminHandler struct {
	ledger    LedgerService
	dashboard DashboardService
	sweeps    SweepRunner
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(ledger LedgerService, dashboard DashboardService, sweeps SweepRunner) *AdminHandler {
	return &AdminHandler{ledger: ledger, dashboard: dashboard, sweeps: sweeps}
}

// UpdateProviderRevenue handles PATCH /api/admin/providers/{id}/revenue
func (h *AdminHandler) UpdateProviderRevenue(w http.ResponseWriter, r *http.Request) {
	var update entities.RevenueUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	provider, err := h.ledger.UpdateProviderRevenue(r.Context(), r.PathValue("id"), update)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, provider)
}

// GetDashboard handles GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	aggregates, err := h.dashboard.GetDashboardAggregates(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, aggregates)
}

// ListSweeps handles GET /api/admin/sweeps
func (h *AdminHandler) ListSweeps(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sweeps": h.sweeps.Names(),
	})
}

// RunSweep handles POST /api/admin/sweeps/{name}
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	report, err := h.sweeps.Run(r.Context(), name)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondLog(r).Info().
		Str("sweep", name).
		Int("changed", report.Changed).
		Int("failures", len(report.Failures)).
		Msg("manual sweep finished")
	respondWithJSON(w, http.StatusOK, report)
}
