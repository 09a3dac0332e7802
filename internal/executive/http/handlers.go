package executivehttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vitrine-commerce/vitrine/internal/executive"
	"github.com/vitrine-commerce/vitrine/internal/platform/httpx"
)

// Service defines the KPI operations exposed over HTTP.
type Service interface {
	Overview(ctx context.Context) (executive.OverviewKPIs, error)
	Financial(ctx context.Context, filter executive.PeriodFilter) (executive.FinancialKPIs, error)
	Inventory(ctx context.Context) (executive.InventoryKPIs, error)
	Customers(ctx context.Context, filter executive.PeriodFilter) (executive.CustomerKPIs, error)
	Profitability(ctx context.Context, filter executive.PeriodFilter) (executive.ProfitabilityKPIs, error)
	SnapshotHistory(ctx context.Context, periodType string, limit int) ([]executive.Snapshot, error)
}

// SnapshotEnqueuer queues manual snapshot runs.
type SnapshotEnqueuer interface {
	EnqueueDailySnapshot(ctx context.Context, ref string) error
	EnqueueMonthlySnapshot(ctx context.Context, ref string) error
}

// AccessRecorder registers endpoint accesses. Implementations must never
// block meaningfully or surface failures.
type AccessRecorder interface {
	RecordAccess(ctx context.Context, endpoint string, query url.Values)
}

// Handler serves the executive KPI endpoints. Authorization happens upstream;
// only privileged callers are expected to reach these routes.
type Handler struct {
	logger    *slog.Logger
	service   Service
	snapshots SnapshotEnqueuer
	access    AccessRecorder
	validate  *validator.Validate
	now       func() time.Time
}

// NewHandler constructs the executive HTTP handler.
func NewHandler(logger *slog.Logger, service Service, snapshots SnapshotEnqueuer, access AccessRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		snapshots: snapshots,
		access:    access,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) recordAccess(r *http.Request, endpoint string) {
	if h.access != nil {
		h.access.RecordAccess(r.Context(), endpoint, r.URL.Query())
	}
}

func (h *Handler) periodFromQuery(r *http.Request) executive.PeriodFilter {
	q := r.URL.Query()
	return executive.ResolvePeriodFilter(q.Get("startDate"), q.Get("endDate"), q.Get("days"), h.now())
}

// fail logs the underlying error and answers with the generic failure
// envelope; KPI errors carry no per-endpoint error codes.
func (h *Handler) fail(w http.ResponseWriter, op, message string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.JSON(w, http.StatusInternalServerError, failureEnvelope{Success: false, Message: message})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/overview")
	data, err := h.service.Overview(r.Context())
	if err != nil {
		h.fail(w, "executive overview", "failed to load executive overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, nil, h.now()))
}

func (h *Handler) handleFinancial(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/financial")
	filter := h.periodFromQuery(r)
	data, err := h.service.Financial(r.Context(), filter)
	if err != nil {
		h.fail(w, "executive financial", "failed to load financial KPIs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, &filter, h.now()))
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/inventory")
	data, err := h.service.Inventory(r.Context())
	if err != nil {
		h.fail(w, "executive inventory", "failed to load inventory KPIs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, nil, h.now()))
}

func (h *Handler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/customers")
	filter := h.periodFromQuery(r)
	data, err := h.service.Customers(r.Context(), filter)
	if err != nil {
		h.fail(w, "executive customers", "failed to load customer KPIs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, &filter, h.now()))
}

func (h *Handler) handleProfitability(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/profitability")
	filter := h.periodFromQuery(r)
	data, err := h.service.Profitability(r.Context(), filter)
	if err != nil {
		h.fail(w, "executive profitability", "failed to load profitability KPIs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, &filter, h.now()))
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/snapshots")
	q := r.URL.Query()
	periodType := q.Get("periodType")
	if periodType == "" {
		periodType = executive.PeriodDaily
	}
	if periodType != executive.PeriodDaily && periodType != executive.PeriodMonthly {
		httpx.JSON(w, http.StatusBadRequest, failureEnvelope{Success: false, Message: "periodType must be daily or monthly"})
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	data, err := h.service.SnapshotHistory(r.Context(), periodType, limit)
	if err != nil {
		h.fail(w, "executive snapshots", "failed to load snapshot history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newEnvelope(data, nil, h.now()))
}

func (h *Handler) decodeTrigger(r *http.Request) (snapshotTriggerRequest, error) {
	var req snapshotTriggerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, h.validate.Struct(req)
}

func (h *Handler) handleTriggerDaily(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/snapshots/daily")
	req, err := h.decodeTrigger(r)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, failureEnvelope{Success: false, Message: "invalid snapshot target"})
		return
	}
	if err := h.snapshots.EnqueueDailySnapshot(r.Context(), req.Date); err != nil {
		h.fail(w, "trigger daily snapshot", "failed to queue daily snapshot", err)
		return
	}
	dto := snapshotQueuedDTO{PeriodType: executive.PeriodDaily, PeriodRef: req.Date, Queued: true}
	httpx.JSON(w, http.StatusAccepted, newEnvelope(dto, nil, h.now()))
}

func (h *Handler) handleTriggerMonthly(w http.ResponseWriter, r *http.Request) {
	h.recordAccess(r, "/api/executive/snapshots/monthly")
	req, err := h.decodeTrigger(r)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, failureEnvelope{Success: false, Message: "invalid snapshot target"})
		return
	}
	if err := h.snapshots.EnqueueMonthlySnapshot(r.Context(), req.Month); err != nil {
		h.fail(w, "trigger monthly snapshot", "failed to queue monthly snapshot", err)
		return
	}
	dto := snapshotQueuedDTO{PeriodType: executive.PeriodMonthly, PeriodRef: req.Month, Queued: true}
	httpx.JSON(w, http.StatusAccepted, newEnvelope(dto, nil, h.now()))
}
