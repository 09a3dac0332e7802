package executivehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-commerce/vitrine/internal/executive"
)

type stubService struct {
	overview  executive.OverviewKPIs
	financial executive.FinancialKPIs
	history   []executive.Snapshot
	err       error

	lastFilter executive.PeriodFilter
}

func (s *stubService) Overview(context.Context) (executive.OverviewKPIs, error) {
	return s.overview, s.err
}

func (s *stubService) Financial(_ context.Context, f executive.PeriodFilter) (executive.FinancialKPIs, error) {
	s.lastFilter = f
	return s.financial, s.err
}

func (s *stubService) Inventory(context.Context) (executive.InventoryKPIs, error) {
	return executive.InventoryKPIs{}, s.err
}

func (s *stubService) Customers(_ context.Context, f executive.PeriodFilter) (executive.CustomerKPIs, error) {
	s.lastFilter = f
	return executive.CustomerKPIs{}, s.err
}

func (s *stubService) Profitability(_ context.Context, f executive.PeriodFilter) (executive.ProfitabilityKPIs, error) {
	s.lastFilter = f
	return executive.ProfitabilityKPIs{}, s.err
}

func (s *stubService) SnapshotHistory(_ context.Context, periodType string, limit int) ([]executive.Snapshot, error) {
	return s.history, s.err
}

type stubEnqueuer struct {
	dailyRefs   []string
	monthlyRefs []string
	err         error
}

func (s *stubEnqueuer) EnqueueDailySnapshot(_ context.Context, ref string) error {
	s.dailyRefs = append(s.dailyRefs, ref)
	return s.err
}

func (s *stubEnqueuer) EnqueueMonthlySnapshot(_ context.Context, ref string) error {
	s.monthlyRefs = append(s.monthlyRefs, ref)
	return s.err
}

type stubAccess struct {
	endpoints []string
}

func (s *stubAccess) RecordAccess(_ context.Context, endpoint string, _ url.Values) {
	s.endpoints = append(s.endpoints, endpoint)
}

func newTestRouter(svc Service, enq SnapshotEnqueuer, access AccessRecorder) http.Handler {
	h := NewHandler(nil, svc, enq, access)
	h.WithNow(func() time.Time {
		return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	})
	r := chi.NewRouter()
	r.Route("/api/executive", h.MountRoutes)
	return r
}

func TestOverviewEnvelope(t *testing.T) {
	svc := &stubService{overview: executive.OverviewKPIs{TotalRevenue: 1234.5, TotalOrders: 42}}
	access := &stubAccess{}
	router := newTestRouter(svc, &stubEnqueuer{}, access)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/executive/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success     bool                   `json:"success"`
		Data        executive.OverviewKPIs `json:"data"`
		Period      *periodDTO             `json:"period"`
		GeneratedAt string                 `json:"generatedAt"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 1234.5, body.Data.TotalRevenue)
	assert.Nil(t, body.Period)
	assert.Equal(t, "2025-03-15T12:00:00Z", body.GeneratedAt)
	assert.Equal(t, []string{"/api/executive/overview"}, access.endpoints)
}

func TestFinancialIncludesPeriod(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, &stubEnqueuer{}, &stubAccess{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/executive/financial?startDate=2025-03-01&endDate=2025-03-10", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Period *periodDTO `json:"period"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Period)
	assert.True(t, strings.HasPrefix(body.Period.StartDate, "2025-03-01T00:00:00"))
	assert.True(t, strings.HasPrefix(body.Period.EndDate, "2025-03-10T23:59:59"))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), svc.lastFilter.Start)
}

func TestServiceErrorReturnsGenericFailure(t *testing.T) {
	svc := &stubService{err: errors.New("pg down")}
	router := newTestRouter(svc, &stubEnqueuer{}, &stubAccess{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/executive/customers", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body failureEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.NotContains(t, body.Message, "pg down")
}

func TestSnapshotHistoryRejectsUnknownPeriodType(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubEnqueuer{}, &stubAccess{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/executive/snapshots?periodType=weekly", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerDailySnapshot(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newTestRouter(&stubService{}, enq, &stubAccess{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/executive/snapshots/daily", strings.NewReader(`{"date":"2025-03-14"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"2025-03-14"}, enq.dailyRefs)

	var body struct {
		Data snapshotQueuedDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Queued)
	assert.Equal(t, executive.PeriodDaily, body.Data.PeriodType)
}

func TestTriggerDailySnapshotEmptyBody(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newTestRouter(&stubService{}, enq, &stubAccess{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/executive/snapshots/daily", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{""}, enq.dailyRefs)
}

func TestTriggerMonthlyRejectsBadRef(t *testing.T) {
	router := newTestRouter(&stubService{}, &stubEnqueuer{}, &stubAccess{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/executive/snapshots/monthly", strings.NewReader(`{"month":"March"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
