package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

type stubStatsService struct {
	workloads []ports.MentorWorkload
	dashboard *ports.DashboardStats
	err       error

	dashboardFrom time.Time
	dashboardTo   time.Time
}

func (s *stubStatsService) MentorWorkloads(ctx context.Context) ([]ports.MentorWorkload, error) {
	return s.workloads, s.err
}

func (s *stubStatsService) Dashboard(ctx context.Context, from, to time.Time) (*ports.DashboardStats, error) {
	s.dashboardFrom = from
	s.dashboardTo = to
	if s.dashboard == nil {
		s.dashboard = &ports.DashboardStats{StartDate: from, EndDate: to}
	}
	return s.dashboard, s.err
}

func TestDashboardHandlerExplicitRange(t *testing.T) {
	stats := &stubStatsService{}
	h := NewStatsHandler(stats, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet,
		"/stats/dashboard?start_date=2025-01-01&end_date=2025-03-01", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if !stats.dashboardFrom.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", stats.dashboardFrom)
	}
	if !stats.dashboardTo.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("to = %v", stats.dashboardTo)
	}

	var resp ports.DashboardStats
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
}

func TestDashboardHandlerDefaultPeriod(t *testing.T) {
	stats := &stubStatsService{}
	h := NewStatsHandler(stats, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	window := stats.dashboardTo.Sub(stats.dashboardFrom)
	if window < 29*24*time.Hour || window > 31*24*time.Hour {
		t.Errorf("default window = %v, want about 30 days", window)
	}
}

func TestDashboardHandlerValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown period", "?period=decade"},
		{"bad start_date", "?start_date=now&end_date=2025-03-01"},
		{"bad end_date", "?start_date=2025-01-01&end_date=later"},
		{"inverted range", "?start_date=2025-03-01&end_date=2025-01-01"},
		{"start without end", "?start_date=2025-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatsHandler(&stubStatsService{}, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/stats/dashboard"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.Dashboard(rec, req)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDashboardHandlerServiceError(t *testing.T) {
	h := NewStatsHandler(&stubStatsService{err: domain.ErrNotFound}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
