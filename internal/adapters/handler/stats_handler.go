package handler

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
)

type StatsHandler struct {
	stats  ports.StatsService
	logger *zap.Logger
}

func NewStatsHandler(stats ports.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

func (h *StatsHandler) MentorWorkloads(w http.ResponseWriter, r *http.Request) {
	workloads, err := h.stats.MentorWorkloads(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if workloads == nil {
		workloads = []ports.MentorWorkload{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"mentors": workloads})
}

// periodDays maps the period query parameter to a trailing window.
var periodDays = map[string]int{
	"week":    7,
	"month":   30,
	"quarter": 90,
	"year":    365,
}

// Dashboard serves the aggregate visitor figures. The window is either an
// explicit [start_date, end_date] pair or a named trailing period, month by
// default.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var from, to time.Time
	startRaw, endRaw := q.Get("start_date"), q.Get("end_date")
	switch {
	case startRaw != "" && endRaw != "":
		var err error
		from, err = parseDate(startRaw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: start_date invalide", domain.ErrValidation))
			return
		}
		to, err = parseDate(endRaw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: end_date invalide", domain.ErrValidation))
			return
		}
		if to.Before(from) {
			writeError(w, h.logger, fmt.Errorf("%w: end_date doit être postérieure à start_date", domain.ErrValidation))
			return
		}
	case startRaw != "" || endRaw != "":
		writeError(w, h.logger, fmt.Errorf("%w: start_date et end_date vont ensemble", domain.ErrValidation))
		return
	default:
		period := q.Get("period")
		if period == "" {
			period = "month"
		}
		days, ok := periodDays[period]
		if !ok {
			writeError(w, h.logger, fmt.Errorf("%w: période invalide (week, month, quarter, year)", domain.ErrValidation))
			return
		}
		to = time.Now().UTC()
		from = to.AddDate(0, 0, -days)
	}

	stats, err := h.stats.Dashboard(r.Context(), from, to)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stats)
}
