package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/activity-booking/internal/schedule"
)

type ScheduleHandler struct {
	config      schedule.Config
	location    *time.Location
	horizonDays int
	now         func() time.Time
	responder   responder
	logger      *slog.Logger
}

// NewScheduleHandler serves rule lookups against cfg. A non-positive
// horizonDays falls back to schedule.DefaultHorizonDays.
func NewScheduleHandler(cfg schedule.Config, horizonDays int, now func() time.Time, logger *slog.Logger) (*ScheduleHandler, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		horizonDays = schedule.DefaultHorizonDays
	}
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &ScheduleHandler{
		config:      cfg,
		location:    loc,
		horizonDays: horizonDays,
		now:         now,
		responder:   newResponder(base),
		logger:      base,
	}, nil
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

// Rule answers GET /schedule/rule?date=YYYY-MM-DD.
func (h *ScheduleHandler) Rule(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, err := schedule.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")), h.location)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	rule, ok := schedule.FindRuleForDate(h.config, date)
	if !ok {
		h.log(r.Context(), "Rule", "date", schedule.CanonicalDate(date)).DebugContext(r.Context(), "no rule for date")
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoMatchingRule)
		return
	}

	h.renderOccurrence(w, r, schedule.Match{Rule: rule, Date: date})
}

// Next answers GET /schedule/next?from=YYYY-MM-DD&horizon=N. Both parameters
// are optional: from defaults to today in the schedule timezone.
func (h *ScheduleHandler) Next(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	from := h.now().In(h.location)
	if value := strings.TrimSpace(query.Get("from")); value != "" {
		parsed, err := schedule.ParseDate(value, h.location)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		from = parsed
	}

	horizon := h.horizonDays
	if value := strings.TrimSpace(query.Get("horizon")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidHorizon)
			return
		}
		horizon = parsed
	}

	match, ok := schedule.FindNextRule(h.config, from, horizon)
	if !ok {
		h.log(r.Context(), "Next", "from", schedule.CanonicalDate(from), "horizon", horizon).DebugContext(r.Context(), "no rule within horizon")
		h.responder.writeError(r.Context(), w, http.StatusNotFound, errNoMatchingRule)
		return
	}

	h.renderOccurrence(w, r, match)
}

// Upcoming answers GET /schedule/upcoming?from=YYYY-MM-DD&days=N with every
// occurrence in [from, from+days). from defaults to today and days to
// schedule.DefaultUpcomingDays.
func (h *ScheduleHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	from := h.now().In(h.location)
	if value := strings.TrimSpace(query.Get("from")); value != "" {
		parsed, err := schedule.ParseDate(value, h.location)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		from = parsed
	}

	days := schedule.DefaultUpcomingDays
	if value := strings.TrimSpace(query.Get("days")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, schedule.ErrInvalidWindow)
			return
		}
		days = parsed
	}

	matches, err := schedule.Upcoming(h.config, from, days)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}
	occurrences, err := h.config.Occurrences(matches)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, upcomingResponse{Occurrences: occurrences})
}

type upcomingResponse struct {
	Occurrences []schedule.Occurrence `json:"occurrences"`
}

func (h *ScheduleHandler) renderOccurrence(w http.ResponseWriter, r *http.Request, match schedule.Match) {
	occurrence, err := h.config.Occurrence(match)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrence)
}
