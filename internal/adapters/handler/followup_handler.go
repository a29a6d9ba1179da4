package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	mw "github.com/LycorisBlue/backend-ruachconnect/internal/adapters/middleware"
)

const (
	maxNotesLength           = 1000
	maxNextActionNotesLength = 500
)

type FollowUpHandler struct {
	followUps ports.FollowUpService
	logger    *zap.Logger
}

func NewFollowUpHandler(followUps ports.FollowUpService, logger *zap.Logger) *FollowUpHandler {
	return &FollowUpHandler{followUps: followUps, logger: logger}
}

type createFollowUpRequest struct {
	PersonID         string `json:"person_id"`
	InteractionType  string `json:"interaction_type"`
	InteractionDate  string `json:"interaction_date"`
	Notes            string `json:"notes,omitempty"`
	Outcome          string `json:"outcome"`
	NextActionNeeded bool   `json:"next_action_needed"`
	NextActionDate   string `json:"next_action_date,omitempty"`
	NextActionNotes  string `json:"next_action_notes,omitempty"`
}

func (h *FollowUpHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFollowUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "Données invalides"})
		return
	}

	input, err := req.toInput(time.Now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	followUp, err := h.followUps.RecordFollowUp(r.Context(), input, mw.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, followUp)
}

// toInput enforces the boundary rules: interaction within the past year and
// not in the future, next action strictly after the interaction and at most
// one year out.
func (req createFollowUpRequest) toInput(now time.Time) (ports.CreateFollowUpInput, error) {
	var input ports.CreateFollowUpInput

	if req.PersonID == "" {
		return input, fmt.Errorf("%w: person_id requis", domain.ErrValidation)
	}
	interactionType := domain.InteractionType(req.InteractionType)
	if !interactionType.Valid() {
		return input, fmt.Errorf("%w: type d'interaction invalide", domain.ErrValidation)
	}
	outcome := domain.Outcome(req.Outcome)
	if !outcome.Valid() {
		return input, fmt.Errorf("%w: résultat invalide", domain.ErrValidation)
	}
	interactionDate, err := parseDate(req.InteractionDate)
	if err != nil {
		return input, fmt.Errorf("%w: date d'interaction invalide", domain.ErrValidation)
	}
	if interactionDate.After(now) {
		return input, fmt.Errorf("%w: la date d'interaction ne peut pas être dans le futur", domain.ErrValidation)
	}
	if interactionDate.Before(now.AddDate(-1, 0, 0)) {
		return input, fmt.Errorf("%w: la date d'interaction ne peut pas dater de plus d'un an", domain.ErrValidation)
	}
	if len(req.Notes) > maxNotesLength {
		return input, fmt.Errorf("%w: notes maximum %d caractères", domain.ErrValidation, maxNotesLength)
	}

	input = ports.CreateFollowUpInput{
		PersonID:         req.PersonID,
		InteractionType:  interactionType,
		InteractionDate:  interactionDate,
		Notes:            req.Notes,
		Outcome:          outcome,
		NextActionNeeded: req.NextActionNeeded,
		NextActionNotes:  req.NextActionNotes,
	}

	if req.NextActionNeeded {
		if req.NextActionDate == "" {
			return input, fmt.Errorf("%w: next_action_date requis quand une action est prévue", domain.ErrValidation)
		}
		actionDate, err := parseDate(req.NextActionDate)
		if err != nil {
			return input, fmt.Errorf("%w: next_action_date invalide", domain.ErrValidation)
		}
		if !actionDate.After(interactionDate) {
			return input, fmt.Errorf("%w: la prochaine action doit être après l'interaction", domain.ErrValidation)
		}
		if actionDate.After(now.AddDate(1, 0, 0)) {
			return input, fmt.Errorf("%w: la prochaine action ne peut pas dépasser un an", domain.ErrValidation)
		}
		if len(req.NextActionNotes) > maxNextActionNotesLength {
			return input, fmt.Errorf("%w: notes action maximum %d caractères", domain.ErrValidation, maxNextActionNotesLength)
		}
		input.NextActionDate = &actionDate
	}

	return input, nil
}

// List serves the filtered, paginated interaction history. Mentors are
// scoped to their own follow-ups; other roles may filter by mentor_id.
func (h *FollowUpHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter ports.FollowUpListFilter

	filter.PersonID = q.Get("person_id")
	filter.MentorID = q.Get("mentor_id")

	if raw := q.Get("outcome"); raw != "" {
		outcome := domain.Outcome(raw)
		if !outcome.Valid() {
			writeError(w, h.logger, fmt.Errorf("%w: résultat inconnu %q", domain.ErrValidation, raw))
			return
		}
		filter.Outcome = &outcome
	}

	if raw := q.Get("date_from"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: date_from invalide", domain.ErrValidation))
			return
		}
		filter.From = &from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			writeError(w, h.logger, fmt.Errorf("%w: date_to invalide", domain.ErrValidation))
			return
		}
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		writeError(w, h.logger, fmt.Errorf("%w: date_to doit être postérieure à date_from", domain.ErrValidation))
		return
	}

	if mw.Role(r.Context()) == string(domain.RoleMentor) {
		filter.MentorID = mw.UserID(r.Context())
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if page < 1 || limit < 1 || limit > 100 {
		writeError(w, h.logger, fmt.Errorf("%w: pagination invalide (page >= 1, limit entre 1 et 100)", domain.ErrValidation))
		return
	}

	followUps, pagination, err := h.followUps.ListFollowUps(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if followUps == nil {
		followUps = []domain.FollowUp{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"items":      followUps,
		"pagination": pagination,
	})
}

// Upcoming lists the authenticated mentor's next actions. The days query
// parameter is bounded to [1, 90], defaulting to 7.
func (h *FollowUpHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days < 1 || days > 90 {
		writeError(w, h.logger, fmt.Errorf("%w: days doit être entre 1 et 90", domain.ErrValidation))
		return
	}

	actions, err := h.followUps.FindUpcomingActions(r.Context(), mw.UserID(r.Context()), days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if actions == nil {
		actions = []domain.FollowUp{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"upcoming": actions,
		"count":    len(actions),
	})
}
