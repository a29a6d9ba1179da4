package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/LycorisBlue/backend-ruachconnect/internal/core/domain"
	"github.com/LycorisBlue/backend-ruachconnect/internal/core/ports"
	mw "github.com/LycorisBlue/backend-ruachconnect/internal/adapters/middleware"
)

type PersonHandler struct {
	persons   ports.PersonService
	assigner  ports.MentorAssigner
	followUps ports.FollowUpService
	logger    *zap.Logger
}

func NewPersonHandler(
	persons ports.PersonService,
	assigner ports.MentorAssigner,
	followUps ports.FollowUpService,
	logger *zap.Logger,
) *PersonHandler {
	return &PersonHandler{
		persons:   persons,
		assigner:  assigner,
		followUps: followUps,
		logger:    logger,
	}
}

type createPersonRequest struct {
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	Gender              string `json:"gender"`
	DateOfBirth         string `json:"date_of_birth,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Email               string `json:"email,omitempty"`
	Address             string `json:"address,omitempty"`
	Commune             string `json:"commune,omitempty"`
	Quartier            string `json:"quartier,omitempty"`
	Profession          string `json:"profession,omitempty"`
	MaritalStatus       string `json:"marital_status,omitempty"`
	HowHeardAboutChurch string `json:"how_heard_about_church,omitempty"`
	PrayerRequests      string `json:"prayer_requests,omitempty"`
	FirstVisitDate      string `json:"first_visit_date"`
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "Données invalides"})
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	person, err := h.persons.CreatePerson(r.Context(), input, mw.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, person)
}

func (req createPersonRequest) toInput() (ports.CreatePersonInput, error) {
	var input ports.CreatePersonInput

	if req.FirstName == "" || req.LastName == "" {
		return input, fmt.Errorf("%w: prénom et nom requis", domain.ErrValidation)
	}
	gender := domain.Gender(req.Gender)
	if gender != domain.GenderMale && gender != domain.GenderFemale {
		return input, fmt.Errorf("%w: genre invalide", domain.ErrValidation)
	}
	if req.FirstVisitDate == "" {
		return input, fmt.Errorf("%w: date de première visite requise", domain.ErrValidation)
	}
	firstVisit, err := parseDate(req.FirstVisitDate)
	if err != nil {
		return input, fmt.Errorf("%w: date de première visite invalide", domain.ErrValidation)
	}

	input = ports.CreatePersonInput{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Gender:              gender,
		Phone:               req.Phone,
		Email:               req.Email,
		Address:             req.Address,
		Commune:             req.Commune,
		Quartier:            req.Quartier,
		Profession:          req.Profession,
		MaritalStatus:       domain.MaritalStatus(req.MaritalStatus),
		HowHeardAboutChurch: req.HowHeardAboutChurch,
		PrayerRequests:      req.PrayerRequests,
		FirstVisitDate:      firstVisit,
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return input, fmt.Errorf("%w: date de naissance invalide", domain.ErrValidation)
		}
		input.DateOfBirth = &dob
	}
	return input, nil
}

// List serves the filtered, paginated register. Mentors only ever see their
// own assignees regardless of the mentor_id parameter.
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter ports.PersonListFilter

	if raw := q.Get("status"); raw != "" {
		status := domain.PersonStatus(raw)
		if !status.Valid() {
			writeError(w, h.logger, fmt.Errorf("%w: statut inconnu %q", domain.ErrValidation, raw))
			return
		}
		filter.Status = &status
	}
	filter.MentorID = q.Get("mentor_id")
	filter.Commune = q.Get("commune")
	filter.Search = q.Get("search")

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

	persons, pagination, err := h.persons.ListPersons(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if persons == nil {
		persons = []domain.Person{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"items":      persons,
		"pagination": pagination,
	})
}

func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	person, err := h.persons.GetPerson(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, person)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *PersonHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "Données invalides"})
		return
	}
	status := domain.PersonStatus(req.Status)
	if !status.Valid() {
		writeError(w, h.logger, fmt.Errorf("%w: statut inconnu %q", domain.ErrValidation, req.Status))
		return
	}

	person, err := h.persons.SetStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, person)
}

type assignMentorRequest struct {
	MentorID string `json:"mentor_id"`
}

func (h *PersonHandler) AssignMentor(w http.ResponseWriter, r *http.Request) {
	var req assignMentorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MentorID == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, errorResponse{Error: "Données invalides"})
		return
	}

	person, err := h.assigner.AssignMentor(r.Context(), r.PathValue("id"), req.MentorID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, person)
}

// Overdue lists visitors whose follow-up has gone stale. The days query
// parameter is clamped to [1, 365], defaulting to 7.
func (h *PersonHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	if days < 1 || days > 365 {
		writeError(w, h.logger, fmt.Errorf("%w: days doit être entre 1 et 365", domain.ErrValidation))
		return
	}

	entries, err := h.followUps.FindOverdue(r.Context(), days)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if entries == nil {
		entries = []domain.OverdueEntry{}
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"overdue":      entries,
		"count":        len(entries),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
