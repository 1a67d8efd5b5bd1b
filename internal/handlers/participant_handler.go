package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/roster"
	"github.com/lulus/backend/internal/services"
)

type ParticipantHandler struct {
	participants services.ParticipantService
	jwtSecret    string
	editTokenTTL time.Duration
}

func NewParticipantHandler(participants services.ParticipantService, jwtSecret string, editTokenTTL time.Duration) *ParticipantHandler {
	return &ParticipantHandler{
		participants: participants,
		jwtSecret:    jwtSecret,
		editTokenTTL: editTokenTTL,
	}
}

// List returns the roster, optionally filtered and sorted:
// GET /api/participants?search=&month=&sort=
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.participants.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list participants"))
		return
	}

	q := r.URL.Query()
	list = roster.FilterAndSort(list, q.Get("search"), q.Get("month"), q.Get("sort"))
	for i := range list {
		list[i].PhotoURL = roster.PhotoURL(list[i].PhotoURL, list[i].PhotoUpdatedAt)
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(list))
}

// NextBirthday returns the participant whose birthday comes up next, with
// the zodiac sign and a day countdown. Data is null for an empty roster.
func (h *ParticipantHandler) NextBirthday(w http.ResponseWriter, r *http.Request) {
	list, err := h.participants.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list participants"))
		return
	}

	next, ok := roster.NextBirthday(list)
	if !ok {
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"participant": next,
		"days_until":  roster.DaysUntilBirthday(next, time.Now()),
		"date":        roster.FormatDayMonth(next.Date),
		"date_long":   roster.FormatLong(next.Date),
		"sign":        roster.SignFor(next.Date),
		"initials":    roster.Initials(next.FullName),
	}))
}

// Stats returns the per-month and per-sign breakdowns.
func (h *ParticipantHandler) Stats(w http.ResponseWriter, r *http.Request) {
	list, err := h.participants.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load stats"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"months": roster.MonthStats(list),
		"signs":  roster.SignStats(list),
	}))
}

func (h *ParticipantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid participant id"))
		return
	}

	p, err := h.participants.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
		return
	}
	p.PhotoURL = roster.PhotoURL(p.PhotoURL, p.PhotoUpdatedAt)

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

func (h *ParticipantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	p, err := h.participants.Create(&req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create participant"))
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(p))
}

func (h *ParticipantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid participant id"))
		return
	}

	var req models.UpdateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	p, err := h.participants.Update(id, &req)
	if err != nil {
		if err == services.ErrParticipantNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update participant"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid participant id"))
		return
	}

	if err := h.participants.Delete(id); err != nil {
		if err == services.ErrParticipantNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete participant"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Participant deleted successfully"}))
}

// IssueEditToken mints an opaque edit link token for a participant, so they
// can update their own record without an account. Admin only.
func (h *ParticipantHandler) IssueEditToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid participant id"))
		return
	}

	if _, err := h.participants.GetByID(id); err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
		return
	}

	claims := jwt.MapClaims{
		"participant_id": id,
		"scope":          "edit",
		"exp":            time.Now().Add(h.editTokenTTL).Unix(),
		"iat":            time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to generate token"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"token": token}))
}

// GetByEditToken resolves an edit link token to the participant it covers.
func (h *ParticipantHandler) GetByEditToken(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEditToken(chi.URLParam(r, "token"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired edit link"))
		return
	}

	p, err := h.participants.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

// UpdateByEditToken lets a participant edit their own record via the edit
// link, without admin rights.
func (h *ParticipantHandler) UpdateByEditToken(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseEditToken(chi.URLParam(r, "token"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired edit link"))
		return
	}

	var req models.UpdateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	// Assignments are admin territory; the edit link only covers personal
	// data.
	req.GivesToID = nil
	req.GivesTo = nil

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errors))
		return
	}

	p, err := h.participants.Update(id, &req)
	if err != nil {
		if err == services.ErrParticipantNotFound {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Participant not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update participant"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(p))
}

func (h *ParticipantHandler) parseEditToken(token string) (int, bool) {
	if token == "" {
		return 0, false
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return 0, false
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	if scope, _ := claims["scope"].(string); scope != "edit" {
		return 0, false
	}
	id, ok := claims["participant_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return int(id), true
}
