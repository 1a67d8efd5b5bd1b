package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/lulus/backend/internal/middleware"
	"github.com/lulus/backend/internal/models"
	"github.com/lulus/backend/internal/services"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*chi.Mux, services.ParticipantService) {
	t.Helper()

	svc, err := services.NewFileParticipantService(t.TempDir())
	require.NoError(t, err)

	h := NewParticipantHandler(svc, testSecret, time.Hour)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.OptionalAuth(nil, testSecret))
		r.Get("/participants", h.List)
		r.Get("/participants/next-birthday", h.NextBirthday)
		r.Get("/participants/stats", h.Stats)
		r.Get("/participants/edit/{token}", h.GetByEditToken)
		r.Put("/participants/edit/{token}", h.UpdateByEditToken)
	})
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(nil, testSecret))
		r.Use(appMiddleware.RequireAdmin)
		r.Post("/participants", h.Create)
		r.Post("/participants/{id}/edit-token", h.IssueEditToken)
	})

	return r, svc
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  "admin-1",
		"is_admin": true,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateParticipant_RequiresAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	body := map[string]interface{}{"name": "Ana", "date": "1990-05-02T00:00:00Z"}

	rec := doJSON(t, r, http.MethodPost, "/participants", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/participants", adminToken(t), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
}

func TestCreateParticipant_ValidationErrorsArePortuguese(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/participants", adminToken(t), map[string]interface{}{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	require.False(t, resp.Success)
	fields, ok := resp.Errors.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Nome é obrigatório", fields["name"])
	assert.Equal(t, "Data de aniversário é obrigatória", fields["date"])
}

func TestNextBirthday_EmptyRosterReturnsNull(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/participants/next-birthday", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestDerivedPresentationFields(t *testing.T) {
	r, svc := newTestRouter(t)

	created, err := svc.Create(&models.CreateParticipantRequest{
		Name:     "Ana",
		FullName: "Ana Beatriz Souza",
		Date:     time.Date(1990, time.March, 21, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, svc.SetPhoto(created.ID, "/uploads/ana.jpg", 1700000000000))

	// The list carries the cache-busted photo URL.
	rec := doJSON(t, r, http.MethodGet, "/participants", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	first, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/uploads/ana.jpg?v=1700000000000", first["photo_url"])

	// Next-birthday carries the long-form date and initials.
	rec = doJSON(t, r, http.MethodGet, "/participants/next-birthday", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "March 21", data["date_long"])
	assert.Equal(t, "AB", data["initials"])
}

func TestStats_AlwaysTwelveMonths(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/participants/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	months, ok := data["months"].([]interface{})
	require.True(t, ok)
	assert.Len(t, months, 12)
	signs, ok := data["signs"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, signs)
}

func TestEditTokenFlow(t *testing.T) {
	r, svc := newTestRouter(t)

	created, err := svc.Create(&models.CreateParticipantRequest{
		Name: "Ana",
		Date: time.Date(1990, time.May, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	rec := doJSON(t, r, http.MethodPost, "/participants/1/edit-token", adminToken(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	// The edit link works without any account.
	rec = doJSON(t, r, http.MethodGet, "/participants/edit/"+token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPut, "/participants/edit/"+token, "", map[string]interface{}{
		"city": "Recife",
		// Assignments cannot be changed through the edit link.
		"gives_to_id": 42,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := svc.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Recife", got.City)
	assert.Zero(t, got.GivesToID)

	// Garbage tokens are rejected.
	rec = doJSON(t, r, http.MethodGet, "/participants/edit/bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
