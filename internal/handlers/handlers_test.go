package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wildlens/apiserver/internal/services"
)

func TestValidationMessage(t *testing.T) {
	v := newValidator()

	err := v.Struct(&SignupRequest{Surname: "Dupont", Firstname: "Jeanne", Email: "j@example.com", Password: "short", ConfirmPassword: "short"})
	require.Error(t, err)
	assert.Equal(t, "Le champ password doit contenir au moins 8 caractères", validationMessage(err))

	err = v.Struct(&SignupRequest{Firstname: "Jeanne", Email: "j@example.com", Password: "password1", ConfirmPassword: "password1"})
	require.Error(t, err)
	assert.Equal(t, msgFieldsMissing, validationMessage(err))

	err = v.Struct(&SignupRequest{Surname: "Dupont", Firstname: "Jeanne", Email: "nope", Password: "password1", ConfirmPassword: "password1"})
	require.Error(t, err)
	assert.Equal(t, "Adresse email invalide", validationMessage(err))

	err = v.Struct(&SignupRequest{Surname: strings.Repeat("é", 256), Firstname: "Jeanne", Email: "j@example.com", Password: "password1", ConfirmPassword: "password1"})
	require.Error(t, err)
	assert.Equal(t, "Le champ surname est trop long", validationMessage(err))

	assert.Equal(t, msgInvalidBody, validationMessage(errors.New("other")))
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &services.ValidationError{Field: "imageCount", Msg: "Le champ imageCount est invalide"}
	assert.Equal(t, verr.Msg, validationErrorMessage(verr))
	assert.Equal(t, verr.Msg, validationErrorMessage(fmt.Errorf("create scan: %w", verr)))
	assert.Equal(t, msgFieldsMissing, validationErrorMessage(services.ErrValidation))
	assert.Equal(t, msgFieldsMissing, validationErrorMessage(&services.ValidationError{Field: "species"}))
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	assert.NoError(t, decodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}{"b":2}`))
	assert.Error(t, decodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.Error(t, decodeJSON(req, &dst))
}

func TestUserIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)

	id, ok := UserIDFromContext(withUserID(req.Context(), 12))
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	_, ok = UserIDFromContext(withUserID(req.Context(), 0))
	assert.False(t, ok)
}

func TestHandlersRejectMissingOwner(t *testing.T) {
	h := NewScanHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.ListScans(rec, httptest.NewRequest(http.MethodGet, "/scans", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateScan(rec, httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
