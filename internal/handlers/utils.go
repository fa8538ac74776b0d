package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	msgServerError   = "Erreur serveur"
	msgInvalidBody   = "Corps de requête invalide"
	msgNotFound      = "Route non trouvée"
	msgNotAllowed    = "Méthode non autorisée"
	msgUnauthorized  = "Accès non autorisé"
	msgInvalidToken  = "Token invalide"
	msgExpiredToken  = "Token expiré"
	msgFieldsMissing = "Tous les champs sont requis"
)

type contextKey string

const contextUserIDKey contextKey = "user_id"

// MessageResponse is the body of every error and of simple confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse confirms a signup or a stored scan.
type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func withUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, contextUserIDKey, userID)
}

// UserIDFromContext returns the id set by RequireAuth.
func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(contextUserIDKey).(int)
	return userID, ok && userID > 0
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeServerError logs err with the request logger and answers with a
// generic message.
func writeServerError(w http.ResponseWriter, r *http.Request, err error, action string) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("action", action).Msg("request failed")
	writeError(w, http.StatusInternalServerError, msgServerError)
}

// decodeJSON reads a single JSON object from the body.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns validator errors into a short client message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgInvalidBody
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return msgFieldsMissing
	case "email":
		return "Adresse email invalide"
	case "min":
		return "Le champ " + fe.Field() + " doit contenir au moins " + fe.Param() + " caractères"
	case "max":
		return "Le champ " + fe.Field() + " est trop long"
	default:
		return "Le champ " + fe.Field() + " est invalide"
	}
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
}
