package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wildlens/apiserver/internal/auth"
	"github.com/wildlens/apiserver/internal/middleware"
	"github.com/wildlens/apiserver/internal/services"
)

const (
	msgPasswordMismatch   = "Les mots de passe ne correspondent pas"
	msgEmailTaken         = "Cet email est déjà utilisé"
	msgUserCreated        = "Utilisateur enregistré avec succès"
	msgLoginFieldsMissing = "Veuillez remplir tous les champs"
	msgBadCredentials     = "Email ou mot de passe incorrect"
	msgLoggedIn           = "Connexion réussie"
)

// AuthHandler serves signup and login and guards the scan routes.
type AuthHandler struct {
	users    *services.UserService
	tokens   *auth.TokenAuthority
	validate *validator.Validate
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenAuthority) *AuthHandler {
	return &AuthHandler{
		users:    users,
		tokens:   tokens,
		validate: newValidator(),
	}
}

// AuthRouter registers /signup and /login. limit wraps both routes and may be
// nil.
func AuthRouter(r chi.Router, h *AuthHandler, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})
}

// RequireAuth rejects requests without a valid bearer token: 401 when it is
// absent, 403 when it is invalid or expired.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r)
		if err == nil {
			var userID int
			userID, err = h.tokens.Verify(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
				return
			}
		}

		switch {
		case errors.Is(err, auth.ErrMissingToken):
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
		case errors.Is(err, auth.ErrExpiredToken):
			writeError(w, http.StatusForbidden, msgExpiredToken)
		default:
			writeError(w, http.StatusForbidden, msgInvalidToken)
		}
	})
}

type SignupRequest struct {
	Surname         string `json:"surname" validate:"required,max=255"`
	Firstname       string `json:"firstname" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmpassword" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Signup creates an account. No token is issued; the client logs in next.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	req.Surname = strings.TrimSpace(req.Surname)
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Email = strings.TrimSpace(req.Email)

	if err := h.validate.Struct(&req); err != nil {
		middleware.RecordAuthAttempt("signup", false)
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if req.Password != req.ConfirmPassword {
		middleware.RecordAuthAttempt("signup", false)
		writeError(w, http.StatusBadRequest, msgPasswordMismatch)
		return
	}

	user, err := h.users.Register(r.Context(), req.Surname, req.Firstname, req.Email, req.Password)
	if err != nil {
		middleware.RecordAuthAttempt("signup", false)
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, validationErrorMessage(err))
		case errors.Is(err, services.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, msgEmailTaken)
		default:
			writeServerError(w, r, err, "signup")
		}
		return
	}

	middleware.RecordAuthAttempt("signup", true)
	writeJSON(w, http.StatusCreated, CreatedResponse{Message: msgUserCreated, ID: int64(user.ID)})
}

// Login exchanges credentials for a token valid one hour.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(&req); err != nil {
		middleware.RecordAuthAttempt("login", false)
		writeError(w, http.StatusBadRequest, msgLoginFieldsMissing)
		return
	}

	userID, err := h.users.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RecordAuthAttempt("login", false)
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, msgBadCredentials)
			return
		}
		writeServerError(w, r, err, "login")
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		writeServerError(w, r, err, "issue token")
		return
	}

	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, LoginResponse{Message: msgLoggedIn, Token: token})
}
