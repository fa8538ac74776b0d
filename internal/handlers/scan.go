package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/wildlens/apiserver/internal/middleware"
	"github.com/wildlens/apiserver/internal/services"
)

const msgScanSaved = "Scan enregistré avec succès"

// ScanHandler serves the owner-scoped scan routes.
type ScanHandler struct {
	scans   *services.ScanService
	guesser *services.SpeciesGuesser
}

func NewScanHandler(scans *services.ScanService, guesser *services.SpeciesGuesser) *ScanHandler {
	return &ScanHandler{scans: scans, guesser: guesser}
}

// ScanRouter registers the scan routes behind requireAuth. maxBodyBytes caps
// request bodies, which carry the image payload; zero disables the cap.
func ScanRouter(r chi.Router, h *ScanHandler, requireAuth func(http.Handler) http.Handler, maxBodyBytes int64) {
	r.Use(requireAuth)
	if maxBodyBytes > 0 {
		r.Use(chimid.RequestSize(maxBodyBytes))
	}
	r.Post("/", h.CreateScan)
	r.Get("/", h.ListScans)
	r.Post("/analyze", h.Analyze)
}

// CreateScanRequest is the scan body sent by the web client.
type CreateScanRequest struct {
	Species     string   `json:"species"`
	Timestamp   string   `json:"timestamp"`
	ImageCount  int      `json:"imageCount"`
	AverageTime string   `json:"averageTime"`
	Image       *string  `json:"image"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// CreateScan stores a scan for the authenticated user. Any owner id in the
// body is ignored.
func (h *ScanHandler) CreateScan(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req CreateScanRequest
	if err := decodeJSON(r, &req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Requête trop volumineuse")
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	scan, err := h.scans.Create(r.Context(), userID, services.CreateScanInput{
		Species:     req.Species,
		Timestamp:   req.Timestamp,
		ImageCount:  req.ImageCount,
		AverageTime: req.AverageTime,
		Image:       req.Image,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeError(w, http.StatusBadRequest, validationErrorMessage(err))
			return
		}
		writeServerError(w, r, err, "create scan")
		return
	}

	middleware.RecordScanCreated()
	writeJSON(w, http.StatusCreated, CreatedResponse{Message: msgScanSaved, ID: scan.ID})
}

// ListScans returns the caller's scans, newest first. An empty history is an
// empty array.
func (h *ScanHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	scans, err := h.scans.ListByOwner(r.Context(), userID)
	if err != nil {
		writeServerError(w, r, err, "list scans")
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// Analyze returns a placeholder species guess. Nothing is stored.
func (h *ScanHandler) Analyze(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.guesser.Guess())
}

// validationErrorMessage returns the client message of a
// services.ValidationError.
func validationErrorMessage(err error) string {
	var verr *services.ValidationError
	if errors.As(err, &verr) && verr.Msg != "" {
		return verr.Msg
	}
	return msgFieldsMissing
}
