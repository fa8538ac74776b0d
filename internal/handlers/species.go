package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/wildlens/apiserver/internal/services"
)

const msgSpeciesNotFound = "Espèce non trouvée"

// SpeciesHandler serves the public species reference data.
type SpeciesHandler struct {
	species *services.SpeciesService
}

func NewSpeciesHandler(species *services.SpeciesService) *SpeciesHandler {
	return &SpeciesHandler{species: species}
}

func SpeciesRouter(r chi.Router, h *SpeciesHandler) {
	r.Get("/", h.ListSpecies)
	r.Get("/{species}", h.GetSpecies)
}

// GetSpecies looks the decoded path segment up exactly as written.
func (h *SpeciesHandler) GetSpecies(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "species")
	// chi routes on RawPath when it is set, leaving the segment escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			writeError(w, http.StatusNotFound, msgSpeciesNotFound)
			return
		}
		name = unescaped
	}

	info, err := h.species.Lookup(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrSpeciesNotFound) {
			writeError(w, http.StatusNotFound, msgSpeciesNotFound)
			return
		}
		writeServerError(w, r, err, "lookup species")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SpeciesHandler) ListSpecies(w http.ResponseWriter, r *http.Request) {
	list, err := h.species.List(r.Context())
	if err != nil {
		writeServerError(w, r, err, "list species")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
