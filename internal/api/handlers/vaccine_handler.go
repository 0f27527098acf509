package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/vaccinefinder/backend/internal/application/services"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
)

// VaccineCache is the part of the vaccine cache used by the handler
type VaccineCache interface {
	Lookup(ctx context.Context, name string) matching.MatchResult
	Refresh(ctx context.Context, lat, lng float64) services.RefreshResult
	Stats() services.CacheStats
}

// VaccineHandler exposes the vaccine cache for inspection
type VaccineHandler struct {
	cache VaccineCache
}

// NewVaccineHandler creates a new vaccine handler
func NewVaccineHandler(cache VaccineCache) *VaccineHandler {
	return &VaccineHandler{cache: cache}
}

// LookupResponse describes a single match
type LookupResponse struct {
	Query    string                `json:"query"`
	Outcome  matching.Outcome      `json:"outcome"`
	Key      string                `json:"key,omitempty"`
	Distance *int                  `json:"distance,omitempty"`
	Site     *entities.VaccineSite `json:"site,omitempty"`
}

// RefreshRequest is the body of the refresh endpoint
type RefreshRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Lookup handles GET /api/vaccines/lookup?name=...
func (h *VaccineHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "name parameter is required")
		return
	}

	result := h.cache.Lookup(r.Context(), name)
	resp := LookupResponse{Query: name, Outcome: result.Outcome}
	if result.Found() {
		site := *result.Site
		site.Vaccines = append([]string(nil), result.Site.Vaccines...)
		distance := result.Distance
		resp.Key = result.Key
		resp.Distance = &distance
		resp.Site = &site
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/vaccines/refresh
func (h *VaccineHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if !(entities.Location{Latitude: *req.Lat, Longitude: *req.Lng}).Valid() {
		respondWithError(w, http.StatusBadRequest, "lat must be within [-90, 90] and lng within [-180, 180]")
		return
	}

	result := h.cache.Refresh(r.Context(), *req.Lat, *req.Lng)
	respondWithJSON(w, http.StatusOK, result)
}

// Stats handles GET /api/vaccines/cache
func (h *VaccineHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.cache.Stats())
}
