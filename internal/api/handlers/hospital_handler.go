package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/vaccinefinder/backend/pkg/errors"
)

// HospitalService is the part of the hospital service used by the handler
type HospitalService interface {
	Nearby(ctx context.Context, lat, lng float64, targetLanguage string) ([]*entities.Facility, error)
	Details(ctx context.Context, placeID, targetLanguage string) (*entities.Facility, error)
}

// HospitalHandler handles hospital search endpoints
type HospitalHandler struct {
	service HospitalService
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(service HospitalService) *HospitalHandler {
	return &HospitalHandler{service: service}
}

// NearbyRequest is the body of the nearby endpoints
type NearbyRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Language string   `json:"language,omitempty"`
}

// DetailsRequest is the body of the details endpoints
type DetailsRequest struct {
	PlaceID  string `json:"placeId"`
	Language string `json:"language,omitempty"`
}

// HospitalsResponse lists enriched hospitals
type HospitalsResponse struct {
	Hospitals []*entities.Facility `json:"hospitals"`
	Count     int                  `json:"count"`
}

// Nearby handles POST /api/hospitals/nearby
func (h *HospitalHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	var req NearbyRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.nearby(w, r, req, strings.TrimSpace(req.Language))
}

// NearbyTranslated handles POST /api/hospitals/nearby/translated?targetLang=...
func (h *HospitalHandler) NearbyTranslated(w http.ResponseWriter, r *http.Request) {
	target, ok := targetLanguage(w, r)
	if !ok {
		return
	}
	var req NearbyRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.nearby(w, r, req, target)
}

func (h *HospitalHandler) nearby(w http.ResponseWriter, r *http.Request, req NearbyRequest, target string) {
	if req.Lat == nil || req.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	hospitals, err := h.service.Nearby(r.Context(), *req.Lat, *req.Lng, target)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if hospitals == nil {
		hospitals = []*entities.Facility{}
	}
	respondWithJSON(w, http.StatusOK, HospitalsResponse{
		Hospitals: hospitals,
		Count:     len(hospitals),
	})
}

// Details handles POST /api/hospitals/details
func (h *HospitalHandler) Details(w http.ResponseWriter, r *http.Request) {
	var req DetailsRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.details(w, r, req, strings.TrimSpace(req.Language))
}

// DetailsTranslated handles POST /api/hospitals/details/translated?targetLang=...
func (h *HospitalHandler) DetailsTranslated(w http.ResponseWriter, r *http.Request) {
	target, ok := targetLanguage(w, r)
	if !ok {
		return
	}
	var req DetailsRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	h.details(w, r, req, target)
}

func (h *HospitalHandler) details(w http.ResponseWriter, r *http.Request, req DetailsRequest, target string) {
	hospital, err := h.service.Details(r.Context(), strings.TrimSpace(req.PlaceID), target)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, hospital)
}

func targetLanguage(w http.ResponseWriter, r *http.Request) (string, bool) {
	target := strings.TrimSpace(r.URL.Query().Get("targetLang"))
	if target == "" {
		respondWithAppError(w, r, apperrors.NewValidationError("targetLang parameter is required"))
		return "", false
	}
	return target, true
}
