package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ridesg/internal/cities"
	"ridesg/internal/domain"
	"ridesg/internal/geocode"
	"ridesg/internal/httputil"
	"ridesg/internal/service/search"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateLandmarkRequest is the payload for saving a captured landmark.
// Coordinates are optional; when absent the address is geocoded, and the
// landmark is rejected if that fails - the cache never stores a landmark
// without valid coordinates.
type CreateLandmarkRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Address     string           `json:"address,omitempty"`
	URL         string           `json:"url,omitempty"`
	Location    *domain.Location `json:"location,omitempty"`
	City        string           `json:"city,omitempty"`
}

// Validate checks the create payload.
func (r CreateLandmarkRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
		validation.Field(&r.Address, validation.Length(0, 300)),
	)
}

// LandmarkHandler handles landmark persistence and ad-hoc refresh.
type LandmarkHandler struct {
	cache    *search.CacheClient
	geocoder *geocode.Client
	cities   *cities.Registry
	logger   *slog.Logger
}

// NewLandmarkHandler creates a new landmark handler
func NewLandmarkHandler(cache *search.CacheClient, geocoder *geocode.Client, cityRegistry *cities.Registry, logger *slog.Logger) *LandmarkHandler {
	return &LandmarkHandler{
		cache:    cache,
		geocoder: geocoder,
		cities:   cityRegistry,
		logger:   logger,
	}
}

// CreateLandmark saves a landmark into the cache.
// POST /api/landmarks
func (h *LandmarkHandler) CreateLandmark(w http.ResponseWriter, r *http.Request) {
	var req CreateLandmarkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile := h.cities.Get(req.City)

	location := req.Location
	address := req.Address
	if location == nil {
		query := req.Title
		if address != "" {
			query = req.Title + ", " + address
		}
		geo, err := h.geocoder.Geocode(r.Context(), query, profile)
		if err != nil {
			handleError(w, err)
			return
		}
		if geo == nil {
			httputil.RespondError(w, http.StatusBadRequest, "landmark could not be geocoded")
			return
		}
		location = &geo.Location
		if address == "" {
			address = geo.PlaceName
		}
	}

	result := domain.SearchResult{
		Title:       req.Title,
		Description: req.Description,
		Location:    *location,
		Source:      domain.SourceMapbox,
		Timestamp:   time.Now().UnixMilli(),
		Address:     address,
		URL:         req.URL,
	}

	if err := h.cache.Save(r.Context(), &result); err != nil {
		h.logger.Error("failed to save landmark", "title", req.Title, "error", err)
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, result)
}

// RefreshLandmark geocodes the first matching candidate name.
// GET /api/landmarks/refresh?name=<landmark>&name=<street sign text>
//
// Used when a captured photo yields several possible names for one place.
func (h *LandmarkHandler) RefreshLandmark(w http.ResponseWriter, r *http.Request) {
	names := r.URL.Query()["name"]
	if len(names) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "at least one name is required")
		return
	}

	profile := h.cities.Get(r.URL.Query().Get("city"))

	geo, err := h.geocoder.GeocodeFirstAvailable(r.Context(), names, profile)
	if err != nil {
		handleError(w, err)
		return
	}
	if geo == nil {
		httputil.RespondError(w, http.StatusNotFound, "no candidate name could be geocoded")
		return
	}

	now := time.Now().UnixMilli()
	httputil.RespondJSON(w, http.StatusOK, domain.SearchResult{
		ID:        fmt.Sprintf("mapbox-%d-0", now),
		Title:     names[0],
		Location:  geo.Location,
		Source:    domain.SourceMapbox,
		Timestamp: now,
		Address:   geo.PlaceName,
	})
}
