package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ridesg/internal/answer"
	"ridesg/internal/cities"
	"ridesg/internal/domain"
	"ridesg/internal/geocode"
)

// promptLandmarkCount is how many landmarks the answer API is asked for.
const promptLandmarkCount = 10

// AnswerClient is the answer-API surface the semantic searcher needs.
type AnswerClient interface {
	Ask(ctx context.Context, query string, numSources int) (*answer.Answer, error)
	IsConfigured() bool
}

// Geocoder resolves extracted candidates to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string, profile *cities.Profile) (*geocode.Result, error)
	ReverseGeocode(ctx context.Context, loc domain.Location) (string, error)
}

// SemanticSearcher asks the answer API for landmarks, parses the
// natural-language reply into candidates, and geocodes each one. Candidates
// that fail geocoding are dropped - a result never carries invalid
// coordinates.
type SemanticSearcher struct {
	answers  AnswerClient
	geocoder Geocoder
	state    *Tracker
	logger   *slog.Logger
}

// NewSemanticSearcher creates a semantic searcher publishing progress into
// the given state tracker. state may be nil for standalone use.
func NewSemanticSearcher(answers AnswerClient, geocoder Geocoder, state *Tracker, logger *slog.Logger) *SemanticSearcher {
	return &SemanticSearcher{
		answers:  answers,
		geocoder: geocoder,
		state:    state,
		logger:   logger,
	}
}

// Search runs the full semantic pipeline for one query. userLoc and
// locationName bias the prompt; profile biases parsing and geocoding.
// Geocoding runs sequentially on purpose: one outbound lookup at a time
// per search keeps well under upstream rate limits.
func (s *SemanticSearcher) Search(
	ctx context.Context,
	query string,
	userLoc *domain.Location,
	locationName string,
	profile *cities.Profile,
) ([]domain.SearchResult, error) {
	if !s.answers.IsConfigured() {
		s.logger.Warn("answer API key not set, returning mock landmarks")
		return mockResults(profile), nil
	}

	prompt := s.buildPrompt(ctx, query, userLoc, locationName, profile)

	ans, err := s.answers.Ask(ctx, prompt, 5)
	if err != nil {
		return nil, err
	}

	entries := NewExtractor(profile, s.logger).Extract(ans.Answer)
	s.logger.Debug("extracted location candidates", "query", query, "count", len(entries))

	citationURL := ""
	if len(ans.Sources) > 0 {
		citationURL = ans.Sources[0].URL
	}

	now := time.Now().UnixMilli()
	var results []domain.SearchResult

	for i, entry := range entries {
		geo, err := s.geocoder.Geocode(ctx, entry.SearchQuery, profile)
		if err != nil {
			return nil, err
		}
		if geo == nil {
			s.logger.Debug("candidate failed geocoding", "name", entry.Name)
			continue
		}

		address := entry.Address
		if address == "" {
			address = geo.PlaceName
		}

		confidence := entry.Confidence
		results = append(results, domain.SearchResult{
			ID:          fmt.Sprintf("exa-%d-%d", now, i),
			Title:       entry.Name,
			Description: entry.Description,
			Location:    geo.Location,
			Source:      domain.SourceExa,
			Timestamp:   now,
			Address:     address,
			URL:         citationURL,
			Confidence:  &confidence,
		})

		if s.state != nil {
			s.state.SetResults(results)
		}
	}

	return results, nil
}

// buildPrompt asks for a pipe-delimited landmark list, biased toward the
// best location context available: a reverse-geocoded place name beats raw
// coordinates, which beat the bare city.
func (s *SemanticSearcher) buildPrompt(
	ctx context.Context,
	query string,
	userLoc *domain.Location,
	locationName string,
	profile *cities.Profile,
) string {
	where := profile.Name
	switch {
	case locationName != "":
		where = locationName
	case userLoc != nil && userLoc.Valid():
		if name, err := s.geocoder.ReverseGeocode(ctx, *userLoc); err == nil && name != "" {
			where = name
		} else {
			where = fmt.Sprintf("coordinates %.4f, %.4f", userLoc.Latitude, userLoc.Longitude)
		}
	}

	return fmt.Sprintf(
		"List up to %d landmarks matching %q near %s. "+
			"Format each as a numbered list item: name | street address | one-sentence description.",
		promptLandmarkCount, query, where,
	)
}

// mockResults is the configuration-missing degrade path: a fixed landmark
// set per city so local development works without an Exa key.
func mockResults(profile *cities.Profile) []domain.SearchResult {
	now := time.Now().UnixMilli()

	type mock struct {
		title, desc, addr string
		lat, lon          float64
	}

	var landmarks []mock
	if profile != nil && profile.ID == "jakarta" {
		landmarks = []mock{
			{"National Monument", "Obelisk marking Indonesian independence", "Gambir, Central Jakarta", -6.1754, 106.8272},
			{"Kota Tua", "Colonial-era old town square", "West Jakarta", -6.1352, 106.8133},
			{"Istiqlal Mosque", "Largest mosque in Southeast Asia", "Jalan Taman Wijaya Kusuma, Jakarta", -6.1702, 106.8311},
		}
	} else {
		landmarks = []mock{
			{"Marina Bay Sands", "Iconic hotel with rooftop infinity pool", "10 Bayfront Avenue, Singapore 018956", 1.2834, 103.8607},
			{"Gardens by the Bay", "Futuristic nature park with Supertrees", "18 Marina Gardens Drive, Singapore 018953", 1.2816, 103.8636},
			{"Merlion Park", "Waterfront park with the Merlion statue", "1 Fullerton Road, Singapore 049213", 1.2868, 103.8545},
		}
	}

	results := make([]domain.SearchResult, len(landmarks))
	for i, m := range landmarks {
		confidence := 0.5
		results[i] = domain.SearchResult{
			ID:          fmt.Sprintf("exa-mock-%d", i),
			Title:       m.title,
			Description: m.desc,
			Location:    domain.Location{Latitude: m.lat, Longitude: m.lon},
			Source:      domain.SourceExa,
			Timestamp:   now,
			Address:     m.addr,
			Confidence:  &confidence,
		}
	}
	return results
}
