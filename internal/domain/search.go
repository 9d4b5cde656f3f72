package domain

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Source tags where a search result came from. Dedup trusts cached results
// over freshly extracted ones, so provenance matters downstream.
type Source string

const (
	SourceDatabase Source = "database"
	SourceExa      Source = "exa"
	SourceMapbox   Source = "mapbox"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates are within lat/lon ranges.
// Results that fail geocoding are dropped before they ever reach a
// SearchResult, so a stored result always satisfies this.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// SearchResult is a located point of interest returned by the search
// pipeline. Cache-origin IDs come from the store; semantic-origin IDs are
// synthesized as "exa-<unixms>-<index>".
type SearchResult struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    Location `json:"location"`
	Source      Source   `json:"source"`
	Timestamp   int64    `json:"timestamp"` // epoch milliseconds

	Address string `json:"address,omitempty"`
	URL     string `json:"url,omitempty"`

	// Distance in meters from a caller-supplied reference point.
	// Populated only when a reference location is given.
	Distance *float64 `json:"distance,omitempty"`

	// Confidence estimates extraction reliability for semantic-origin
	// results, in [0,1]. Nil for cache-origin results.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Validate checks a SearchResult before it is persisted to the cache.
func (r SearchResult) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Location, validation.By(validLocation)),
		validation.Field(&r.Source, validation.Required, validation.In(SourceDatabase, SourceExa, SourceMapbox)),
	)
}

func validLocation(value interface{}) error {
	loc, ok := value.(Location)
	if !ok || !loc.Valid() {
		return &ValidationError{Message: "coordinates out of range"}
	}
	return nil
}

// ExtractedLocationEntry is a transient location candidate parsed out of an
// answer-API response, before geocoding. It is discarded once a SearchResult
// is produced or geocoding fails.
type ExtractedLocationEntry struct {
	Name        string
	SearchQuery string
	Description string
	Address     string
	Confidence  float64
}

// Validate enforces the entry schema. An invalid entry is skipped with a
// logged warning rather than aborting the whole parse.
func (e ExtractedLocationEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(3, 200)),
		validation.Field(&e.SearchQuery, validation.Required, validation.Length(3, 500)),
		validation.Field(&e.Description, validation.Length(0, 1000)),
		validation.Field(&e.Confidence, validation.Min(0.0), validation.Max(1.0)),
	)
}
