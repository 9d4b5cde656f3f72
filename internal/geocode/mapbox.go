// Package geocode wraps the Mapbox geocoding API. All lookups degrade to a
// nil result on upstream failure: a place that cannot be geocoded is "no
// match", never a fatal error for the search that asked.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ridesg/internal/cities"
	"ridesg/internal/domain"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.mapbox.com"

// Result is a single geocoded match.
type Result struct {
	Location  domain.Location
	PlaceName string
}

// StructuredQuery carries pre-separated address components for the
// structured forward-geocoding variant.
type StructuredQuery struct {
	StreetNumber string
	StreetName   string
	City         string
	State        string
	PostalCode   string
	Country      string
}

// Client is a Mapbox geocoding client. Outbound calls share one rate
// limiter so a burst of per-entry lookups cannot trip upstream limits.
type Client struct {
	token   string
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Mapbox client. rps bounds outbound requests per
// second; baseURL is overridable for tests.
func NewClient(token, baseURL string, rps int, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		logger:  logger,
	}
}

// IsConfigured reports whether an access token is set.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// Geocode resolves free text to coordinates, biased toward the given city
// profile (country filter, locale hint, proximity center). A nil result with
// a nil error means no match; upstream failures are logged and also degrade
// to nil. Only context cancellation is returned as an error.
func (c *Client) Geocode(ctx context.Context, text string, profile *cities.Profile) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" || !c.IsConfigured() {
		return nil, nil
	}

	query := text
	if profile != nil && profile.LocaleHint != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(profile.Name)) {
		query = text + ", " + profile.LocaleHint
	}

	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("limit", "1")
	if profile != nil {
		params.Set("country", profile.Country)
		params.Set("proximity", fmt.Sprintf("%f,%f", profile.Center.Longitude, profile.Center.Latitude))
	}

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(query), params.Encode())

	return c.forward(ctx, endpoint, query)
}

// GeocodeStructured issues a structured forward-geocoding request (v6 API)
// for higher precision when address components are already separated.
func (c *Client) GeocodeStructured(ctx context.Context, q StructuredQuery, profile *cities.Profile) (*Result, error) {
	if !c.IsConfigured() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("limit", "1")
	if q.StreetNumber != "" {
		params.Set("address_number", q.StreetNumber)
	}
	if q.StreetName != "" {
		params.Set("street", q.StreetName)
	}
	if q.City != "" {
		params.Set("place", q.City)
	}
	if q.State != "" {
		params.Set("region", q.State)
	}
	if q.PostalCode != "" {
		params.Set("postcode", q.PostalCode)
	}
	country := q.Country
	if country == "" && profile != nil {
		country = profile.Country
	}
	if country != "" {
		params.Set("country", country)
	}

	endpoint := fmt.Sprintf("%s/search/geocode/v6/forward?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp structuredResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("mapbox structured response parse failed", "error", err)
		return nil, nil
	}
	if len(resp.Features) == 0 {
		return nil, nil
	}

	props := resp.Features[0].Properties
	loc := domain.Location{
		Latitude:  props.Coordinates.Latitude,
		Longitude: props.Coordinates.Longitude,
	}
	if !loc.Valid() {
		return nil, nil
	}

	return &Result{Location: loc, PlaceName: props.FullAddress}, nil
}

// GeocodeFirstAvailable tries each candidate name in order and returns the
// first match. Used when multiple names describe the same place, e.g. a
// landmark name versus street-sign text from a captured photo.
func (c *Client) GeocodeFirstAvailable(ctx context.Context, names []string, profile *cities.Profile) (*Result, error) {
	for _, name := range names {
		res, err := c.Geocode(ctx, name, profile)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, nil
}

// ReverseGeocode resolves coordinates to a human-readable place name.
// Returns an empty string on miss or failure.
func (c *Client) ReverseGeocode(ctx context.Context, loc domain.Location) (string, error) {
	if !c.IsConfigured() || !loc.Valid() {
		return "", nil
	}

	params := url.Values{}
	params.Set("access_token", c.token)
	params.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%f,%f.json?%s",
		c.baseURL, loc.Longitude, loc.Latitude, params.Encode())

	res, err := c.forward(ctx, endpoint, fmt.Sprintf("%f,%f", loc.Longitude, loc.Latitude))
	if err != nil || res == nil {
		return "", err
	}
	return res.PlaceName, nil
}

// forward performs a v5 forward/reverse request and parses the feature list.
func (c *Client) forward(ctx context.Context, endpoint, query string) (*Result, error) {
	body, err := c.get(ctx, endpoint)
	if err != nil || body == nil {
		return nil, err
	}

	var resp forwardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("mapbox response parse failed", "query", query, "error", err)
		return nil, nil
	}
	if len(resp.Features) == 0 {
		c.logger.Debug("geocode miss", "query", query)
		return nil, nil
	}

	feature := resp.Features[0]
	if len(feature.Center) != 2 {
		return nil, nil
	}

	// Mapbox centers are [longitude, latitude]
	loc := domain.Location{
		Latitude:  feature.Center[1],
		Longitude: feature.Center[0],
	}
	if !loc.Valid() {
		return nil, nil
	}

	return &Result{Location: loc, PlaceName: feature.PlaceName}, nil
}

// get executes one rate-limited GET. Non-2xx statuses and transport errors
// degrade to a nil body; only context errors propagate.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("mapbox request build failed", "error", err)
		return nil, nil
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("mapbox request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("mapbox response read failed", "error", err)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("mapbox non-success status",
			"status", resp.StatusCode,
			"body", truncate(string(body), 200),
		)
		return nil, nil
	}

	return body, nil
}

type forwardResponse struct {
	Features []struct {
		Center    []float64 `json:"center"`
		PlaceName string    `json:"place_name"`
	} `json:"features"`
}

type structuredResponse struct {
	Features []struct {
		Properties struct {
			Coordinates struct {
				Longitude float64 `json:"longitude"`
				Latitude  float64 `json:"latitude"`
			} `json:"coordinates"`
			FullAddress string `json:"full_address"`
		} `json:"properties"`
	} `json:"features"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
