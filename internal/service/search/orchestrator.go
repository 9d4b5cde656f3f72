package search

import (
	"context"
	"log/slog"

	"ridesg/internal/cities"
	"ridesg/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"
)

// persistConcurrency bounds concurrent cache writes when fresh semantic
// results are persisted after a search.
const persistConcurrency = 3

// CacheSearchClient is the cache branch of the fan-out.
type CacheSearchClient interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
	Save(ctx context.Context, res *domain.SearchResult) error
	IsConfigured() bool
}

// SemanticSearchClient is the answer-API branch of the fan-out.
type SemanticSearchClient interface {
	Search(ctx context.Context, query string, userLoc *domain.Location, locationName string, profile *cities.Profile) ([]domain.SearchResult, error)
}

// Request carries one coordinated search invocation.
type Request struct {
	Query string `json:"query"`

	// UserLocation biases the semantic prompt toward where the user is.
	UserLocation *domain.Location `json:"user_location,omitempty"`

	// ReferenceLocation, when set, gets per-result distances computed and
	// the final list sorted nearest-first.
	ReferenceLocation *domain.Location `json:"reference_location,omitempty"`

	// LocationName is a human-readable place name that beats raw
	// coordinates as prompt context.
	LocationName string `json:"location_name,omitempty"`

	// City selects a city profile; empty means the configured default.
	City string `json:"city,omitempty"`
}

// Validate checks the request before orchestration starts.
func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.LocationName, validation.Length(0, 200)),
	)
}

// Orchestrator coordinates one search across the landmark cache and the
// semantic answer pipeline.
//
// Policy: parallel fan-out with dedup. Both branches always run; the merge
// prefers cached results and drops semantic duplicates. The alternative
// cache-first sequential policy (skip the answer API whenever the cache has
// anything) saves API calls but returns stale, incomplete lists for popular
// queries, so it lost. Fresh results are written back to the cache only when
// persistFresh is enabled.
type Orchestrator struct {
	cache        CacheSearchClient
	semantic     SemanticSearchClient
	cities       *cities.Registry
	state        *Tracker
	persistFresh bool
	logger       *slog.Logger
}

// NewOrchestrator creates a search orchestrator. The tracker is owned by
// this orchestrator for the duration of each search.
func NewOrchestrator(
	cache CacheSearchClient,
	semantic SemanticSearchClient,
	cityRegistry *cities.Registry,
	state *Tracker,
	persistFresh bool,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cache:        cache,
		semantic:     semantic,
		cities:       cityRegistry,
		state:        state,
		persistFresh: persistFresh,
		logger:       logger,
	}
}

// CoordinatedSearch fans out to the cache and semantic branches, merges and
// deduplicates their results, and optionally annotates distances. Either
// branch failing is logged and downgraded to an empty set for that branch;
// only a failure of both yields an empty result list. The returned error is
// reserved for invalid requests.
func (o *Orchestrator) CoordinatedSearch(ctx context.Context, req Request) ([]domain.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	profile := o.cities.Get(req.City)
	o.state.StartSearch(req.Query)

	var cacheResults, semanticResults []domain.SearchResult

	// Join barrier: both branches complete (or fail soft) before merging.
	// Branch closures swallow their own errors, so the group never cancels
	// one branch because of the other.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results, err := o.cache.Search(gctx, req.Query)
		if err != nil {
			o.logger.Warn("cache branch failed", "query", req.Query, "error", err)
			return nil
		}
		cacheResults = results
		return nil
	})

	g.Go(func() error {
		results, err := o.semantic.Search(gctx, req.Query, req.UserLocation, req.LocationName, profile)
		if err != nil {
			o.logger.Warn("semantic branch failed", "query", req.Query, "error", err)
			return nil
		}
		semanticResults = results
		return nil
	})

	// Branches never return errors; Wait is purely the barrier.
	_ = g.Wait()

	merged := MergeResults(cacheResults, semanticResults)

	o.logger.Info("search merged",
		"query", req.Query,
		"cache_results", len(cacheResults),
		"semantic_results", len(semanticResults),
		"merged", len(merged),
	)

	if req.ReferenceLocation != nil && req.ReferenceLocation.Valid() {
		AnnotateDistances(merged, *req.ReferenceLocation)
	}

	if o.persistFresh {
		o.persistFreshResults(ctx, merged)
	}

	o.state.SetResults(merged)
	o.state.CompleteSearch(nil)

	return merged, nil
}

// persistFreshResults writes the semantic-origin survivors of the merge
// back into the cache, a few at a time. A failed save is logged and does
// not fail the search.
func (o *Orchestrator) persistFreshResults(ctx context.Context, results []domain.SearchResult) {
	if !o.cache.IsConfigured() {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(persistConcurrency)

	for i := range results {
		if results[i].Source != domain.SourceExa {
			continue
		}
		res := results[i]
		g.Go(func() error {
			if err := o.cache.Save(ctx, &res); err != nil {
				o.logger.Warn("failed to persist fresh result", "title", res.Title, "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
}

// SelectResult records the result the user focused on the map; nil clears
// the selection. Pure state mutation.
func (o *Orchestrator) SelectResult(result *domain.SearchResult) {
	o.state.Select(result)
}

// SelectedResult returns the current selection, or nil.
func (o *Orchestrator) SelectedResult() *domain.SearchResult {
	return o.state.Selected()
}

// State returns a snapshot of the shared search state.
func (o *Orchestrator) State() State {
	return o.state.Snapshot()
}
