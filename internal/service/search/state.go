package search

import (
	"sync"

	"ridesg/internal/domain"
)

// State is a point-in-time snapshot of an orchestrated search.
type State struct {
	Query     string
	Results   []domain.SearchResult
	IsLoading bool
	Err       string
	Selected  *domain.SearchResult
}

// Tracker holds the shared search state for one orchestrator. One
// orchestration owns one tracker at a time; the mutex keeps observers
// (UI polling the selection, partial-result publishes from the semantic
// branch) consistent with the running search.
type Tracker struct {
	mu        sync.Mutex
	query     string
	results   []domain.SearchResult
	isLoading bool
	err       string
	selected  *domain.SearchResult
}

// NewTracker creates an empty search state tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// StartSearch resets the tracker for a new query. The selected result is
// left alone - it survives searches until explicitly replaced or cleared.
func (t *Tracker) StartSearch(query string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.query = query
	t.results = nil
	t.isLoading = true
	t.err = ""
}

// SetResults publishes a (possibly partial) result set.
func (t *Tracker) SetResults(results []domain.SearchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = results
}

// CompleteSearch finalizes the search. A non-nil err records the failure
// message without discarding whatever results arrived before it.
func (t *Tracker) CompleteSearch(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.isLoading = false
	if err != nil {
		t.err = err.Error()
	}
}

// Select sets the currently selected result; nil clears the selection.
func (t *Tracker) Select(result *domain.SearchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.selected = result
}

// Selected returns the currently selected result, or nil.
func (t *Tracker) Selected() *domain.SearchResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.selected
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	results := make([]domain.SearchResult, len(t.results))
	copy(results, t.results)

	return State{
		Query:     t.query,
		Results:   results,
		IsLoading: t.isLoading,
		Err:       t.err,
		Selected:  t.selected,
	}
}
