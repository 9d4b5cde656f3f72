package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridesg/internal/cities"
	"ridesg/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockCacheClient struct {
	mu         sync.Mutex
	results    []domain.SearchResult
	searchErr  error
	saveErr    error
	saved      []domain.SearchResult
	configured bool
}

func (m *mockCacheClient) Search(_ context.Context, _ string) ([]domain.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.results, nil
}

func (m *mockCacheClient) Save(_ context.Context, res *domain.SearchResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, *res)
	return nil
}

func (m *mockCacheClient) IsConfigured() bool { return m.configured }

type mockSemanticClient struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSemanticClient) Search(_ context.Context, _ string, _ *domain.Location, _ string, _ *cities.Profile) ([]domain.SearchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func newTestOrchestrator(t *testing.T, cache CacheSearchClient, semantic SemanticSearchClient, persist bool) *Orchestrator {
	t.Helper()
	registry, err := cities.NewRegistry()
	require.NoError(t, err)
	return NewOrchestrator(cache, semantic, registry, NewTracker(), persist, testLogger())
}

// --- Tests ---

func TestCoordinatedSearchMergesBothBranches(t *testing.T) {
	cache := &mockCacheClient{
		configured: true,
		results: []domain.SearchResult{
			result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase),
		},
	}
	semantic := &mockSemanticClient{
		results: []domain.SearchResult{
			result("exa-1-0", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceExa),
			result("exa-1-1", "Merlion Park", 1.2868, 103.8545, domain.SourceExa),
		},
	}

	o := newTestOrchestrator(t, cache, semantic, false)

	results, err := o.CoordinatedSearch(context.Background(), Request{Query: "marina bay"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, domain.SourceDatabase, results[0].Source)
	assert.Equal(t, "Merlion Park", results[1].Title)

	snap := o.State()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "marina bay", snap.Query)
	assert.Len(t, snap.Results, 2)
}

func TestCoordinatedSearchFailSoft(t *testing.T) {
	semanticResults := []domain.SearchResult{
		result("exa-1-0", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceExa),
		result("exa-1-1", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceExa),
		result("exa-1-2", "Merlion Park", 1.2868, 103.8545, domain.SourceExa),
	}

	t.Run("cache branch down", func(t *testing.T) {
		cache := &mockCacheClient{configured: true, searchErr: errors.New("connection refused")}
		o := newTestOrchestrator(t, cache, &mockSemanticClient{results: semanticResults}, false)

		results, err := o.CoordinatedSearch(context.Background(), Request{Query: "marina bay"})
		require.NoError(t, err, "one failed branch must not fail the search")
		assert.Len(t, results, 3)
		assert.Empty(t, o.State().Err)
	})

	t.Run("semantic branch down", func(t *testing.T) {
		cache := &mockCacheClient{
			configured: true,
			results:    []domain.SearchResult{result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase)},
		}
		semantic := &mockSemanticClient{err: &domain.UpstreamError{Provider: "exa", Status: 502, Body: "bad gateway"}}
		o := newTestOrchestrator(t, cache, semantic, false)

		results, err := o.CoordinatedSearch(context.Background(), Request{Query: "marina bay"})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("both branches down yields empty set", func(t *testing.T) {
		cache := &mockCacheClient{configured: true, searchErr: errors.New("down")}
		semantic := &mockSemanticClient{err: errors.New("also down")}
		o := newTestOrchestrator(t, cache, semantic, false)

		results, err := o.CoordinatedSearch(context.Background(), Request{Query: "marina bay"})
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestCoordinatedSearchRejectsInvalidRequest(t *testing.T) {
	o := newTestOrchestrator(t, &mockCacheClient{}, &mockSemanticClient{}, false)

	_, err := o.CoordinatedSearch(context.Background(), Request{Query: ""})
	require.Error(t, err)

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestCoordinatedSearchAnnotatesAndSortsDistances(t *testing.T) {
	cache := &mockCacheClient{
		configured: true,
		results: []domain.SearchResult{
			result("db-1", "Changi Airport", 1.3644, 103.9915, domain.SourceDatabase),
			result("db-2", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceDatabase),
		},
	}
	o := newTestOrchestrator(t, cache, &mockSemanticClient{}, false)

	ref := domain.Location{Latitude: 1.2834, Longitude: 103.8607}
	results, err := o.CoordinatedSearch(context.Background(), Request{
		Query:             "things to see",
		ReferenceLocation: &ref,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Gardens by the Bay", results[0].Title)
	require.NotNil(t, results[0].Distance)
	require.NotNil(t, results[1].Distance)
	assert.Less(t, *results[0].Distance, *results[1].Distance)
}

func TestCoordinatedSearchPersistsFreshResults(t *testing.T) {
	cache := &mockCacheClient{
		configured: true,
		results: []domain.SearchResult{
			result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase),
		},
	}
	semantic := &mockSemanticClient{
		results: []domain.SearchResult{
			result("exa-1-0", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceExa), // duplicate, not persisted
			result("exa-1-1", "Merlion Park", 1.2868, 103.8545, domain.SourceExa),
			result("exa-1-2", "Clarke Quay", 1.2906, 103.8465, domain.SourceExa),
		},
	}

	o := newTestOrchestrator(t, cache, semantic, true)

	_, err := o.CoordinatedSearch(context.Background(), Request{Query: "marina bay"})
	require.NoError(t, err)

	require.Len(t, cache.saved, 2, "only fresh merge survivors are persisted")
	titles := []string{cache.saved[0].Title, cache.saved[1].Title}
	assert.ElementsMatch(t, []string{"Merlion Park", "Clarke Quay"}, titles)
}

func TestSelectResult(t *testing.T) {
	o := newTestOrchestrator(t, &mockCacheClient{}, &mockSemanticClient{}, false)

	assert.Nil(t, o.SelectedResult())

	selected := result("db-1", "Merlion Park", 1.2868, 103.8545, domain.SourceDatabase)
	o.SelectResult(&selected)
	require.NotNil(t, o.SelectedResult())
	assert.Equal(t, "Merlion Park", o.SelectedResult().Title)

	// Selection survives a new search
	_, err := o.CoordinatedSearch(context.Background(), Request{Query: "another"})
	require.NoError(t, err)
	require.NotNil(t, o.SelectedResult())

	o.SelectResult(nil)
	assert.Nil(t, o.SelectedResult())
}
