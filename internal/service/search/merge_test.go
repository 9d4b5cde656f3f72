package search

import (
	"testing"

	"ridesg/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id, title string, lat, lon float64, source domain.Source) domain.SearchResult {
	return domain.SearchResult{
		ID:       id,
		Title:    title,
		Location: domain.Location{Latitude: lat, Longitude: lon},
		Source:   source,
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	cached := []domain.SearchResult{
		result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase),
		result("db-2", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceDatabase),
	}
	semantic := []domain.SearchResult{
		result("exa-1-0", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceExa),
		result("exa-1-1", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceExa),
	}

	merged := MergeResults(cached, semantic)

	require.Len(t, merged, 2)
	for _, r := range merged {
		assert.Equal(t, domain.SourceDatabase, r.Source, "cache wins ties")
	}
}

func TestMergeDropsSimilarTitles(t *testing.T) {
	cached := []domain.SearchResult{
		result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase),
	}
	semantic := []domain.SearchResult{
		// Same place, longer title, deliberately far away so only the
		// title can match it
		result("exa-1-0", "Marina Bay Sands Hotel", 1.40, 103.95, domain.SourceExa),
		result("exa-1-1", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceExa),
	}

	merged := MergeResults(cached, semantic)

	require.Len(t, merged, 2)
	assert.Equal(t, "Marina Bay Sands", merged[0].Title)
	assert.Equal(t, "Gardens by the Bay", merged[1].Title)
}

func TestMergeDropsNearbyResults(t *testing.T) {
	cached := []domain.SearchResult{
		result("db-1", "Marina Bay Sands", 1.2834, 103.8607, domain.SourceDatabase),
	}

	t.Run("within 100m is a duplicate despite different title", func(t *testing.T) {
		semantic := []domain.SearchResult{
			// ~55m north
			result("exa-1-0", "Sands SkyPark Observation Deck", 1.2839, 103.8607, domain.SourceExa),
		}
		merged := MergeResults(cached, semantic)
		assert.Len(t, merged, 1)
	})

	t.Run("500m apart is kept", func(t *testing.T) {
		semantic := []domain.SearchResult{
			// ~550m north
			result("exa-1-0", "Sands SkyPark Observation Deck", 1.2884, 103.8607, domain.SourceExa),
		}
		merged := MergeResults(cached, semantic)
		assert.Len(t, merged, 2)
	})
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"exact match", "Marina Bay Sands", "Marina Bay Sands", 1.0},
		{"exact match different case", "marina bay sands", "Marina Bay Sands", 1.0},
		{"substring containment", "Marina Bay Sands", "Marina Bay Sands Hotel", 0.8},
		{"word overlap", "Marina Bay Sands", "Gardens by the Bay", 0.25},
		{"no overlap", "Merlion Park", "Clarke Quay", 0.0},
		{"empty title", "", "Marina Bay Sands", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestHaversine(t *testing.T) {
	mbs := domain.Location{Latitude: 1.2834, Longitude: 103.8607}
	gbtb := domain.Location{Latitude: 1.2816, Longitude: 103.8636}

	// Marina Bay Sands to Gardens by the Bay is roughly 380m
	d := Haversine(mbs, gbtb)
	assert.InDelta(t, 380, d, 30)

	assert.Zero(t, Haversine(mbs, mbs))
}

func TestAnnotateDistancesSortsAscending(t *testing.T) {
	ref := domain.Location{Latitude: 1.2834, Longitude: 103.8607} // Marina Bay Sands
	results := []domain.SearchResult{
		result("a", "Changi Airport", 1.3644, 103.9915, domain.SourceDatabase),
		result("b", "Gardens by the Bay", 1.2816, 103.8636, domain.SourceExa),
		result("c", "Merlion Park", 1.2868, 103.8545, domain.SourceDatabase),
	}

	AnnotateDistances(results, ref)

	require.Len(t, results, 3)
	for _, r := range results {
		require.NotNil(t, r.Distance)
	}
	assert.Equal(t, "Gardens by the Bay", results[0].Title)
	assert.Equal(t, "Merlion Park", results[1].Title)
	assert.Equal(t, "Changi Airport", results[2].Title)
	assert.True(t, *results[0].Distance <= *results[1].Distance)
	assert.True(t, *results[1].Distance <= *results[2].Distance)
}
