package search

import (
	"math"
	"sort"
	"strings"

	"ridesg/internal/domain"
)

const (
	// Two results whose titles score at or above this are the same place.
	titleSimilarityThreshold = 0.7

	// Two results within this many meters are the same place even when
	// their titles disagree.
	duplicateRadiusMeters = 100

	earthRadiusMeters = 6371000
)

// MergeResults combines cache-origin and semantic-origin results into one
// deduplicated list. Cache results seed the list and win ties - they are
// cheaper and already vetted. A semantic result is dropped when an existing
// entry matches it on title similarity or sits within the duplicate radius.
// Greedy O(n*m), deterministic for a fixed input order.
func MergeResults(cacheResults, semanticResults []domain.SearchResult) []domain.SearchResult {
	merged := make([]domain.SearchResult, 0, len(cacheResults)+len(semanticResults))
	merged = append(merged, cacheResults...)

	for _, candidate := range semanticResults {
		if isDuplicate(merged, candidate) {
			continue
		}
		merged = append(merged, candidate)
	}

	return merged
}

func isDuplicate(existing []domain.SearchResult, candidate domain.SearchResult) bool {
	for _, e := range existing {
		if TitleSimilarity(e.Title, candidate.Title) >= titleSimilarityThreshold {
			return true
		}
		if Haversine(e.Location, candidate.Location) <= duplicateRadiusMeters {
			return true
		}
	}
	return false
}

// TitleSimilarity scores how alike two titles are, in [0,1]. Exact match
// scores 1.0, substring containment either way 0.8, otherwise the word
// overlap ratio |common| / max(|words1|, |words2|).
func TitleSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	seen := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		seen[w] = true
	}

	common := 0
	for _, w := range wordsB {
		if seen[w] {
			common++
			seen[w] = false // each word counts once
		}
	}

	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}

	return float64(common) / float64(longest)
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b domain.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// AnnotateDistances attaches the haversine distance from ref to every
// result and sorts the slice ascending by it.
func AnnotateDistances(results []domain.SearchResult, ref domain.Location) {
	for i := range results {
		d := Haversine(ref, results[i].Location)
		results[i].Distance = &d
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].Distance < *results[j].Distance
	})
}
