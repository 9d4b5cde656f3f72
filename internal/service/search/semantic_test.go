package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ridesg/internal/answer"
	"ridesg/internal/cities"
	"ridesg/internal/domain"
	"ridesg/internal/geocode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAnswerClient struct {
	answer     *answer.Answer
	err        error
	configured bool
	lastQuery  string
}

func (m *mockAnswerClient) Ask(_ context.Context, query string, _ int) (*answer.Answer, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerClient) IsConfigured() bool { return m.configured }

type mockGeocoder struct {
	// results maps query substrings to geocode results; anything else misses
	results map[string]*geocode.Result
	reverse string
	calls   []string
}

func (m *mockGeocoder) Geocode(_ context.Context, text string, _ *cities.Profile) (*geocode.Result, error) {
	m.calls = append(m.calls, text)
	for key, res := range m.results {
		if strings.Contains(strings.ToLower(text), strings.ToLower(key)) {
			return res, nil
		}
	}
	return nil, nil
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _ domain.Location) (string, error) {
	return m.reverse, nil
}

func testProfile(t *testing.T) *cities.Profile {
	t.Helper()
	registry, err := cities.NewRegistry()
	require.NoError(t, err)
	return registry.Get("singapore")
}

// --- Tests ---

func TestSemanticSearchPipeline(t *testing.T) {
	answers := &mockAnswerClient{
		configured: true,
		answer: &answer.Answer{
			Answer: "1. Marina Bay Sands | 10 Bayfront Avenue, Singapore 018956 | Iconic hotel with rooftop pool\n" +
				"2. Gardens by the Bay | 18 Marina Gardens Drive, Singapore 018953 | Futuristic nature park",
			Sources: []answer.Source{
				{ID: "s1", URL: "https://example.com/landmarks", Content: "..."},
			},
		},
	}
	geocoder := &mockGeocoder{
		results: map[string]*geocode.Result{
			"Marina Bay Sands": {
				Location:  domain.Location{Latitude: 1.2834, Longitude: 103.8607},
				PlaceName: "Marina Bay Sands, Singapore",
			},
			"Gardens by the Bay": {
				Location:  domain.Location{Latitude: 1.2816, Longitude: 103.8636},
				PlaceName: "Gardens by the Bay, Singapore",
			},
		},
	}

	tracker := NewTracker()
	s := NewSemanticSearcher(answers, geocoder, tracker, testLogger())

	results, err := s.Search(context.Background(), "rooftop views", nil, "", testProfile(t))
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, domain.SourceExa, r.Source)
		assert.True(t, r.Location.Valid())
		assert.Equal(t, "https://example.com/landmarks", r.URL)
		require.NotNil(t, r.Confidence)
		assert.Greater(t, *r.Confidence, 0.5)
		assert.Regexp(t, `^exa-\d+-\d+$`, r.ID)
	}

	// Progress was published into the shared state
	assert.Len(t, tracker.Snapshot().Results, 2)
}

func TestSemanticSearchDropsGeocodeMisses(t *testing.T) {
	answers := &mockAnswerClient{
		configured: true,
		answer: &answer.Answer{
			Answer: "1. Nonexistent Plaza | 999 Nowhere Road | A place that does not exist\n" +
				"2. Imaginary Tower | 1 Fictional Street | Another invented place",
		},
	}
	geocoder := &mockGeocoder{results: map[string]*geocode.Result{}}

	s := NewSemanticSearcher(answers, geocoder, NewTracker(), testLogger())

	results, err := s.Search(context.Background(), "anything", nil, "", testProfile(t))
	require.NoError(t, err, "geocode misses are not errors")
	assert.Empty(t, results)
	assert.Len(t, geocoder.calls, 2, "every candidate was attempted")
}

func TestSemanticSearchUnconfiguredReturnsMocks(t *testing.T) {
	s := NewSemanticSearcher(&mockAnswerClient{configured: false}, &mockGeocoder{}, NewTracker(), testLogger())

	results, err := s.Search(context.Background(), "anything", nil, "", testProfile(t))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.True(t, r.Location.Valid())
		assert.Equal(t, domain.SourceExa, r.Source)
	}
}

func TestSemanticSearchPropagatesUpstreamError(t *testing.T) {
	upstream := &domain.UpstreamError{Provider: "exa", Status: 500, Body: "boom"}
	s := NewSemanticSearcher(&mockAnswerClient{configured: true, err: upstream}, &mockGeocoder{}, NewTracker(), testLogger())

	_, err := s.Search(context.Background(), "anything", nil, "", testProfile(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestSemanticSearchPromptBias(t *testing.T) {
	answers := &mockAnswerClient{configured: true, answer: &answer.Answer{Answer: "no landmarks"}}

	t.Run("location name beats coordinates", func(t *testing.T) {
		s := NewSemanticSearcher(answers, &mockGeocoder{reverse: "Chinatown, Singapore"}, NewTracker(), testLogger())
		loc := domain.Location{Latitude: 1.28, Longitude: 103.84}
		_, err := s.Search(context.Background(), "temples", &loc, "Bugis, Singapore", testProfile(t))
		require.NoError(t, err)
		assert.Contains(t, answers.lastQuery, "Bugis, Singapore")
	})

	t.Run("coordinates reverse geocoded when no name given", func(t *testing.T) {
		s := NewSemanticSearcher(answers, &mockGeocoder{reverse: "Chinatown, Singapore"}, NewTracker(), testLogger())
		loc := domain.Location{Latitude: 1.28, Longitude: 103.84}
		_, err := s.Search(context.Background(), "temples", &loc, "", testProfile(t))
		require.NoError(t, err)
		assert.Contains(t, answers.lastQuery, "Chinatown, Singapore")
	})

	t.Run("falls back to city", func(t *testing.T) {
		s := NewSemanticSearcher(answers, &mockGeocoder{}, NewTracker(), testLogger())
		_, err := s.Search(context.Background(), "temples", nil, "", testProfile(t))
		require.NoError(t, err)
		assert.Contains(t, answers.lastQuery, "Singapore")
	})
}
