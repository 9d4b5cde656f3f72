package search

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractStructuredAnswer(t *testing.T) {
	answer := "1. Marina Bay Sands | 10 Bayfront Avenue, Singapore 018956 | Iconic hotel with rooftop pool\n" +
		"2. Gardens by the Bay | 18 Marina Gardens Drive, Singapore 018953 | Futuristic nature park"

	entries := NewExtractor(nil, testLogger()).Extract(answer)
	require.Len(t, entries, 2)

	assert.Equal(t, "Marina Bay Sands", entries[0].Name)
	assert.Equal(t, "Gardens by the Bay", entries[1].Name)

	for _, e := range entries {
		assert.NotEmpty(t, e.SearchQuery)
		assert.Contains(t, e.SearchQuery, e.Address)
		assert.Greater(t, e.Confidence, 0.5, "address with street number and postal code should score high")
	}
}

func TestExtractUnstructuredFallback(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantName  string
		wantEntry bool
	}{
		{
			name:      "name before comma",
			line:      "Merlion Park, a waterfront landmark near 1 Fullerton Road",
			wantName:  "Merlion Park",
			wantEntry: true,
		},
		{
			name:      "name before colon with description",
			line:      "Clarke Quay: riverside quay known for nightlife and restaurants",
			wantName:  "Clarke Quay",
			wantEntry: true,
		},
		{
			name:      "stop word name rejected",
			line:      "The, and some other text",
			wantEntry: false,
		},
		{
			name:      "too-short name rejected",
			line:      "MB, a hotel",
			wantEntry: false,
		},
		{
			name:      "blank line skipped",
			line:      "   ",
			wantEntry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := NewExtractor(nil, testLogger()).Extract(tt.line)
			if !tt.wantEntry {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantName, entries[0].Name)
		})
	}
}

func TestExtractCleansMarkup(t *testing.T) {
	answer := "1. **Marina Bay Sands** [1] | 10 Bayfront Avenue, Singapore 018956 | Iconic hotel https://example.com/mbs with *rooftop* pool"

	entries := NewExtractor(nil, testLogger()).Extract(answer)
	require.Len(t, entries, 1)

	assert.Equal(t, "Marina Bay Sands", entries[0].Name)
	assert.NotContains(t, entries[0].Description, "http")
	assert.NotContains(t, entries[0].Description, "*")
	assert.Contains(t, entries[0].Description, "rooftop")
}

func TestExtractCapsEntryCount(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&b, "%d. Landmark Number %d | %d Example Road, Singapore 018956 | A perfectly ordinary landmark\n", i, i, i)
	}

	entries := NewExtractor(nil, testLogger()).Extract(b.String())
	assert.Len(t, entries, maxExtractedEntries)
}

func TestConfidenceScoring(t *testing.T) {
	e := NewExtractor(nil, testLogger())

	tests := []struct {
		name        string
		entryName   string
		address     string
		description string
		want        float64
	}{
		{
			name:        "full address and good description",
			entryName:   "Marina Bay Sands",
			address:     "10 Bayfront Avenue, Singapore 018956",
			description: "Iconic hotel with rooftop pool",
			want:        1.0,
		},
		{
			name:        "no address, short description",
			entryName:   "Merlion Park",
			address:     "",
			description: "statue",
			want:        0.35, // 0.5 + 0.05 name - 0.20 short description
		},
		{
			name:        "placeholder name",
			entryName:   "Unknown",
			address:     "",
			description: "",
			want:        0.05, // 0.5 + 0.05 - 0.30 placeholder - 0.20 empty description
		},
		{
			name:        "generic name gets no name bonus",
			entryName:   "Location",
			address:     "",
			description: "a reasonably detailed description of a place",
			want:        0.6, // 0.5 + 0.10 description
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.scoreConfidence(tt.entryName, tt.address, tt.description)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConfidenceAlwaysClamped(t *testing.T) {
	e := NewExtractor(nil, testLogger())

	garbage := []struct{ name, address, description string }{
		{"", "", ""},
		{"Unknown", "", "x"},
		{"n/a", "", ""},
		{"Marina Bay Sands", "10 Bayfront Avenue, Singapore 018956 10 Other Road 018957", strings.Repeat("a", 150)},
		{strings.Repeat("z", 500), strings.Repeat("9", 500), strings.Repeat("d", 5000)},
	}

	for _, g := range garbage {
		got := e.scoreConfidence(g.name, g.address, g.description)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
