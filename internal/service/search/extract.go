package search

import (
	"log/slog"
	"regexp"
	"strings"

	"ridesg/internal/cities"
	"ridesg/internal/domain"
)

// maxExtractedEntries caps how many location candidates one answer can
// produce, however long the list the model decided to write.
const maxExtractedEntries = 25

var (
	// List item markers: "1. ", "2) ", "- ", "* ", "• "
	itemMarkerRe = regexp.MustCompile(`^\s*(?:\d+[.)]\s+|[-*•]\s+)`)

	// Citation markers like [1], [12]
	citationRe = regexp.MustCompile(`\[\d+\]`)

	// Bare URLs, optionally wrapped in brackets or parens
	urlRe = regexp.MustCompile(`[([]?https?://[^\s)\]]+[)\]]?`)

	// Markdown emphasis
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	underBoldRe  = regexp.MustCompile(`__([^_]+)__`)
	underItalRe  = regexp.MustCompile(`_([^_]+)_`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Name boundary for unstructured lines: text before the first comma,
	// colon, spaced dash, or " at "
	nameBoundaryRe = regexp.MustCompile(`(?i)^(.+?)(?:\s+at\s+|\s*[,:]\s*|\s+-\s+)`)

	// Street address with a leading number, e.g. "10 Bayfront Avenue"
	numberedStreetRe = regexp.MustCompile(`(?i)\b\d+[A-Za-z]?(?:\s+[A-Za-z'.]+)+\s+(?:Road|Street|Avenue|Drive|Boulevard|Lane|Way)\b`)

	// Any street-suffix phrase, with or without a number
	streetRe = regexp.MustCompile(`(?i)\b(?:\d+[A-Za-z]?\s+)?(?:[A-Z][A-Za-z'.]*\s+)+(?:Road|Street|Avenue|Drive|Boulevard|Lane|Way)\b`)

	// Fallback postal pattern when no city profile is active
	sixDigitPostalRe = regexp.MustCompile(`\b\d{6}\b`)

	// Description after the final colon, spaced dash, or pipe
	descriptionTailRe = regexp.MustCompile(`(?:[:|]|\s-\s)([^:|\-]+)$`)

	// Names that describe nothing
	placeholderNameRe = regexp.MustCompile(`(?i)^(?:unnamed|unknown|n/a|not available|singapore|landmark)$`)
	genericNameRe     = regexp.MustCompile(`(?i)^(?:location|place|area|spot)$`)
)

// stopWordNames never identify a landmark on their own.
var stopWordNames = map[string]bool{
	"the": true, "and": true, "a": true, "an": true, "this": true,
	"that": true, "it": true, "here": true, "there": true,
	"singapore": true, "jakarta": true, "landmark": true, "landmarks": true,
	"location": true, "locations": true, "place": true, "places": true,
}

// Extractor turns a loosely formatted answer into structured location
// candidates. It prefers pipe-delimited "name | address | description"
// lines and falls back to regex heuristics for free-form text.
type Extractor struct {
	profile    *cities.Profile
	maxEntries int
	logger     *slog.Logger
}

// NewExtractor creates an extractor biased toward the given city profile
// (used for postal-code detection). profile may be nil.
func NewExtractor(profile *cities.Profile, logger *slog.Logger) *Extractor {
	return &Extractor{
		profile:    profile,
		maxEntries: maxExtractedEntries,
		logger:     logger,
	}
}

// Extract parses the answer text into at most maxEntries validated
// location candidates. Unparseable or invalid lines are skipped, never
// fatal: a half-garbled answer still yields its good entries.
func (e *Extractor) Extract(answerText string) []domain.ExtractedLocationEntry {
	var entries []domain.ExtractedLocationEntry

	for _, line := range strings.Split(answerText, "\n") {
		if len(entries) >= e.maxEntries {
			break
		}

		line = itemMarkerRe.ReplaceAllString(line, "")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry *domain.ExtractedLocationEntry
		if strings.Contains(line, "|") {
			entry = e.parseStructured(line)
		} else {
			entry = e.parseUnstructured(line)
		}
		if entry == nil {
			continue
		}

		if err := entry.Validate(); err != nil {
			e.logger.Warn("dropping extracted entry", "name", entry.Name, "error", err)
			continue
		}

		entries = append(entries, *entry)
	}

	return entries
}

// parseStructured handles "name | address | description" lines. At least
// two pipe-delimited parts are required; otherwise the line falls through
// to the unstructured parser.
func (e *Extractor) parseStructured(line string) *domain.ExtractedLocationEntry {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return e.parseUnstructured(line)
	}

	name := e.cleanText(parts[0])
	if len(name) < 3 {
		return nil
	}

	address := e.cleanText(parts[1])
	description := ""
	if len(parts) > 2 {
		description = e.cleanText(strings.Join(parts[2:], " "))
	}

	searchQuery := name
	if address != "" {
		searchQuery = name + ", " + address
	}

	return &domain.ExtractedLocationEntry{
		Name:        name,
		SearchQuery: searchQuery,
		Description: description,
		Address:     address,
		Confidence:  e.scoreConfidence(name, address, description),
	}
}

// parseUnstructured applies regex heuristics to a free-form line.
func (e *Extractor) parseUnstructured(line string) *domain.ExtractedLocationEntry {
	cleaned := e.cleanText(line)
	if cleaned == "" {
		return nil
	}

	name := cleaned
	if m := nameBoundaryRe.FindStringSubmatch(cleaned); m != nil {
		name = strings.TrimSpace(m[1])
	}
	if len(name) < 3 || stopWordNames[strings.ToLower(name)] {
		return nil
	}

	address := ""
	if m := streetRe.FindString(cleaned); m != "" {
		address = strings.TrimSpace(m)
	} else if m := e.postalRe().FindString(cleaned); m != "" {
		address = m
	}

	description := ""
	if m := descriptionTailRe.FindStringSubmatch(cleaned); m != nil {
		description = strings.TrimSpace(m[1])
		if len(description) > 100 {
			description = description[:100]
		}
	}

	searchQuery := name
	if address != "" {
		searchQuery = name + ", " + address
	}

	return &domain.ExtractedLocationEntry{
		Name:        name,
		SearchQuery: searchQuery,
		Description: description,
		Address:     address,
		Confidence:  e.scoreConfidence(name, address, description),
	}
}

// cleanText strips citation markers, URLs, and markdown emphasis, then
// collapses whitespace.
func (e *Extractor) cleanText(text string) string {
	text = citationRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = underBoldRe.ReplaceAllString(text, "$1")
	text = underItalRe.ReplaceAllString(text, "$1")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.Trim(text, " -–—:|.")
}

// scoreConfidence estimates how reliably the entry was extracted. The
// score always lands in [0,1], whatever garbage came in.
func (e *Extractor) scoreConfidence(name, address, description string) float64 {
	score := 0.5

	if numberedStreetRe.MatchString(address) {
		score += 0.20
	}
	if e.postalRe().MatchString(address) {
		score += 0.15
	}
	if len(description) >= 20 && len(description) <= 200 {
		score += 0.10
	}
	if len(name) >= 3 && !genericNameRe.MatchString(name) {
		score += 0.05
	}

	if placeholderNameRe.MatchString(name) {
		score -= 0.30
	}
	if len(description) < 10 {
		score -= 0.20
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// postalRe returns the active city's postal pattern, or the 6-digit
// fallback when no profile is set.
func (e *Extractor) postalRe() *regexp.Regexp {
	if e.profile != nil {
		if re := e.profile.PostalRegexp(); re != nil {
			return re
		}
	}
	return sixDigitPostalRe
}
