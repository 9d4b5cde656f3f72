// Package cities holds the supported city profiles. A profile biases
// geocoding (country filter, locale hint, proximity center) and postal-code
// detection toward the city a search is running against.
package cities

import (
	"embed"
	"fmt"
	"regexp"
	"sync"

	"ridesg/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Profile describes one supported city.
type Profile struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Country       string          `yaml:"country"` // ISO 3166-1 alpha-2, lowercase
	LocaleHint    string          `yaml:"locale_hint"`
	Center        domain.Location `yaml:"center"`
	PostalPattern string          `yaml:"postal_pattern"`

	postalRe *regexp.Regexp
}

// PostalCode reports whether text contains a postal code for this city.
func (p *Profile) PostalCode(text string) bool {
	if p.postalRe == nil {
		return false
	}
	return p.postalRe.MatchString(text)
}

// PostalRegexp returns the compiled postal pattern, or nil when the
// profile does not define one.
func (p *Profile) PostalRegexp() *regexp.Regexp {
	return p.postalRe
}

type cityFile struct {
	Default string     `yaml:"default"`
	Cities  []*Profile `yaml:"cities"`
}

// Registry manages the supported city profiles.
type Registry struct {
	profiles  map[string]*Profile
	defaultID string
	mu        sync.RWMutex
}

// NewRegistry loads the embedded city YAML and compiles postal patterns.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/cities.yaml")
	if err != nil {
		return nil, fmt.Errorf("read cities config: %w", err)
	}

	var file cityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal cities config: %w", err)
	}

	r := &Registry{
		profiles:  make(map[string]*Profile, len(file.Cities)),
		defaultID: file.Default,
	}

	for _, p := range file.Cities {
		if p.PostalPattern != "" {
			re, err := regexp.Compile(p.PostalPattern)
			if err != nil {
				return nil, fmt.Errorf("compile postal pattern for %s: %w", p.ID, err)
			}
			p.postalRe = re
		}
		r.profiles[p.ID] = p
	}

	if _, ok := r.profiles[r.defaultID]; !ok {
		return nil, fmt.Errorf("default city %q not defined", r.defaultID)
	}

	return r, nil
}

// Get returns the profile for the given city ID, falling back to the
// default profile when the ID is empty or unknown.
func (r *Registry) Get(id string) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.profiles[id]; ok {
		return p
	}
	return r.profiles[r.defaultID]
}

// IDs returns all registered city IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.profiles))
	for id := range r.profiles {
		ids = append(ids, id)
	}
	return ids
}
