package prompt

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPrompt is returned by Get for a slug nobody defined.
var ErrUnknownPrompt = errors.New("unknown prompt")

// Registry provides access to prompt definitions.
type Registry interface {
	Get(slug string) (*Prompt, error)
	List() []*Prompt
}

// Set is a Registry keyed by slug.
type Set struct {
	bySlug map[string]*Prompt
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{bySlug: make(map[string]*Prompt)}
}

// Add inserts p, failing if its slug is already taken.
func (s *Set) Add(p *Prompt) error {
	slug := strings.TrimSpace(p.Config.Slug)
	if prev, ok := s.bySlug[slug]; ok {
		return fmt.Errorf("prompt slug %q defined by both %s and %s", slug, prev.Source, p.Source)
	}
	s.bySlug[slug] = p
	return nil
}

// Override inserts p in place of any prompt with the same slug and records
// what it replaced in p.Overrides.
func (s *Set) Override(p *Prompt) {
	slug := strings.TrimSpace(p.Config.Slug)
	if prev, ok := s.bySlug[slug]; ok {
		p.Overrides = prev.Source
	}
	s.bySlug[slug] = p
}

// Get returns the prompt for slug.
func (s *Set) Get(slug string) (*Prompt, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no prompts loaded", ErrUnknownPrompt)
	}
	p, ok := s.bySlug[strings.TrimSpace(slug)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrompt, slug)
	}
	return p, nil
}

// List returns every prompt ordered by slug.
func (s *Set) List() []*Prompt {
	if s == nil {
		return nil
	}
	out := make([]*Prompt, 0, len(s.bySlug))
	for _, p := range s.bySlug {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Config.Slug < out[j].Config.Slug })
	return out
}
