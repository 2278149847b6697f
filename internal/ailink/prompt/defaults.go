package prompt

import (
	"embed"
	"os"
	"strings"
)

// Slugs of the built-in prompts.
const (
	SlugGrammar = "grammar"
	SlugSummary = "summary"
)

//go:embed prompts/*.md
var defaultPromptsFS embed.FS

// DefaultRegistry returns the embedded prompts.
func DefaultRegistry() (*Set, error) {
	set := NewSet()
	defaults, err := loadFS(defaultPromptsFS, "prompts", "embedded:")
	if err != nil {
		return nil, err
	}
	for _, p := range defaults {
		if err := set.Add(p); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// LoadWithOverrides returns the embedded prompts with every *.md file in dir
// layered on top by slug. Overrides may also add new slugs. An empty dir
// yields the defaults.
func LoadWithOverrides(dir string) (*Set, error) {
	set, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if dir = strings.TrimSpace(dir); dir == "" {
		return set, nil
	}

	overrides, err := loadFS(os.DirFS(dir), ".", strings.TrimSuffix(dir, "/")+"/")
	if err != nil {
		return nil, err
	}
	// Two files in dir must not claim the same slug.
	local := NewSet()
	for _, p := range overrides {
		if err := local.Add(p); err != nil {
			return nil, err
		}
		set.Override(p)
	}
	return set, nil
}
