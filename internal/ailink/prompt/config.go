package prompt

import (
	"strings"
)

// Config describes a prompt definition loaded from markdown frontmatter.
type Config struct {
	Slug        string    `yaml:"slug" json:"slug" validate:"required,max=64"`
	Name        string    `yaml:"name,omitempty" json:"name,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string    `yaml:"version,omitempty" json:"version,omitempty"`
	Updated     string    `yaml:"updated,omitempty" json:"updated,omitempty"`
	Input       InputSpec `yaml:"input,omitempty" json:"input,omitempty"`
	// Template is the user text; the markdown body when frontmatter omits it.
	Template      string         `yaml:"template,omitempty" json:"template,omitempty" validate:"required"`
	Temperature   *float64       `yaml:"temperature,omitempty" json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxTokens     int            `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" validate:"gte=0"`
	ProviderHints map[string]any `yaml:"provider_hints,omitempty" json:"provider_hints,omitempty"`
}

// InputSpec defines prompt input requirements.
type InputSpec struct {
	RequiredVariables []string `yaml:"required_variables,omitempty" json:"required_variables,omitempty" validate:"dive,required"`
	OptionalVariables []string `yaml:"optional_variables,omitempty" json:"optional_variables,omitempty" validate:"dive,required"`
	AcceptsImages     bool     `yaml:"accepts_images,omitempty" json:"accepts_images,omitempty"`
	ImageTypes        []string `yaml:"image_types,omitempty" json:"image_types,omitempty"`
	MaxImages         int      `yaml:"max_images,omitempty" json:"max_images,omitempty" validate:"gte=0"`
}

// Prompt wraps a validated prompt configuration with its source.
type Prompt struct {
	Config Config
	Source string
	// Overrides is the Source of the built-in prompt this one replaced.
	Overrides string
}

// Render substitutes {{var}} placeholders in a single pass, so values that
// themselves contain placeholders are left untouched.
func (p *Prompt) Render(vars map[string]string) string {
	if p == nil {
		return ""
	}
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(p.Config.Template)
}

// PreferredModel returns the first provider_hints.preferred_models entry.
func (p *Prompt) PreferredModel() string {
	if p == nil {
		return ""
	}
	value, ok := p.Config.ProviderHints["preferred_models"]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case []string:
		for _, s := range typed {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case string:
		return strings.TrimSpace(typed)
	}
	return ""
}
