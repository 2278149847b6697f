package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load parses and validates a prompt definition: markdown with YAML
// frontmatter, or a bare YAML document.
func Load(source string, data []byte) (*Prompt, error) {
	config, body, err := parseYAMLWithFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(config.Template) == "" {
		config.Template = strings.TrimSpace(body)
	}

	if strings.TrimSpace(config.Template) == "" {
		return nil, fmt.Errorf("prompt %s missing template", source)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validate prompt %s: %w", source, err)
	}

	return &Prompt{Config: config, Source: source}, nil
}

// loadFS parses every *.md file directly under dir in fsys. Each prompt's
// Source is label followed by the file name.
func loadFS(fsys fs.FS, dir, label string) ([]*Prompt, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan prompts: %w", err)
	}
	prompts := make([]*Prompt, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", name, err)
		}
		p, err := Load(label+path.Base(name), data)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// splitFrontmatter separates a leading "---" fenced YAML block from the
// markdown body. A document without the fence is YAML throughout.
func splitFrontmatter(data []byte) (front, body string, fenced bool) {
	text := strings.TrimSpace(string(data))
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimSpace(first) != "---" {
		return text, "", false
	}
	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return rest, "", true
}

func parseYAMLWithFrontmatter(data []byte) (Config, string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Config{}, "", errors.New("empty prompt")
	}

	front, body, fenced := splitFrontmatter(data)
	var cfg Config
	if err := yaml.Unmarshal([]byte(front), &cfg); err != nil {
		if fenced {
			return Config{}, "", fmt.Errorf("invalid frontmatter: %w", err)
		}
		return Config{}, "", fmt.Errorf("invalid yaml: %w", err)
	}
	return cfg, body, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("field %s failed %q", first.Namespace(), first.Tag())
		}
		return err
	}
	for _, name := range cfg.Input.RequiredVariables {
		if !strings.Contains(cfg.Template, "{{"+name+"}}") {
			return fmt.Errorf("template does not reference required variable %q", name)
		}
	}
	return nil
}
