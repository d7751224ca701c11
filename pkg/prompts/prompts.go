package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Search SearchPrompts `yaml:"search"`
	Draft  DraftPrompts  `yaml:"draft"`
}

type SystemPrompts struct {
	Search    string `yaml:"search"`
	Draft     string `yaml:"draft"`
	GroqDraft string `yaml:"groq_draft"`
}

type SearchPrompts struct {
	Query string `yaml:"query"`
}

type DraftPrompts struct {
	Post string `yaml:"post"`
}

type SearchParams struct {
	Query string
}

type DraftParams struct {
	Context string
	Brand   string
}

// Default returns the prompts compiled into the binary.
func Default() *Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPrompts, &p); err != nil {
		panic(fmt.Sprintf("embedded prompts.yaml is invalid: %v", err))
	}
	return &p
}

// Load reads path on top of the defaults. An empty path yields the defaults.
func Load(path string) (*Prompts, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	return p, nil
}

func (p *Prompts) RenderSearch(params SearchParams) (string, error) {
	return render(p.Search.Query, params)
}

func (p *Prompts) RenderDraft(params DraftParams) (string, error) {
	return render(p.Draft.Post, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
