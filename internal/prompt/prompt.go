// Package prompt renders the question-answering prompt from retrieved reviews.
package prompt

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/mwiater/reviewrag/internal/vectorstore"
)

// DefaultTemplate is the built-in prompt. It has exactly two slots.
const DefaultTemplate = `
You are an expert in answering questions about a pizza restaurant

Here are some relevant reviews:{{.Reviews}}

Here is the question to answer: {{.Question}}
`

// Template is a parsed two-slot prompt.
type Template struct {
	tmpl *template.Template
}

type slots struct {
	Reviews  string
	Question string
}

// Parse validates text and requires both the {{.Reviews}} and {{.Question}} slots.
func Parse(text string) (*Template, error) {
	for _, slot := range []string{"{{.Reviews}}", "{{.Question}}"} {
		if !strings.Contains(text, slot) {
			return nil, fmt.Errorf("prompt template is missing the %s slot", slot)
		}
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Default returns the built-in template.
func Default() *Template {
	t, err := Parse(DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a template file. An empty path yields the built-in template.
func Load(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return Parse(string(data))
}

// Render fills the template with the rendered matches and the raw question.
// The output depends only on its inputs.
func (t *Template) Render(matches []vectorstore.Match, question string) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, slots{Reviews: RenderReviews(matches), Question: question}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// RenderReviews writes one line per match, each starting with a newline:
//
//	[review id=<id> rating=<rating> date=<date>] <text>
func RenderReviews(matches []vectorstore.Match) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString("\n[review id=")
		b.WriteString(m.Unit.ID)
		b.WriteString(" rating=")
		b.WriteString(strconv.FormatFloat(m.Unit.Metadata.Rating, 'f', -1, 64))
		b.WriteString(" date=")
		b.WriteString(m.Unit.Metadata.Date)
		b.WriteString("] ")
		b.WriteString(m.Unit.Text)
	}
	return b.String()
}
