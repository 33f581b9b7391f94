// Package fallback synthesizes a local reply when the inference service cannot answer.
// Generation is pure and network-free so the assistant always has something to say.
package fallback

import (
	"fmt"
	"math/rand/v2"
)

// templates are the supportive replies a fallback can pick from.
var templates = []string{
	"It sounds like you're going through a lot. Try writing down what feels most important right now.",
	"Remember you're not alone, many students feel overwhelmed. Maybe take a short walk or breathe deeply.",
	"Reaching out to a trusted friend, mentor, or counselor can help. You're already taking a good step by reflecting here.",
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// Generator produces fallback replies.
type Generator struct {
	pick Picker
}

// Option configures a Generator.
type Option func(*Generator)

// WithPicker replaces the random template choice, e.g. for deterministic tests.
func WithPicker(p Picker) Option {
	return func(g *Generator) {
		if p != nil {
			g.pick = p
		}
	}
}

// New creates a Generator picking templates uniformly at random.
func New(opts ...Option) *Generator {
	g := &Generator{pick: rand.IntN}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a reply that quotes userText and adds one template.
// The result is never empty and always contains userText.
func (g *Generator) Generate(userText string) string {
	idx := g.pick(len(templates))
	if idx < 0 || idx >= len(templates) {
		idx = 0
	}
	return fmt.Sprintf("Here's a thought based on your message (“%s”): %s", userText, templates[idx])
}

// Templates returns a copy of the available templates.
func Templates() []string {
	out := make([]string, len(templates))
	copy(out, templates)
	return out
}
