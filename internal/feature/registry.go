package feature

import (
	"errors"
	"fmt"
	"strings"
)

var ErrFeatureNotFound = errors.New("feature not found")

// Renderable is the resolved form of a feature descriptor: something a
// display sink can draw. The timer treats it as opaque.
type Renderable struct {
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Lines    []string `json:"lines"`
}

// Factory turns descriptor args into a renderable, capped at maxHeight lines.
type Factory func(args []string, maxHeight int) (*Renderable, error)

// Resolver looks a feature descriptor up. Implemented by *Registry in
// production and by stubs in builder tests.
type Resolver interface {
	Resolve(category, typeName string, args []string, maxHeight int) (*Renderable, error)
}

// Registry maps category/type pairs to factories. It is passed explicitly
// to whoever needs resolution — never a package-level singleton — so the
// builder stays testable with a stub.
type Registry struct {
	categories map[string]map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{categories: make(map[string]map[string]Factory)}
}

func (r *Registry) Register(category, typeName string, factory Factory) {
	types, ok := r.categories[category]
	if !ok {
		types = make(map[string]Factory)
		r.categories[category] = types
	}
	types[typeName] = factory
}

func (r *Registry) Resolve(category, typeName string, args []string, maxHeight int) (*Renderable, error) {
	types, ok := r.categories[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, ErrFeatureNotFound)
	}
	factory, ok := types[typeName]
	if !ok {
		return nil, fmt.Errorf("category %q type %q: %w", category, typeName, ErrFeatureNotFound)
	}

	renderable, err := factory(args, maxHeight)
	if err != nil {
		return nil, fmt.Errorf("render %s/%s: %w", category, typeName, err)
	}
	return renderable, nil
}

// Builtin returns a registry with the stock practice features.
func Builtin() *Registry {
	r := NewRegistry()

	r.Register("scale", "major", scaleFactory("scale", "major", []string{"1", "2", "3", "4", "5", "6", "7"}))
	r.Register("scale", "pentatonic", scaleFactory("scale", "pentatonic", []string{"1", "2", "3", "5", "6"}))
	r.Register("chord", "triad", scaleFactory("chord", "triad", []string{"1", "3", "5"}))
	r.Register("chord", "seventh", scaleFactory("chord", "seventh", []string{"1", "3", "5", "7"}))
	r.Register("metronome", "marks", metronomeMarks)

	return r
}

// scaleFactory renders one line per degree, prefixed with the root note
// given as the first arg (default "C").
func scaleFactory(category, typeName string, degrees []string) Factory {
	return func(args []string, maxHeight int) (*Renderable, error) {
		root := "C"
		if len(args) > 0 && args[0] != "" {
			root = args[0]
		}
		lines := []string{fmt.Sprintf("%s %s (%s)", root, typeName, strings.Join(degrees, " "))}
		if maxHeight > 0 && len(lines) > maxHeight {
			lines = lines[:maxHeight]
		}
		return &Renderable{Category: category, Type: typeName, Lines: lines}, nil
	}
}

// metronomeMarks renders a beats-per-bar ruler; args[0] is the count.
func metronomeMarks(args []string, maxHeight int) (*Renderable, error) {
	beats := 4
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &beats); err != nil || beats < 1 || beats > 16 {
			return nil, fmt.Errorf("bad beat count %q", args[0])
		}
	}
	marks := make([]string, beats)
	for i := range marks {
		marks[i] = fmt.Sprintf("%d", i+1)
	}
	lines := []string{strings.Join(marks, " · ")}
	if maxHeight > 0 && len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}
	return &Renderable{Category: "metronome", Type: "marks", Lines: lines}, nil
}
