// Package scheme holds the registry of supported identifier schemes.
//
// A scheme is identified by its tag, which is also the frontmatter key its
// identifiers are stored under. Generators are pure with respect to the
// registry: each call returns a fresh value.
package scheme

import (
	"fmt"
	"sync"

	"github.com/starford/vaultid/internal/apperr"
)

// Generator produces a new identifier.
type Generator func() (string, error)

// Validator reports whether value is structurally valid for a scheme.
type Validator func(value string) error

// Descriptor describes one identifier scheme.
type Descriptor struct {
	Tag         string    `json:"tag"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`
	Generate    Generator `json:"-"`
	Validate    Validator `json:"-"`
}

// UnknownSchemeError is returned when a tag is not registered.
type UnknownSchemeError struct {
	Tag string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown id scheme %q", e.Tag)
}

// Is makes errors.Is(err, apperr.ErrUnknownScheme) match.
func (e *UnknownSchemeError) Is(target error) bool {
	return target == apperr.ErrUnknownScheme
}

// Registry maps scheme tags to descriptors, preserving registration order.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byTag map[string]Descriptor
}

// NewRegistry returns a registry holding descs.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byTag: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d. The tag must be non-empty and unused and Generate non-nil.
func (r *Registry) Register(d Descriptor) error {
	if d.Tag == "" {
		return fmt.Errorf("scheme: empty tag")
	}
	if d.Generate == nil {
		return fmt.Errorf("scheme: %s: nil generator", d.Tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byTag[d.Tag]; ok {
		return fmt.Errorf("scheme: %s: %w", d.Tag, apperr.ErrAlreadyExists)
	}
	r.byTag[d.Tag] = d
	r.order = append(r.order, d.Tag)
	return nil
}

// Lookup returns the descriptor for tag.
func (r *Registry) Lookup(tag string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byTag[tag]
	if !ok {
		return Descriptor{}, &UnknownSchemeError{Tag: tag}
	}
	return d, nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	_, err := r.Lookup(tag)
	return err == nil
}

// Generate returns a new identifier for tag.
func (r *Registry) Generate(tag string) (string, error) {
	d, err := r.Lookup(tag)
	if err != nil {
		return "", err
	}
	id, err := d.Generate()
	if err != nil {
		return "", fmt.Errorf("scheme: generate %s: %w", tag, err)
	}
	return id, nil
}

// Validate checks value against the scheme's format. Schemes without a
// validator accept any non-empty value.
func (r *Registry) Validate(tag, value string) error {
	d, err := r.Lookup(tag)
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("scheme: %s: empty value", tag)
	}
	if d.Validate == nil {
		return nil
	}
	if err := d.Validate(value); err != nil {
		return fmt.Errorf("scheme: %s: invalid value %q: %w", tag, value, err)
	}
	return nil
}

// Tags returns registered tags in registration order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.byTag[tag])
	}
	return out
}
