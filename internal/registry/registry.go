// SPDX-License-Identifier: MPL-2.0

// Package registry is the explicit plugin registry. Components register
// themselves and the artifact variants they contribute; a variant overrides
// another only by naming it in Replaces.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/tendkit/tend/internal/dag"
)

const (
	// SourceBuiltin marks components registered from Go code.
	SourceBuiltin = "builtin"

	variantSep = ":"
)

var (
	// ErrDuplicateComponent is the sentinel error wrapped by DuplicateComponentError.
	ErrDuplicateComponent = errors.New("duplicate component")
	// ErrUnknownDependency is the sentinel error wrapped by UnknownDependencyError.
	ErrUnknownDependency = errors.New("unknown component dependency")
	// ErrInvalidVariant is returned when a variant cannot be registered.
	ErrInvalidVariant = errors.New("invalid variant")
)

type (
	// Component is one installed component.
	Component struct {
		Name        string
		Description string
		// Requires lists the names of direct dependencies.
		Requires []string
		// Source is SourceBuiltin or the manifest path the component came from.
		Source string
	}

	// Variant is one implementation a component contributes under a module
	// path.
	Variant struct {
		Component string
		Name      string
		// Module is the slash-separated module path, for example "artifacts"
		// or "artifacts/ci".
		Module string
		// Replaces lists variant IDs this variant overrides.
		Replaces []string
		// New returns a fresh instance. Discovery keeps the variant when the
		// instance satisfies the requested contract.
		New func() any
	}

	// Registry holds components and their variants.
	Registry struct {
		mu         sync.RWMutex
		components map[string]Component
		variants   map[string][]Variant
		ids        map[string]bool
	}

	// DuplicateComponentError reports a component name registered twice.
	DuplicateComponentError struct {
		Name         string
		FirstSource  string
		SecondSource string
	}

	// UnknownDependencyError reports a requirement on an unregistered component.
	UnknownDependencyError struct {
		Component  string
		Dependency string
	}
)

// Error implements the error interface.
func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component name collision: %q defined in both:\n  - %s\n  - %s",
		e.Name, e.FirstSource, e.SecondSource)
}

// Unwrap returns ErrDuplicateComponent for errors.Is() compatibility.
func (e *DuplicateComponentError) Unwrap() error { return ErrDuplicateComponent }

// Error implements the error interface.
func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("component %q requires unknown component %q", e.Component, e.Dependency)
}

// Unwrap returns ErrUnknownDependency for errors.Is() compatibility.
func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

// ID returns "<component>:<name>".
func (v Variant) ID() string { return v.Component + variantSep + v.Name }

// InModule reports whether the variant lives at path or in a module nested
// under it.
func (v Variant) InModule(path string) bool {
	path = strings.Trim(path, "/")
	mod := strings.Trim(v.Module, "/")
	return mod == path || strings.HasPrefix(mod, path+"/")
}

// SplitID splits a variant ID into component and name.
func SplitID(id string) (component, name string, ok bool) {
	i := strings.LastIndex(id, variantSep)
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]Component),
		variants:   make(map[string][]Variant),
		ids:        make(map[string]bool),
	}
}

// Register adds a component together with its variants. Variants must belong
// to c; their Component field is filled in when empty.
func (r *Registry) Register(c Component, variants ...Variant) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("component name must not be empty")
	}
	if strings.Contains(c.Name, variantSep) {
		return fmt.Errorf("component name %q must not contain %q", c.Name, variantSep)
	}
	if c.Source == "" {
		c.Source = SourceBuiltin
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.components[c.Name]; ok {
		return &DuplicateComponentError{Name: c.Name, FirstSource: prev.Source, SecondSource: c.Source}
	}

	seen := make(map[string]bool, len(variants))
	prepared := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Component == "" {
			v.Component = c.Name
		}
		if err := validateVariant(c.Name, v); err != nil {
			return err
		}
		if seen[v.ID()] {
			return fmt.Errorf("%w: %s registered twice", ErrInvalidVariant, v.ID())
		}
		seen[v.ID()] = true
		prepared = append(prepared, v)
	}

	c.Requires = slices.Clone(c.Requires)
	r.components[c.Name] = c
	r.variants[c.Name] = prepared
	for id := range seen {
		r.ids[id] = true
	}
	return nil
}

func validateVariant(component string, v Variant) error {
	switch {
	case v.Component != component:
		return fmt.Errorf("%w: %s belongs to %q, not %q", ErrInvalidVariant, v.ID(), v.Component, component)
	case strings.TrimSpace(v.Name) == "" || strings.Contains(v.Name, variantSep):
		return fmt.Errorf("%w: %q is not a valid variant name", ErrInvalidVariant, v.Name)
	case strings.TrimSpace(v.Module) == "":
		return fmt.Errorf("%w: %s has no module path", ErrInvalidVariant, v.ID())
	case v.New == nil:
		return fmt.Errorf("%w: %s has no factory", ErrInvalidVariant, v.ID())
	}
	return nil
}

// Component returns the component registered as name.
func (r *Registry) Component(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// Components returns every component sorted by name.
func (r *Registry) Components() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, 0, len(r.components))
	for _, c := range r.components {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Component) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Variants returns the variants of component in registration order.
func (r *Registry) Variants(component string) []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.variants[component])
}

// HasVariant reports whether a variant with the given ID is registered.
func (r *Registry) HasVariant(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ids[id]
}

// Graph builds the dependency graph over all components. Edges point from a
// dependency to its dependent. Requiring an unregistered component is an
// error; cycles are reported by the graph's TopologicalSort.
func (r *Registry) Graph() (*dag.Graph, error) {
	g := dag.New()
	var errs []error
	for _, c := range r.Components() {
		g.AddNode(c.Name)
		for _, dep := range c.Requires {
			if _, ok := r.Component(dep); !ok {
				errs = append(errs, &UnknownDependencyError{Component: c.Name, Dependency: dep})
				continue
			}
			g.AddEdge(dep, c.Name)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}
