// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/tendkit/tend/internal/dag"
	"github.com/tendkit/tend/internal/registry"
)

var (
	// ErrComponentNotFound is the sentinel error wrapped by ComponentNotFoundError.
	ErrComponentNotFound = errors.New("component not found")
	// ErrReplacesCycle is the sentinel error wrapped by ReplacesCycleError.
	ErrReplacesCycle = errors.New("replaces cycle")
)

type (
	// ComponentNotFoundError reports an unknown root component.
	ComponentNotFoundError struct {
		Name string
	}

	// ReplacesCycleError reports variants that replace each other, directly
	// or transitively. IDs lists the cycle starting at its smallest ID.
	ReplacesCycleError struct {
		IDs []string
	}

	// Found is one collected variant and the instance its factory produced.
	Found[T any] struct {
		Variant registry.Variant
		Value   T
	}

	// VariantSet is the result of FindVariants.
	VariantSet[T any] struct {
		Root   string
		Module string
		// Components lists root and its dependents in processing order.
		Components []string
		// Variants holds the leaf variants in processing order.
		Variants []Found[T]
		// Replaced maps every dropped variant ID to the ID that replaced it.
		Replaced    map[string]string
		Diagnostics []Diagnostic
	}
)

// Error implements the error interface.
func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %q not found", e.Name)
}

// Unwrap returns ErrComponentNotFound for errors.Is() compatibility.
func (e *ComponentNotFoundError) Unwrap() error { return ErrComponentNotFound }

// Error implements the error interface.
func (e *ReplacesCycleError) Error() string {
	return "replaces cycle: " + strings.Join(append(slices.Clone(e.IDs), e.IDs[0]), " -> ")
}

// Unwrap returns ErrReplacesCycle for errors.Is() compatibility.
func (e *ReplacesCycleError) Unwrap() error { return ErrReplacesCycle }

// ID returns the variant ID.
func (f Found[T]) ID() string { return f.Variant.ID() }

// IDs returns the IDs of the leaf variants.
func (s *VariantSet[T]) IDs() []string {
	ids := make([]string, len(s.Variants))
	for i, f := range s.Variants {
		ids[i] = f.ID()
	}
	return ids
}

// FindVariants collects, across root and every component depending on it,
// the variants registered at modulePath (or nested under it) whose instances
// implement T, and reduces them to leaf variants.
//
// Components are visited by ascending transitive dependency count, ties by
// name, so a replacing variant is always visited after the variants it may
// replace. A replaces entry only takes effect when its target belongs to the
// same component or to one of its dependencies.
func FindVariants[T any](reg *registry.Registry, root, modulePath string) (*VariantSet[T], error) {
	g, err := reg.Graph()
	if err != nil {
		return nil, err
	}
	if _, err := g.TopologicalSort(); err != nil {
		return nil, err
	}

	closure := g.Dependents(root)
	if closure == nil {
		return nil, &ComponentNotFoundError{Name: root}
	}
	order := processingOrder(g, closure)

	set := &VariantSet[T]{
		Root:       root,
		Module:     modulePath,
		Components: order,
		Replaced:   make(map[string]string),
	}

	var collected []Found[T]
	visible := make(map[string]bool)
	for _, comp := range order {
		var local []Found[T]
		for _, v := range reg.Variants(comp) {
			if !v.InModule(modulePath) {
				continue
			}
			inst, ok := v.New().(T)
			if !ok {
				continue
			}
			local = append(local, Found[T]{Variant: v, Value: inst})
			visible[v.ID()] = true
		}

		for _, f := range local {
			set.Diagnostics = append(set.Diagnostics, applyReplaces(reg, g, f.Variant, visible, set.Replaced)...)
		}
		collected = append(collected, local...)
	}
	if cycle := replacesCycle(set.Replaced); cycle != nil {
		return nil, &ReplacesCycleError{IDs: cycle}
	}

	for _, f := range collected {
		if _, dropped := set.Replaced[f.ID()]; !dropped {
			set.Variants = append(set.Variants, f)
		}
	}
	return set, nil
}

func applyReplaces(reg *registry.Registry, g *dag.Graph, v registry.Variant, visible map[string]bool, replaced map[string]string) []Diagnostic {
	var diags []Diagnostic
	for _, target := range v.Replaces {
		targetComp, _, ok := registry.SplitID(target)
		switch {
		case !ok:
			diags = append(diags, warnf(CodeReplacesInvalid, v.Component,
				"%s replaces %q, which is not a <component>:<name> variant ID", v.ID(), target))
		case !reg.HasVariant(target):
			diags = append(diags, warnf(CodeReplacesUnknown, v.Component,
				"%s replaces unknown variant %s; ignoring", v.ID(), target))
		case targetComp != v.Component && !g.DependsOn(v.Component, targetComp):
			diags = append(diags, warnf(CodeReplacesNotDependency, v.Component,
				"%s replaces %s, but %s does not depend on %s; ignoring", v.ID(), target, v.Component, targetComp))
		case target == v.ID():
			// Self-replacement has no effect.
		case visible[target]:
			replaced[target] = v.ID()
		}
	}
	return diags
}

// replacesCycle returns the first cycle in the replaced-by relation, or nil.
// Each ID is replaced by at most one other, so following the chain from a
// member of a cycle leads back to it.
func replacesCycle(replaced map[string]string) []string {
	for _, start := range slices.Sorted(maps.Keys(replaced)) {
		cur := start
		for range len(replaced) {
			next, ok := replaced[cur]
			if !ok {
				break
			}
			if next == start {
				cycle := []string{start}
				for id := replaced[start]; id != start; id = replaced[id] {
					cycle = append(cycle, id)
				}
				return cycle
			}
			cur = next
		}
	}
	return nil
}

func processingOrder(g *dag.Graph, names []string) []string {
	counts := make(map[string]int, len(names))
	for _, n := range names {
		counts[n] = g.DependencyCount(n)
	}
	out := slices.Clone(names)
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Or(cmp.Compare(counts[a], counts[b]), cmp.Compare(a, b))
	})
	return out
}
