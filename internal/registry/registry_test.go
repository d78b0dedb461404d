// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"slices"
	"testing"

	"github.com/tendkit/tend/internal/dag"
)

func newVariant(name, module string, replaces ...string) Variant {
	return Variant{Name: name, Module: module, Replaces: replaces, New: func() any { return name }}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	r := New()
	if err := r.Register(Component{Name: "tend"}, newVariant("lock", "artifacts")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	c, ok := r.Component("tend")
	if !ok {
		t.Fatal("component not found")
	}
	if c.Source != SourceBuiltin {
		t.Errorf("Source = %q, want %q", c.Source, SourceBuiltin)
	}
	vs := r.Variants("tend")
	if len(vs) != 1 || vs[0].ID() != "tend:lock" {
		t.Fatalf("Variants = %+v", vs)
	}
	if !r.HasVariant("tend:lock") || r.HasVariant("tend:other") {
		t.Error("HasVariant mismatch")
	}
}

func TestRegisterDuplicateComponent(t *testing.T) {
	t.Parallel()

	r := New()
	if err := r.Register(Component{Name: "acme", Source: "/a/component.cue"}); err != nil {
		t.Fatal(err)
	}
	err := r.Register(Component{Name: "acme", Source: "/b/component.cue"})
	if !errors.Is(err, ErrDuplicateComponent) {
		t.Fatalf("expected ErrDuplicateComponent, got %v", err)
	}
	var dup *DuplicateComponentError
	if !errors.As(err, &dup) || dup.FirstSource != "/a/component.cue" || dup.SecondSource != "/b/component.cue" {
		t.Errorf("unexpected error details: %+v", dup)
	}
}

func TestRegisterInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		component Component
		variants  []Variant
	}{
		{name: "empty component name", component: Component{Name: " "}},
		{name: "colon in component name", component: Component{Name: "a:b"}},
		{name: "foreign variant", component: Component{Name: "a"}, variants: []Variant{{Component: "b", Name: "x", Module: "m", New: func() any { return nil }}}},
		{name: "empty variant name", component: Component{Name: "a"}, variants: []Variant{newVariant("", "m")}},
		{name: "no module", component: Component{Name: "a"}, variants: []Variant{newVariant("x", "")}},
		{name: "no factory", component: Component{Name: "a"}, variants: []Variant{{Name: "x", Module: "m"}}},
		{name: "duplicate variant", component: Component{Name: "a"}, variants: []Variant{newVariant("x", "m"), newVariant("x", "n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New()
			if err := r.Register(tt.component, tt.variants...); err == nil {
				t.Fatal("expected error")
			}
			if _, ok := r.Component(tt.component.Name); ok {
				t.Error("failed registration must not leave the component behind")
			}
		})
	}
}

func TestVariantInModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		module string
		path   string
		want   bool
	}{
		{"artifacts", "artifacts", true},
		{"artifacts/ci", "artifacts", true},
		{"artifacts/ci/", "artifacts/ci", true},
		{"artifactsx", "artifacts", false},
		{"fixtures", "artifacts", false},
		{"artifacts", "artifacts/ci", false},
	}

	for _, tt := range tests {
		v := Variant{Module: tt.module}
		if got := v.InModule(tt.path); got != tt.want {
			t.Errorf("Variant{Module: %q}.InModule(%q) = %v, want %v", tt.module, tt.path, got, tt.want)
		}
	}
}

func TestSplitID(t *testing.T) {
	t.Parallel()

	c, n, ok := SplitID("acme.python:pyproject")
	if !ok || c != "acme.python" || n != "pyproject" {
		t.Errorf("SplitID = %q, %q, %v", c, n, ok)
	}
	for _, bad := range []string{"", "noColon", ":x", "x:"} {
		if _, _, ok := SplitID(bad); ok {
			t.Errorf("SplitID(%q) should fail", bad)
		}
	}
}

func TestGraph(t *testing.T) {
	t.Parallel()

	r := New()
	for _, c := range []Component{
		{Name: "tend"},
		{Name: "base", Requires: []string{"tend"}},
		{Name: "python", Requires: []string{"base"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatal(err)
		}
	}

	g, err := r.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if got := g.Dependents("base"); !slices.Equal(got, []string{"base", "python"}) {
		t.Errorf("Dependents(base) = %v", got)
	}
}

func TestGraphUnknownDependency(t *testing.T) {
	t.Parallel()

	r := New()
	if err := r.Register(Component{Name: "a", Requires: []string{"ghost"}}); err != nil {
		t.Fatal(err)
	}
	_, err := r.Graph()
	var unknown *UnknownDependencyError
	if !errors.As(err, &unknown) || unknown.Dependency != "ghost" {
		t.Errorf("expected UnknownDependencyError for ghost, got %v", err)
	}
}

func TestGraphCycle(t *testing.T) {
	t.Parallel()

	r := New()
	_ = r.Register(Component{Name: "a", Requires: []string{"b"}})
	_ = r.Register(Component{Name: "b", Requires: []string{"a"}})

	g, err := r.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	_, err = g.TopologicalSort()
	var cycle *dag.CycleError
	if !errors.As(err, &cycle) {
		t.Errorf("expected CycleError, got %v", err)
	}
}
