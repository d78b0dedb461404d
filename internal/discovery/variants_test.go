// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/tendkit/tend/internal/dag"
	"github.com/tendkit/tend/internal/registry"
)

type (
	// fileContract and stepContract stand in for two unrelated contracts.
	fileContract interface{ File() string }
	stepContract interface{ Step() }

	fileImpl string
	stepImpl struct{}
)

func (f fileImpl) File() string { return string(f) }
func (stepImpl) Step()          {}

func file(name, module string, replaces ...string) registry.Variant {
	return registry.Variant{Name: name, Module: module, Replaces: replaces, New: func() any { return fileImpl(name) }}
}

func mustRegister(t *testing.T, r *registry.Registry, c registry.Component, vs ...registry.Variant) {
	t.Helper()
	if err := r.Register(c, vs...); err != nil {
		t.Fatalf("Register(%s): %v", c.Name, err)
	}
}

func TestFindVariants_LeafResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		override registry.Variant
		want     []string
	}{
		{
			name:     "descendant replaces ancestor",
			override: file("b", "artifacts", "base:a"),
			want:     []string{"child:b"},
		},
		{
			name:     "unrelated variants are both kept",
			override: file("c", "artifacts"),
			want:     []string{"base:a", "child:c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := registry.New()
			mustRegister(t, r, registry.Component{Name: "base"}, file("a", "artifacts"))
			mustRegister(t, r, registry.Component{Name: "child", Requires: []string{"base"}}, tt.override)

			set, err := FindVariants[fileContract](r, "base", "artifacts")
			if err != nil {
				t.Fatalf("FindVariants: %v", err)
			}
			if got := set.IDs(); !slices.Equal(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
			if len(set.Diagnostics) != 0 {
				t.Errorf("unexpected diagnostics: %v", set.Diagnostics)
			}
		})
	}
}

func TestFindVariants_TransitiveReplacement(t *testing.T) {
	t.Parallel()

	r := registry.New()
	mustRegister(t, r, registry.Component{Name: "base"}, file("a", "artifacts"))
	mustRegister(t, r, registry.Component{Name: "mid", Requires: []string{"base"}}, file("b", "artifacts", "base:a"))
	mustRegister(t, r, registry.Component{Name: "top", Requires: []string{"mid"}}, file("c", "artifacts", "mid:b"))

	set, err := FindVariants[fileContract](r, "base", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := set.IDs(); !slices.Equal(got, []string{"top:c"}) {
		t.Errorf("IDs() = %v, want [top:c]", got)
	}
	if set.Replaced["base:a"] != "mid:b" || set.Replaced["mid:b"] != "top:c" {
		t.Errorf("Replaced = %v", set.Replaced)
	}
}

func TestFindVariants_ReplacesRequiresDependency(t *testing.T) {
	t.Parallel()

	r := registry.New()
	mustRegister(t, r, registry.Component{Name: "tend"})
	mustRegister(t, r, registry.Component{Name: "left", Requires: []string{"tend"}}, file("a", "artifacts"))
	mustRegister(t, r, registry.Component{Name: "right", Requires: []string{"tend"}}, file("b", "artifacts", "left:a"))

	set, err := FindVariants[fileContract](r, "tend", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := set.IDs(); !slices.Equal(got, []string{"left:a", "right:b"}) {
		t.Errorf("IDs() = %v, want both kept", got)
	}
	if len(set.Diagnostics) != 1 || set.Diagnostics[0].Code != CodeReplacesNotDependency {
		t.Fatalf("Diagnostics = %v, want one %s", set.Diagnostics, CodeReplacesNotDependency)
	}
	if set.Diagnostics[0].Severity != SeverityWarning || set.Diagnostics[0].Component != "right" {
		t.Errorf("unexpected diagnostic: %+v", set.Diagnostics[0])
	}
}

func TestFindVariants_ReplacesDiagnostics(t *testing.T) {
	t.Parallel()

	r := registry.New()
	mustRegister(t, r, registry.Component{Name: "base"}, file("a", "artifacts", "base:ghost", "not-an-id", "base:a"))

	set, err := FindVariants[fileContract](r, "base", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := set.IDs(); !slices.Equal(got, []string{"base:a"}) {
		t.Errorf("IDs() = %v; self-replacement must not drop a variant", got)
	}
	codes := make([]string, 0, len(set.Diagnostics))
	for _, d := range set.Diagnostics {
		codes = append(codes, d.Code)
	}
	if !slices.Equal(codes, []string{CodeReplacesUnknown, CodeReplacesInvalid}) {
		t.Errorf("diagnostic codes = %v", codes)
	}
}

func TestFindVariants_SameComponentReplacement(t *testing.T) {
	t.Parallel()

	r := registry.New()
	// The replacing variant is registered first; replacement still applies.
	mustRegister(t, r, registry.Component{Name: "base"}, file("new", "artifacts", "base:old"), file("old", "artifacts"))

	set, err := FindVariants[fileContract](r, "base", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := set.IDs(); !slices.Equal(got, []string{"base:new"}) {
		t.Errorf("IDs() = %v, want [base:new]", got)
	}
}

func TestFindVariants_ModuleAndContractFilter(t *testing.T) {
	t.Parallel()

	r := registry.New()
	mustRegister(t, r, registry.Component{Name: "base"},
		file("top", "artifacts"),
		file("nested", "artifacts/ci"),
		file("elsewhere", "fixtures"),
		registry.Variant{Name: "step", Module: "artifacts", New: func() any { return stepImpl{} }},
	)

	files, err := FindVariants[fileContract](r, "base", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := files.IDs(); !slices.Equal(got, []string{"base:top", "base:nested"}) {
		t.Errorf("file variants = %v", got)
	}
	if files.Variants[0].Value.File() != "top" {
		t.Errorf("Value = %v", files.Variants[0].Value)
	}

	steps, err := FindVariants[stepContract](r, "base", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	if got := steps.IDs(); !slices.Equal(got, []string{"base:step"}) {
		t.Errorf("step variants = %v", got)
	}

	nested, err := FindVariants[fileContract](r, "base", "artifacts/ci")
	if err != nil {
		t.Fatal(err)
	}
	if got := nested.IDs(); !slices.Equal(got, []string{"base:nested"}) {
		t.Errorf("nested variants = %v", got)
	}
}

func TestFindVariants_ProcessingOrder(t *testing.T) {
	t.Parallel()

	r := registry.New()
	mustRegister(t, r, registry.Component{Name: "tend"})
	mustRegister(t, r, registry.Component{Name: "zz", Requires: []string{"tend"}})
	mustRegister(t, r, registry.Component{Name: "aa", Requires: []string{"zz"}})
	mustRegister(t, r, registry.Component{Name: "mm", Requires: []string{"tend"}})
	mustRegister(t, r, registry.Component{Name: "unrelated"})

	set, err := FindVariants[fileContract](r, "tend", "artifacts")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"tend", "mm", "zz", "aa"}
	if !slices.Equal(set.Components, want) {
		t.Errorf("Components = %v, want %v", set.Components, want)
	}
	if len(set.Variants) != 0 {
		t.Errorf("components without modules must contribute nothing, got %v", set.IDs())
	}
}

func TestFindVariants_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown root", func(t *testing.T) {
		t.Parallel()
		r := registry.New()
		mustRegister(t, r, registry.Component{Name: "base"})
		_, err := FindVariants[fileContract](r, "nope", "artifacts")
		if !errors.Is(err, ErrComponentNotFound) {
			t.Errorf("error = %v, want ErrComponentNotFound", err)
		}
	})

	t.Run("unknown dependency", func(t *testing.T) {
		t.Parallel()
		r := registry.New()
		mustRegister(t, r, registry.Component{Name: "base", Requires: []string{"ghost"}})
		_, err := FindVariants[fileContract](r, "base", "artifacts")
		if !errors.Is(err, registry.ErrUnknownDependency) {
			t.Errorf("error = %v, want ErrUnknownDependency", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		r := registry.New()
		mustRegister(t, r, registry.Component{Name: "a", Requires: []string{"b"}})
		mustRegister(t, r, registry.Component{Name: "b", Requires: []string{"a"}})
		_, err := FindVariants[fileContract](r, "a", "artifacts")
		var cycle *dag.CycleError
		if !errors.As(err, &cycle) {
			t.Errorf("error = %v, want CycleError", err)
		}
	})
}

func TestFindVariants_ReplacesCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		variants []registry.Variant
		want     []string
	}{
		{
			name:     "mutual",
			variants: []registry.Variant{file("a", "artifacts", "base:b"), file("b", "artifacts", "base:a")},
			want:     []string{"base:a", "base:b"},
		},
		{
			name: "transitive",
			variants: []registry.Variant{
				file("a", "artifacts", "base:b"),
				file("b", "artifacts", "base:c"),
				file("c", "artifacts", "base:a"),
			},
			want: []string{"base:a", "base:c", "base:b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := registry.New()
			mustRegister(t, r, registry.Component{Name: "base"}, tt.variants...)

			set, err := FindVariants[fileContract](r, "base", "artifacts")
			if !errors.Is(err, ErrReplacesCycle) {
				t.Fatalf("FindVariants = %v, %v; want ErrReplacesCycle", set, err)
			}
			var cycle *ReplacesCycleError
			if !errors.As(err, &cycle) {
				t.Fatalf("error %T is not a *ReplacesCycleError", err)
			}
			if !slices.Equal(cycle.IDs, tt.want) {
				t.Errorf("IDs = %v, want %v", cycle.IDs, tt.want)
			}
			if want := "replaces cycle: " + strings.Join(tt.want, " -> ") + " -> " + tt.want[0]; err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}
