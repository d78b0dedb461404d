// SPDX-License-Identifier: MPL-2.0

// Package builtin registers the root "tend" component. Every other
// component depends on it, directly or transitively.
package builtin

import (
	"context"
	"errors"

	"github.com/tendkit/tend/internal/registry"
	"github.com/tendkit/tend/pkg/artifact"
	"github.com/tendkit/tend/pkg/format"
	"github.com/tendkit/tend/pkg/structval"
)

const (
	// ComponentName is the name of the root component.
	ComponentName = "tend"
	// LockVersion is the schema version written to the lock file.
	LockVersion = 1
	// LockPriority runs the lock file before every ordinary artifact.
	LockPriority = 100

	lockDir  = ".tend"
	lockFile = "lock.json"
)

// Register adds the root component and its artifacts to reg.
func Register(reg *registry.Registry) error {
	return reg.Register(registry.Component{
		Name:        ComponentName,
		Description: "tend itself: the lock file recording the components in use",
	}, registry.Variant{
		Name:   "lock",
		Module: "artifacts",
		New:    func() any { return &LockFile{} },
	})
}

// LockFile records the lock version and the discovered components. Unlike
// ordinary artifacts, the component list must match exactly.
type LockFile struct{}

// Descriptor implements artifact.Definition.
func (*LockFile) Descriptor() artifact.Descriptor {
	return artifact.Descriptor{Dir: lockDir, File: lockFile, Format: format.JSON, Priority: LockPriority}
}

// Expected implements artifact.Definition.
func (*LockFile) Expected(_ context.Context, env artifact.Env) (structval.Value, error) {
	components := make([]any, len(env.Components))
	for i, c := range env.Components {
		components[i] = c
	}
	return structval.NewMap(
		structval.Entry{Key: "version", Value: int64(LockVersion)},
		structval.Entry{Key: "components", Value: components},
	), nil
}

// IsCorrect implements artifact.CorrectnessChecker. The file is correct when
// opted out, or when it holds the expected structure and exactly the
// expected component list.
func (*LockFile) IsCorrect(ctx context.Context, h *artifact.Handle) (bool, error) {
	if off, err := h.IsOptedOut(ctx); err != nil || off {
		return off, err
	}
	st, err := h.State(ctx)
	if err != nil || !st.Present {
		return false, err
	}
	if !structval.IsSubset(st.Expected, st.Actual) {
		return false, nil
	}
	want, _ := st.Expected.(*structval.Map).Get("components")
	got, _ := st.Actual.(*structval.Map).Get("components")
	return structval.Equal(want, got), nil
}

// Repair implements artifact.Repairer. It merges missing structure and then
// replaces the component list.
func (*LockFile) Repair(expected, actual structval.Value) (structval.Value, error) {
	merged, ok := structval.MergeMissing(expected, actual).(*structval.Map)
	if !ok {
		return nil, errors.New("lock file must be a JSON object")
	}
	want, _ := expected.(*structval.Map).Get("components")
	merged.Set("components", structval.Clone(want))
	return merged, nil
}
