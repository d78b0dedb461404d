// SPDX-License-Identifier: MPL-2.0

// Package scheduler runs tasks in priority groups. Groups run one after
// another in descending priority; the tasks of one group run concurrently on
// a bounded pool, and a group always drains completely before the next one
// starts.
package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrGroupFailed is the sentinel error wrapped by GroupFailedError.
	ErrGroupFailed = errors.New("priority group failed")
	// ErrCanceled is returned when the context is done between groups.
	ErrCanceled = errors.New("run canceled")
)

type (
	// Group is the set of items sharing one priority.
	Group[T any] struct {
		Priority float64
		Items    []T
	}

	// Options configures Run.
	Options struct {
		// Concurrency bounds the tasks running at once within a group.
		// Zero or less means runtime.GOMAXPROCS(0).
		Concurrency int
		// OnGroup, when set, is called before each group starts.
		OnGroup func(priority float64, size int)
	}

	// GroupFailedError reports the group that stopped the run.
	GroupFailedError struct {
		Priority float64
		Failed   int
		Total    int
		Errs     []error
	}
)

// Error implements the error interface.
func (e *GroupFailedError) Error() string {
	return fmt.Sprintf("priority group %g: %d of %d tasks failed", e.Priority, e.Failed, e.Total)
}

// Unwrap returns ErrGroupFailed followed by the task errors.
func (e *GroupFailedError) Unwrap() []error {
	return append([]error{ErrGroupFailed}, e.Errs...)
}

// Partition groups items by priority, highest first. Items keep their input
// order within a group.
func Partition[T any](items []T, priority func(T) float64) []Group[T] {
	index := make(map[float64]int)
	var groups []Group[T]
	for _, it := range items {
		p := priority(it)
		i, ok := index[p]
		if !ok {
			i = len(groups)
			index[p] = i
			groups = append(groups, Group[T]{Priority: p})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	slices.SortStableFunc(groups, func(a, b Group[T]) int { return cmp.Compare(b.Priority, a.Priority) })
	return groups
}

// Run executes fn for every item, group by group. Tasks receive a context
// that is not canceled with ctx, so a started group always finishes; ctx is
// checked only between groups. The run stops after the first group in which
// any task returned an error, with a *GroupFailedError.
func Run[T any](ctx context.Context, groups []Group[T], opts Options, fn func(context.Context, T) error) error {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	taskCtx := context.WithoutCancel(ctx)

	for _, grp := range groups {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w before priority group %g: %w", ErrCanceled, grp.Priority, err)
		}
		if opts.OnGroup != nil {
			opts.OnGroup(grp.Priority, len(grp.Items))
		}

		errs := make([]error, len(grp.Items))
		var eg errgroup.Group
		eg.SetLimit(limit)
		for i, item := range grp.Items {
			eg.Go(func() error {
				errs[i] = fn(taskCtx, item)
				return nil
			})
		}
		_ = eg.Wait()

		var failed []error
		for _, err := range errs {
			if err != nil {
				failed = append(failed, err)
			}
		}
		if len(failed) > 0 {
			return &GroupFailedError{
				Priority: grp.Priority,
				Failed:   len(failed),
				Total:    len(grp.Items),
				Errs:     failed,
			}
		}
	}
	return nil
}
