// SPDX-License-Identifier: MPL-2.0

package initializer

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/scheduler"
	"github.com/tendkit/tend/pkg/artifact"
)

// CodeNestedSamePriority flags two artifacts of one priority group where one
// location lies under the other. Their relative order is undefined.
const CodeNestedSamePriority = "nested_same_priority"

type (
	// Item is one planned artifact.
	Item struct {
		ID        string
		Component string
		Handle    *artifact.Handle
		index     int
	}

	// Plan is the resolved execution plan of a Request.
	Plan struct {
		Request Request
		Env     artifact.Env
		Session *artifact.Session
		// Items lists planned artifacts in discovery order.
		Items []*Item
		// Groups holds Items by priority, highest first.
		Groups []scheduler.Group[*Item]
		// Excluded lists artifacts dropped by PriorityOnly.
		Excluded    []*Item
		Diagnostics []discovery.Diagnostic
	}
)

// Plan discovers the leaf artifact variants of req, resolves their
// locations in a fresh Session and groups them by priority. It fails with an
// *AmbiguityError when two variants resolve to the same location.
func (e *Engine) Plan(_ context.Context, req Request) (*Plan, error) {
	req, err := req.withDefaults()
	if err != nil {
		return nil, err
	}

	set, err := discovery.FindVariants[artifact.Definition](e.reg, req.Root, req.ModulePath)
	if err != nil {
		return nil, err
	}

	env := artifact.Env{ProjectDir: req.ProjectDir, Components: set.Components}
	plan := &Plan{
		Request:     req,
		Env:         env,
		Session:     artifact.NewSession(env),
		Diagnostics: slices.Clone(set.Diagnostics),
	}

	byLocation := make(map[string][]string)
	var locations []string
	for _, f := range set.Variants {
		if err := f.Value.Descriptor().Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", f.ID(), err)
		}
		h, err := plan.Session.Handle(f.ID(), f.Value)
		if err != nil {
			return nil, err
		}

		loc := filepath.Clean(h.Locate())
		if _, seen := byLocation[loc]; !seen {
			locations = append(locations, loc)
		}
		byLocation[loc] = append(byLocation[loc], f.ID())

		it := &Item{ID: f.ID(), Component: f.Variant.Component, Handle: h}
		if req.PriorityOnly && h.Priority() <= 0 {
			plan.Excluded = append(plan.Excluded, it)
			continue
		}
		it.index = len(plan.Items)
		plan.Items = append(plan.Items, it)
	}

	var conflicts []Conflict
	for _, loc := range locations {
		if ids := byLocation[loc]; len(ids) > 1 {
			conflicts = append(conflicts, Conflict{Location: loc, IDs: ids})
		}
	}
	if len(conflicts) > 0 {
		return nil, &AmbiguityError{Conflicts: conflicts}
	}

	plan.Groups = scheduler.Partition(plan.Items, func(it *Item) float64 { return it.Handle.Priority() })
	for _, g := range plan.Groups {
		plan.Diagnostics = append(plan.Diagnostics, nestedWarnings(g)...)
	}

	e.logger.Debug("planned",
		"root", req.Root, "module", req.ModulePath,
		"components", len(env.Components), "artifacts", len(plan.Items), "groups", len(plan.Groups))
	return plan, nil
}

func nestedWarnings(g scheduler.Group[*Item]) []discovery.Diagnostic {
	var diags []discovery.Diagnostic
	for _, a := range g.Items {
		for _, b := range g.Items {
			if a == b {
				continue
			}
			parent, child := a.Handle.Locate(), b.Handle.Locate()
			if strings.HasPrefix(child, parent+string(filepath.Separator)) {
				diags = append(diags, discoveryDiag(CodeNestedSamePriority, child,
					"%s lies under %s and both have priority %g; their order is undefined",
					b.ID, a.ID, g.Priority))
			}
		}
	}
	return diags
}

func (it *Item) result(o Outcome) Result {
	return Result{
		ID:        it.ID,
		Component: it.Component,
		Location:  it.Handle.Locate(),
		Priority:  it.Handle.Priority(),
		Outcome:   o,
	}
}
