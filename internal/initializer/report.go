// SPDX-License-Identifier: MPL-2.0

package initializer

import (
	"slices"

	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/pkg/structval"
)

const (
	// OutcomeCreated means the artifact was missing and has been written.
	OutcomeCreated Outcome = "created"
	// OutcomeRepaired means missing structure was merged into the artifact.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeUnchanged means the artifact already satisfied its expected content.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeOptedOut means the user emptied the artifact.
	OutcomeOptedOut Outcome = "opted-out"
	// OutcomeFatal means the artifact could not be brought into a correct state.
	OutcomeFatal Outcome = "fatal"
	// OutcomeMissing is a check-mode failure: the artifact does not exist.
	OutcomeMissing Outcome = "missing"
	// OutcomeIncorrect is a check-mode failure: content lacks expected structure.
	OutcomeIncorrect Outcome = "incorrect"
	// OutcomeSkipped means the artifact's group never started.
	OutcomeSkipped Outcome = "skipped"
	// OutcomePlanned is reported for every artifact of a dry run.
	OutcomePlanned Outcome = "planned"

	// ReasonMalformed means existing content could not be parsed.
	ReasonMalformed Reason = "malformed"
	// ReasonUnconverged means the post-repair check failed.
	ReasonUnconverged Reason = "unconverged"
	// ReasonIO covers every other failure: file system errors, expected
	// content that failed to compute or encode.
	ReasonIO Reason = "error"
)

type (
	// Outcome is the terminal state of one artifact.
	Outcome string

	// Reason classifies a fatal outcome.
	Reason string

	// Result is the outcome of one artifact.
	Result struct {
		ID        string
		Component string
		Location  string
		Priority  float64
		Outcome   Outcome
		// Reason and Err are set for fatal outcomes.
		Reason Reason
		Err    error
		// Mismatches lists the unmet expectations of an incorrect artifact.
		Mismatches []structval.Mismatch
	}

	// Report is the consolidated result of a run.
	Report struct {
		Mode         Mode
		DryRun       bool
		PriorityOnly bool
		Components   []string
		Results      []Result
		Diagnostics  []discovery.Diagnostic
	}
)

// Failed reports whether the outcome counts as a failure.
func (o Outcome) Failed() bool {
	switch o {
	case OutcomeFatal, OutcomeMissing, OutcomeIncorrect:
		return true
	default:
		return false
	}
}

// Failures returns the failing results.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether no artifact failed.
func (r *Report) OK() bool { return len(r.Failures()) == 0 }

// Count returns how many results have outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Outcomes returns the distinct outcomes present, in a stable order.
func (r *Report) Outcomes() []Outcome {
	order := []Outcome{
		OutcomeCreated, OutcomeRepaired, OutcomeUnchanged, OutcomeOptedOut,
		OutcomeMissing, OutcomeIncorrect, OutcomeFatal, OutcomeSkipped, OutcomePlanned,
	}
	return slices.DeleteFunc(order, func(o Outcome) bool { return r.Count(o) == 0 })
}
