// SPDX-License-Identifier: MPL-2.0

package initializer

import (
	"context"
	"errors"

	"github.com/tendkit/tend/pkg/format"
	"github.com/tendkit/tend/pkg/structval"
)

// initialize runs the state machine for one artifact.
func (e *Engine) initialize(ctx context.Context, it *Item) Result {
	h := it.Handle
	res := it.result("")
	logger := e.logger.With("artifact", it.ID, "path", res.Location)

	fatal := func(reason Reason, err error) Result {
		res.Outcome, res.Reason, res.Err = OutcomeFatal, reason, err
		logger.Error("artifact failed", "reason", reason, "error", err)
		return res
	}

	expected, err := h.Expected(ctx)
	if err != nil {
		return fatal(ReasonIO, err)
	}

	if !h.Exists() {
		logger.Debug("absent, writing expected content")
		if err := h.Write(ctx, expected); err != nil {
			return fatal(ReasonIO, err)
		}
		res.Outcome = OutcomeCreated
	} else {
		ok, err := h.IsCorrect(ctx)
		if err != nil {
			return fatal(classify(err), err)
		}
		if ok {
			res.Outcome = OutcomeUnchanged
			if off, _ := h.IsOptedOut(ctx); off {
				res.Outcome = OutcomeOptedOut
			}
			logger.Debug("already correct", "outcome", res.Outcome)
			return res
		}

		logger.Debug("present but incorrect, repairing")
		repaired, err := h.Repair(ctx)
		if err != nil {
			return fatal(classify(err), err)
		}
		if err := h.Write(ctx, repaired); err != nil {
			return fatal(ReasonIO, err)
		}
		res.Outcome = OutcomeRepaired
	}

	ok, err := h.IsCorrect(ctx)
	switch {
	case err != nil:
		return fatal(ReasonUnconverged, errors.Join(ErrUnconvergedRepair, err))
	case !ok:
		return fatal(ReasonUnconverged, ErrUnconvergedRepair)
	}

	logger.Info(string(res.Outcome))
	return res
}

// check validates one artifact without writing.
func (e *Engine) check(ctx context.Context, it *Item) Result {
	h := it.Handle
	res := it.result("")

	if !h.Exists() {
		res.Outcome = OutcomeMissing
		e.logger.Debug("missing", "artifact", it.ID, "path", res.Location)
		return res
	}

	ok, err := h.IsCorrect(ctx)
	if err != nil {
		res.Outcome, res.Reason, res.Err = OutcomeFatal, classify(err), err
		e.logger.Error("check failed", "artifact", it.ID, "error", err)
		return res
	}
	if ok {
		res.Outcome = OutcomeUnchanged
		if off, _ := h.IsOptedOut(ctx); off {
			res.Outcome = OutcomeOptedOut
		}
		return res
	}

	res.Outcome = OutcomeIncorrect
	if st, err := h.State(ctx); err == nil {
		res.Mismatches = structval.Mismatches(st.Expected, st.Actual)
	}
	e.logger.Debug("incorrect", "artifact", it.ID, "mismatches", len(res.Mismatches))
	return res
}

func classify(err error) Reason {
	if errors.Is(err, format.ErrMalformed) {
		return ReasonMalformed
	}
	return ReasonIO
}
