package model

import (
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/pkg/minikanren"
)

// buildObjective assembles the single scalar FDVariable the solver
// minimizes, across three objective modes (balanced, min-changeovers,
// spread-load) plus the Week-1 maximize_production variant. Every
// component is built from
// variables already posted by Build/buildLineOrdering/buildLineCIPs; this
// function only combines them.
func buildObjective(m *minikanren.Model, opt Options, v *Vars) *minikanren.FDVariable {
	H := opt.Params.Horizon
	lines := opt.Lines

	makespan := newHourVar(m, H)
	for _, l := range lines {
		lv := v.Lines[l.ID]
		if lv.LastEnd == nil {
			continue
		}
		geHour(m, makespan, lv.LastEnd)
	}

	var coTerms, flatTerms []*minikanren.FDVariable
	var coCoeffs, flatCoeffs []int
	for _, l := range lines {
		lv := v.Lines[l.ID]
		if lv.ChangeoverCost != nil {
			coTerms = append(coTerms, lv.ChangeoverCost)
			coCoeffs = append(coCoeffs, 1)
		}
		if lv.PresentCount != nil && len(lv.OrderIdx) > 0 {
			// max(0, presentCount-1), via the minimized-slack trick: post
			// overflow+1 >= presentCount and let minimization push
			// overflow down to exactly max(0, presentCount-1).
			overflow := newBoundedIntVar(m, len(lv.OrderIdx))
			shifted := newBoundedIntVar(m, len(lv.OrderIdx)+1)
			sumEq3(m, overflow, pinConst(m, hourToFD(1)), shifted) // overflow+1=shifted
			geHour(m, shifted, lv.PresentCount)
			flatTerms = append(flatTerms, overflow)
			flatCoeffs = append(flatCoeffs, 1)
		}
	}
	coCost := sumTerms(m, coTerms, coCoeffs, 10_000_000)
	flatOverflowBound := len(lines)*len(opt.Orders) + 1
	flatOverflow := sumTerms(m, flatTerms, flatCoeffs, flatOverflowBound)

	var totalIdle *minikanren.FDVariable
	if opt.Params.ObjectiveW.Idle != 0 {
		idleTerms := make([]*minikanren.FDVariable, 0, len(lines))
		idleCoeffs := make([]int, 0, len(lines))
		for _, l := range lines {
			lv := v.Lines[l.ID]
			idleTerms = append(idleTerms, lineIdle(m, opt, v, lv))
			idleCoeffs = append(idleCoeffs, 1)
		}
		totalIdle = sumTerms(m, idleTerms, idleCoeffs, H*len(lines)+1)
	} else {
		totalIdle = pinConst(m, hourToFD(0))
	}

	var deferTerms []*minikanren.FDVariable
	var deferCoeffs []int
	for _, l := range lines {
		lv := v.Lines[l.ID]
		for _, c := range lv.CIPs {
			deferTerms = append(deferTerms, c.Needed)
			deferCoeffs = append(deferCoeffs, 1)
		}
	}
	cipDeferTotal := sumTerms(m, deferTerms, deferCoeffs, len(lines)*3+1)

	var prodTerms []*minikanren.FDVariable
	var prodCoeffs []int
	for _, p := range v.Produced {
		prodTerms = append(prodTerms, p)
		prodCoeffs = append(prodCoeffs, 1)
	}
	totalProduced := sumTerms(m, prodTerms, prodCoeffs, 100_000_000)

	w := opt.Params.ObjectiveW

	makespanCap := H
	coCostCap := 10_000_000
	idleCap := H*len(lines) + 1
	deferCap := len(lines)*3 + 1
	flatCap := flatOverflowBound
	producedCap := 100_000_000

	if opt.Params.MaximizeProduction {
		return combine(m, []weighted{
			{totalProduced, 1000, producedCap},
			{makespan, 1, makespanCap},
			{totalIdle, 1, idleCap},
			{cipDeferTotal, -1, deferCap},
		})
	}

	switch opt.Params.Objective {
	case domain.ObjectiveMinChangeovers:
		return combine(m, []weighted{
			{coCost, 10_000, coCostCap},
			{makespan, 1, makespanCap},
			{totalIdle, 1, idleCap},
			{cipDeferTotal, -1, deferCap},
		})
	case domain.ObjectiveSpreadLoad:
		maxLineRun := maxLineRunHours(m, opt, v)
		return combine(m, []weighted{
			{maxLineRun, 1000, H},
			{coCost, 1, coCostCap},
			{makespan, 1, makespanCap},
			{totalIdle, 1, idleCap},
			{cipDeferTotal, -1, deferCap},
		})
	default: // balanced
		return combine(m, []weighted{
			{makespan, w.Makespan, makespanCap},
			{coCost, w.Changeover, coCostCap},
			{totalIdle, w.Idle, idleCap},
			{cipDeferTotal, -w.CIPDefer, deferCap},
			{flatOverflow, w.Changeover, flatCap},
		})
	}
}

// weighted is one term of a linear objective: coeff*v, or, when coeff is
// negative, coeff is applied to (cap-v) instead so the whole combination
// stays representable in the engine's non-negative-only FD domains. cap
// must be a known upper bound on v's real value.
type weighted struct {
	v     *minikanren.FDVariable
	coeff int
	cap   int
}

// combine posts a minimized objective variable equal to Σ coeff_i*v_i up to
// a constant shift: every negative-coefficient term t is rewritten as
// -t.coeff*(t.cap - t.v), which differs from t.coeff*t.v by the constant
// t.coeff*t.cap. Minimizing the rewritten sum finds the same optimal
// assignment as minimizing the literal weighted sum; only the reported
// objective value carries the constant offset, applied consistently across
// every mode here, so relative comparisons (and the anytime solutions log)
// are unaffected.
func combine(m *minikanren.Model, terms []weighted) *minikanren.FDVariable {
	var vars []*minikanren.FDVariable
	var coeffs []int
	upper := 0
	for _, t := range terms {
		if t.v == nil || t.coeff == 0 {
			continue
		}
		if t.coeff > 0 {
			vars = append(vars, t.v)
			coeffs = append(coeffs, t.coeff)
			upper += t.coeff * t.cap
			continue
		}
		inv := newBoundedIntVar(m, t.cap)
		sumEq3(m, t.v, inv, pinConst(m, hourToFD(t.cap))) // v+inv=cap
		vars = append(vars, inv)
		coeffs = append(coeffs, -t.coeff)
		upper += -t.coeff * t.cap
	}
	return sumTerms(m, vars, coeffs, upper+1)
}

// lineRunHoursTerms collects the RunH variable for every order eligible on
// lv's line, for use by both lineIdle and maxLineRunHours.
func lineRunHoursTerms(v *Vars, lv *LineVars) ([]*minikanren.FDVariable, []int) {
	terms := make([]*minikanren.FDVariable, 0, len(lv.OrderIdx))
	coeffs := make([]int, 0, len(lv.OrderIdx))
	for _, oid := range lv.OrderIdx {
		ov := v.Get(lv.LineID, oid)
		terms = append(terms, ov.RunH)
		coeffs = append(coeffs, 1)
	}
	return terms, coeffs
}

// lineIdle computes max(0, span_l - production_l - cipHours_l) via the
// minimized-slack trick: idle only needs a one-sided inequality because it
// is always summed into a minimized objective term.
func lineIdle(m *minikanren.Model, opt Options, v *Vars, lv *LineVars) *minikanren.FDVariable {
	H := opt.Params.Horizon
	span := newBoundedIntVar(m, H)
	if lv.FirstStart != nil && lv.LastEnd != nil {
		sumEq3(m, lv.FirstStart, span, lv.LastEnd) // firstStart+span=lastEnd
	}

	runTerms, runCoeffs := lineRunHoursTerms(v, lv)
	production := sumTerms(m, runTerms, runCoeffs, H+1)

	var cipTerms []*minikanren.FDVariable
	var cipCoeffs []int
	for _, c := range lv.CIPs {
		gated := newBoundedIntVar(m, opt.Params.CIPDurationH)
		pinnedEqualsIf(m, gated, hourToFD(opt.Params.CIPDurationH), c.Needed)
		notNeeded := newBool(m)
		complementBool(m, c.Needed, notNeeded)
		pinnedEqualsIf(m, gated, hourToFD(0), notNeeded)
		cipTerms = append(cipTerms, gated)
		cipCoeffs = append(cipCoeffs, 1)
	}
	cipHours := sumTerms(m, cipTerms, cipCoeffs, H+1)

	idle := newBoundedIntVar(m, H)
	shortfall := newBoundedIntVar(m, H*3+3)
	produceSum(m, []*minikanren.FDVariable{production, cipHours, idle}, []int{1, 1, 1}, shortfall)
	geHour(m, shortfall, span)
	return idle
}

// maxLineRunHours posts a variable equal to the largest per-line total run
// hours across all lines (the spread-load objective's maxLineRun term),
// using the same one-sided "minimized upper bound" trick as lineIdle.
func maxLineRunHours(m *minikanren.Model, opt Options, v *Vars) *minikanren.FDVariable {
	H := opt.Params.Horizon
	maxRun := newBoundedIntVar(m, H)
	for _, l := range opt.Lines {
		lv := v.Lines[l.ID]
		terms, coeffs := lineRunHoursTerms(v, lv)
		lineRun := sumTerms(m, terms, coeffs, H+1)
		geHour(m, maxRun, lineRun)
	}
	return maxRun
}
