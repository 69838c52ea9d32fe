package model

import (
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/pkg/minikanren"
)

// buildLineCIPs posts the first-class CIP-interval model: up to three
// candidate occurrences per line, each a boolean-gated optional interval of
// fixed length D, triggered once the line's cumulative clock span since its
// last clean exceeds the configured interval.
//
// firstStart/lastEnd are bounded one-sidedly rather than pinned to the true
// min/max of the line's present orders: firstStart is only constrained ≤
// every present order's SegAStart (never tightened upward), and lastEnd
// only ≥ every present EffEnd (never tightened downward). That lets the
// solver widen the apparent clock span but never narrow it, which only
// ever makes CIP triggering more eager, never less -- a deliberately
// conservative relaxation in place of an argmin/argmax encoding the
// underlying engine has no direct primitive for.
func buildLineCIPs(m *minikanren.Model, opt Options, l domain.Line, lv *LineVars, v *Vars) []CIPVars {
	H := opt.Params.Horizon

	firstStart := newHourVar(m, H)
	lastEnd := newHourVar(m, H)
	anyPresent := false
	for _, oid := range lv.OrderIdx {
		ov := v.Get(l.ID, oid)
		reifyImplies(m, ov.Present, build(minikanren.NewInequality(firstStart, ov.SegAStart, minikanren.LessEqual)))
		reifyImplies(m, ov.Present, build(minikanren.NewInequality(lastEnd, ov.EffEnd, minikanren.GreaterEqual)))
		anyPresent = true
	}
	lv.FirstStart = firstStart
	lv.LastEnd = lastEnd
	if !anyPresent {
		geHour(m, firstStart, pinHour(m, 0))
		leHour(m, lastEnd, pinHour(m, 0))
	}

	clockSpan := newBoundedIntVar(m, H)
	sumEq3(m, firstStart, clockSpan, lastEnd) // firstStart + clockSpan = lastEnd

	st := opt.Index.InitialState(l.ID)
	carry := st.CarryoverHSinceLastCIP

	interval := opt.Params.CIPIntervalH
	if h, ok := opt.Index.CIPIntervalHours(l.ID); ok {
		interval = h
	}
	duration := opt.Params.CIPDurationH

	cips := make([]CIPVars, 3)
	var prevEnd *minikanren.FDVariable
	prevEndHourBound := st.AvailableFrom

	for k := 1; k <= 3; k++ {
		cv := CIPVars{LineID: l.ID, K: k}
		threshold := k*interval - carry
		var needed *minikanren.FDVariable
		if threshold <= 0 {
			needed = pinBool(m, true)
		} else {
			needed = newBool(m)
			notNeeded := newBool(m)
			complementBool(m, needed, notNeeded)
			reifyImplies(m, notNeeded, build(minikanren.NewInequality(clockSpan, pinHour(m, threshold-1), minikanren.LessEqual)))
		}
		cv.Needed = needed

		start := newHourVar(m, H)
		end := newHourVar(m, H)
		sumEq3(m, start, pinConst(m, hourToFD(duration)), end) // start+duration=end

		notNeeded := newBool(m)
		complementBool(m, needed, notNeeded)
		pinnedEqualsIf(m, start, hourToFD(H), notNeeded)
		pinnedEqualsIf(m, end, hourToFD(H), notNeeded)

		if k == 1 {
			reifyImplies(m, needed, build(minikanren.NewInequality(start, pinHour(m, st.AvailableFrom), minikanren.GreaterEqual)))
			windowEnd := st.AvailableFrom + (interval - carry)
			if windowEnd < st.AvailableFrom {
				windowEnd = st.AvailableFrom
			}
			reifyImplies(m, needed, build(minikanren.NewInequality(start, pinHour(m, windowEnd), minikanren.LessEqual)))
			if st.HasLastCIPEndWallclock {
				cap := int(st.LastCIPEndWallclockUnixHour-opt.Params.PlanningAnchorUnixHour) + interval
				if cap >= 0 && cap <= H {
					reifyImplies(m, needed, build(minikanren.NewInequality(start, pinHour(m, cap), minikanren.LessEqual)))
				}
			}
		} else {
			reifyImplies(m, needed, build(minikanren.NewInequality(start, prevEnd, minikanren.GreaterEqual)))
			reifyImplies(m, needed, build(minikanren.NewInequality(start, pinHour(m, prevEndHourBound+interval), minikanren.LessEqual)))
		}

		cv.Start = start
		cv.End = end
		cips[k-1] = cv
		prevEnd = end
		prevEndHourBound += interval
	}

	// b2 ⇒ b1, b3 ⇒ b2.
	leHour(m, cips[1].Needed, cips[0].Needed)
	leHour(m, cips[2].Needed, cips[1].Needed)

	// Capacity: total run hours plus CIP occupancy can't exceed the line's
	// schedulable hours net of downtime.
	downHours := 0
	for _, dt := range opt.Index.Downtimes(l.ID) {
		downHours += dt.End - dt.Start
	}
	available := H - st.AvailableFrom - downHours
	if available < 0 {
		available = 0
	}
	runTerms := make([]*minikanren.FDVariable, 0, len(lv.OrderIdx)+3)
	runCoeffs := make([]int, 0, len(lv.OrderIdx)+3)
	for _, oid := range lv.OrderIdx {
		ov := v.Get(l.ID, oid)
		runTerms = append(runTerms, ov.RunH)
		runCoeffs = append(runCoeffs, 1)
	}
	for _, cv := range cips {
		gated := newBoundedIntVar(m, duration)
		pinnedEqualsIf(m, gated, hourToFD(duration), cv.Needed)
		notNeeded := newBool(m)
		complementBool(m, cv.Needed, notNeeded)
		pinnedEqualsIf(m, gated, hourToFD(0), notNeeded)
		runTerms = append(runTerms, gated)
		runCoeffs = append(runCoeffs, 1)
	}
	capacityUsed := sumTerms(m, runTerms, runCoeffs, H*3)
	leHour(m, capacityUsed, pinConst(m, hourToFD(available)))

	// Tail coverage: once any CIP is needed, the line's last production
	// hour can't run more than one interval past the last CIP actually
	// taken.
	reifyImplies(m, cips[2].Needed, build(minikanren.NewInequality(lastEnd, addConstHour(m, cips[2].End, interval, H+interval), minikanren.LessEqual)))
	onlyTwo := newBool(m)
	complementBool(m, cips[2].Needed, onlyTwo)
	gate2 := newBool(m)
	gateCon, gateErr := minikanren.NewLinearSum([]*minikanren.FDVariable{cips[1].Needed, onlyTwo, gate2}, []int{1, 1, -2}, pinConst(m, 1))
	add(m, gateCon, gateErr)
	reifyImplies(m, gate2, build(minikanren.NewInequality(lastEnd, addConstHour(m, cips[1].End, interval, H+interval), minikanren.LessEqual)))

	return cips
}

// addConstHour returns a new variable pinned so that the returned variable
// equals base (an hour-valued variable) plus a fixed constant number of
// hours, for use as the RHS of an Inequality. max bounds its domain.
func addConstHour(m *minikanren.Model, base *minikanren.FDVariable, hours, max int) *minikanren.FDVariable {
	shifted := newHourVar(m, max)
	con, err := minikanren.NewArithmetic(base, shifted, hours)
	add(m, con, err)
	return shifted
}
