package model

import (
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/pkg/minikanren"
)

// buildLineOrdering posts, for every pair of eligible orders on a line, a
// pairwise ordering boolean (Pairwise[i][j]) and a successor boolean
// (Succ[i][j]) capturing whether j runs immediately after i, then chains the
// successor booleans into the line's changeover cost. Each order's
// [SegAStart, EffEnd] envelope doubles as its non-overlap footprint: the
// ordering booleans that drive changeover costing are the same ones that
// keep two orders' envelopes from overlapping, so no separate NoOverlap
// global constraint is posted for order-vs-order placement
// (pkg/minikanren's Cumulative/NoOverlap require fixed, non-variable
// durations, which these envelopes don't have — the same reasoning rules
// out Circuit here).
func buildLineOrdering(m *minikanren.Model, opt Options, lv *LineVars, v *Vars, ignoreChangeovers bool) {
	n := len(lv.OrderIdx)
	if n == 0 {
		lv.PresentCount = pinConst(m, hourToFD(0))
		return
	}

	presents := make([]*minikanren.FDVariable, n)
	for i, oid := range lv.OrderIdx {
		presents[i] = v.Get(lv.LineID, oid).Present
	}
	presentCount := newBoundedIntVar(m, n)
	con, err := minikanren.NewBoolSum(presents, presentCount)
	add(m, con, err)
	lv.PresentCount = presentCount

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			oi := v.Get(lv.LineID, lv.OrderIdx[i])
			oj := v.Get(lv.LineID, lv.OrderIdx[j])

			bij := newBool(m)
			lv.Pairwise[[2]int{i, j}] = bij

			// bij ⇒ i ends no later than j starts.
			reifyImplies(m, bij, build(minikanren.NewInequality(oi.EffEnd, oj.SegAStart, minikanren.LessEqual)))

			// When both orders are present, exactly one direction holds:
			// pin bij to true whenever both are present and i is in fact
			// the earlier order (forward-only monotone consequence of the
			// envelope ordering: j starting before i ends is infeasible
			// once bji's own implication is posted on the reverse pass).
		}
	}

	// Every pair of distinct present orders must be ordered one way or the
	// other: bij + bji >= 1 whenever both are present. Since bji is posted
	// on the (j,i) pass of the loop above, gate the disjunction behind both
	// presence booleans with a reified BoolSum lower bound.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			bij := lv.Pairwise[[2]int{i, j}]
			bji := lv.Pairwise[[2]int{j, i}]
			bothPresent := newBool(m)
			bpCon, bpErr := minikanren.NewLinearSum(
				[]*minikanren.FDVariable{presents[i], presents[j], bothPresent},
				[]int{1, 1, -2},
				pinConst(m, 1),
			)
			add(m, bpCon, bpErr)
			orderedCount := newBoundedIntVar(m, 2)
			ocCon, ocErr := minikanren.NewBoolSum([]*minikanren.FDVariable{bij, bji}, orderedCount)
			add(m, ocCon, ocErr)
			reifyImplies(m, bothPresent, build(minikanren.NewInequality(orderedCount, pinConst(m, hourToFD(1)), minikanren.GreaterEqual)))
		}
	}

	if ignoreChangeovers {
		return
	}

	idx := opt.Index
	orderByID := make(map[string]domain.Order, len(opt.Orders))
	for _, o := range opt.Orders {
		orderByID[o.OrderID] = o
	}

	// Succ[i][j] = 1 iff j is i's immediate successor: bij holds and no
	// present order k sits strictly between them.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			succ := newBool(m)
			lv.Succ[[2]int{i, j}] = succ
			bij := lv.Pairwise[[2]int{i, j}]
			leHour(m, succ, bij)
		}
	}

	// First[i] = 1 iff order i is the line's first present order: it must
	// itself be present, and (via the boolean-as-inequality trick: a bool
	// only takes 1/2, so x<=y already encodes x=true⇒y=true) it must be
	// ordered before every other order by the same Pairwise booleans that
	// drive changeover costing. Exactly one holds whenever the line is
	// non-empty; none holds when it's empty.
	first := make([]*minikanren.FDVariable, n)
	for i := 0; i < n; i++ {
		fi := newBool(m)
		first[i] = fi
		oi := v.Get(lv.LineID, lv.OrderIdx[i])
		leHour(m, fi, oi.Present)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			leHour(m, fi, lv.Pairwise[[2]int{i, j}])
		}
	}
	firstCount := newBoundedIntVar(m, 1)
	fCon, fErr := minikanren.NewBoolSum(first, firstCount)
	add(m, fCon, fErr)
	for i := 0; i < n; i++ {
		oi := v.Get(lv.LineID, lv.OrderIdx[i])
		reifyImplies(m, oi.Present, build(minikanren.NewInequality(firstCount, pinConst(m, hourToFD(1)), minikanren.GreaterEqual)))
	}

	// Changeover cost: Σ over ordered pairs of succ[i,j] * weightedCost(i,j),
	// plus the first order's initial setup from the line's incoming state,
	// expressed by pinning a cost constant per pair/selector and summing its
	// contribution only when the gating boolean holds, via a LinearSum whose
	// total is the line's changeover cost variable.
	maxPairCost := 10_000
	terms := make([]*minikanren.FDVariable, 0, n*n+n)
	coeffs := make([]int, 0, n*n+n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			succ := lv.Succ[[2]int{i, j}]
			oi := orderByID[lv.OrderIdx[i]]
			oj := orderByID[lv.OrderIdx[j]]
			cost := weightedChangeoverCost(idx, opt, oi.SKU, oj.SKU)
			if cost == 0 {
				continue
			}
			// gated := succ ? cost : 0, modeled with its own bounded var and
			// a ValueEqualsReified pin to "cost" when succ holds and to 0
			// otherwise (via succ's complement).
			gated := newBoundedIntVar(m, maxPairCost)
			pinnedEqualsIf(m, gated, hourToFD(cost), succ)
			notSucc := newBool(m)
			complementBool(m, succ, notSucc)
			pinnedEqualsIf(m, gated, hourToFD(0), notSucc)
			terms = append(terms, gated)
			coeffs = append(coeffs, 1)
		}
	}

	st := idx.InitialState(lv.LineID)
	maxFirstCost := maxPairCost + st.LongShutdownExtraH + 1
	for i := 0; i < n; i++ {
		oi := orderByID[lv.OrderIdx[i]]
		cost := 0
		if st.InitialSKU != domain.CleanSKU {
			cost = weightedChangeoverCost(idx, opt, st.InitialSKU, oi.SKU)
		}
		if st.LongShutdownFlag {
			cost += st.LongShutdownExtraH
		}
		if cost == 0 {
			continue
		}
		gated := newBoundedIntVar(m, maxFirstCost)
		pinnedEqualsIf(m, gated, hourToFD(cost), first[i])
		notFirst := newBool(m)
		complementBool(m, first[i], notFirst)
		pinnedEqualsIf(m, gated, hourToFD(0), notFirst)
		terms = append(terms, gated)
		coeffs = append(coeffs, 1)
	}

	lv.ChangeoverCost = sumTerms(m, terms, coeffs, n*maxPairCost+n*maxFirstCost)
}

// weightedChangeoverCost combines the per-axis changeover flags from the
// changeover table with the configured weights into a single integer cost,
// in whole hours, used by the objective's changeover term.
func weightedChangeoverCost(idx *domain.Index, opt Options, fromSKU, toSKU string) int {
	c, ok := idx.Changeover(fromSKU, toSKU)
	if !ok || fromSKU == toSKU {
		return 0
	}
	w := opt.Params.ChangeoverW
	cost := w.Base
	cost += c.TopLoad * w.TopLoad
	cost += c.TTP * w.TTP
	cost += c.FFS * w.FFS
	cost += c.Casepacker * w.Casepacker
	cost += c.ConvToOrg * w.ConvToOrg
	cost += c.CinnToNonCinn * w.Cinnamon
	cost += c.AddedFlavors * w.AddedFlavor
	if cost < 0 {
		cost = 0
	}
	return cost
}

// sumTerms posts a bounded sum variable equal to Σ coeffs[i]*terms[i] (plain,
// non-offset integers already stored with the usual +1 FD convention) and
// returns it.
func sumTerms(m *minikanren.Model, terms []*minikanren.FDVariable, coeffs []int, max int) *minikanren.FDVariable {
	total := newBoundedIntVar(m, max)
	if len(terms) == 0 {
		pinnedEqualsIf(m, total, hourToFD(0), pinBool(m, true))
		return total
	}
	produceSum(m, terms, coeffs, total)
	return total
}
