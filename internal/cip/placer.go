// Package cip implements the fallback, post-solve CIP placer: given an
// already-extracted per-line production schedule, it places the
// sanitation blocks a solve didn't model explicitly (sanity1/sanity3
// phases skip CIP intervals entirely) by walking the gaps between
// segments and absorbing any changeover dead-time already sitting there.
//
// Grounded on original_source/code/phase2_scheduler.py's
// compute_cip_windows: same gap list, same cumulative-run-before-gap
// bookkeeping, same "place at the first gap that both clears the run-hour
// threshold and is long enough to hold max(duration, changeover)" greedy
// walk.
package cip

import "sort"

// Segment is one production interval on a line, in the shape the solution
// extractor already has on hand.
type Segment struct {
	OrderID string
	SKU     string
	Start   int
	End     int
}

// Window is one placed CIP block.
type Window struct {
	Start int
	End   int
	// AbsorbedChangeoverH is how much of the gap's changeover dead-time the
	// block covers, min(changeover, duration) -- purely informational.
	AbsorbedChangeoverH int
}

// ChangeoverHours resolves the setup hours between two SKUs run
// back-to-back on the same line; 0 for same-SKU or unknown pairs.
type ChangeoverHours func(fromSKU, toSKU string) int

// Place walks segs (any order) and returns the CIP windows required to
// keep the line's cumulative run-hours-since-last-clean under intervalH,
// given carryH hours already accumulated before the first segment. Returns
// fewer windows than needed when no later segment has a large enough gap;
// the caller (internal/extract) surfaces that shortfall via validation
// rather than this package raising an error -- placement infeasibility is
// a schedule-quality finding, not a placer bug.
func Place(segs []Segment, carryH, intervalH, durationH int, changeover ChangeoverHours) []Window {
	if len(segs) == 0 || intervalH <= 0 {
		return nil
	}

	sorted := append([]Segment(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	type gap struct {
		start, end, coH int
	}
	var gaps []gap
	for i := 0; i < len(sorted)-1; i++ {
		gStart, gEnd := sorted[i].End, sorted[i+1].Start
		if gEnd <= gStart {
			continue
		}
		co := 0
		if sorted[i].SKU != sorted[i+1].SKU {
			co = changeover(sorted[i].SKU, sorted[i+1].SKU)
		}
		gaps = append(gaps, gap{gStart, gEnd, co})
	}

	// runBeforeGap[i] is the elapsed run-clock (carryH plus cumulative run
	// hours) immediately after segment i, i.e. the same clock intervalH
	// measures CIP due-dates against.
	runBeforeGap := make([]int, len(sorted))
	elapsed := carryH
	for i, s := range sorted {
		elapsed += s.End - s.Start
		runBeforeGap[i] = elapsed
	}

	nCIP := 0
	for (nCIP+1)*intervalH <= elapsed {
		nCIP++
	}

	var windows []Window
	usedGap := 0
	for k := 0; k < nCIP; k++ {
		requiredRun := (k + 1) * intervalH
		placed := false
		for j := usedGap; j < len(gaps); j++ {
			if runBeforeGap[j] < requiredRun {
				continue
			}
			g := gaps[j]
			effective := durationH
			if g.coH > effective {
				effective = g.coH
			}
			if g.end-g.start < effective {
				continue
			}
			windows = append(windows, Window{
				Start:               g.start,
				End:                 g.start + effective,
				AbsorbedChangeoverH: min(g.coH, durationH),
			})
			usedGap = j + 1
			placed = true
			break
		}
		if !placed {
			break
		}
	}
	return windows
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
