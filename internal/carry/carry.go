// Package carry derives next-horizon initial line states from a solved
// and extracted schedule, the rolling-horizon seed used both by the
// two-phase orchestrator (deriving Week-1 state from Week-0) and by
// --rolling CLI invocations (deriving the next run's initial_states.csv
// from this run's schedule).
package carry

import (
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/internal/extract"
)

// AvailableFromMode selects how Derive computes a line's AvailableFrom:
// TailMode follows the schedule's own last activity (used when the next
// horizon picks up immediately after this one, e.g. Week-0 -> Week-1),
// ZeroMode always reports 0 (used for the final next_initial_states
// table, which seeds a fresh run starting its own clock at hour 0).
type AvailableFromMode int

const (
	TailMode AvailableFromMode = iota
	ZeroMode
)

// Options configures Derive.
type Options struct {
	Lines          []domain.Line
	Prior          []domain.InitialState // this horizon's own initial states, for carry-forward of fields Derive doesn't compute
	AnchorUnixHour int64
	CIPIntervalH   int // I
	Mode           AvailableFromMode
}

// Derive computes the next horizon's initial state for every line in
// opt.Lines, from tbl's schedule and CIP rows.
func Derive(tbl extract.Tables, opt Options) []domain.InitialState {
	priorByLine := make(map[int]domain.InitialState, len(opt.Prior))
	for _, p := range opt.Prior {
		priorByLine[p.LineID] = p
	}

	scheduleByLine := make(map[int][]extract.ScheduleRow)
	for _, row := range tbl.Schedule {
		scheduleByLine[row.LineID] = append(scheduleByLine[row.LineID], row)
	}
	cipByLine := make(map[int][]extract.CIPRow)
	for _, row := range tbl.CIPWindows {
		cipByLine[row.LineID] = append(cipByLine[row.LineID], row)
	}

	out := make([]domain.InitialState, 0, len(opt.Lines))
	for _, l := range opt.Lines {
		prior := priorByLine[l.ID]
		out = append(out, deriveLine(l.ID, scheduleByLine[l.ID], cipByLine[l.ID], prior, opt))
	}
	return out
}

func deriveLine(lineID int, schedule []extract.ScheduleRow, cips []extract.CIPRow, prior domain.InitialState, opt Options) domain.InitialState {
	state := domain.InitialState{
		LineID:             lineID,
		InitialSKU:         domain.CleanSKU,
		LongShutdownFlag:   prior.LongShutdownFlag,
		LongShutdownExtraH: prior.LongShutdownExtraH,
	}

	lastCIPEndH, hasCIPThisHorizon := maxCIPEnd(cips)
	lastProductionEnd, latestSKU, hasSchedule := latestSegment(schedule)
	if hasSchedule {
		state.InitialSKU = latestSKU
	} else {
		state.InitialSKU = prior.InitialSKU
	}

	// Hours run since the clock last reset to zero: either since this
	// horizon's own last CIP, or (no CIP placed this horizon) since
	// whatever the carry-in already was, plus everything produced since.
	runSinceReset := 0
	for _, row := range schedule {
		if hasCIPThisHorizon && row.StartHour < lastCIPEndH {
			continue
		}
		runSinceReset += row.RunHours
	}
	carry := runSinceReset
	if !hasCIPThisHorizon {
		carry += prior.CarryoverHSinceLastCIP
	}
	state.CarryoverHSinceLastCIP = clamp(carry, 0, opt.CIPIntervalH-1)

	if hasCIPThisHorizon {
		state.LastCIPEndWallclockUnixHour = opt.AnchorUnixHour + int64(lastCIPEndH)
		state.HasLastCIPEndWallclock = opt.AnchorUnixHour != 0
	} else {
		state.LastCIPEndWallclockUnixHour = prior.LastCIPEndWallclockUnixHour
		state.HasLastCIPEndWallclock = prior.HasLastCIPEndWallclock
	}

	switch opt.Mode {
	case ZeroMode:
		state.AvailableFrom = 0
	default: // TailMode
		state.AvailableFrom = maxInt(lastProductionEnd, lastCIPEndH)
	}

	return state
}

func maxCIPEnd(cips []extract.CIPRow) (int, bool) {
	if len(cips) == 0 {
		return 0, false
	}
	max := cips[0].EndHour
	for _, c := range cips[1:] {
		if c.EndHour > max {
			max = c.EndHour
		}
	}
	return max, true
}

// latestSegment returns the end hour and SKU of the latest-ending segment.
func latestSegment(schedule []extract.ScheduleRow) (endHour int, sku string, ok bool) {
	if len(schedule) == 0 {
		return 0, "", false
	}
	best := schedule[0]
	for _, row := range schedule[1:] {
		if row.EndHour > best.EndHour {
			best = row
		}
	}
	return best.EndHour, best.SKU, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
