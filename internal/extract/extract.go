// Package extract converts a solved model into the plain, disk-shaped
// rows the rest of the scheduler writes out: schedule rows, a
// produced-vs-bounds row per order, and CIP rows -- falling back to
// internal/cip's greedy placer when a phase didn't model CIP intervals
// explicitly. Grounded on original_source/code/phase2_scheduler.py's
// top-level extraction pass that calls compute_cip_windows per line.
package extract

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/plantline/scheduler/internal/cip"
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/internal/model"
	"github.com/plantline/scheduler/internal/parallel"
)

// ScheduleRow is one produced segment on one line.
type ScheduleRow struct {
	LineID    int
	LineName  string
	OrderID   string
	SKU       string
	StartHour int
	EndHour   int
	RunHours  int
	StartDT   string
	EndDT     string
	IsTrial   bool
}

// ProducedRow is one order's produced-vs-bounds accounting.
type ProducedRow struct {
	OrderID  string
	SKU      string
	QtyMin   float64
	QtyMax   float64
	Produced int
	InBounds bool
}

// CIPRow is one placed CIP block.
type CIPRow struct {
	LineID    int
	LineName  string
	StartHour int
	EndHour   int
}

// Tables is the full set of rows extracted from one solve, in plain units
// with hourOffset already applied.
type Tables struct {
	Schedule   []ScheduleRow
	ProducedVs []ProducedRow
	CIPWindows []CIPRow
}

// Options configures Extract: the same Index/Orders/Lines the model was
// built from, plus the knobs the fallback placer and wall-clock columns
// need.
type Options struct {
	Index          *domain.Index
	Orders         []domain.Order
	Lines          []domain.Line
	AnchorUnixHour int64
	HourOffset     int

	CIPIntervalH int
	CIPDurationH int

	// InitialCarry[lineID] is the carryover run-hours since last CIP at
	// the start of this horizon, used by the fallback placer; zero for
	// lines not present.
	InitialCarry map[int]int

	// HasSolverCIPs is true when sol.CIPs should be trusted as-is (the
	// full phase models CIP intervals explicitly); false triggers the
	// fallback placer per line (sanity1/sanity3).
	HasSolverCIPs bool
}

// Extract builds the three output tables from one model.Solution.
func Extract(sol model.Solution, opt Options) Tables {
	lineName := make(map[int]string, len(opt.Lines))
	for _, l := range opt.Lines {
		lineName[l.ID] = l.Name
	}
	orderByID := make(map[string]domain.Order, len(opt.Orders))
	for _, o := range opt.Orders {
		orderByID[o.OrderID] = o
	}

	var schedule []ScheduleRow
	for _, ols := range sol.OrderLines {
		o := orderByID[ols.OrderID]
		if ols.SegARun > 0 {
			schedule = append(schedule, scheduleRow(ols.LineID, lineName[ols.LineID], o, ols.SegAStart, ols.SegAEnd, ols.SegARun, opt))
		}
		if ols.SegBPresent && ols.SegBRun > 0 {
			schedule = append(schedule, scheduleRow(ols.LineID, lineName[ols.LineID], o, ols.SegBStart, ols.SegBEnd, ols.SegBRun, opt))
		}
	}
	sort.Slice(schedule, func(i, j int) bool {
		if schedule[i].LineID != schedule[j].LineID {
			return schedule[i].LineID < schedule[j].LineID
		}
		return schedule[i].StartHour < schedule[j].StartHour
	})

	produced := make([]ProducedRow, 0, len(opt.Orders))
	for _, o := range opt.Orders {
		qty := sol.Produced[o.OrderID]
		produced = append(produced, ProducedRow{
			OrderID:  o.OrderID,
			SKU:      o.SKU,
			QtyMin:   o.QtyMin,
			QtyMax:   o.QtyMax,
			Produced: qty,
			InBounds: float64(qty) >= o.QtyMin && float64(qty) <= o.QtyMax,
		})
	}

	var cipRows []CIPRow
	if opt.HasSolverCIPs {
		for _, c := range sol.CIPs {
			cipRows = append(cipRows, CIPRow{
				LineID:    c.LineID,
				LineName:  lineName[c.LineID],
				StartHour: c.Start + opt.HourOffset,
				EndHour:   c.End + opt.HourOffset,
			})
		}
	} else {
		cipRows = placeFallbackCIPs(schedule, opt)
	}
	sort.Slice(cipRows, func(i, j int) bool {
		if cipRows[i].LineID != cipRows[j].LineID {
			return cipRows[i].LineID < cipRows[j].LineID
		}
		return cipRows[i].StartHour < cipRows[j].StartHour
	})

	return Tables{Schedule: schedule, ProducedVs: produced, CIPWindows: cipRows}
}

func scheduleRow(lineID int, name string, o domain.Order, start, end, run int, opt Options) ScheduleRow {
	return ScheduleRow{
		LineID:    lineID,
		LineName:  name,
		OrderID:   o.OrderID,
		SKU:       o.SKU,
		StartHour: start + opt.HourOffset,
		EndHour:   end + opt.HourOffset,
		RunHours:  run,
		StartDT:   hourToRFC3339(opt.AnchorUnixHour, start+opt.HourOffset),
		EndDT:     hourToRFC3339(opt.AnchorUnixHour, end+opt.HourOffset),
		IsTrial:   o.IsTrial,
	}
}

// hourToRFC3339 renders anchor+hour as a UTC timestamp; empty when no
// anchor is configured, since the hour-only columns already carry the
// schedule.
func hourToRFC3339(anchorUnixHour int64, hour int) string {
	if anchorUnixHour == 0 {
		return ""
	}
	return time.Unix((anchorUnixHour+int64(hour))*3600, 0).UTC().Format(time.RFC3339)
}

// placeFallbackCIPs runs the greedy placer independently per line, fanned
// out across a worker pool since lines are fully independent and a plant
// with dozens of lines shouldn't serialize on this.
func placeFallbackCIPs(schedule []ScheduleRow, opt Options) []CIPRow {
	byLine := make(map[int][]ScheduleRow)
	for _, row := range schedule {
		byLine[row.LineID] = append(byLine[row.LineID], row)
	}
	if len(byLine) == 0 {
		return nil
	}

	lineIDs := make([]int, 0, len(byLine))
	for id := range byLine {
		lineIDs = append(lineIDs, id)
	}
	sort.Ints(lineIDs)

	pool := parallel.NewWorkerPool(len(lineIDs))
	defer pool.Shutdown()

	results := make([][]CIPRow, len(lineIDs))
	var wg sync.WaitGroup
	for i, lineID := range lineIDs {
		i, lineID := i, lineID
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = placeLineFallback(lineID, byLine[lineID], opt)
		}
		if err := pool.Submit(context.Background(), task); err != nil {
			// Pool can't be shut down mid-fanout by any caller in this
			// package; fall back to running inline so a row is never lost.
			task()
		}
	}
	wg.Wait()

	var out []CIPRow
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out
}

func placeLineFallback(lineID int, rows []ScheduleRow, opt Options) []CIPRow {
	segs := make([]cip.Segment, 0, len(rows))
	for _, r := range rows {
		segs = append(segs, cip.Segment{
			OrderID: r.OrderID,
			SKU:     r.SKU,
			Start:   r.StartHour - opt.HourOffset,
			End:     r.EndHour - opt.HourOffset,
		})
	}
	changeover := func(from, to string) int {
		c, ok := opt.Index.Changeover(from, to)
		if !ok {
			return 0
		}
		return int(c.SetupHours + 0.5)
	}
	windows := cip.Place(segs, opt.InitialCarry[lineID], opt.CIPIntervalH, opt.CIPDurationH, changeover)

	name := ""
	for _, l := range opt.Lines {
		if l.ID == lineID {
			name = l.Name
		}
	}

	out := make([]CIPRow, 0, len(windows))
	for _, w := range windows {
		out = append(out, CIPRow{
			LineID:    lineID,
			LineName:  name,
			StartHour: w.Start + opt.HourOffset,
			EndHour:   w.End + opt.HourOffset,
		})
	}
	return out
}
