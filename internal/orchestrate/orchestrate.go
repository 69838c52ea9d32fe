// Package orchestrate runs one or two solves end to end: build the
// constraint model, solve it under a time budget, extract the plain
// output tables, and (for the two-phase path) derive the next horizon's
// initial states and stitch Week-0 and Week-1 together. Grounded, for the
// phase split and merge order, on
// original_source/code/phase2_scheduler.py's top-level run() driver.
package orchestrate

import (
	"context"
	"errors"
	"time"

	"github.com/plantline/scheduler/internal/carry"
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/internal/extract"
	"github.com/plantline/scheduler/internal/model"
	"github.com/plantline/scheduler/internal/rates"
	"github.com/plantline/scheduler/pkg/minikanren"
)

// parallelWorkers is the default solver fan-out.
const parallelWorkers = 8

// weekBoundaryHour is the hour a Week-0/Week-1 split falls on.
const weekBoundaryHour = domain.HoursPerWeek

// Status values reported on Result and PhaseResult.
const (
	StatusOptimal    = "OPTIMAL"
	StatusFeasible   = "FEASIBLE"
	StatusInfeasible = "INFEASIBLE"
	StatusTimeLimit  = "TIME_LIMIT"
	StatusNodeLimit  = "NODE_LIMIT"
	StatusError      = "ERROR"
)

// PhaseResult is the outcome of one Build+solve+extract round trip.
type PhaseResult struct {
	Status    string
	Objective int
	Tables    extract.Tables
}

// Result is the full outcome of a single-phase or two-phase run.
type Result struct {
	Status            string // Week-0's status for two-phase; the single phase's status otherwise
	Week1Status       string // empty for single-phase runs
	Objective         int    // Week-0's objective for two-phase; the single phase's otherwise
	Tables            extract.Tables
	NextInitialStates []domain.InitialState
}

// RunSingle builds and solves one model over the full data set (the
// sanity1/sanity3/full non-rolling path) and derives the next-horizon
// initial states in zero mode.
func RunSingle(idx *domain.Index, rslv *rates.Resolver, params domain.Params, lines []domain.Line, orders []domain.Order) Result {
	phase := runPhase(idx, rslv, params, lines, orders)
	next := carry.Derive(phase.Tables, carry.Options{
		Lines:          lines,
		Prior:          idx.Data().InitialStates,
		AnchorUnixHour: params.PlanningAnchorUnixHour,
		CIPIntervalH:   params.CIPIntervalH,
		Mode:           carry.ZeroMode,
	})
	return Result{
		Status:            phase.Status,
		Objective:         phase.Objective,
		Tables:            phase.Tables,
		NextInitialStates: next,
	}
}

// RunTwoPhase runs the Week-0/Week-1 rolling-horizon sequence. base is the
// shared Params; Week-0 and Week-1 override Horizon, AllowWeek1InWeek0 and
// MaximizeProduction as the sequence requires.
func RunTwoPhase(idx *domain.Index, rslv *rates.Resolver, base domain.Params, lines []domain.Line, orders []domain.Order) Result {
	week0Params := base
	week0Params.Horizon = weekBoundaryHour
	week0Params.AllowWeek1InWeek0 = false

	week0Orders := filterWeek0(orders)
	week0 := runPhase(idx, rslv, week0Params, lines, week0Orders)
	if week0.Status == StatusInfeasible || week0.Status == StatusError {
		return Result{Status: week0.Status}
	}

	week1Prior := carry.Derive(week0.Tables, carry.Options{
		Lines:          lines,
		Prior:          idx.Data().InitialStates,
		AnchorUnixHour: base.PlanningAnchorUnixHour,
		CIPIntervalH:   base.CIPIntervalH,
		Mode:           carry.TailMode,
	})
	week1Idx := domain.NewIndex(withInitialStates(idx.Data(), week1Prior))
	week1Resolver := rates.NewResolver(week1Idx, base.PlanningAnchorUnixHour)

	week1Params := base
	week1Params.Horizon = domain.DefaultHorizon
	week1Params.MaximizeProduction = true

	week1Orders := filterWeek1(orders)
	week1 := runPhase(week1Idx, week1Resolver, week1Params, lines, week1Orders)

	merged := mergeTables(week0.Tables, week1.Tables)
	final := carry.Derive(merged, carry.Options{
		Lines:          lines,
		Prior:          idx.Data().InitialStates,
		AnchorUnixHour: base.PlanningAnchorUnixHour,
		CIPIntervalH:   base.CIPIntervalH,
		Mode:           carry.ZeroMode,
	})

	res := Result{
		Status:            week0.Status,
		Objective:         week0.Objective,
		Tables:            merged,
		NextInitialStates: final,
	}
	if week1.Status == StatusInfeasible || week1.Status == StatusError {
		// Week-0's output stands on its own; Week-1 contributed nothing.
		res.Tables = week0.Tables
		res.NextInitialStates = carry.Derive(week0.Tables, carry.Options{
			Lines:          lines,
			Prior:          idx.Data().InitialStates,
			AnchorUnixHour: base.PlanningAnchorUnixHour,
			CIPIntervalH:   base.CIPIntervalH,
			Mode:           carry.ZeroMode,
		})
	}
	res.Week1Status = week1.Status
	return res
}

// filterWeek0 keeps orders fully due within Week-0.
func filterWeek0(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.DueEnd <= weekBoundaryHour-1 {
			out = append(out, o)
		}
	}
	return out
}

// filterWeek1 keeps orders due at or after the boundary, plus trials whose
// pinned window spans it; due_start is zeroed for non-trials since
// line-availability (derived initial states) guards their actual start.
func filterWeek1(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		spansBoundary := o.IsTrial && o.Trial.StartHour < weekBoundaryHour && trialEnd(o.Trial) >= weekBoundaryHour
		if o.DueStart >= weekBoundaryHour || spansBoundary {
			if !o.IsTrial {
				o.DueStart = 0
			}
			out = append(out, o)
		}
	}
	return out
}

func trialEnd(t domain.Trial) int {
	if t.EndHour >= 0 {
		return t.EndHour
	}
	return t.StartHour + t.RunHours
}

func withInitialStates(d domain.Data, states []domain.InitialState) domain.Data {
	d.InitialStates = states
	return d
}

// mergeTables concatenates Week-0 and Week-1's schedule and
// produced-vs-bounds rows (they share the same hour basis, since Week-1 is
// built over the full H=336 horizon) and unions their CIP blocks.
func mergeTables(week0, week1 extract.Tables) extract.Tables {
	out := extract.Tables{
		Schedule:   append(append([]extract.ScheduleRow(nil), week0.Schedule...), week1.Schedule...),
		ProducedVs: append(append([]extract.ProducedRow(nil), week0.ProducedVs...), week1.ProducedVs...),
	}
	seen := make(map[[3]int]bool)
	for _, tbl := range []extract.Tables{week0, week1} {
		for _, c := range tbl.CIPWindows {
			key := [3]int{c.LineID, c.StartHour, c.EndHour}
			if seen[key] {
				continue
			}
			seen[key] = true
			out.CIPWindows = append(out.CIPWindows, c)
		}
	}
	return out
}

// runPhase builds the model, solves it under base.TimeLimitSeconds, and
// extracts its output tables.
func runPhase(idx *domain.Index, rslv *rates.Resolver, params domain.Params, lines []domain.Line, orders []domain.Order) PhaseResult {
	opt := model.Options{
		Params: params,
		Index:  idx,
		Rates:  rslv,
		Orders: orders,
		Lines:  lines,
	}
	res := model.Build(opt)

	solver := minikanren.NewSolver(res.Model)
	var opts []minikanren.OptimizeOption
	opts = append(opts, minikanren.WithParallelWorkers(parallelWorkers))
	if params.TimeLimitSeconds > 0 {
		opts = append(opts, minikanren.WithTimeLimit(time.Duration(params.TimeLimitSeconds)*time.Second))
	}

	raw, objective, err := solver.SolveOptimalWithOptions(context.Background(), res.Vars.Objective, true, opts...)

	status := classifyStatus(raw, err)
	if raw == nil {
		return PhaseResult{Status: status}
	}

	carryIn := make(map[int]int, len(lines))
	for _, l := range lines {
		carryIn[l.ID] = idx.InitialState(l.ID).CarryoverHSinceLastCIP
	}

	sol := model.ExtractSolution(res, raw, objective)
	tbl := extract.Extract(sol, extract.Options{
		Index:          idx,
		Orders:         orders,
		Lines:          lines,
		AnchorUnixHour: params.PlanningAnchorUnixHour,
		CIPIntervalH:   params.CIPIntervalH,
		CIPDurationH:   params.CIPDurationH,
		InitialCarry:   carryIn,
		HasSolverCIPs:  params.Phase == domain.PhaseFull,
	})

	return PhaseResult{Status: status, Objective: objective, Tables: tbl}
}

func classifyStatus(raw []int, err error) string {
	switch {
	case err == nil && raw == nil:
		return StatusInfeasible
	case err == nil:
		return StatusOptimal
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeLimit
	case errors.Is(err, minikanren.ErrSearchLimitReached):
		return StatusNodeLimit
	default:
		return StatusError
	}
}
