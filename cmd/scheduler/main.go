// Command scheduler runs one planning solve: it loads a data directory,
// builds the constraint model for the requested phase, solves it under a
// time budget, and writes the schedule/produced-vs-bounds/CIP/next-state
// output tables. CLI shape grounded on brianmickel-battery-backtest's cmd
// entrypoint (flag-per-knob, config file as the base layer, flags
// override).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/plantline/scheduler/internal/config"
	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/internal/extract"
	"github.com/plantline/scheduler/internal/ingest"
	"github.com/plantline/scheduler/internal/logging"
	"github.com/plantline/scheduler/internal/orchestrate"
	"github.com/plantline/scheduler/internal/output"
	"github.com/plantline/scheduler/internal/progress"
	"github.com/plantline/scheduler/internal/rates"
)

const tag = "scheduler"

func main() {
	os.Exit(run(os.Args[1:]))
}

type flags struct {
	dataDir           string
	phase             string
	timeLimitSeconds  int
	relaxDemand       bool
	ignoreChangeovers bool
	diagnose          bool
	maxLinesPerOrder  int
	minRunHours       int
	noWeek1InWeek0    bool
	initialStates     string
	twoPhase          bool
	objective         string
	validate          bool
	rolling           bool
	configPath        string
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("scheduler", flag.ContinueOnError)
	f := &flags{}
	fs.StringVar(&f.dataDir, "data-dir", ".", "directory containing the input CSV tables")
	fs.StringVar(&f.phase, "phase", "", "sanity1, sanity3, or full (overrides config)")
	fs.IntVar(&f.timeLimitSeconds, "time-limit", 0, "solver wall-clock time limit in seconds (0 = config default)")
	fs.BoolVar(&f.relaxDemand, "relax-demand", false, "relax minimum-quantity demand constraints")
	fs.BoolVar(&f.ignoreChangeovers, "ignore-changeovers", false, "skip changeover cost and sequencing entirely")
	fs.BoolVar(&f.diagnose, "diagnose", false, "dump the resolved configuration and exit without solving")
	fs.IntVar(&f.maxLinesPerOrder, "max-lines-per-order", 0, "override max lines per order (0 = config default)")
	fs.IntVar(&f.minRunHours, "min-run-hours", 0, "override minimum run hours (0 = config default)")
	fs.BoolVar(&f.noWeek1InWeek0, "no-week1-in-week0", false, "forbid Week-1-due orders from running early in a single-phase solve")
	fs.StringVar(&f.initialStates, "initial-states", "", "path to an initial-states CSV overriding data-dir's own")
	fs.BoolVar(&f.twoPhase, "two-phase", false, "run the Week-0/Week-1 rolling-horizon orchestrator")
	fs.StringVar(&f.objective, "objective", "", "balanced, min-changeovers, or spread-load (overrides config)")
	fs.BoolVar(&f.validate, "validate", false, "validate inputs and exit without solving")
	fs.BoolVar(&f.rolling, "rolling", false, "seed this run from next_initial_states.csv in data-dir if present")
	fs.StringVar(&f.configPath, "config", "", "path to a TOML config file (defaults applied if omitted)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

func run(args []string) int {
	logging.Banner("")

	f, err := parseFlags(args)
	if err != nil {
		return 2
	}

	cfg, err := loadConfig(f)
	if err != nil {
		logging.Error(tag, err.Error())
		return 1
	}
	applyOverrides(cfg, f)

	if f.diagnose {
		fmt.Printf("%+v\n", cfg)
		return 0
	}

	params := cfg.ToParams()

	logging.Section("Loading Data")
	loader := ingest.NewLoader(f.dataDir)
	data, err := loader.Load()
	if err != nil {
		logging.Error(tag, err.Error())
		writeStatus(f.dataDir, "ERROR: "+err.Error())
		return 1
	}

	if err := resolveInitialStates(&data, f); err != nil {
		logging.Error(tag, err.Error())
		writeStatus(f.dataDir, "ERROR: "+err.Error())
		return 1
	}

	vr := domain.Validate(data, params.Horizon)
	if !vr.OK() {
		for _, e := range vr.Errors {
			logging.Error(tag, e)
		}
		writeStatus(f.dataDir, "ERROR: input validation failed")
		return 0
	}
	if f.validate {
		logging.Success(tag, "inputs valid")
		return 0
	}

	idx := domain.NewIndex(data)
	resolver := rates.NewResolver(idx, params.PlanningAnchorUnixHour)

	prog, err := newProgress(f.dataDir, f.twoPhase)
	if err != nil {
		logging.Warn(tag, "progress file unavailable: "+err.Error())
	}
	updateStage(prog, "loading_data", "done", "")

	logging.Section("Solving")
	var res orchestrate.Result
	if f.twoPhase {
		updateStage(prog, "building_model_w0", "active", "")
		res = orchestrate.RunTwoPhase(idx, resolver, params, data.Lines, data.Orders)
		updateStage(prog, "solving_week1", "done", res.Status+"/"+res.Week1Status)
	} else {
		if f.noWeek1InWeek0 {
			params.AllowWeek1InWeek0 = false
		}
		updateStage(prog, "building_model", "active", "")
		res = orchestrate.RunSingle(idx, resolver, params, data.Lines, data.Orders)
		updateStage(prog, "solving", "done", res.Status)
	}

	if res.Status == orchestrate.StatusInfeasible || res.Status == orchestrate.StatusError {
		logging.Warn(tag, "solve status: "+res.Status)
		writeStatus(f.dataDir, "Status: "+res.Status)
		return 0
	}
	logging.Success(tag, "solve status: "+res.Status)

	logging.Section("Writing Output")
	updateStage(prog, "writing_output", "active", "")
	w := output.NewWriter(f.dataDir)
	if err := writeOutputs(w, res); err != nil {
		logging.Error(tag, err.Error())
		return 1
	}
	updateStage(prog, "writing_output", "done", "")
	updateStage(prog, "validating", "done", "")

	logging.Success(tag, "done")
	return 0
}

func writeOutputs(w *output.Writer, res orchestrate.Result) error {
	if err := w.WriteSchedule(res.Tables.Schedule); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}
	if err := w.WriteProducedVsBounds(res.Tables.ProducedVs); err != nil {
		return fmt.Errorf("writing produced_vs_bounds: %w", err)
	}
	if err := w.WriteCIPWindows(res.Tables.CIPWindows); err != nil {
		return fmt.Errorf("writing cip_windows: %w", err)
	}
	if err := w.WriteNextInitialStates(res.NextInitialStates); err != nil {
		return fmt.Errorf("writing next_initial_states: %w", err)
	}
	status := res.Status
	if res.Week1Status != "" {
		status = fmt.Sprintf("%s (week1: %s)", res.Status, res.Week1Status)
	}
	summary := output.Summary(res.Objective, len(res.Tables.Schedule), len(res.Tables.CIPWindows), producedTotals(res.Tables))
	if err := w.WriteSolverKPIs(output.KPIs{Status: status, Summary: summary}); err != nil {
		return fmt.Errorf("writing solver_kpis: %w", err)
	}
	return nil
}

func producedTotals(tbl extract.Tables) map[string]int {
	out := make(map[string]int, len(tbl.ProducedVs))
	for _, r := range tbl.ProducedVs {
		out[r.OrderID] = r.Produced
	}
	return out
}

func writeStatus(dataDir, status string) {
	w := output.NewWriter(dataDir)
	_ = w.WriteSolverKPIs(output.KPIs{Status: status})
}

func loadConfig(f *flags) (*config.Config, error) {
	if f.configPath == "" {
		c := config.Default()
		return &c, nil
	}
	return config.LoadUnchecked(f.configPath)
}

func applyOverrides(cfg *config.Config, f *flags) {
	if f.phase != "" {
		cfg.Scheduler.Phase = f.phase
	}
	if f.timeLimitSeconds > 0 {
		cfg.Scheduler.TimeLimitSeconds = f.timeLimitSeconds
	}
	if f.relaxDemand {
		cfg.Scheduler.RelaxDemand = true
	}
	if f.ignoreChangeovers {
		cfg.Scheduler.IgnoreChangeovers = true
	}
	if f.maxLinesPerOrder > 0 {
		cfg.Scheduler.MaxLinesPerOrder = f.maxLinesPerOrder
	}
	if f.minRunHours > 0 {
		cfg.Scheduler.MinRunHours = f.minRunHours
	}
	if f.objective != "" {
		cfg.Objective.Mode = f.objective
	}
}

func resolveInitialStates(data *domain.Data, f *flags) error {
	if f.initialStates != "" {
		states, err := ingest.LoadInitialStatesFile(f.initialStates)
		if err != nil {
			return fmt.Errorf("loading --initial-states: %w", err)
		}
		data.InitialStates = states
		return nil
	}
	if f.rolling {
		path := f.dataDir + "/next_initial_states.csv"
		if _, err := os.Stat(path); err == nil {
			states, err := ingest.LoadInitialStatesFile(path)
			if err != nil {
				return fmt.Errorf("loading prior next_initial_states.csv: %w", err)
			}
			data.InitialStates = states
		}
	}
	return nil
}

func newProgress(dataDir string, twoPhase bool) (*progress.Writer, error) {
	stages := progress.StagesSingle
	if twoPhase {
		stages = progress.StagesTwoPhase
	}
	return progress.New(dataDir, stages)
}

func updateStage(w *progress.Writer, stageID, status, detail string) {
	if w == nil {
		return
	}
	_ = w.UpdateStage(stageID, status, detail)
}
