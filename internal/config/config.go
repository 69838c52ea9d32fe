// Package config loads the scheduler's TOML configuration file: sections
// [scheduler], [cip], [objective], [changeover], mapping directly onto
// domain.Params. The Load/LoadUnchecked/Validate split follows
// brianmickel-battery-backtest's internal/config package, substituting
// go-toml for that repo's YAML.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/plantline/scheduler/internal/domain"
)

// Config is the on-disk TOML configuration shape.
type Config struct {
	Scheduler  SchedulerSection  `toml:"scheduler"`
	CIP        CIPSection        `toml:"cip"`
	Objective  ObjectiveSection  `toml:"objective"`
	Changeover ChangeoverSection `toml:"changeover"`
}

// SchedulerSection holds the top-level run knobs.
type SchedulerSection struct {
	Horizon                   int    `toml:"horizon"`
	MaxLinesPerOrder          int    `toml:"max_lines_per_order"`
	MinRunHours               int    `toml:"min_run_hours"`
	MinRunPctOfQtyMin         float64 `toml:"min_run_pct_of_qty_min"`
	LongShutdownDefaultExtraH int    `toml:"long_shutdown_default_extra_h"`
	PlanningAnchorUnixHour    int64  `toml:"planning_anchor_unix_hour"`
	AllowWeek1InWeek0         bool   `toml:"allow_week1_in_week0"`
	RelaxDemand               bool   `toml:"relax_demand"`
	IgnoreChangeovers         bool   `toml:"ignore_changeovers"`
	Phase                     string `toml:"phase"`
	TimeLimitSeconds          int    `toml:"time_limit_seconds"`
}

// CIPSection holds CIP sanitation defaults.
type CIPSection struct {
	IntervalH int `toml:"interval_h"`
	DurationH int `toml:"duration_h"`
}

// ObjectiveSection holds the top-level objective mode and weights.
type ObjectiveSection struct {
	Mode       string `toml:"mode"`
	Makespan   int    `toml:"makespan"`
	Changeover int    `toml:"changeover"`
	CIPDefer   int    `toml:"cip_defer"`
	Idle       int    `toml:"idle"`
}

// ChangeoverSection holds the per-machine-change cost weights.
type ChangeoverSection struct {
	TopLoad     int `toml:"top_load"`
	TTP         int `toml:"ttp"`
	FFS         int `toml:"ffs"`
	Casepacker  int `toml:"casepacker"`
	Base        int `toml:"base"`
	ConvToOrg   int `toml:"conv_to_org"`
	Cinnamon    int `toml:"cinnamon"`
	AddedFlavor int `toml:"added_flavor"`
}

// Default returns a Config with the scheduler's baseline defaults filled in.
func Default() Config {
	return Config{
		Scheduler: SchedulerSection{
			Horizon:           domain.DefaultHorizon,
			MaxLinesPerOrder:  3,
			MinRunHours:       4,
			MinRunPctOfQtyMin: 0.5,
			Phase:             string(domain.PhaseFull),
			TimeLimitSeconds:  60,
		},
		CIP: CIPSection{
			IntervalH: 120,
			DurationH: 6,
		},
		Objective: ObjectiveSection{
			Mode:     string(domain.ObjectiveBalanced),
			Makespan: 1,
		},
	}
}

// Load reads path, merges it over the baseline defaults, and validates the
// result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads and parses path over the baseline defaults, without
// validating the result. Useful for --diagnose style dumps.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks that the configuration describes a runnable solve.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Scheduler.Horizon <= 0 {
		return fmt.Errorf("scheduler.horizon must be positive, got %d", c.Scheduler.Horizon)
	}
	switch domain.Phase(c.Scheduler.Phase) {
	case domain.PhaseSanity1, domain.PhaseSanity3, domain.PhaseFull:
	default:
		return fmt.Errorf("scheduler.phase %q is not one of sanity1, sanity3, full", c.Scheduler.Phase)
	}
	switch domain.ObjectiveMode(c.Objective.Mode) {
	case domain.ObjectiveBalanced, domain.ObjectiveMinChangeovers, domain.ObjectiveSpreadLoad:
	default:
		return fmt.Errorf("objective.mode %q is not one of balanced, min-changeovers, spread-load", c.Objective.Mode)
	}
	if c.CIP.IntervalH <= 0 {
		return fmt.Errorf("cip.interval_h must be positive, got %d", c.CIP.IntervalH)
	}
	if c.CIP.DurationH < 0 {
		return fmt.Errorf("cip.duration_h must be non-negative, got %d", c.CIP.DurationH)
	}
	if c.Scheduler.MinRunPctOfQtyMin < 0 || c.Scheduler.MinRunPctOfQtyMin > 1 {
		return fmt.Errorf("scheduler.min_run_pct_of_qty_min must be in [0,1], got %f", c.Scheduler.MinRunPctOfQtyMin)
	}
	return nil
}

// ToParams converts a Config into a domain.Params base value, shared by
// both phases of the two-phase orchestrator before per-phase overrides are
// applied.
func (c *Config) ToParams() domain.Params {
	return domain.Params{
		Horizon:                   c.Scheduler.Horizon,
		CIPIntervalH:              c.CIP.IntervalH,
		CIPDurationH:              c.CIP.DurationH,
		MinRunHours:               c.Scheduler.MinRunHours,
		MinRunPctOfQtyMin:         c.Scheduler.MinRunPctOfQtyMin,
		MaxLinesPerOrder:          c.Scheduler.MaxLinesPerOrder,
		LongShutdownDefaultExtraH: c.Scheduler.LongShutdownDefaultExtraH,
		PlanningAnchorUnixHour:    c.Scheduler.PlanningAnchorUnixHour,
		AllowWeek1InWeek0:         c.Scheduler.AllowWeek1InWeek0,
		RelaxDemand:               c.Scheduler.RelaxDemand,
		IgnoreChangeovers:         c.Scheduler.IgnoreChangeovers,
		Phase:                     domain.Phase(c.Scheduler.Phase),
		Objective:                 domain.ObjectiveMode(c.Objective.Mode),
		TimeLimitSeconds:          c.Scheduler.TimeLimitSeconds,
		ObjectiveW: domain.ObjectiveWeights{
			Makespan:   c.Objective.Makespan,
			Changeover: c.Objective.Changeover,
			CIPDefer:   c.Objective.CIPDefer,
			Idle:       c.Objective.Idle,
		},
		ChangeoverW: domain.ChangeoverWeights{
			TopLoad:     c.Changeover.TopLoad,
			TTP:         c.Changeover.TTP,
			FFS:         c.Changeover.FFS,
			Casepacker:  c.Changeover.Casepacker,
			Base:        c.Changeover.Base,
			ConvToOrg:   c.Changeover.ConvToOrg,
			Cinnamon:    c.Changeover.Cinnamon,
			AddedFlavor: c.Changeover.AddedFlavor,
		},
	}
}
