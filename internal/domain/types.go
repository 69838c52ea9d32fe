// Package domain holds the plain-data types that describe a planning run:
// lines, orders, capabilities, changeovers, downtimes, trials and the
// scalar knobs in Params. Nothing in this package talks to the solver or
// to disk; it is the shared vocabulary the rest of the scheduler is built
// on.
package domain

// CleanSKU is the distinguished initial-SKU sentinel meaning a line has no
// inherited production state (freshly cleaned, nothing to changeover from).
const CleanSKU = "CLEAN"

// Horizon constants for the two-week planning grid.
const (
	HoursPerWeek  = 168
	DefaultHorizon = 2 * HoursPerWeek // 336
)

// ObjectiveMode selects which of the three weighted objectives the model
// builder assembles.
type ObjectiveMode string

const (
	ObjectiveBalanced       ObjectiveMode = "balanced"
	ObjectiveMinChangeovers ObjectiveMode = "min-changeovers"
	ObjectiveSpreadLoad     ObjectiveMode = "spread-load"
)

// Phase selects the sanity-check level of the model: sanity1 strips
// changeovers entirely, sanity3 keeps changeovers but skips CIP intervals,
// full builds the complete model including CIP intervals.
type Phase string

const (
	PhaseSanity1 Phase = "sanity1"
	PhaseSanity3 Phase = "sanity3"
	PhaseFull    Phase = "full"
)

// ObjectiveWeights are the top-level weights combined in the objective.
type ObjectiveWeights struct {
	Makespan   int
	Changeover int
	CIPDefer   int
	Idle       int
}

// ChangeoverWeights score the per-machine-change components of a weighted
// pairwise changeover cost.
type ChangeoverWeights struct {
	TopLoad     int
	TTP         int
	FFS         int
	Casepacker  int
	Base        int
	ConvToOrg   int
	Cinnamon    int
	AddedFlavor int
}

// Params holds the scalar knobs that parameterize one solve. A Params value
// is built once per phase (Week-0 and Week-1 get distinct Params derived
// from a common base) and is immutable once handed to the model builder.
type Params struct {
	Horizon int // H

	CIPIntervalH int // I, default 120
	CIPDurationH int // D, default 6

	MinRunHours       int     // default 4
	MinRunPctOfQtyMin float64 // default 0.5

	MaxLinesPerOrder int // mlpo, default 3

	LongShutdownDefaultExtraH int

	PlanningAnchorUnixHour int64 // hour 0 of the horizon, as a Unix-hour timestamp

	AllowWeek1InWeek0 bool
	RelaxDemand       bool
	IgnoreChangeovers bool

	Phase     Phase
	Objective ObjectiveMode

	// MaximizeProduction switches the objective's primary term to total
	// produced quantity (used by the Week-1 phase of the two-phase
	// orchestrator).
	MaximizeProduction bool

	ObjectiveW  ObjectiveWeights
	ChangeoverW ChangeoverWeights

	// TimeLimitSeconds bounds the solver's wall-clock search.
	TimeLimitSeconds int

	// CircuitThreshold is unused by the pairwise changeover formulation
	// this repo ships; kept so existing config files still parse.
	CircuitThreshold int
}

// Line is a production line.
type Line struct {
	ID   int
	Name string
}

// Capability records whether a line can run a SKU and at what base rate.
type Capability struct {
	LineID   int
	SKU      string
	Capable  bool
	RateKgph float64
}

// MonthlyRateOverride overrides a line's rate for one SKU in one calendar
// month (1-12).
type MonthlyRateOverride struct {
	LineID   int
	Month    int
	RateKgph float64
}

// LineCIPOverride overrides the default CIP interval for one line.
type LineCIPOverride struct {
	LineID     int
	MaxCIPHrs int
}

// ChangeoverCost is the full vector of costs/hours incurred switching from
// one SKU to another on the same line.
type ChangeoverCost struct {
	FromSKU string
	ToSKU   string

	SetupHours float64

	TTP           int
	FFS           int
	TopLoad       int
	Casepacker    int
	ConvToOrg     int
	CinnToNonCinn int
	AddedFlavors  int
}

// Downtime is a fixed, scheduled unavailability window on a line.
// Inclusive of Start, exclusive of End.
type Downtime struct {
	LineID int
	Start  int
	End    int
	Reason string
}

// Trial attributes, set only when Order.IsTrial is true.
type Trial struct {
	PinnedLineID int
	StartHour    int
	EndHour      int // -1 if not given directly; computed from TargetKgs
	RunHours     int // 0 if not fixed
	TargetKgs    float64
}

// Order is a demand order or a pinned trial run.
type Order struct {
	OrderID string
	SKU     string

	DueStart int
	DueEnd   int

	QtyMin float64
	QtyMax float64

	Priority int

	IsTrial bool
	Trial   Trial
}

// InitialState captures a line's production state at the start of the
// horizon.
type InitialState struct {
	LineID                      int
	InitialSKU                  string
	AvailableFrom               int
	LongShutdownFlag            bool
	LongShutdownExtraH          int
	CarryoverHSinceLastCIP      int
	LastCIPEndWallclockUnixHour int64 // 0 if not configured
	HasLastCIPEndWallclock      bool
}

// Data is the full, realized set of inputs for one solve: immutable once
// loaded, discarded once the run's outputs are written.
type Data struct {
	Lines []Line

	Capabilities   []Capability
	RateOverrides  []MonthlyRateOverride
	CIPOverrides   []LineCIPOverride
	Changeovers    []ChangeoverCost
	InitialStates  []InitialState
	Downtimes      []Downtime
	Orders         []Order // demand orders and trials merged

	// SKUDescriptions maps a SKU code to a display description. Optional;
	// purely informational (carried through to output for readability).
	SKUDescriptions map[string]string
}
