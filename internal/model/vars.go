package model

import (
	"strconv"

	"github.com/plantline/scheduler/pkg/minikanren"
)

// OrderLineVars holds every decision variable for one (line, order) pair.
type OrderLineVars struct {
	LineID  int
	OrderID string

	Present *minikanren.FDVariable
	RunH    *minikanren.FDVariable

	SegAStart *minikanren.FDVariable
	SegAEnd   *minikanren.FDVariable
	SegARun   *minikanren.FDVariable

	SegBPresent *minikanren.FDVariable
	SegBStart   *minikanren.FDVariable
	SegBEnd     *minikanren.FDVariable
	SegBRun     *minikanren.FDVariable

	// EffEnd is SegBEnd when SegBPresent, else SegAEnd; linked via an
	// ElementValues-style pair of Arithmetic equalities gated by
	// SegBPresent (see build.go's linkEffEnd).
	EffEnd *minikanren.FDVariable
}

// CIPVars holds the decision variables for one candidate CIP occurrence
// (k = 1, 2, 3) on one line.
type CIPVars struct {
	LineID int
	K      int

	Needed *minikanren.FDVariable // boolean: b_k
	Start  *minikanren.FDVariable
	End    *minikanren.FDVariable
}

// LineVars holds the per-line aggregates built on top of OrderLineVars:
// the makespan contribution, pairwise/successor changeover booleans, and
// CIP occurrences.
type LineVars struct {
	LineID int

	// Orders eligible to run on this line (capable, rate>0), in a fixed
	// order used to index Pairwise/Succ.
	OrderIdx []string

	// Pairwise[i][j] = 1 iff order i's segment ends no later than order
	// j's segment starts on this line.
	Pairwise map[[2]int]*minikanren.FDVariable

	// Succ[i][j] = 1 iff order j is the immediate successor of order i on
	// this line.
	Succ map[[2]int]*minikanren.FDVariable

	FirstStart *minikanren.FDVariable // min over SegAStart of present orders (H if none)
	LastEnd    *minikanren.FDVariable // max over EffEnd of present orders (0 if none)

	CIPs []CIPVars // up to 3 candidate CIP occurrences

	PresentCount *minikanren.FDVariable // sum of Present over this line's orders

	ChangeoverCost *minikanren.FDVariable // weighted sum of this line's successor changeovers
}

// Vars is the full set of decision variables built for one solve.
type Vars struct {
	ByLineOrder map[[2]string]*OrderLineVars // key: {lineID as string, orderID} -- see key() below
	Lines       map[int]*LineVars

	Objective *minikanren.FDVariable

	// Produced[orderID] = total kg produced across all lines for that order.
	Produced map[string]*minikanren.FDVariable
}

func lineOrderKey(lineID int, orderID string) [2]string {
	return [2]string{strconv.Itoa(lineID), orderID}
}

// Get returns the OrderLineVars for (lineID, orderID), or nil if that pair
// was never forced incapable/skipped during building.
func (v *Vars) Get(lineID int, orderID string) *OrderLineVars {
	return v.ByLineOrder[lineOrderKey(lineID, orderID)]
}
