// Package model builds the factory-scheduling constraint-programming model:
// per (line, order) decision variables, linking and
// due-window constraints, capability/minimum-run bounds, trial pinning,
// produced-quantity bounds, downtimes, changeovers, CIP intervals, and the
// weighted objective. Grounded throughout on pkg/minikanren's
// cumulative-demo and anytime-optimization examples for the
// Model/Cumulative/NoOverlap/Reification wiring pattern.
package model

import "github.com/plantline/scheduler/pkg/minikanren"

// The solver's BitSetDomain is 1-indexed: value 0 can never appear in a
// domain. Every hour-valued variable in this package therefore stores
// hour+1 as its FD value, so hour 0 maps to FD value 1 and hour H maps to
// FD value H+1. hourToFD/fdToHour keep that offset in one place.
//
// FD value H+1 (hour H, one past the last in-horizon hour) doubles as the
// "not scheduled" position for optional intervals fed to Cumulative/
// NoOverlap, which take only mandatory tasks with fixed durations: an
// absent segment or CIP is pinned to start at hour H, where it cannot
// overlap anything still inside the horizon.

func hourToFD(hour int) int { return hour + 1 }

func fdToHour(fd int) int { return fd - 1 }

// boolDomain is the reification convention: 1 = false, 2 = true.
func boolDomain() *minikanren.BitSetDomain {
	return minikanren.NewBitSetDomainFromValues(2, []int{1, 2})
}

const (
	boolFalse = 1
	boolTrue  = 2
)

// hourDomain returns the domain of FD values for hours [0, horizon], i.e.
// FD values [1, horizon+1].
func hourDomain(horizon int) *minikanren.BitSetDomain {
	return minikanren.NewBitSetDomain(horizon + 1)
}

// newBool adds a boolean decision variable to m.
func newBool(m *minikanren.Model) *minikanren.FDVariable {
	return m.NewVariable(boolDomain())
}

// newHourVar adds a hour-valued variable ranging over [0, horizon].
func newHourVar(m *minikanren.Model, horizon int) *minikanren.FDVariable {
	return m.NewVariable(hourDomain(horizon))
}

// newBoundedIntVar adds an integer variable over FD values [1, max+1],
// i.e. the plain integer range [0, max].
func newBoundedIntVar(m *minikanren.Model, max int) *minikanren.FDVariable {
	if max < 0 {
		max = 0
	}
	return m.NewVariable(minikanren.NewBitSetDomain(max + 1))
}
