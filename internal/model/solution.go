package model

// OrderLineSolution is one (line, order) pair's resolved decision
// variables, read out of a raw solver solution. Only pairs with Present
// true are meaningful to callers; others are omitted by ExtractSolution.
type OrderLineSolution struct {
	LineID  int
	OrderID string

	RunH int

	SegAStart, SegAEnd, SegARun int

	SegBPresent               bool
	SegBStart, SegBEnd, SegBRun int

	EffEnd int
}

// CIPSolution is one candidate CIP occurrence's resolved placement. Only
// occurrences with Needed true are meaningful; others are omitted by
// ExtractSolution.
type CIPSolution struct {
	LineID     int
	K          int
	Start, End int
}

// Solution is the full set of decision-variable values read out of one
// solved (or propagated-feasible) model, in plain hour/kg units with the
// +1 FD offset already removed.
type Solution struct {
	Objective int

	OrderLines []OrderLineSolution
	CIPs       []CIPSolution

	// Produced[orderID] is the total quantity (kg, already rounded by the
	// integer rate*runH arithmetic the model posts) produced for that order.
	Produced map[string]int
}

// ExtractSolution reads res's decision variables out of a raw solution
// vector (as returned by Solver.SolveOptimal, indexed by FDVariable.ID())
// into plain-unit values. objective is the objective FD variable's raw
// (cap-inverted, see objective.go's combine) reported value; callers only
// use it for logging, never for re-deriving real costs.
func ExtractSolution(res *Result, sol []int, objectiveRaw int) Solution {
	out := Solution{
		Objective: objectiveRaw,
		Produced:  make(map[string]int, len(res.Vars.Produced)),
	}

	for key, ov := range res.Vars.ByLineOrder {
		if sol[ov.Present.ID()] != boolTrue {
			continue
		}
		ols := OrderLineSolution{
			LineID:  ov.LineID,
			OrderID: key[1],
			RunH:    fdToHour(sol[ov.RunH.ID()]),

			SegAStart: fdToHour(sol[ov.SegAStart.ID()]),
			SegAEnd:   fdToHour(sol[ov.SegAEnd.ID()]),
			SegARun:   fdToHour(sol[ov.SegARun.ID()]),

			SegBPresent: sol[ov.SegBPresent.ID()] == boolTrue,
			SegBStart:   fdToHour(sol[ov.SegBStart.ID()]),
			SegBEnd:     fdToHour(sol[ov.SegBEnd.ID()]),
			SegBRun:     fdToHour(sol[ov.SegBRun.ID()]),

			EffEnd: fdToHour(sol[ov.EffEnd.ID()]),
		}
		out.OrderLines = append(out.OrderLines, ols)
	}

	for _, lv := range res.Vars.Lines {
		for _, c := range lv.CIPs {
			if sol[c.Needed.ID()] != boolTrue {
				continue
			}
			out.CIPs = append(out.CIPs, CIPSolution{
				LineID: c.LineID,
				K:      c.K,
				Start:  fdToHour(sol[c.Start.ID()]),
				End:    fdToHour(sol[c.End.ID()]),
			})
		}
	}

	for orderID, v := range res.Vars.Produced {
		out.Produced[orderID] = fdToHour(sol[v.ID()])
	}

	return out
}
