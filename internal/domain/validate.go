package domain

import "fmt"

// ValidationResult collects input-validation problems found in a Data
// value before it reaches the model builder: problems here abort the
// solve with status ERROR before any model is built.
type ValidationResult struct {
	Errors []string
}

// OK reports whether no validation errors were recorded.
func (r *ValidationResult) OK() bool { return len(r.Errors) == 0 }

func (r *ValidationResult) addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks structural invariants of Data that the rest of the
// scheduler assumes hold: order due windows within the horizon, trials
// pinned to a known line, unambiguous demand bounds, and no duplicate
// order IDs.
func Validate(d Data, horizon int) *ValidationResult {
	res := &ValidationResult{}

	lineIDs := make(map[int]bool, len(d.Lines))
	for _, l := range d.Lines {
		lineIDs[l.ID] = true
	}

	seenOrderID := make(map[string]bool, len(d.Orders))
	for _, o := range d.Orders {
		if o.OrderID == "" {
			res.addf("order has empty order_id (sku=%s)", o.SKU)
			continue
		}
		if seenOrderID[o.OrderID] {
			res.addf("duplicate order_id %q", o.OrderID)
		}
		seenOrderID[o.OrderID] = true

		if o.DueStart < 0 || o.DueEnd > horizon || o.DueStart > o.DueEnd {
			res.addf("order %q: due window [%d,%d] invalid for horizon %d", o.OrderID, o.DueStart, o.DueEnd, horizon)
		}
		if o.QtyMin > o.QtyMax {
			res.addf("order %q: qty_min %.3f exceeds qty_max %.3f", o.OrderID, o.QtyMin, o.QtyMax)
		}
		if o.IsTrial {
			if !lineIDs[o.Trial.PinnedLineID] {
				res.addf("trial %q: pinned_line %d is not a known line", o.OrderID, o.Trial.PinnedLineID)
			}
			if o.Trial.EndHour < 0 && o.Trial.TargetKgs <= 0 {
				res.addf("trial %q: neither end_hour nor target_kgs given", o.OrderID)
			}
			if o.Trial.StartHour < 0 || o.Trial.StartHour > horizon {
				res.addf("trial %q: start_hour %d outside horizon %d", o.OrderID, o.Trial.StartHour, horizon)
			}
		}
	}

	for _, dt := range d.Downtimes {
		if !lineIDs[dt.LineID] {
			res.addf("downtime references unknown line %d", dt.LineID)
		}
		if dt.Start >= dt.End {
			res.addf("downtime on line %d has non-positive duration [%d,%d)", dt.LineID, dt.Start, dt.End)
		}
	}

	for _, s := range d.InitialStates {
		if !lineIDs[s.LineID] {
			res.addf("initial_states references unknown line %d", s.LineID)
		}
		if s.CarryoverHSinceLastCIP < 0 {
			res.addf("line %d: negative carryover", s.LineID)
		}
	}

	for _, c := range d.Capabilities {
		if !lineIDs[c.LineID] {
			res.addf("capabilities_rates references unknown line %d", c.LineID)
		}
	}

	return res
}
