// Package rates resolves the effective production rate for a (line, SKU)
// pair, kept separate from internal/domain so the month-of-anchor
// arithmetic and override precedence have a single, independently testable
// home.
package rates

import (
	"time"

	"github.com/plantline/scheduler/internal/domain"
)

// Resolver answers Rate(line, sku) queries against a fixed Index and
// planning anchor. It holds no mutable state.
type Resolver struct {
	idx         *domain.Index
	anchorMonth int // 1-12, the calendar month the planning anchor falls in
}

// NewResolver builds a Resolver. anchorUnixHour is Params.PlanningAnchorUnixHour;
// when it is zero the resolver falls back to base capability rates only,
// since no calendar month can be derived.
func NewResolver(idx *domain.Index, anchorUnixHour int64) *Resolver {
	r := &Resolver{idx: idx}
	if anchorUnixHour != 0 {
		r.anchorMonth = int(time.Unix(anchorUnixHour*3600, 0).UTC().Month())
	}
	return r
}

// Rate returns the effective kg/h rate for running sku on line. ok is false
// when the line has no capability row for sku, or the row says incapable,
// or the resolved rate is zero — all three count as "cannot run".
//
// A monthly override is preferred over the base capability rate when one
// exists for the anchor's month; trials may look up rates for SKUs marked
// incapable, so the rate is still returned (with ok=false) in that case.
func (r *Resolver) Rate(lineID int, sku string) (rate float64, ok bool) {
	cap, capOK := r.idx.Capability(lineID, sku)
	if !capOK {
		return 0, false
	}

	rate = cap.RateKgph
	if r.anchorMonth != 0 {
		if o, ok := r.idx.MonthlyRate(lineID, sku, r.anchorMonth); ok {
			rate = o.RateKgph
		}
	}

	if !cap.Capable || rate <= 0 {
		return rate, false
	}
	return rate, true
}

// RateIgnoringCapability is Rate's fallback for trial lookups: it resolves
// the same monthly-override-over-base rate but never reports ok=false
// merely because the capability row is marked incapable. ok is false only
// when no capability row exists or the resolved rate is non-positive.
func (r *Resolver) RateIgnoringCapability(lineID int, sku string) (rate float64, ok bool) {
	cap, capOK := r.idx.Capability(lineID, sku)
	if !capOK {
		return 0, false
	}

	rate = cap.RateKgph
	if r.anchorMonth != 0 {
		if o, ok := r.idx.MonthlyRate(lineID, sku, r.anchorMonth); ok {
			rate = o.RateKgph
		}
	}
	return rate, rate > 0
}
