package domain

// Index provides O(1) lookups over a Data value. It is built once after
// ingestion and handed alongside Data to the rate resolver and model
// builder; it holds no state of its own beyond the lookup maps.
type Index struct {
	data Data

	lineByID         map[int]Line
	capability       map[capKey]Capability
	rateOverride     map[overrideKey]MonthlyRateOverride
	cipOverride      map[int]int // lineID -> max CIP hours
	changeover       map[changeoverKey]ChangeoverCost
	initialState     map[int]InitialState
	downtimesByLine  map[int][]Downtime
}

type capKey struct {
	lineID int
	sku    string
}

type overrideKey struct {
	lineID int
	month  int
	sku    string
}

type changeoverKey struct {
	from string
	to   string
}

// NewIndex builds lookup maps over d. d is not copied; callers must not
// mutate it afterwards.
func NewIndex(d Data) *Index {
	idx := &Index{
		data:            d,
		lineByID:        make(map[int]Line, len(d.Lines)),
		capability:      make(map[capKey]Capability, len(d.Capabilities)),
		rateOverride:    make(map[overrideKey]MonthlyRateOverride, len(d.RateOverrides)),
		cipOverride:     make(map[int]int, len(d.CIPOverrides)),
		changeover:      make(map[changeoverKey]ChangeoverCost, len(d.Changeovers)),
		initialState:    make(map[int]InitialState, len(d.InitialStates)),
		downtimesByLine: make(map[int][]Downtime),
	}
	for _, l := range d.Lines {
		idx.lineByID[l.ID] = l
	}
	for _, c := range d.Capabilities {
		idx.capability[capKey{c.LineID, c.SKU}] = c
	}
	for _, o := range d.RateOverrides {
		idx.rateOverride[overrideKey{o.LineID, o.Month, o.SKU}] = o
	}
	for _, c := range d.CIPOverrides {
		idx.cipOverride[c.LineID] = c.MaxCIPHrs
	}
	for _, c := range d.Changeovers {
		idx.changeover[changeoverKey{c.FromSKU, c.ToSKU}] = c
	}
	for _, s := range d.InitialStates {
		idx.initialState[s.LineID] = s
	}
	for _, dt := range d.Downtimes {
		idx.downtimesByLine[dt.LineID] = append(idx.downtimesByLine[dt.LineID], dt)
	}
	return idx
}

// Data returns the underlying realized input set.
func (idx *Index) Data() Data { return idx.data }

// Capability looks up a (line, sku) capability row. ok is false when no row
// was loaded for the pair (treated identically to an explicit capable=false
// row by callers).
func (idx *Index) Capability(lineID int, sku string) (Capability, bool) {
	c, ok := idx.capability[capKey{lineID, sku}]
	return c, ok
}

// MonthlyRate looks up a per-line rate override for (line, sku, month).
func (idx *Index) MonthlyRate(lineID int, sku string, month int) (MonthlyRateOverride, bool) {
	o, ok := idx.rateOverride[overrideKey{lineID, month, sku}]
	return o, ok
}

// CIPIntervalHours returns the per-line CIP interval override, or
// (0, false) when the line has none and the caller should fall back to
// Params.CIPIntervalH.
func (idx *Index) CIPIntervalHours(lineID int) (int, bool) {
	h, ok := idx.cipOverride[lineID]
	return h, ok
}

// Changeover looks up the setup cost from one SKU to another. A zero-value,
// ok=false result means setup is zero (an absent row implies no setup
// cost), except when from == to, which is always zero setup and is never
// stored as a row.
func (idx *Index) Changeover(from, to string) (ChangeoverCost, bool) {
	if from == to {
		return ChangeoverCost{FromSKU: from, ToSKU: to}, true
	}
	c, ok := idx.changeover[changeoverKey{from, to}]
	return c, ok
}

// InitialState returns a line's initial state, defaulting to a clean,
// immediately-available line when none was loaded.
func (idx *Index) InitialState(lineID int) InitialState {
	if s, ok := idx.initialState[lineID]; ok {
		return s
	}
	return InitialState{LineID: lineID, InitialSKU: CleanSKU}
}

// Downtimes returns the downtime windows for a line, in no particular
// order.
func (idx *Index) Downtimes(lineID int) []Downtime {
	return idx.downtimesByLine[lineID]
}

// Lines returns all lines in declaration order.
func (idx *Index) Lines() []Line { return idx.data.Lines }
