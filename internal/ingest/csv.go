// Package ingest reads the scheduler's flat CSV input tables
// (capabilities_rates, line_rates, line_cip_hrs, changeovers,
// initial_states, demand_plan, downtimes, trials) into a domain.Data
// value. Grounded on vsinha-mrp's
// pkg/infrastructure/repositories/csv/csv_loader.go: a Loader with one
// method per table, strict header validation, and row-numbered parse
// errors.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/plantline/scheduler/internal/domain"
)

// Loader reads the scheduler's CSV input tables from a data directory.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

// readTable opens name under the loader's directory and returns its data
// rows (header stripped) after validating the header matches expected. A
// missing file is reported via the ok return instead of an error, so
// optional tables can be skipped by the caller.
func (l *Loader) readTable(name string, expected []string) (rows [][]string, ok bool, err error) {
	path := l.dir + "/" + name
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, true, nil
	}
	if !validateHeader(records[0], expected) {
		return nil, false, fmt.Errorf("%s header mismatch: expected %v, got %v", name, expected, records[0])
	}
	return records[1:], true, nil
}

func parseFloat(field, col string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row, col, field)
	}
	return v, nil
}

func parseInt(field, col string, row int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row, col, field)
	}
	return v, nil
}

func parseInt64(field, col string, row int) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row, col, field)
	}
	return v, nil
}

func parseBool(field, col string, row int) (bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(field))
	if err != nil {
		return false, fmt.Errorf("row %d: invalid %s %q", row, col, field)
	}
	return v, nil
}

// LoadCapabilitiesRates loads capabilities_rates.csv:
// line_id,sku,capable,rate_kgph
func (l *Loader) LoadCapabilitiesRates() ([]domain.Capability, error) {
	rows, ok, err := l.readTable("capabilities_rates.csv", []string{"line_id", "sku", "capable", "rate_kgph"})
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.Capability, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != 4 {
			return nil, fmt.Errorf("capabilities_rates row %d: expected 4 columns, got %d", n, len(row))
		}
		lineID, err := parseInt(row[0], "line_id", n)
		if err != nil {
			return nil, err
		}
		capable, err := parseBool(row[2], "capable", n)
		if err != nil {
			return nil, err
		}
		rate, err := parseFloat(row[3], "rate_kgph", n)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Capability{
			LineID: lineID, SKU: strings.TrimSpace(row[1]), Capable: capable, RateKgph: rate,
		})
	}
	return out, nil
}

// LoadLineRates loads the optional line_rates.csv: line_id,sku,month,rate_kgph
func (l *Loader) LoadLineRates() ([]domain.MonthlyRateOverride, error) {
	rows, ok, err := l.readTable("line_rates.csv", []string{"line_id", "sku", "month", "rate_kgph"})
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.MonthlyRateOverride, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != 4 {
			return nil, fmt.Errorf("line_rates row %d: expected 4 columns, got %d", n, len(row))
		}
		lineID, err := parseInt(row[0], "line_id", n)
		if err != nil {
			return nil, err
		}
		month, err := parseInt(row[2], "month", n)
		if err != nil {
			return nil, err
		}
		rate, err := parseFloat(row[3], "rate_kgph", n)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.MonthlyRateOverride{
			LineID: lineID, SKU: strings.TrimSpace(row[1]), Month: month, RateKgph: rate,
		})
	}
	return out, nil
}

// LoadLineCIPHours loads the optional line_cip_hrs.csv: line_id,max_cip_hrs
func (l *Loader) LoadLineCIPHours() ([]domain.LineCIPOverride, error) {
	rows, ok, err := l.readTable("line_cip_hrs.csv", []string{"line_id", "max_cip_hrs"})
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.LineCIPOverride, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != 2 {
			return nil, fmt.Errorf("line_cip_hrs row %d: expected 2 columns, got %d", n, len(row))
		}
		lineID, err := parseInt(row[0], "line_id", n)
		if err != nil {
			return nil, err
		}
		hrs, err := parseInt(row[1], "max_cip_hrs", n)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LineCIPOverride{LineID: lineID, MaxCIPHrs: hrs})
	}
	return out, nil
}

// LoadChangeovers loads changeovers.csv:
// from_sku,to_sku,setup_hours,ttp,ffs,top_load,casepacker,conv_to_org,cinn_to_non_cinn,added_flavors
func (l *Loader) LoadChangeovers() ([]domain.ChangeoverCost, error) {
	header := []string{
		"from_sku", "to_sku", "setup_hours", "ttp", "ffs", "top_load",
		"casepacker", "conv_to_org", "cinn_to_non_cinn", "added_flavors",
	}
	rows, ok, err := l.readTable("changeovers.csv", header)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.ChangeoverCost, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("changeovers row %d: expected %d columns, got %d", n, len(header), len(row))
		}
		setupHours, err := parseFloat(row[2], "setup_hours", n)
		if err != nil {
			return nil, err
		}
		ints := make([]int, 7)
		cols := []string{"ttp", "ffs", "top_load", "casepacker", "conv_to_org", "cinn_to_non_cinn", "added_flavors"}
		for j, col := range cols {
			v, err := parseInt(row[3+j], col, n)
			if err != nil {
				return nil, err
			}
			ints[j] = v
		}
		out = append(out, domain.ChangeoverCost{
			FromSKU: strings.TrimSpace(row[0]), ToSKU: strings.TrimSpace(row[1]),
			SetupHours: setupHours,
			TTP:        ints[0], FFS: ints[1], TopLoad: ints[2], Casepacker: ints[3],
			ConvToOrg: ints[4], CinnToNonCinn: ints[5], AddedFlavors: ints[6],
		})
	}
	return out, nil
}

// LoadInitialStates loads initial_states.csv:
// line_id,initial_sku,available_from,long_shutdown_flag,long_shutdown_extra_h,carryover_h_since_last_cip,last_cip_end_unix_hour
func (l *Loader) LoadInitialStates() ([]domain.InitialState, error) {
	rows, ok, err := l.readTable("initial_states.csv", initialStatesHeader)
	if err != nil || !ok {
		return nil, err
	}
	return parseInitialStateRows(rows)
}

// LoadInitialStatesFile loads an initial_states-shaped CSV from an
// explicit path rather than the loader's own data directory, for
// --initial-states overrides and --rolling re-seeding from a prior run's
// next_initial_states.csv.
func LoadInitialStatesFile(path string) ([]domain.InitialState, error) {
	l := &Loader{dir: filepath.Dir(path)}
	rows, ok, err := l.readTable(filepath.Base(path), initialStatesHeader)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("initial states file %s not found", path)
	}
	return parseInitialStateRows(rows)
}

var initialStatesHeader = []string{
	"line_id", "initial_sku", "available_from", "long_shutdown_flag",
	"long_shutdown_extra_h", "carryover_h_since_last_cip", "last_cip_end_unix_hour",
}

func parseInitialStateRows(rows [][]string) ([]domain.InitialState, error) {
	header := initialStatesHeader
	out := make([]domain.InitialState, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("initial_states row %d: expected %d columns, got %d", n, len(header), len(row))
		}
		lineID, err := parseInt(row[0], "line_id", n)
		if err != nil {
			return nil, err
		}
		availableFrom, err := parseInt(row[2], "available_from", n)
		if err != nil {
			return nil, err
		}
		longShutdown, err := parseBool(row[3], "long_shutdown_flag", n)
		if err != nil {
			return nil, err
		}
		extraH, err := parseInt(row[4], "long_shutdown_extra_h", n)
		if err != nil {
			return nil, err
		}
		carryover, err := parseInt(row[5], "carryover_h_since_last_cip", n)
		if err != nil {
			return nil, err
		}

		state := domain.InitialState{
			LineID:                 lineID,
			InitialSKU:             strings.TrimSpace(row[1]),
			AvailableFrom:          availableFrom,
			LongShutdownFlag:       longShutdown,
			LongShutdownExtraH:     extraH,
			CarryoverHSinceLastCIP: carryover,
		}
		if ts := strings.TrimSpace(row[6]); ts != "" {
			unixHour, err := parseInt64(ts, "last_cip_end_unix_hour", n)
			if err != nil {
				return nil, err
			}
			state.LastCIPEndWallclockUnixHour = unixHour
			state.HasLastCIPEndWallclock = true
		}
		out = append(out, state)
	}
	return out, nil
}

// LoadDowntimes loads downtimes.csv: line_id,start,end,reason
func (l *Loader) LoadDowntimes() ([]domain.Downtime, error) {
	rows, ok, err := l.readTable("downtimes.csv", []string{"line_id", "start", "end", "reason"})
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.Downtime, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != 4 {
			return nil, fmt.Errorf("downtimes row %d: expected 4 columns, got %d", n, len(row))
		}
		lineID, err := parseInt(row[0], "line_id", n)
		if err != nil {
			return nil, err
		}
		start, err := parseInt(row[1], "start", n)
		if err != nil {
			return nil, err
		}
		end, err := parseInt(row[2], "end", n)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Downtime{LineID: lineID, Start: start, End: end, Reason: strings.TrimSpace(row[3])})
	}
	return out, nil
}

// LoadDemandPlan loads demand_plan.csv:
// order_id,sku,due_start,due_end,qty_min,qty_max,priority
func (l *Loader) LoadDemandPlan() ([]domain.Order, error) {
	header := []string{"order_id", "sku", "due_start", "due_end", "qty_min", "qty_max", "priority"}
	rows, ok, err := l.readTable("demand_plan.csv", header)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("demand_plan row %d: expected %d columns, got %d", n, len(header), len(row))
		}
		dueStart, err := parseInt(row[2], "due_start", n)
		if err != nil {
			return nil, err
		}
		dueEnd, err := parseInt(row[3], "due_end", n)
		if err != nil {
			return nil, err
		}
		qtyMin, err := parseFloat(row[4], "qty_min", n)
		if err != nil {
			return nil, err
		}
		qtyMax, err := parseFloat(row[5], "qty_max", n)
		if err != nil {
			return nil, err
		}
		priority, err := parseInt(row[6], "priority", n)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Order{
			OrderID: strings.TrimSpace(row[0]), SKU: strings.TrimSpace(row[1]),
			DueStart: dueStart, DueEnd: dueEnd, QtyMin: qtyMin, QtyMax: qtyMax, Priority: priority,
		})
	}
	return out, nil
}

// LoadTrials loads the optional trials.csv:
// order_id,sku,pinned_line,start_hour,end_hour,run_hours,target_kgs
// and returns them as domain.Order values with IsTrial set. end_hour and
// run_hours may be left blank (-1 and 0 respectively) when not fixed.
func (l *Loader) LoadTrials() ([]domain.Order, error) {
	header := []string{"order_id", "sku", "pinned_line", "start_hour", "end_hour", "run_hours", "target_kgs"}
	rows, ok, err := l.readTable("trials.csv", header)
	if err != nil || !ok {
		return nil, err
	}
	out := make([]domain.Order, 0, len(rows))
	for i, row := range rows {
		n := i + 2
		if len(row) != len(header) {
			return nil, fmt.Errorf("trials row %d: expected %d columns, got %d", n, len(header), len(row))
		}
		pinnedLine, err := parseInt(row[2], "pinned_line", n)
		if err != nil {
			return nil, err
		}
		startHour, err := parseInt(row[3], "start_hour", n)
		if err != nil {
			return nil, err
		}
		endHour := -1
		if v := strings.TrimSpace(row[4]); v != "" {
			endHour, err = parseInt(v, "end_hour", n)
			if err != nil {
				return nil, err
			}
		}
		runHours := 0
		if v := strings.TrimSpace(row[5]); v != "" {
			runHours, err = parseInt(v, "run_hours", n)
			if err != nil {
				return nil, err
			}
		}
		targetKgs := 0.0
		if v := strings.TrimSpace(row[6]); v != "" {
			targetKgs, err = parseFloat(v, "target_kgs", n)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, domain.Order{
			OrderID: strings.TrimSpace(row[0]), SKU: strings.TrimSpace(row[1]),
			DueStart: startHour, DueEnd: endHour,
			IsTrial: true,
			Trial: domain.Trial{
				PinnedLineID: pinnedLine, StartHour: startHour, EndHour: endHour,
				RunHours: runHours, TargetKgs: targetKgs,
			},
		})
	}
	return out, nil
}

// Load reads all tables present under the loader's directory into a single
// domain.Data, merging demand orders and trials. line definitions are
// synthesized from whichever line IDs appear in capabilities_rates, since
// no separate lines table exists in the input schema.
func (l *Loader) Load() (domain.Data, error) {
	caps, err := l.LoadCapabilitiesRates()
	if err != nil {
		return domain.Data{}, err
	}
	rateOverrides, err := l.LoadLineRates()
	if err != nil {
		return domain.Data{}, err
	}
	cipOverrides, err := l.LoadLineCIPHours()
	if err != nil {
		return domain.Data{}, err
	}
	changeovers, err := l.LoadChangeovers()
	if err != nil {
		return domain.Data{}, err
	}
	initialStates, err := l.LoadInitialStates()
	if err != nil {
		return domain.Data{}, err
	}
	downtimes, err := l.LoadDowntimes()
	if err != nil {
		return domain.Data{}, err
	}
	orders, err := l.LoadDemandPlan()
	if err != nil {
		return domain.Data{}, err
	}
	trials, err := l.LoadTrials()
	if err != nil {
		return domain.Data{}, err
	}
	orders = append(orders, trials...)

	seen := make(map[int]bool)
	var lines []domain.Line
	for _, c := range caps {
		if !seen[c.LineID] {
			seen[c.LineID] = true
			lines = append(lines, domain.Line{ID: c.LineID, Name: fmt.Sprintf("Line %d", c.LineID)})
		}
	}

	return domain.Data{
		Lines:         lines,
		Capabilities:  caps,
		RateOverrides: rateOverrides,
		CIPOverrides:  cipOverrides,
		Changeovers:   changeovers,
		InitialStates: initialStates,
		Downtimes:     downtimes,
		Orders:        orders,
	}, nil
}
