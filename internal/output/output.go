// Package output writes the scheduler's flat-file results: schedule,
// produced_vs_bounds, cip_windows and next_initial_states as CSV, plus
// solver_kpis as plain text. Grounded on internal/ingest's reader
// conventions (same header shapes, read in reverse) and
// original_source/code/helpers/safe_io.py's atomic-write discipline, via
// internal/ioutil.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/plantline/scheduler/internal/domain"
	"github.com/plantline/scheduler/internal/extract"
	"github.com/plantline/scheduler/internal/ioutil"
)

// Writer writes every output table into one data directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.dir, name)
}

func writeCSV(path string, header []string, rows [][]string) error {
	return ioutil.WriteFunc(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func sanitizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = ioutil.SanitizeCSVField(v)
	}
	return out
}

// WriteSchedule writes schedule.csv.
func (w *Writer) WriteSchedule(rows []extract.ScheduleRow) error {
	header := []string{"line_id", "line_name", "order_id", "sku", "start_hour", "end_hour", "run_hours", "start_dt", "end_dt", "is_trial"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, sanitizeRow([]string{
			strconv.Itoa(r.LineID),
			r.LineName,
			r.OrderID,
			r.SKU,
			strconv.Itoa(r.StartHour),
			strconv.Itoa(r.EndHour),
			strconv.Itoa(r.RunHours),
			r.StartDT,
			r.EndDT,
			strconv.FormatBool(r.IsTrial),
		}))
	}
	return writeCSV(w.path("schedule.csv"), header, out)
}

// WriteProducedVsBounds writes produced_vs_bounds.csv.
func (w *Writer) WriteProducedVsBounds(rows []extract.ProducedRow) error {
	header := []string{"order_id", "sku", "qty_min", "qty_max", "produced", "in_bounds"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, sanitizeRow([]string{
			r.OrderID,
			r.SKU,
			strconv.FormatFloat(r.QtyMin, 'f', -1, 64),
			strconv.FormatFloat(r.QtyMax, 'f', -1, 64),
			strconv.Itoa(r.Produced),
			strconv.FormatBool(r.InBounds),
		}))
	}
	return writeCSV(w.path("produced_vs_bounds.csv"), header, out)
}

// WriteCIPWindows writes cip_windows.csv.
func (w *Writer) WriteCIPWindows(rows []extract.CIPRow) error {
	header := []string{"line_id", "line_name", "start_hour", "end_hour"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, sanitizeRow([]string{
			strconv.Itoa(r.LineID),
			r.LineName,
			strconv.Itoa(r.StartHour),
			strconv.Itoa(r.EndHour),
		}))
	}
	return writeCSV(w.path("cip_windows.csv"), header, out)
}

// WriteNextInitialStates writes next_initial_states.csv, matching
// internal/ingest's initial_states.csv header so it can be fed straight
// back in as --initial-states for the next rolling run.
func (w *Writer) WriteNextInitialStates(states []domain.InitialState) error {
	header := []string{
		"line_id", "initial_sku", "available_from", "long_shutdown_flag",
		"long_shutdown_extra_h", "carryover_h_since_last_cip", "last_cip_end_unix_hour",
	}
	out := make([][]string, 0, len(states))
	for _, s := range states {
		lastCIP := ""
		if s.HasLastCIPEndWallclock {
			lastCIP = strconv.FormatInt(s.LastCIPEndWallclockUnixHour, 10)
		}
		out = append(out, sanitizeRow([]string{
			strconv.Itoa(s.LineID),
			s.InitialSKU,
			strconv.Itoa(s.AvailableFrom),
			strconv.FormatBool(s.LongShutdownFlag),
			strconv.Itoa(s.LongShutdownExtraH),
			strconv.Itoa(s.CarryoverHSinceLastCIP),
			lastCIP,
		}))
	}
	return writeCSV(w.path("next_initial_states.csv"), header, out)
}

// KPIs is the one-line status plus optional summary written to
// solver_kpis.txt.
type KPIs struct {
	Status  string
	Summary string
}

// WriteSolverKPIs writes solver_kpis.txt.
func (w *Writer) WriteSolverKPIs(k KPIs) error {
	text := "Status: " + k.Status + "\n"
	if k.Summary != "" {
		text += k.Summary + "\n"
	}
	return ioutil.WriteFileAtomic(w.path("solver_kpis.txt"), []byte(text), 0o644)
}

// Summary renders a one-line KPI summary from a solved objective plus
// schedule/CIP/produced counts, in the shape WriteSolverKPIs expects.
func Summary(objective int, scheduleRows, cipRows int, produced map[string]int) string {
	total := 0
	for _, q := range produced {
		total += q
	}
	return fmt.Sprintf("objective=%d segments=%d cip_blocks=%d total_produced=%d", objective, scheduleRows, cipRows, total)
}
