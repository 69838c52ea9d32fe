// Package progress writes a structured JSON progress snapshot
// (solver_progress.json) that an external dashboard can poll while a solve
// runs. Grounded on
// original_source/code/helpers/solver_progress.py: same file name, same
// stage-list shapes, same read-modify-atomic-write update pattern, adapted
// to internal/ioutil's WriteFileAtomic instead of a hand-rolled
// tempfile+rename.
package progress

import (
	"encoding/json"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/plantline/scheduler/internal/ioutil"
)

const fileName = "solver_progress.json"

// Stage is one named step of the pipeline, e.g. {"loading_data", "Loading Data"}.
type Stage struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// StagesSingle is the stage list for a single-phase (non-rolling) solve.
var StagesSingle = []Stage{
	{ID: "loading_data", Label: "Loading Data"},
	{ID: "building_model", Label: "Building Model"},
	{ID: "solving", Label: "Solving"},
	{ID: "writing_output", Label: "Writing Output"},
	{ID: "validating", Label: "Validating"},
}

// StagesTwoPhase is the stage list for the rolling-horizon Week-0/Week-1 solve.
var StagesTwoPhase = []Stage{
	{ID: "loading_data", Label: "Loading Data"},
	{ID: "building_model_w0", Label: "Building Model (Week 0)"},
	{ID: "solving_week0", Label: "Solving Week 0"},
	{ID: "building_model_w1", Label: "Building Model (Week 1)"},
	{ID: "solving_week1", Label: "Solving Week 1"},
	{ID: "writing_output", Label: "Writing Output"},
	{ID: "validating", Label: "Validating"},
}

type stageState struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"` // pending, active, done, error
	Detail string `json:"detail"`
	TS     string `json:"ts"`
}

type solution struct {
	WallTime  float64 `json:"wall_time"`
	Objective float64 `json:"objective"`
	Label     string  `json:"label"`
}

type state struct {
	Stages      []stageState    `json:"stages"`
	Solutions   []solution      `json:"solutions"`
	SolverStats map[string]any  `json:"solver_stats"`
	DataSummary map[string]any  `json:"data_summary"`
}

// Writer serializes progress updates for one run's progress file. Callers
// from multiple goroutines (e.g. a solver callback and the main pipeline)
// may share one Writer.
type Writer struct {
	mu   sync.Mutex
	path string
	st   state
}

// New creates a Writer and immediately writes the initial snapshot with all
// stages set to pending.
func New(dataDir string, stages []Stage) (*Writer, error) {
	w := &Writer{
		path: filepath.Join(dataDir, fileName),
		st: state{
			SolverStats: map[string]any{},
			DataSummary: map[string]any{},
		},
	}
	for _, s := range stages {
		w.st.Stages = append(w.st.Stages, stageState{ID: s.ID, Label: s.Label, Status: "pending"})
	}
	if err := w.flush(); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateStage sets a stage's status (active/done/error) and optional detail.
func (w *Writer) UpdateStage(stageID, status, detail string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.st.Stages {
		if w.st.Stages[i].ID == stageID {
			w.st.Stages[i].Status = status
			if detail != "" {
				w.st.Stages[i].Detail = detail
			}
			w.st.Stages[i].TS = time.Now().Format(time.RFC3339)
			break
		}
	}
	return w.flush()
}

// SetDataSummary merges kv into the snapshot's data_summary section.
func (w *Writer) SetDataSummary(kv map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, v := range kv {
		w.st.DataSummary[k] = v
	}
	return w.flush()
}

// AddSolution appends one intermediate solution found during search.
func (w *Writer) AddSolution(wallTime, objective float64, label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.st.Solutions = append(w.st.Solutions, solution{
		WallTime:  roundTo(wallTime, 2),
		Objective: roundTo(objective, 1),
		Label:     label,
	})
	return w.flush()
}

// UpdateSolverStats merges kv into the snapshot's solver_stats section.
func (w *Writer) UpdateSolverStats(kv map[string]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, v := range kv {
		w.st.SolverStats[k] = v
	}
	return w.flush()
}

func roundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

// flush must be called with w.mu held.
func (w *Writer) flush() error {
	data, err := json.MarshalIndent(w.st, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFileAtomic(w.path, data, 0o644)
}

// Path reports the progress file's location.
func (w *Writer) Path() string { return w.path }
