package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/plantline/scheduler/internal/domain"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scheduler.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
phase = "full"
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Scheduler.Horizon != domain.DefaultHorizon {
		t.Fatalf("Horizon = %d, want default %d", c.Scheduler.Horizon, domain.DefaultHorizon)
	}
	if c.CIP.IntervalH != 120 {
		t.Fatalf("CIP.IntervalH = %d, want 120", c.CIP.IntervalH)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
horizon = 200
phase = "sanity3"
time_limit_seconds = 30

[cip]
interval_h = 100
duration_h = 8

[objective]
mode = "min-changeovers"
changeover = 5

[changeover]
top_load = 2
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Scheduler.Horizon != 200 {
		t.Fatalf("Horizon = %d, want 200", c.Scheduler.Horizon)
	}
	if c.CIP.IntervalH != 100 || c.CIP.DurationH != 8 {
		t.Fatalf("CIP = %+v", c.CIP)
	}
	if c.Objective.Mode != "min-changeovers" || c.Objective.Changeover != 5 {
		t.Fatalf("Objective = %+v", c.Objective)
	}
	if c.Changeover.TopLoad != 2 {
		t.Fatalf("Changeover.TopLoad = %d, want 2", c.Changeover.TopLoad)
	}
}

func TestLoad_InvalidPhase(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
phase = "bogus"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid phase")
	}
}

func TestLoad_InvalidObjectiveMode(t *testing.T) {
	path := writeConfig(t, `
[objective]
mode = "bogus"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid objective mode")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path.toml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadUnchecked_SkipsValidation(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
horizon = -5
`)
	c, err := LoadUnchecked(path)
	if err != nil {
		t.Fatalf("LoadUnchecked: %v", err)
	}
	if c.Scheduler.Horizon != -5 {
		t.Fatalf("Horizon = %d, want -5 (unchecked)", c.Scheduler.Horizon)
	}
}

func TestToParams(t *testing.T) {
	path := writeConfig(t, `
[scheduler]
horizon = 336
max_lines_per_order = 2

[cip]
interval_h = 120
duration_h = 6
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := c.ToParams()
	if p.Horizon != 336 || p.MaxLinesPerOrder != 2 || p.CIPIntervalH != 120 {
		t.Fatalf("ToParams = %+v", p)
	}
}
