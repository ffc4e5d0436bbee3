package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Iterations: 3,
		Elapsed:    6 * time.Millisecond,
		StepTimes:  []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
		Metrics:    map[string]float64{"heat": 1.5},
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Variant = "tiled"
	cfg.Order = 4

	runID, err := st.Save(cfg, 8, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Variant != "tiled" || meta.Order != 4 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Workers != 8 {
		t.Errorf("expected 8 workers, got %d", meta.Workers)
	}
	if meta.Metrics["heat"] != 1.5 {
		t.Errorf("expected heat 1.5, got %f", meta.Metrics["heat"])
	}
	if meta.StepsPerSecond != 500 {
		t.Errorf("expected 500 steps/s, got %f", meta.StepsPerSecond)
	}

	timings, err := st.LoadTimings(runID)
	if err != nil {
		t.Fatalf("load timings failed: %v", err)
	}
	if len(timings) != 3 || timings[2] != 3*time.Millisecond {
		t.Errorf("unexpected timings %v", timings)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	st.now = fixedClock(time.Unix(1000, 0))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg := config.DefaultConfig()
	first, err := st.Save(cfg, 1, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(cfg, 1, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first == second {
		t.Fatal("run ids collide")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("expected oldest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(config.DefaultConfig(), 1, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{metadataFile, timingsFile} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExport(t *testing.T) {
	meta := NewMetadata(config.DefaultConfig(), 2, testResult())
	data := NewExportData(meta, testResult().StepTimes)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["variant"] != "naive" {
		t.Errorf("expected flattened variant field, got %v", decoded["variant"])
	}
	steps, ok := decoded["step_times_ns"].([]any)
	if !ok || len(steps) != 3 {
		t.Errorf("expected 3 step times, got %v", decoded["step_times_ns"])
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, data); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
}
