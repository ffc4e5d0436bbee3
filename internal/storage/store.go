package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/heatsim/internal/config"
	"github.com/san-kum/heatsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	timingsFile  = "timings.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Variant        string             `json:"variant"`
	Order          int                `json:"order"`
	NX             int                `json:"nx"`
	NY             int                `json:"ny"`
	XCFL           float64            `json:"xcfl"`
	YCFL           float64            `json:"ycfl"`
	Iterations     int                `json:"iterations"`
	Boundary       string             `json:"boundary"`
	Init           string             `json:"init"`
	Workers        int                `json:"workers"`
	Timestamp      time.Time          `json:"timestamp"`
	Elapsed        time.Duration      `json:"elapsed_ns"`
	StepsPerSecond float64            `json:"steps_per_second"`
	Metrics        map[string]float64 `json:"metrics"`
}

// NewMetadata describes a completed run without persisting it.
func NewMetadata(cfg *config.Config, workers int, result *sim.Result) RunMetadata {
	return RunMetadata{
		Variant:        cfg.Variant,
		Order:          cfg.Order,
		NX:             cfg.NX,
		NY:             cfg.NY,
		XCFL:           cfg.XCFL,
		YCFL:           cfg.YCFL,
		Iterations:     result.Iterations,
		Boundary:       cfg.Boundary.Kind,
		Init:           cfg.Init.Kind,
		Workers:        workers,
		Elapsed:        result.Elapsed,
		StepsPerSecond: result.StepsPerSecond(),
		Metrics:        result.Metrics,
	}
}

// Save writes the run's metadata and per-iteration step times into a new run
// directory and returns its id.
func (s *Store) Save(cfg *config.Config, workers int, result *sim.Result) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_o%d_%d", cfg.Variant, cfg.Order, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(cfg, workers, result)
	meta.ID = runID
	meta.Timestamp = now

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, timingsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"iteration", "step_ns"}); err != nil {
		return "", err
	}
	for i, d := range result.StepTimes {
		row := []string{strconv.Itoa(i), strconv.FormatInt(d.Nanoseconds(), 10)}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTimings reads back the per-iteration step times of a run.
func (s *Store) LoadTimings(runID string) ([]time.Duration, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, timingsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []time.Duration{}, nil
	}

	timings := make([]time.Duration, 0, len(records)-1)
	for _, record := range records[1:] {
		ns, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad step time %q: %w", runID, record[1], err)
		}
		timings = append(timings, time.Duration(ns))
	}

	return timings, nil
}
