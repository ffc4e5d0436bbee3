package storage

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// ExportData is a run record with its step times inlined.
type ExportData struct {
	RunMetadata
	StepTimesNS []int64 `json:"step_times_ns"`
}

func NewExportData(meta RunMetadata, timings []time.Duration) ExportData {
	data := ExportData{RunMetadata: meta, StepTimesNS: make([]int64, len(timings))}
	for i, d := range timings {
		data.StepTimesNS[i] = d.Nanoseconds()
	}
	return data
}

func ExportJSON(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
