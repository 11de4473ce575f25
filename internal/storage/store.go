// Package storage persists completed runs to a directory tree: one
// subdirectory per run holding metadata.json and the diagnostics trace
// as trace.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/espic/internal/plasma"
	"github.com/san-kum/espic/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Scenario      string             `json:"scenario"`
	Timestamp     time.Time          `json:"timestamp"`
	Seed          int64              `json:"seed"`
	Dt            float64            `json:"dt"`
	Steps         int                `json:"steps"`
	SolveFailures int                `json:"solve_failures"`
	Metrics       map[string]float64 `json:"metrics"`
}

var traceHeader = []string{
	"step", "time",
	"kinetic_ev", "potential_ev", "total_ev",
	"x", "y", "z", "vx", "vy", "vz",
}

func (s *Store) Save(scenario string, dt float64, seed int64, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Scenario:      scenario,
		Timestamp:     time.Now(),
		Seed:          seed,
		Dt:            dt,
		Steps:         result.StepsTaken,
		SolveFailures: result.SolveFailures,
		Metrics:       result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(traceHeader); err != nil {
		return "", err
	}
	for _, d := range result.Trace {
		row := []string{
			strconv.Itoa(d.Step),
			formatF(d.Time),
			formatF(d.Kinetic),
			formatF(d.Potential),
			formatF(d.Total()),
			formatF(d.Position.X), formatF(d.Position.Y), formatF(d.Position.Z),
			formatF(d.Velocity.X), formatF(d.Velocity.Y), formatF(d.Velocity.Z),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, w.Error()
}

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

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace reads a stored run's diagnostics back. Rows that fail to
// parse are skipped.
func (s *Store) LoadTrace(runID string) ([]plasma.Diagnostics, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []plasma.Diagnostics{}, nil
	}

	trace := make([]plasma.Diagnostics, 0, len(records)-1)
	for _, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}

		vals := make([]float64, 0, len(rec)-1)
		ok := true
		for _, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}

		trace = append(trace, plasma.Diagnostics{
			Step:      step,
			Time:      vals[0],
			Kinetic:   vals[1],
			Potential: vals[2],
			Position:  plasma.Vec3{X: vals[4], Y: vals[5], Z: vals[6]},
			Velocity:  plasma.Vec3{X: vals[7], Y: vals[8], Z: vals[9]},
		})
	}
	return trace, nil
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'g', 12, 64)
}
