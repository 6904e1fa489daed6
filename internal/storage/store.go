// Package storage persists finished runs to disk: one directory per run
// holding metadata as JSON and the recorded metric histories as CSV.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
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
	ID        string             `json:"id"`
	Scene     string             `json:"scene"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Substeps  int                `json:"substeps"`
	Final     map[string]float64 `json:"final"`
}

// Record holds the sampled metric histories of one run. Series are column
// aligned with Names; every series has len(Times) samples.
type Record struct {
	Times  []float64
	Names  []string
	Series [][]float64
}

func (s *Store) Save(scene string, dt, duration float64, seed int64, substeps int, rec *Record) (string, error) {
	runID := fmt.Sprintf("%s_%d", scene, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	final := make(map[string]float64, len(rec.Names))
	for i, name := range rec.Names {
		if len(rec.Series[i]) > 0 {
			final[name] = rec.Series[i][len(rec.Series[i])-1]
		}
	}

	meta := RunMetadata{
		ID:        runID,
		Scene:     scene,
		Timestamp: time.Now(),
		Seed:      seed,
		Dt:        dt,
		Duration:  duration,
		Substeps:  substeps,
		Final:     final,
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

	csvFile, err := os.Create(filepath.Join(runDir, "metrics.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"time"}, rec.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range rec.Times {
		row := []string{strconv.FormatFloat(rec.Times[i], 'f', 6, 64)}
		for _, series := range rec.Series {
			v := 0.0
			if i < len(series) {
				v = series[i]
			}
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
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

func (s *Store) LoadRecord(runID string) (*Record, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "metrics.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Record{}, nil
	}

	rec := &Record{
		Names:  records[0][1:],
		Series: make([][]float64, len(records[0])-1),
	}
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			continue
		}
		rec.Times = append(rec.Times, t)
		for j := 1; j < len(row) && j-1 < len(rec.Series); j++ {
			v, _ := strconv.ParseFloat(row[j], 64)
			rec.Series[j-1] = append(rec.Series[j-1], v)
		}
	}

	return rec, nil
}
