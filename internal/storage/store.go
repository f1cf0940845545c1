package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/gridflow/internal/grid"
	"github.com/san-kum/gridflow/internal/powerflow"
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

// RunInfo describes how a run was configured.
type RunInfo struct {
	Case           string  `json:"case"`
	Backend        string  `json:"backend"`
	Tolerance      float64 `json:"tolerance"`
	MaxIters       int     `json:"max_iters"`
	EnableLimiting bool    `json:"enable_limiting"`
	FlatStart      bool    `json:"flat_start"`
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	RunInfo
	BaseMVA     float64            `json:"base_mva"`
	Unknowns    int                `json:"unknowns"`
	Buses       int                `json:"buses"`
	Iterations  int                `json:"iterations"`
	FinalError  float64            `json:"final_error"`
	Converged   bool               `json:"converged"`
	Provisional bool               `json:"provisional"`
	Mismatch    float64            `json:"mismatch"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

type BusRecord struct {
	Bus   int     `json:"bus"`
	Vr    float64 `json:"vr"`
	Vi    float64 `json:"vi"`
	Vm    float64 `json:"vm"`
	VaDeg float64 `json:"va_deg"`
}

// Save writes metadata.json, buses.csv and iterations.csv into a new run
// directory and returns the run ID.
func (s *Store) Save(info RunInfo, net *grid.Network, res *powerflow.Result, metrics map[string]float64) (string, error) {
	buses, err := busRecords(net, res)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   time.Now(),
		RunInfo:     info,
		BaseMVA:     net.Base.MVA,
		Unknowns:    net.Size(),
		Buses:       len(net.Buses),
		Iterations:  res.Iterations,
		FinalError:  res.FinalError,
		Converged:   res.Converged,
		Provisional: res.Provisional(),
		Mismatch:    finite(res.Mismatch),
		Metrics:     metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	rows := [][]string{{"bus", "vr", "vi", "vm", "va_deg"}}
	for _, b := range buses {
		rows = append(rows, []string{
			strconv.Itoa(b.Bus), formatFloat(b.Vr), formatFloat(b.Vi), formatFloat(b.Vm), formatFloat(b.VaDeg),
		})
	}
	if err := writeCSV(filepath.Join(runDir, "buses.csv"), rows); err != nil {
		return "", err
	}

	rows = [][]string{{"iteration", "err"}}
	for i, e := range res.History {
		rows = append(rows, []string{strconv.Itoa(i + 1), formatFloat(e)})
	}
	if err := writeCSV(filepath.Join(runDir, "iterations.csv"), rows); err != nil {
		return "", err
	}

	return runID, nil
}

func busRecords(net *grid.Network, res *powerflow.Result) ([]BusRecord, error) {
	out := make([]BusRecord, 0, len(net.Buses))
	for _, b := range net.Buses {
		z, err := net.BusVoltage(res.V, b.Number())
		if err != nil {
			return nil, err
		}
		out = append(out, BusRecord{
			Bus:   b.Number(),
			Vr:    real(z),
			Vi:    imag(z),
			Vm:    cmplx.Abs(z),
			VaDeg: cmplx.Phase(z) * 180 / math.Pi,
		})
	}
	return out, nil
}

// finite maps +Inf to -1 since JSON has no infinity.
func finite(x float64) float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return -1
	}
	return x
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// List returns every stored run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
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

func (s *Store) readCSV(runID, name string) ([][]string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *Store) LoadBuses(runID string) ([]BusRecord, error) {
	records, err := s.readCSV(runID, "buses.csv")
	if err != nil {
		return nil, err
	}

	buses := make([]BusRecord, 0, len(records))
	for i, rec := range records {
		if len(rec) != 5 {
			return nil, fmt.Errorf("buses.csv line %d: expected 5 fields, got %d", i+2, len(rec))
		}
		num, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("buses.csv line %d: %w", i+2, err)
		}
		vals := make([]float64, 4)
		for k := range vals {
			if vals[k], err = strconv.ParseFloat(rec[k+1], 64); err != nil {
				return nil, fmt.Errorf("buses.csv line %d: %w", i+2, err)
			}
		}
		buses = append(buses, BusRecord{Bus: num, Vr: vals[0], Vi: vals[1], Vm: vals[2], VaDeg: vals[3]})
	}
	return buses, nil
}

func (s *Store) LoadHistory(runID string) ([]float64, error) {
	records, err := s.readCSV(runID, "iterations.csv")
	if err != nil {
		return nil, err
	}

	history := make([]float64, 0, len(records))
	for i, rec := range records {
		if len(rec) != 2 {
			return nil, fmt.Errorf("iterations.csv line %d: expected 2 fields, got %d", i+2, len(rec))
		}
		e, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("iterations.csv line %d: %w", i+2, err)
		}
		history = append(history, e)
	}
	return history, nil
}
