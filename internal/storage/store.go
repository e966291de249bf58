package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrCurveLength indicates curve columns of different lengths.
var ErrCurveLength = errors.New("storage: curve columns differ in length")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunMetadata describes one saved analysis.
type RunMetadata struct {
	ID            string            `json:"id"`
	Input         string            `json:"input"`
	Timestamp     time.Time         `json:"timestamp"`
	TEq           int64             `json:"t_eq"`
	Atoms         int               `json:"atoms"`
	Frames        int               `json:"frames"`
	Delta         int64             `json:"delta_timestep"`
	FirstTimestep int64             `json:"first_timestep"`
	LastTimestep  int64             `json:"last_timestep"`
	Beads         int               `json:"beads"`
	Mode          string            `json:"selection_mode"`
	Workers       int               `json:"workers"`
	Mismatches    int               `json:"timestep_mismatches"`
	Misaligned    int64             `json:"misaligned_pairs"`
	Elapsed       float64           `json:"elapsed_seconds"`
	Outputs       map[string]string `json:"outputs,omitempty"`
}

// Curves holds the three MSD curves of a run on a shared lag axis.
type Curves struct {
	Timesteps []int64
	G1        []float64
	G2        []float64
	G3        []float64
	Hits      []int64
}

func (c Curves) Len() int { return len(c.Timesteps) }

func (c Curves) check() error {
	n := len(c.Timesteps)
	if len(c.G1) != n || len(c.G2) != n || len(c.G3) != n || len(c.Hits) != n {
		return fmt.Errorf("%w: %d/%d/%d/%d/%d", ErrCurveLength, n, len(c.G1), len(c.G2), len(c.G3), len(c.Hits))
	}
	return nil
}

// Save writes a new run directory and returns its id. ID and Timestamp of
// meta are assigned here.
func (s *Store) Save(meta RunMetadata, curves Curves) (string, error) {
	if err := curves.check(); err != nil {
		return "", err
	}

	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
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

	csvFile, err := os.Create(filepath.Join(runDir, "curves.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"timestep", "g1", "g2", "g3", "hits"}); err != nil {
		return "", err
	}
	for i := range curves.Timesteps {
		row := []string{
			strconv.FormatInt(curves.Timesteps[i], 10),
			strconv.FormatFloat(curves.G1[i], 'g', -1, 64),
			strconv.FormatFloat(curves.G2[i], 'g', -1, 64),
			strconv.FormatFloat(curves.G3[i], 'g', -1, 64),
			strconv.FormatInt(curves.Hits[i], 10),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
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

func (s *Store) LoadCurves(runID string) (*Curves, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "curves.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	c := &Curves{}
	if len(records) < 2 {
		return c, nil
	}

	for line, rec := range records[1:] {
		ts, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("curves.csv line %d: %w", line+2, err)
		}
		var g [3]float64
		for k := range g {
			if g[k], err = strconv.ParseFloat(rec[k+1], 64); err != nil {
				return nil, fmt.Errorf("curves.csv line %d: %w", line+2, err)
			}
		}
		hits, err := strconv.ParseInt(rec[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("curves.csv line %d: %w", line+2, err)
		}
		c.Timesteps = append(c.Timesteps, ts)
		c.G1 = append(c.G1, g[0])
		c.G2 = append(c.G2, g[1])
		c.G3 = append(c.G3, g[2])
		c.Hits = append(c.Hits, hits)
	}

	return c, nil
}
