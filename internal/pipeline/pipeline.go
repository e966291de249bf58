// Package pipeline runs the full g1/g2/g3 analysis over one trajectory and
// writes its output tables.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/trajmsd/internal/analysis"
	"github.com/san-kum/trajmsd/internal/config"
	"github.com/san-kum/trajmsd/internal/export"
	"github.com/san-kum/trajmsd/internal/logging"
	"github.com/san-kum/trajmsd/internal/selection"
	"github.com/san-kum/trajmsd/internal/storage"
	"github.com/san-kum/trajmsd/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

// Options describes one analysis run. Output paths are used as given.
type Options struct {
	Input    string
	TEq      int64
	Criteria selection.Criteria
	Workers  int

	G1File         string
	G2File         string
	G3File         string
	CoMFile        string
	CoMRemovedFile string
	CoMTime        TimeColumn

	Logger *slog.Logger
}

// TimeColumn selects the first column of the CoM table.
type TimeColumn string

const (
	// FrameTimestep writes each frame's own timestep.
	FrameTimestep TimeColumn = "timestep"
	// FrameLag writes position*delta, counted from the first retained frame.
	FrameLag TimeColumn = "lag"
)

// ParseTimeColumn accepts "timestep", "lag" or "" (timestep).
func ParseTimeColumn(s string) (TimeColumn, error) {
	switch TimeColumn(s) {
	case "", FrameTimestep:
		return FrameTimestep, nil
	case FrameLag:
		return FrameLag, nil
	default:
		return "", fmt.Errorf("pipeline: unknown CoM time column %q", s)
	}
}

func (c TimeColumn) times(frames []*trajectory.Frame, delta int64) []int64 {
	if c != FrameLag {
		return analysis.Timesteps(frames)
	}
	ts := make([]int64, len(frames))
	for i := range ts {
		ts[i] = int64(i) * delta
	}
	return ts
}

// OptionsFromConfig validates cfg and places relative outputs under outDir.
func OptionsFromConfig(cfg *config.Config, outDir string) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	mode, err := selection.ParseMode(cfg.SelectionMode)
	if err != nil {
		return Options{}, err
	}
	column, err := ParseTimeColumn(cfg.CoMTime)
	if err != nil {
		return Options{}, err
	}
	g1, g2, g3, com := cfg.OutputPaths(outDir)
	opts := Options{
		Input: cfg.InputFile,
		TEq:   *cfg.TEq,
		Criteria: selection.Criteria{
			AtomIDs:     cfg.AtomIDs,
			MoleculeIDs: cfg.MolIDs,
			AtomTypes:   cfg.AtomTypes,
			Mode:        mode,
		},
		Workers: cfg.Workers,
		G1File:  g1,
		G2File:  g2,
		G3File:  g3,
		CoMFile: com,
		CoMTime: column,
	}
	if cfg.CoMRemoved != "" {
		opts.CoMRemovedFile = cfg.CoMRemoved
		if outDir != "" && !filepath.IsAbs(cfg.CoMRemoved) {
			opts.CoMRemovedFile = filepath.Join(outDir, cfg.CoMRemoved)
		}
	}
	return opts, nil
}

// Result carries the curves and bookkeeping of a finished run.
type Result struct {
	Index      *trajectory.Index
	Selection  selection.Selection
	Report     selection.Report
	Mismatches []trajectory.Mismatch

	G1, G2, G3 *analysis.MSD
	CoM        []r3.Vec

	Outputs map[string]string
	Elapsed time.Duration
}

// Curves returns the three curves on their shared lag axis.
func (r *Result) Curves() storage.Curves {
	n := r.G1.Len()
	c := storage.Curves{
		Timesteps: make([]int64, n),
		G1:        r.G1.Values,
		G2:        r.G2.Values,
		G3:        r.G3.Values,
		Hits:      r.G1.Hits,
	}
	for lag := range c.Timesteps {
		c.Timesteps[lag] = r.G1.Timestep(lag)
	}
	return c
}

// Metadata summarizes the run for the run store.
func (r *Result) Metadata(opts Options) storage.RunMetadata {
	return storage.RunMetadata{
		Input:         opts.Input,
		TEq:           opts.TEq,
		Atoms:         r.Index.NumAtoms,
		Frames:        r.Index.NumFrames(),
		Delta:         r.Index.DeltaTimestep,
		FirstTimestep: r.Index.FirstTimestep(),
		LastTimestep:  r.Index.LastTimestep(),
		Beads:         r.Selection.Len(),
		Mode:          string(opts.Criteria.Mode),
		Workers:       opts.Workers,
		Mismatches:    len(r.Mismatches),
		Misaligned:    r.G1.Misaligned,
		Elapsed:       r.Elapsed.Seconds(),
		Outputs:       r.Outputs,
	}
}

func loggerOf(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return logging.Discard()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// openAndLoad indexes the input, reports spacing problems and loads every
// retained frame.
func openAndLoad(ctx context.Context, input string, tEq int64, workers int, logger *slog.Logger) (*trajectory.Index, []*trajectory.Frame, []trajectory.Mismatch, error) {
	tr, err := trajectory.Open(input, trajectory.WithEquilibration(tEq))
	if err != nil {
		return nil, nil, nil, err
	}
	defer tr.Close()

	idx := tr.Index
	logger.Info("index built",
		"input", input,
		"atoms", idx.NumAtoms,
		"frames", idx.NumFrames(),
		"delta", idx.DeltaTimestep,
		"first", idx.FirstTimestep(),
		"last", idx.LastTimestep())

	mismatches := idx.CheckTimesteps()
	for _, m := range mismatches {
		logger.Warn("timestep spacing differs from delta",
			"frame", m.Frame,
			"previous", m.Previous,
			"current", m.Current,
			"delta", m.Delta,
			"delta_index", m.DeltaIndex())
	}

	frames, err := tr.Loader.LoadAll(ctx, workers)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug("frames loaded", "count", len(frames))
	return idx, frames, mismatches, nil
}

// Run computes g1 (bead-averaged MSD), g2 (the same after per-frame CoM
// removal) and g3 (MSD of the CoM series), then writes the tables.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := loggerOf(opts)

	idx, frames, mismatches, err := openAndLoad(ctx, opts.Input, opts.TEq, opts.Workers, logger)
	if err != nil {
		return nil, err
	}

	sel, rep, err := selection.Resolve(idx, opts.Criteria)
	if err != nil {
		return nil, err
	}
	rows, err := sel.Rows(idx)
	if err != nil {
		return nil, err
	}
	logger.Info("beads selected",
		"selected", sel.Len(),
		"atoms", idx.NumAtoms,
		"by_id", rep.ByAtomID,
		"by_molecule", rep.ByMolecule,
		"by_type", rep.ByType,
		"mode", opts.Criteria.Mode)

	res := &Result{
		Index:      idx,
		Selection:  sel,
		Report:     rep,
		Mismatches: mismatches,
		Outputs:    make(map[string]string),
	}
	delta := idx.DeltaTimestep
	mopts := []analysis.Option{analysis.WithWorkers(opts.Workers)}

	logger.Info("computing g1")
	if res.G1, err = analysis.BeadAveragedMSD(ctx, frames, rows, delta, mopts...); err != nil {
		return nil, fmt.Errorf("g1: %w", err)
	}
	if res.G1.Misaligned > 0 {
		logger.Warn("pairs off the timestep grid", "pairs", res.G1.Misaligned)
	}

	res.CoM = analysis.CenterOfMassSeries(frames)
	if err := analysis.RemoveCenterOfMassSeries(frames, res.CoM); err != nil {
		return nil, err
	}

	logger.Info("computing g2")
	if res.G2, err = analysis.BeadAveragedMSD(ctx, frames, rows, delta, mopts...); err != nil {
		return nil, fmt.Errorf("g2: %w", err)
	}

	logger.Info("computing g3")
	if res.G3, err = analysis.TimeAveragedMSD(ctx, res.CoM, analysis.Timesteps(frames), delta, mopts...); err != nil {
		return nil, fmt.Errorf("g3: %w", err)
	}

	if err := writeOutputs(opts, res, frames, logger); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	logger.Info("analysis done", "elapsed", res.Elapsed)
	return res, nil
}

func writeOutputs(opts Options, res *Result, frames []*trajectory.Frame, logger *slog.Logger) error {
	tables := []struct {
		key, path string
		write     func(io.Writer) error
	}{
		{"g1", opts.G1File, func(w io.Writer) error { return export.WriteMSDTable(w, "g1", res.G1) }},
		{"g2", opts.G2File, func(w io.Writer) error { return export.WriteMSDTable(w, "g2", res.G2) }},
		{"g3", opts.G3File, func(w io.Writer) error { return export.WriteMSDTable(w, "g3", res.G3) }},
		{"com", opts.CoMFile, func(w io.Writer) error {
			return export.WriteCoMTable(w, opts.CoMTime.times(frames, res.Index.DeltaTimestep), res.CoM)
		}},
	}
	for _, t := range tables {
		if t.path == "" {
			continue
		}
		if err := ensureDir(t.path); err != nil {
			return err
		}
		if err := export.WriteFile(t.path, t.write); err != nil {
			return err
		}
		res.Outputs[t.key] = t.path
		logger.Info("saved", "table", t.key, "path", t.path)
	}

	if opts.CoMRemovedFile != "" {
		if err := writeDump(opts.CoMRemovedFile, frames); err != nil {
			return err
		}
		res.Outputs["com_removed"] = opts.CoMRemovedFile
		logger.Info("saved", "trajectory", opts.CoMRemovedFile)
	}
	return nil
}

func writeDump(path string, frames []*trajectory.Frame) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	w, err := trajectory.Create(path)
	if err != nil {
		return err
	}
	if err := w.WriteFrames(frames); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// RecenterResult is what Recenter computed and wrote.
type RecenterResult struct {
	Index *trajectory.Index
	CoM   []r3.Vec
}

// Recenter writes the CoM table of input to comOut and the CoM-removed
// trajectory to trajOut. Either output may be empty to skip it.
func Recenter(ctx context.Context, input string, tEq int64, comOut, trajOut string, workers int, logger *slog.Logger) (*RecenterResult, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	idx, frames, _, err := openAndLoad(ctx, input, tEq, workers, logger)
	if err != nil {
		return nil, err
	}

	com := analysis.CenterOfMassSeries(frames)
	if comOut != "" {
		if err := ensureDir(comOut); err != nil {
			return nil, err
		}
		err := export.WriteFile(comOut, func(w io.Writer) error {
			return export.WriteCoMTable(w, analysis.Timesteps(frames), com)
		})
		if err != nil {
			return nil, err
		}
		logger.Info("saved", "table", "com", "path", comOut)
	}

	if trajOut != "" {
		if err := analysis.RemoveCenterOfMassSeries(frames, com); err != nil {
			return nil, err
		}
		if err := writeDump(trajOut, frames); err != nil {
			return nil, err
		}
		logger.Info("saved", "trajectory", trajOut)
	}
	return &RecenterResult{Index: idx, CoM: com}, nil
}
