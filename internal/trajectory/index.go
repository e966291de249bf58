package trajectory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Box holds the simulation cell bounds as xlo, xhi, ylo, yhi, zlo, zhi.
type Box [6]float64

// Lengths returns the edge lengths of the cell.
func (b Box) Lengths() [3]float64 {
	return [3]float64{b[1] - b[0], b[3] - b[2], b[5] - b[4]}
}

// Index is the random-access table of contents of a dump file. It is built
// once and shared read-only by every Frame.
type Index struct {
	NumAtoms    int
	AtomIDs     []int64
	MoleculeIDs []int64
	AtomTypes   []int64
	Box         Box
	Columns     Columns

	// Timesteps and Offsets describe the retained frames. Offsets point at
	// the line following "ITEM: TIMESTEP".
	Timesteps     []int64
	Offsets       []int64
	DeltaTimestep int64

	rows map[int64]int
}

type indexOptions struct {
	equilibration int64
}

// IndexOption configures BuildIndex.
type IndexOption func(*indexOptions)

// WithEquilibration discards frames whose timestep is below tEq.
func WithEquilibration(tEq int64) IndexOption {
	return func(o *indexOptions) {
		o.equilibration = tEq
	}
}

// BuildIndex scans a dump stream once. It records the static atom columns and
// box of the first frame and the byte offset of every frame at or after the
// equilibration cutoff. Coordinates are not kept.
func BuildIndex(r io.Reader, opts ...IndexOption) (*Index, error) {
	o := indexOptions{equilibration: math.MinInt64}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{}
	lr := newLineReader(r, 0)

	var (
		natomsFound bool
		boxFound    bool
		tableFound  bool
		deferred    error
	)

	// Every retained frame must carry an atom table of exactly NumAtoms rows.
	var cur struct {
		retained bool
		timestep int64
		offset   int64
		table    bool
		inTable  bool
		rows     int
	}
	closeFrame := func() error {
		if !cur.retained {
			return nil
		}
		var err error
		switch {
		case !cur.table:
			err = consistencyErrorf("atom table not found")
		case cur.rows != idx.NumAtoms:
			err = consistencyErrorf("expected %d atom rows, found %d", idx.NumAtoms, cur.rows)
		default:
			return nil
		}
		return &FrameError{Timestep: cur.timestep, Offset: cur.offset, Wrapped: err}
	}

	for {
		line, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}

		marker, ok := item(line)
		if !ok {
			if cur.inTable && len(bytes.TrimSpace(line)) > 0 {
				cur.rows++
			}
			continue
		}
		cur.inTable = false

		switch {
		case marker == "TIMESTEP":
			if err := closeFrame(); err != nil {
				if tableFound {
					return nil, err
				}
				// Reported after the marker checks below.
				if deferred == nil {
					deferred = err
				}
			}
			offset := lr.pos
			value, err := lr.next()
			if err != nil {
				return nil, parseErrorf("missing value after ITEM: TIMESTEP at offset %d", offset)
			}
			ts, err := parseInt(value)
			if err != nil {
				return nil, parseErrorf("timestep at offset %d: %v", offset, err)
			}
			cur.retained = ts >= o.equilibration
			cur.timestep, cur.offset = ts, offset
			cur.table, cur.rows = false, 0
			if cur.retained {
				idx.Timesteps = append(idx.Timesteps, ts)
				idx.Offsets = append(idx.Offsets, offset)
			}

		case marker == "NUMBER OF ATOMS":
			value, err := lr.next()
			if err != nil {
				return nil, parseErrorf("missing value after ITEM: NUMBER OF ATOMS")
			}
			n, err := parseInt(value)
			if err != nil || n <= 0 {
				return nil, parseErrorf("invalid atom count %q", bytes.TrimSpace(value))
			}
			if !natomsFound {
				idx.NumAtoms = int(n)
				natomsFound = true
			} else if int(n) != idx.NumAtoms {
				return nil, consistencyErrorf("atom count changed from %d to %d", idx.NumAtoms, n)
			}

		case strings.HasPrefix(marker, "BOX BOUNDS"):
			if boxFound {
				continue
			}
			if err := readBox(lr, &idx.Box); err != nil {
				return nil, err
			}
			boxFound = true

		case strings.HasPrefix(marker, "ATOMS"):
			if cur.table {
				return nil, &FrameError{Timestep: cur.timestep, Offset: cur.offset, Wrapped: consistencyErrorf("second atom table in frame")}
			}
			cur.table, cur.inTable = true, true
			if tableFound {
				continue
			}
			if !natomsFound {
				return nil, parseErrorf("atom table precedes ITEM: NUMBER OF ATOMS")
			}
			cols, err := parseColumns(marker)
			if err != nil {
				return nil, err
			}
			idx.Columns = cols
			if err := readStaticColumns(lr, idx); err != nil {
				return nil, err
			}
			cur.rows = idx.NumAtoms
			tableFound = true
		}
	}
	if err := closeFrame(); err != nil && deferred == nil {
		deferred = err
	}

	if !natomsFound {
		return nil, parseErrorf("ITEM: NUMBER OF ATOMS not found")
	}
	if !boxFound {
		return nil, parseErrorf("ITEM: BOX BOUNDS not found")
	}
	if !tableFound {
		return nil, parseErrorf("ITEM: ATOMS not found")
	}
	if deferred != nil {
		return nil, deferred
	}
	if len(idx.Timesteps) < 2 {
		return nil, parseErrorf("%d timesteps retained, at least 2 required", len(idx.Timesteps))
	}

	idx.DeltaTimestep = idx.Timesteps[1] - idx.Timesteps[0]
	if idx.DeltaTimestep <= 0 {
		return nil, parseErrorf("non-increasing timesteps %d, %d", idx.Timesteps[0], idx.Timesteps[1])
	}
	for i := 1; i < len(idx.Timesteps); i++ {
		if idx.Timesteps[i] <= idx.Timesteps[i-1] {
			return nil, parseErrorf("non-increasing timesteps %d, %d at frame %d", idx.Timesteps[i-1], idx.Timesteps[i], i)
		}
	}

	return idx, nil
}

func readBox(lr *lineReader, box *Box) error {
	for k := 0; k < 3; k++ {
		line, err := lr.next()
		if err != nil {
			return parseErrorf("box bounds truncated after %d lines", k)
		}
		fields := bytes.Fields(line)
		if len(fields) < 2 {
			return parseErrorf("box bounds line %q", line)
		}
		lo, err := strconv.ParseFloat(string(fields[0]), 64)
		if err != nil {
			return parseErrorf("box bound %q: %v", fields[0], err)
		}
		hi, err := strconv.ParseFloat(string(fields[1]), 64)
		if err != nil {
			return parseErrorf("box bound %q: %v", fields[1], err)
		}
		box[2*k] = lo
		box[2*k+1] = hi
	}
	return nil
}

func readStaticColumns(lr *lineReader, idx *Index) error {
	n := idx.NumAtoms
	idx.AtomIDs = make([]int64, 0, n)
	idx.MoleculeIDs = make([]int64, 0, n)
	idx.AtomTypes = make([]int64, 0, n)
	idx.rows = make(map[int64]int, n)

	c := idx.Columns
	for len(idx.AtomIDs) < n {
		line, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
		if _, ok := item(line); ok {
			break
		}
		fields := bytes.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < c.Count {
			return parseErrorf("atom row %q has %d columns, expected %d", line, len(fields), c.Count)
		}

		id, err := parseInt(fields[c.ID])
		if err != nil {
			return parseErrorf("atom id %q: %v", fields[c.ID], err)
		}
		mol, err := parseInt(fields[c.Mol])
		if err != nil {
			return parseErrorf("molecule id %q: %v", fields[c.Mol], err)
		}
		typ, err := parseInt(fields[c.Type])
		if err != nil {
			return parseErrorf("atom type %q: %v", fields[c.Type], err)
		}
		if _, dup := idx.rows[id]; dup {
			return parseErrorf("duplicate atom id %d", id)
		}

		idx.rows[id] = len(idx.AtomIDs)
		idx.AtomIDs = append(idx.AtomIDs, id)
		idx.MoleculeIDs = append(idx.MoleculeIDs, mol)
		idx.AtomTypes = append(idx.AtomTypes, typ)
	}

	if len(idx.AtomIDs) != n {
		return consistencyErrorf("expected %d atom rows, found %d", n, len(idx.AtomIDs))
	}
	return nil
}

// NumFrames returns the number of retained frames.
func (idx *Index) NumFrames() int {
	return len(idx.Timesteps)
}

// FirstTimestep returns the first retained timestep.
func (idx *Index) FirstTimestep() int64 {
	return idx.Timesteps[0]
}

// LastTimestep returns the last retained timestep.
func (idx *Index) LastTimestep() int64 {
	return idx.Timesteps[len(idx.Timesteps)-1]
}

// Row returns the position of an atom id inside every frame.
func (idx *Index) Row(atomID int64) (int, bool) {
	row, ok := idx.rows[atomID]
	return row, ok
}

// Len, AtomID, MoleculeID and AtomType expose the static columns row by row.
func (idx *Index) Len() int               { return idx.NumAtoms }
func (idx *Index) AtomID(i int) int64     { return idx.AtomIDs[i] }
func (idx *Index) MoleculeID(i int) int64 { return idx.MoleculeIDs[i] }
func (idx *Index) AtomType(i int) int64   { return idx.AtomTypes[i] }

// Mismatch describes two consecutive frames whose spacing is not DeltaTimestep.
type Mismatch struct {
	Frame    int
	Previous int64
	Current  int64
	Delta    int64
}

// DeltaIndex is the spacing expressed in multiples of Delta, truncated.
func (m Mismatch) DeltaIndex() int64 {
	return (m.Current - m.Previous) / m.Delta
}

func (m Mismatch) Error() string {
	return fmt.Sprintf("%v at frame %d: previous=%d current=%d delta=%d delta_index=%d",
		ErrTimestepMismatch, m.Frame, m.Previous, m.Current, m.Delta, m.DeltaIndex())
}

func (m Mismatch) Unwrap() error {
	return ErrTimestepMismatch
}

// CheckTimesteps reports every consecutive pair of retained frames whose
// spacing differs from DeltaTimestep. An empty result means uniform spacing.
func (idx *Index) CheckTimesteps() []Mismatch {
	var out []Mismatch
	for i := 1; i < len(idx.Timesteps); i++ {
		prev, cur := idx.Timesteps[i-1], idx.Timesteps[i]
		if cur-prev != idx.DeltaTimestep {
			out = append(out, Mismatch{Frame: i, Previous: prev, Current: cur, Delta: idx.DeltaTimestep})
		}
	}
	return out
}
