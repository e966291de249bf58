package trajectory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is the coordinate snapshot of one timestep. Coords is atom-major
// (x, y, z per atom) in Index order; the static columns are shared with the
// Index and must not be modified.
type Frame struct {
	Timestep int64
	Position int
	Coords   []float64

	index *Index
}

// NewFrame allocates a zeroed frame bound to idx.
func NewFrame(idx *Index, position int, timestep int64) *Frame {
	return &Frame{
		Timestep: timestep,
		Position: position,
		Coords:   make([]float64, 3*idx.NumAtoms),
		index:    idx,
	}
}

func (f *Frame) Index() *Index { return f.index }
func (f *Frame) NumAtoms() int { return len(f.Coords) / 3 }
func (f *Frame) Box() Box      { return f.index.Box }

// Atom returns the position of the atom stored at row i.
func (f *Frame) Atom(i int) r3.Vec {
	return r3.Vec{X: f.Coords[3*i], Y: f.Coords[3*i+1], Z: f.Coords[3*i+2]}
}

// SetAtom overwrites the position of the atom stored at row i.
func (f *Frame) SetAtom(i int, v r3.Vec) {
	f.Coords[3*i] = v.X
	f.Coords[3*i+1] = v.Y
	f.Coords[3*i+2] = v.Z
}

// Clone returns a frame with its own coordinate buffer.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Coords = make([]float64, len(f.Coords))
	copy(c.Coords, f.Coords)
	return &c
}

// Loader reads frames on demand from the file an Index was built from.
// It holds no cursor, so concurrent reads are safe.
type Loader struct {
	src   io.ReaderAt
	size  int64
	index *Index
}

// NewLoader binds an Index to the bytes it describes. size is the length of
// src in bytes.
func NewLoader(src io.ReaderAt, size int64, idx *Index) *Loader {
	return &Loader{src: src, size: size, index: idx}
}

// Load reads retained frame i.
func (l *Loader) Load(i int) (*Frame, error) {
	if i < 0 || i >= l.index.NumFrames() {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", i, l.index.NumFrames())
	}
	f, err := l.ReadFrameAt(l.index.Offsets[i], l.index.Timesteps[i])
	if err != nil {
		return nil, err
	}
	f.Position = i
	return f, nil
}

// ReadFrameAt parses the frame whose timestep line starts at offset. The
// timestep found there must equal timestep. Rows are placed by atom id, so
// their order inside the frame does not matter.
func (l *Loader) ReadFrameAt(offset, timestep int64) (*Frame, error) {
	wrap := func(err error) error {
		return &FrameError{Timestep: timestep, Offset: offset, Wrapped: err}
	}
	if offset < 0 || offset >= l.size {
		return nil, wrap(consistencyErrorf("offset beyond end of file (%d bytes)", l.size))
	}

	lr := newLineReader(io.NewSectionReader(l.src, offset, l.size-offset), offset)

	line, err := lr.next()
	if err != nil {
		return nil, wrap(consistencyErrorf("no timestep line: %v", err))
	}
	got, err := parseInt(line)
	if err != nil {
		return nil, wrap(consistencyErrorf("timestep line %q: %v", line, err))
	}
	if got != timestep {
		return nil, wrap(consistencyErrorf("found timestep %d", got))
	}

	for {
		line, err = lr.next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, wrap(consistencyErrorf("atom table not found"))
			}
			return nil, wrap(fmt.Errorf("%w: %v", ErrIO, err))
		}
		marker, ok := item(line)
		if !ok {
			continue
		}
		if marker == "TIMESTEP" {
			return nil, wrap(consistencyErrorf("atom table not found"))
		}
		if strings.HasPrefix(marker, "ATOMS") {
			break
		}
	}

	idx := l.index
	c := idx.Columns
	f := NewFrame(idx, -1, timestep)
	seen := make([]bool, idx.NumAtoms)
	placed := 0

	for placed < idx.NumAtoms {
		line, err = lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrap(fmt.Errorf("%w: %v", ErrIO, err))
		}
		if _, ok := item(line); ok {
			break
		}
		fields := bytes.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < c.Count {
			return nil, wrap(parseErrorf("atom row %q has %d columns, expected %d", line, len(fields), c.Count))
		}

		id, err := parseInt(fields[c.ID])
		if err != nil {
			return nil, wrap(parseErrorf("atom id %q: %v", fields[c.ID], err))
		}
		row, ok := idx.rows[id]
		if !ok {
			return nil, wrap(consistencyErrorf("atom id %d not in index", id))
		}
		if seen[row] {
			return nil, wrap(consistencyErrorf("atom id %d repeated", id))
		}

		for k, col := range [3]int{c.X, c.Y, c.Z} {
			v, err := strconv.ParseFloat(string(fields[col]), 64)
			if err != nil {
				return nil, wrap(parseErrorf("coordinate %q of atom %d: %v", fields[col], id, err))
			}
			f.Coords[3*row+k] = v
		}
		seen[row] = true
		placed++
	}

	if placed != idx.NumAtoms {
		return nil, wrap(consistencyErrorf("expected %d atom rows, found %d", idx.NumAtoms, placed))
	}

	// The table ends at the next marker or at end of file.
	for {
		line, err = lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrap(fmt.Errorf("%w: %v", ErrIO, err))
		}
		if _, ok := item(line); ok {
			break
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return nil, wrap(consistencyErrorf("more than %d atom rows", idx.NumAtoms))
		}
	}
	return f, nil
}

// LoadAll reads every retained frame with up to workers concurrent reads.
// workers <= 0 means GOMAXPROCS.
func (l *Loader) LoadAll(ctx context.Context, workers int) ([]*Frame, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	frames := make([]*Frame, l.index.NumFrames())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range frames {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := l.Load(i)
			if err != nil {
				return fmt.Errorf("load frame %d: %w", i, err)
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}
