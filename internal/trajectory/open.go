package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Trajectory is an indexed dump file ready for random-access frame reads.
type Trajectory struct {
	Index  *Index
	Loader *Loader

	path  string
	file  *os.File
	spool string
}

// Open indexes the dump at path. Gzip and zstd inputs (by extension) are
// inflated into a temporary spool file first, since frame reads need to
// seek; the spool is removed by Close.
func Open(path string, opts ...IndexOption) (*Trajectory, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	codec := CompressionFor(path)
	if codec == CompressionNone {
		idx, err := BuildIndex(src, opts...)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("index %s: %w", path, err)
		}
		info, err := src.Stat()
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		return &Trajectory{
			Index:  idx,
			Loader: NewLoader(src, info.Size(), idx),
			path:   path,
			file:   src,
		}, nil
	}
	defer src.Close()

	zr, err := decompress(bufio.NewReader(src), codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, path, err)
	}
	defer zr.Close()

	spool, err := os.CreateTemp("", "trajmsd-*.lammpstrj")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	t := &Trajectory{path: path, file: spool, spool: spool.Name()}

	// The index is built from the same bytes that land in the spool, so
	// offsets refer to spool positions.
	w := bufio.NewWriter(spool)
	idx, err := BuildIndex(io.TeeReader(zr, w), opts...)
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("index %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	info, err := spool.Stat()
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	t.Index = idx
	t.Loader = NewLoader(spool, info.Size(), idx)
	return t, nil
}

// Path returns the file the trajectory was opened from.
func (t *Trajectory) Path() string {
	return t.path
}

// Close releases the file handle and removes any spool file.
func (t *Trajectory) Close() error {
	var err error
	if t.file != nil {
		err = t.file.Close()
		t.file = nil
	}
	if t.spool != "" {
		if rmErr := os.Remove(t.spool); rmErr != nil && err == nil {
			err = rmErr
		}
		t.spool = ""
	}
	return err
}
