package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Writer serializes frames in the dump format read by BuildIndex.
type Writer struct {
	bw    *bufio.Writer
	codec io.WriteCloser
	file  *os.File
}

// NewWriter writes uncompressed frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Create opens path for writing, compressing when the extension asks for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	codec, err := compress(f, CompressionFor(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &Writer{bw: bufio.NewWriter(codec), codec: codec, file: f}, nil
}

// WriteFrame appends one frame with the static columns and box of its Index.
func (w *Writer) WriteFrame(f *Frame) error {
	idx := f.index
	b := idx.Box

	fmt.Fprintf(w.bw, "ITEM: TIMESTEP\n%d\n", f.Timestep)
	fmt.Fprintf(w.bw, "ITEM: NUMBER OF ATOMS\n%d\n", idx.NumAtoms)
	fmt.Fprintf(w.bw, "ITEM: BOX BOUNDS pp pp pp\n")
	for k := 0; k < 3; k++ {
		fmt.Fprintf(w.bw, "%.16e %.16e\n", b[2*k], b[2*k+1])
	}
	fmt.Fprintln(w.bw, atomsHeader)
	for i := 0; i < idx.NumAtoms; i++ {
		_, err := fmt.Fprintf(w.bw, "%10d %6d %3d %12.6f %12.6f %12.6f\n",
			idx.AtomIDs[i], idx.MoleculeIDs[i], idx.AtomTypes[i],
			f.Coords[3*i], f.Coords[3*i+1], f.Coords[3*i+2])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	return nil
}

// WriteFrames writes frames in order.
func (w *Writer) WriteFrames(frames []*Frame) error {
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			return fmt.Errorf("write timestep %d: %w", f.Timestep, err)
		}
	}
	return nil
}

// Flush pushes buffered text to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Close flushes and, for writers made by Create, closes the codec and file.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.codec != nil {
		if cErr := w.codec.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrIO, cErr)
		}
	}
	if w.file != nil {
		if fErr := w.file.Close(); fErr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrIO, fErr)
		}
	}
	return err
}
