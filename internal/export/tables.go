package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/trajmsd/internal/analysis"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteMSDTable writes one row per lag slot under "# TIMESTEP ave_<name>".
func WriteMSDTable(w io.Writer, name string, m *analysis.MSD) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# TIMESTEP ave_%s\n", name)
	for lag, v := range m.Values {
		fmt.Fprintf(bw, "%10d %12.6f\n", m.Timestep(lag), v)
	}
	return bw.Flush()
}

// WriteCoMTable writes one centre per frame, keyed by the frame's timestep.
func WriteCoMTable(w io.Writer, timesteps []int64, series []r3.Vec) error {
	if len(timesteps) != len(series) {
		return fmt.Errorf("export: %d timesteps for %d centres", len(timesteps), len(series))
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# TIMESTEP x y z")
	for i, c := range series {
		fmt.Fprintf(bw, "%10d %12.6f %12.6f %12.6f\n", timesteps[i], c.X, c.Y, c.Z)
	}
	return bw.Flush()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Table is a parsed whitespace-separated table with a leading integer column.
type Table struct {
	Header    string
	Timesteps []int64
	Columns   [][]float64
}

// ReadTable parses a table written by WriteMSDTable or WriteCoMTable.
// Lines starting with '#' other than the first are skipped.
func ReadTable(r io.Reader) (*Table, error) {
	t := &Table{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if t.Header == "" {
				t.Header = strings.TrimSpace(strings.TrimPrefix(text, "#"))
			}
			continue
		}
		fields := strings.Fields(text)
		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("export: line %d: %w", line, err)
		}
		if t.Columns == nil {
			t.Columns = make([][]float64, len(fields)-1)
		}
		if len(fields)-1 != len(t.Columns) {
			return nil, fmt.Errorf("export: line %d: expected %d values, got %d", line, len(t.Columns), len(fields)-1)
		}
		for k, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("export: line %d: %w", line, err)
			}
			t.Columns[k] = append(t.Columns[k], v)
		}
		t.Timesteps = append(t.Timesteps, ts)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
