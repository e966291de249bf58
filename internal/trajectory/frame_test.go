package trajectory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func loaderFor(t *testing.T, src string) (*Index, *Loader) {
	t.Helper()
	idx, err := BuildIndex(strings.NewReader(src))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	r := strings.NewReader(src)
	return idx, NewLoader(r, r.Size(), idx)
}

func TestLoaderLoad(t *testing.T) {
	_, l := loaderFor(t, twoAtoms(0, 10, 20))

	for i := 0; i < 3; i++ {
		f, err := l.Load(i)
		if err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
		if f.Timestep != int64(10*i) || f.Position != i {
			t.Errorf("frame %d: timestep=%d position=%d", i, f.Timestep, f.Position)
		}
		if len(f.Coords) != 6 {
			t.Fatalf("expected 6 coordinates, got %d", len(f.Coords))
		}
		if got := f.Atom(1).X; got != float64(i) {
			t.Errorf("frame %d: atom 2 x=%f", i, got)
		}
		if f.Atom(0) != (r3.Vec{}) {
			t.Errorf("frame %d: atom 1 should be at the origin", i)
		}
	}

	if _, err := l.Load(3); err == nil {
		t.Error("expected out-of-range error")
	}
}

func TestLoaderTimestepMismatch(t *testing.T) {
	idx, l := loaderFor(t, twoAtoms(0, 10, 20))

	_, err := l.ReadFrameAt(idx.Offsets[1], 999)
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected consistency error, got %v", err)
	}
	var fe *FrameError
	if !errors.As(err, &fe) || fe.Timestep != 999 || fe.Offset != idx.Offsets[1] {
		t.Errorf("expected FrameError with context, got %v", err)
	}

	if _, err := l.ReadFrameAt(1<<40, 0); !errors.Is(err, ErrConsistency) {
		t.Errorf("expected consistency error past EOF, got %v", err)
	}
}

// loaderOver indexes one dump and serves another of the same length, so the
// loader sees a file that diverged after indexing.
func loaderOver(t *testing.T, indexed, served string) *Loader {
	t.Helper()
	if len(indexed) != len(served) {
		t.Fatalf("dumps differ in length: %d and %d", len(indexed), len(served))
	}
	idx, err := BuildIndex(strings.NewReader(indexed))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	r := strings.NewReader(served)
	return NewLoader(r, r.Size(), idx)
}

func TestLoaderDivergedFile(t *testing.T) {
	const header = "ITEM: ATOMS id mol type xu yu zu"
	blank := strings.Repeat(" ", len("2 1 1 1 0 0"))
	full := testFrame{timestep: 1, declared: 2, rows: []string{"1 1 1 0 0 0", "2 1 1 1 0 0"}}
	edge := func(ts int64) string {
		return dump(testFrame{timestep: ts, declared: 2, rows: []string{"1 1 1 0 0 0", "2 1 1 5 0 0"}})
	}

	tests := []struct {
		name            string
		indexed, served string
	}{
		{
			name:    "missing atom table",
			indexed: dump(full),
			served:  strings.Replace(dump(full), header, fmt.Sprintf("%-*s", len(header), "ITEM: UNITS lj"), 1),
		},
		{
			name:    "short atom table",
			indexed: dump(full),
			served:  dump(testFrame{timestep: 1, declared: 2, rows: []string{"1 1 1 0 0 0", blank}}),
		},
		{
			name:    "extra atom row",
			indexed: dump(testFrame{timestep: 1, declared: 2, rows: append(full.rows, blank)}),
			served:  dump(testFrame{timestep: 1, declared: 2, rows: append(full.rows, "3 1 1 2 0 0")}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := loaderOver(t, edge(0)+tt.indexed+edge(2), edge(0)+tt.served+edge(2))

			f, err := l.Load(1)
			if !errors.Is(err, ErrConsistency) {
				t.Fatalf("expected consistency error, got frame %v err %v", f, err)
			}
			var fe *FrameError
			if !errors.As(err, &fe) || fe.Timestep != 1 {
				t.Errorf("expected FrameError for timestep 1, got %v", err)
			}
			if _, err := l.LoadAll(context.Background(), 2); !errors.Is(err, ErrConsistency) {
				t.Errorf("LoadAll should surface the frame error, got %v", err)
			}
			if _, err := l.Load(2); err != nil {
				t.Errorf("neighbouring frame should still load: %v", err)
			}
		})
	}
}

func TestLoaderUnknownAndRepeatedAtoms(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"unknown id", []string{"1 1 1 0 0 0", "7 1 1 0 0 0"}},
		{"repeated id", []string{"1 1 1 0 0 0", "1 1 1 0 0 0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := dump(
				testFrame{timestep: 0, declared: 2, rows: []string{"1 1 1 0 0 0", "2 1 1 0 0 0"}},
				testFrame{timestep: 1, declared: 2, rows: tt.rows},
			)
			_, l := loaderFor(t, src)
			if _, err := l.Load(1); !errors.Is(err, ErrConsistency) {
				t.Errorf("expected consistency error, got %v", err)
			}
		})
	}
}

func TestLoaderUnsortedRows(t *testing.T) {
	src := dump(
		testFrame{timestep: 0, declared: 3, rows: []string{"1 1 1 1 1 1", "2 1 1 2 2 2", "3 1 1 3 3 3"}},
		testFrame{timestep: 1, declared: 3, rows: []string{"3 1 1 30 0 0", "1 1 1 10 0 0", "2 1 1 20 0 0"}},
	)
	_, l := loaderFor(t, src)

	f, err := l.Load(1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for i, want := range []float64{10, 20, 30} {
		if got := f.Atom(i).X; got != want {
			t.Errorf("row %d: expected x=%f, got %f", i, want, got)
		}
	}
}

func TestLoaderMalformedCoordinate(t *testing.T) {
	src := dump(
		testFrame{timestep: 0, declared: 1, rows: []string{"1 1 1 0 0 0"}},
		testFrame{timestep: 1, declared: 1, rows: []string{"1 1 1 abc 0 0"}},
	)
	_, l := loaderFor(t, src)
	if _, err := l.Load(1); !errors.Is(err, ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadAll(t *testing.T) {
	timesteps := make([]int64, 50)
	for i := range timesteps {
		timesteps[i] = int64(100 * i)
	}
	_, l := loaderFor(t, twoAtoms(timesteps...))

	for _, workers := range []int{0, 1, 7} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			frames, err := l.LoadAll(context.Background(), workers)
			if err != nil {
				t.Fatalf("load all failed: %v", err)
			}
			if len(frames) != 50 {
				t.Fatalf("expected 50 frames, got %d", len(frames))
			}
			for i, f := range frames {
				if f.Position != i || f.Timestep != timesteps[i] {
					t.Errorf("frame %d out of place: %d/%d", i, f.Position, f.Timestep)
				}
				if math.Abs(f.Atom(1).X-float64(i)) > 1e-12 {
					t.Errorf("frame %d: atom 2 x=%f", i, f.Atom(1).X)
				}
			}
		})
	}
}

func TestLoadAllCanceled(t *testing.T) {
	_, l := loaderFor(t, twoAtoms(0, 10, 20))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.LoadAll(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFrameClone(t *testing.T) {
	_, l := loaderFor(t, twoAtoms(0, 10))
	f, err := l.Load(1)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	c := f.Clone()
	c.Coords[3] = 42
	if f.Coords[3] == 42 {
		t.Error("clone shares its coordinate buffer")
	}
	if c.Index() != f.Index() {
		t.Error("clone should share the index")
	}
}
