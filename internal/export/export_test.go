package export

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/trajmsd/internal/analysis"
	"github.com/san-kum/trajmsd/internal/storage"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestWriteMSDTable(t *testing.T) {
	m := &analysis.MSD{Delta: 10, Values: []float64{0, 1, 4}, Hits: []int64{0, 2, 1}}

	var buf bytes.Buffer
	if err := WriteMSDTable(&buf, "g1", m); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "# TIMESTEP ave_g1\n" +
		"         0     0.000000\n" +
		"        10     1.000000\n" +
		"        20     4.000000\n"
	if buf.String() != want {
		t.Errorf("unexpected table:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestWriteCoMTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCoMTable(&buf, []int64{100, 250}, []r3.Vec{{X: 1}, {X: -1, Y: 0.5, Z: 2}})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "# TIMESTEP x y z" {
		t.Fatalf("unexpected table %q", buf.String())
	}
	if lines[2] != "       250    -1.000000     0.500000     2.000000" {
		t.Errorf("unexpected row %q", lines[2])
	}

	if err := WriteCoMTable(&buf, []int64{1}, nil); err == nil {
		t.Error("expected length error")
	}
}

func TestReadTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCoMTable(&buf, []int64{0, 5}, []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}); err != nil {
		t.Fatal(err)
	}
	tab, err := ReadTable(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if tab.Header != "TIMESTEP x y z" || len(tab.Columns) != 3 {
		t.Fatalf("unexpected table %+v", tab)
	}
	if tab.Timesteps[1] != 5 || tab.Columns[2][1] != 6 {
		t.Errorf("unexpected values %+v", tab)
	}

	if _, err := ReadTable(strings.NewReader("# x\n0 1\n1 2 3\n")); err == nil {
		t.Error("expected error on ragged rows")
	}
	if _, err := ReadTable(strings.NewReader("zero 1\n")); err == nil {
		t.Error("expected error on bad timestep")
	}
}

func testCurves() *storage.Curves {
	return &storage.Curves{
		Timesteps: []int64{0, 10, 20, 30},
		G1:        []float64{0, 1, 4, 0},
		G2:        []float64{0, 0.5, 2, 0},
		G3:        []float64{0, 0.25, 1, 0},
		Hits:      []int64{0, 3, 2, 0},
	}
}

func TestEncodeJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := storage.RunMetadata{ID: "abc", Input: "traj.lammpstrj", Beads: 4}
	if err := EncodeJSON(&buf, meta, testCurves()); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Run.ID != "abc" || got.Run.Beads != 4 {
		t.Errorf("unexpected run %+v", got.Run)
	}
	if len(got.Curves) != 4 || got.Curves[2] != (CurvePoint{Timestep: 20, G1: 4, G2: 2, G3: 1, Hits: 2}) {
		t.Errorf("unexpected curves %+v", got.Curves)
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, storage.RunMetadata{ID: "x"}, testCurves()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if err := ExportJSON(filepath.Join(t.TempDir(), "missing", "run.json"), storage.RunMetadata{}, testCurves()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestCurveSeries(t *testing.T) {
	lin := CurveSeries(testCurves(), false)
	if len(lin) != 3 || len(lin[0].X) != 3 {
		t.Fatalf("expected 3 points per series (empty lag dropped), got %+v", lin)
	}

	logs := CurveSeries(testCurves(), true)
	if len(logs[0].X) != 2 || math.Abs(logs[0].Y[1]-math.Log10(4)) > 1e-15 {
		t.Errorf("unexpected log series %+v", logs[0])
	}
}

func TestSeriesToSVG(t *testing.T) {
	svg := SeriesToSVG(CurveSeries(testCurves(), false), 400, 300)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	if strings.Count(svg, "<path") != 3 {
		t.Errorf("expected 3 paths, got %d", strings.Count(svg, "<path"))
	}

	if SeriesToSVG([]Series{{X: []float64{1}, Y: []float64{1}}}, 10, 10) != "" {
		t.Error("a single point should draw nothing")
	}
}
