package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/trajmsd/internal/storage"
)

type CurvePoint struct {
	Timestep int64   `json:"timestep"`
	G1       float64 `json:"g1"`
	G2       float64 `json:"g2"`
	G3       float64 `json:"g3"`
	Hits     int64   `json:"hits"`
}

type ExportData struct {
	Run    storage.RunMetadata `json:"run"`
	Curves []CurvePoint        `json:"curves"`
}

func newExportData(meta storage.RunMetadata, c *storage.Curves) ExportData {
	data := ExportData{Run: meta, Curves: make([]CurvePoint, c.Len())}
	for i := range data.Curves {
		data.Curves[i] = CurvePoint{
			Timestep: c.Timesteps[i],
			G1:       c.G1[i],
			G2:       c.G2[i],
			G3:       c.G3[i],
			Hits:     c.Hits[i],
		}
	}
	return data
}

// EncodeJSON writes a stored run as indented JSON.
func EncodeJSON(w io.Writer, meta storage.RunMetadata, c *storage.Curves) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, c))
}

func ExportJSON(path string, meta storage.RunMetadata, c *storage.Curves) error {
	return WriteFile(path, func(w io.Writer) error {
		return EncodeJSON(w, meta, c)
	})
}

func ExportJSONStdout(meta storage.RunMetadata, c *storage.Curves) error {
	return EncodeJSON(os.Stdout, meta, c)
}
