package trajectory

import "strings"

// Columns holds the position of every field the analysis needs inside an
// atom table row.
type Columns struct {
	ID    int
	Mol   int
	Type  int
	X     int
	Y     int
	Z     int
	Count int
}

// DefaultColumns is the layout written by Writer.
var DefaultColumns = Columns{ID: 0, Mol: 1, Type: 2, X: 3, Y: 4, Z: 5, Count: 6}

// atomsHeader is the marker matching DefaultColumns.
const atomsHeader = "ITEM: ATOMS id mol type xu yu zu"

// parseColumns maps the names of an "ATOMS ..." marker onto column indices.
// Unwrapped coordinates (xu yu zu) win over plain ones (x y z).
func parseColumns(marker string) (Columns, error) {
	fields := strings.Fields(marker)
	if len(fields) < 2 || fields[0] != "ATOMS" {
		return Columns{}, parseErrorf("atom table marker %q has no column names", marker)
	}
	names := fields[1:]

	c := Columns{ID: -1, Mol: -1, Type: -1, X: -1, Y: -1, Z: -1, Count: len(names)}
	plain := [3]int{-1, -1, -1}
	for k, name := range names {
		switch name {
		case "id":
			c.ID = k
		case "mol":
			c.Mol = k
		case "type":
			c.Type = k
		case "xu":
			c.X = k
		case "yu":
			c.Y = k
		case "zu":
			c.Z = k
		case "x":
			plain[0] = k
		case "y":
			plain[1] = k
		case "z":
			plain[2] = k
		}
	}
	if c.X < 0 {
		c.X = plain[0]
	}
	if c.Y < 0 {
		c.Y = plain[1]
	}
	if c.Z < 0 {
		c.Z = plain[2]
	}

	for name, col := range map[string]int{"id": c.ID, "mol": c.Mol, "type": c.Type, "xu": c.X, "yu": c.Y, "zu": c.Z} {
		if col < 0 {
			return Columns{}, parseErrorf("atom table marker %q lacks column %q", marker, name)
		}
	}
	return c, nil
}
