// Package selection resolves which atoms ("beads") an analysis tracks.
package selection

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection indicates that no atom matched any criterion.
	ErrEmptySelection = errors.New("selection: no atoms selected")

	// ErrUnknownAtom indicates a selected id that the trajectory does not contain.
	ErrUnknownAtom = errors.New("selection: atom id not in trajectory")
)

// Topology exposes the static per-atom columns of a trajectory.
type Topology interface {
	Len() int
	AtomID(i int) int64
	MoleculeID(i int) int64
	AtomType(i int) int64
}

// Selection is an ordered list of atom ids.
type Selection struct {
	IDs []int64
}

func (s Selection) Len() int { return len(s.IDs) }

// Mode decides how selections from several criteria are combined.
type Mode string

const (
	// Concat appends every selection, keeping atoms matched more than once.
	Concat Mode = "concat"
	// Union keeps the first occurrence of every atom id.
	Union Mode = "union"
)

// ParseMode accepts "concat", "union" or "" (concat).
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Concat:
		return Concat, nil
	case Union:
		return Union, nil
	default:
		return "", fmt.Errorf("selection: unknown mode %q", s)
	}
}

// ByAtomIDs returns ids unchanged.
func ByAtomIDs(ids []int64) Selection {
	out := make([]int64, len(ids))
	copy(out, ids)
	return Selection{IDs: out}
}

// ByMolecules returns every atom whose molecule id is in mols, in topology order.
func ByMolecules(topo Topology, mols []int64) Selection {
	return scan(topo, mols, topo.MoleculeID)
}

// ByTypes returns every atom whose type is in types, in topology order.
func ByTypes(topo Topology, types []int64) Selection {
	return scan(topo, types, topo.AtomType)
}

func scan(topo Topology, values []int64, column func(int) int64) Selection {
	if len(values) == 0 {
		return Selection{}
	}
	want := make(map[int64]struct{}, len(values))
	for _, v := range values {
		want[v] = struct{}{}
	}
	var ids []int64
	for i := 0; i < topo.Len(); i++ {
		if _, ok := want[column(i)]; ok {
			ids = append(ids, topo.AtomID(i))
		}
	}
	return Selection{IDs: ids}
}

// Combine joins selections in argument order.
func Combine(mode Mode, sels ...Selection) Selection {
	n := 0
	for _, s := range sels {
		n += s.Len()
	}
	ids := make([]int64, 0, n)

	switch mode {
	case Union:
		seen := make(map[int64]struct{}, n)
		for _, s := range sels {
			for _, id := range s.IDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	default:
		for _, s := range sels {
			ids = append(ids, s.IDs...)
		}
	}
	return Selection{IDs: ids}
}

// Criteria lists the ids, molecules and types to select.
type Criteria struct {
	AtomIDs     []int64
	MoleculeIDs []int64
	AtomTypes   []int64
	Mode        Mode
}

// Report holds the per-criterion match counts of a Resolve call.
type Report struct {
	ByAtomID   int
	ByMolecule int
	ByType     int
}

// Resolve applies every criterion and combines the results. It fails with
// ErrEmptySelection when nothing matched.
func Resolve(topo Topology, c Criteria) (Selection, Report, error) {
	byID := ByAtomIDs(c.AtomIDs)
	byMol := ByMolecules(topo, c.MoleculeIDs)
	byType := ByTypes(topo, c.AtomTypes)

	rep := Report{ByAtomID: byID.Len(), ByMolecule: byMol.Len(), ByType: byType.Len()}
	sel := Combine(c.Mode, byID, byMol, byType)
	if sel.Len() == 0 {
		return Selection{}, rep, ErrEmptySelection
	}
	return sel, rep, nil
}

// RowLookup maps an atom id to its storage row.
type RowLookup interface {
	Row(atomID int64) (int, bool)
}

// Rows translates the selected ids into storage rows, in selection order.
func (s Selection) Rows(lookup RowLookup) ([]int, error) {
	rows := make([]int, len(s.IDs))
	for i, id := range s.IDs {
		row, ok := lookup.Row(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownAtom, id)
		}
		rows[i] = row
	}
	return rows, nil
}
