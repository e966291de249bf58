package trajectory

import (
	"fmt"
	"strings"
)

type testFrame struct {
	timestep int64
	declared int
	rows     []string
}

func dump(frames ...testFrame) string {
	var sb strings.Builder
	for _, f := range frames {
		fmt.Fprintf(&sb, "ITEM: TIMESTEP\n%d\n", f.timestep)
		fmt.Fprintf(&sb, "ITEM: NUMBER OF ATOMS\n%d\n", f.declared)
		sb.WriteString("ITEM: BOX BOUNDS pp pp pp\n-5.0 5.0\n-6.0 6.0\n-7.0 7.0\n")
		sb.WriteString("ITEM: ATOMS id mol type xu yu zu\n")
		for _, r := range f.rows {
			sb.WriteString(r)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// twoAtoms is atom 1 at rest and atom 2 moving one unit along x per frame.
func twoAtoms(timesteps ...int64) string {
	frames := make([]testFrame, len(timesteps))
	for i, ts := range timesteps {
		frames[i] = testFrame{
			timestep: ts,
			declared: 2,
			rows: []string{
				"1 1 1 0.0 0.0 0.0",
				fmt.Sprintf("2 1 2 %d.0 0.0 0.0", i),
			},
		}
	}
	return dump(frames...)
}
