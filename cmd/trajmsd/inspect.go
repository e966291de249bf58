package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/trajmsd/internal/trajectory"
	"github.com/spf13/cobra"
)

func openIndexed(path string) (*trajectory.Index, error) {
	tr, err := trajectory.Open(path, trajectory.WithEquilibration(tEq))
	if err != nil {
		return nil, err
	}
	defer tr.Close()
	return tr.Index, nil
}

func distinct(values []int64) int {
	seen := make(map[int64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func runInfo(cmd *cobra.Command, args []string) error {
	idx, err := openIndexed(args[0])
	if err != nil {
		return err
	}

	b := idx.Box
	fmt.Println(panel(args[0], []field{
		{"atoms", idx.NumAtoms},
		{"frames", idx.NumFrames()},
		{"delta", idx.DeltaTimestep},
		{"timesteps", fmt.Sprintf("%d .. %d", idx.FirstTimestep(), idx.LastTimestep())},
		{"box x", fmt.Sprintf("%g .. %g", b[0], b[1])},
		{"box y", fmt.Sprintf("%g .. %g", b[2], b[3])},
		{"box z", fmt.Sprintf("%g .. %g", b[4], b[5])},
		{"molecules", distinct(idx.MoleculeIDs)},
		{"atom types", distinct(idx.AtomTypes)},
	}))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	idx, err := openIndexed(args[0])
	if err != nil {
		return err
	}

	mismatches := idx.CheckTimesteps()
	if len(mismatches) == 0 {
		fmt.Printf("all %d frames are %d timesteps apart\n", idx.NumFrames(), idx.DeltaTimestep)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tPREVIOUS\tCURRENT\tDELTA\tDELTA_INDEX")
	for _, m := range mismatches {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\n", m.Frame, m.Previous, m.Current, m.Delta, m.DeltaIndex())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(warnStyle.Render(fmt.Sprintf("%d irregular gaps; lags use delta %d", len(mismatches), idx.DeltaTimestep)))
	return nil
}
