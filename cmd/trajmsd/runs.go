package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/trajmsd/internal/export"
	"github.com/san-kum/trajmsd/internal/storage"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tTIME\tFRAMES\tDELTA\tBEADS\tMODE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Input,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Delta,
			run.Beads,
			run.Mode,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	curves, err := st.LoadCurves(runID)
	if err != nil {
		return err
	}

	if curves.Len() < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("input: %s\n", meta.Input)
	fmt.Printf("lags: %d (delta %d)\n\n", curves.Len(), meta.Delta)

	series := export.CurveSeries(curves, logScale)
	for _, s := range series {
		if len(s.Y) < 2 {
			continue
		}
		caption := s.Name + " vs lag"
		if logScale {
			caption = "log10 " + s.Name + " vs log10 lag"
		}
		graph := asciigraph.Plot(s.Y,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgOut != "" {
		svg := export.SeriesToSVG(series, 800, 500)
		if svg == "" {
			return fmt.Errorf("no data to plot")
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	curves, err := st.LoadCurves(runID)
	if err != nil {
		return err
	}

	return export.ExportJSONStdout(*meta, curves)
}
