package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/trajmsd/internal/logging"
	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// analyze
	configFile string
	tEq        int64
	atomIDs    []int64
	molIDs     []int64
	atomTypes  []int64
	mode       string
	workers    int
	outDir     string
	comRemoved string
	comTime    string
	save       bool

	// plot
	logScale bool
	svgOut   string
)

func newLogger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{Level: level, Format: format}), nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "trajmsd",
		Short:         "mean squared displacement analysis of LAMMPS dump trajectories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".trajmsd", "run store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [trajectory]",
		Short: "compute g1, g2, g3 and the CoM table",
		Long: `Compute the bead-averaged MSD before (g1) and after (g2) removing the
centre of mass, the MSD of the centre of mass itself (g3), and the CoM table.

The first column of the CoM table is each frame's timestep by default.
With --com-time lag it is the frame position times the timestep spacing,
counted from the first retained frame, which is the time axis of the g3
table. The recenter command always writes frame timesteps.

A config file must set T_EQ unless --teq is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&configFile, "config", "", "config file (.toml or .yaml)")
	analyzeCmd.Flags().Int64Var(&tEq, "teq", 0, "equilibration timestep; earlier frames are skipped")
	analyzeCmd.Flags().Int64SliceVar(&atomIDs, "atoms", nil, "atom ids to track")
	analyzeCmd.Flags().Int64SliceVar(&molIDs, "mols", nil, "molecule ids whose atoms are tracked")
	analyzeCmd.Flags().Int64SliceVar(&atomTypes, "types", nil, "atom types to track")
	analyzeCmd.Flags().StringVar(&mode, "mode", "concat", "how selections combine: concat or union")
	analyzeCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	analyzeCmd.Flags().StringVar(&outDir, "out-dir", "", "directory for relative output paths")
	analyzeCmd.Flags().StringVar(&comRemoved, "com-removed", "", "also write the CoM-removed trajectory here")
	analyzeCmd.Flags().StringVar(&comTime, "com-time", "timestep", "CoM table time column: timestep or lag")
	analyzeCmd.Flags().BoolVar(&save, "save", false, "record the run in the run store")

	infoCmd := &cobra.Command{
		Use:   "info [trajectory]",
		Short: "summarize a trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	infoCmd.Flags().Int64Var(&tEq, "teq", 0, "equilibration timestep")

	checkCmd := &cobra.Command{
		Use:   "check [trajectory]",
		Short: "report irregular timestep spacing",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	checkCmd.Flags().Int64Var(&tEq, "teq", 0, "equilibration timestep")

	recenterCmd := &cobra.Command{
		Use:   "recenter [trajectory] [com-out] [traj-out]",
		Short: "write the CoM table and the CoM-removed trajectory",
		Args:  cobra.ExactArgs(3),
		RunE:  runRecenter,
	}
	recenterCmd.Flags().Int64Var(&tEq, "teq", 0, "equilibration timestep")
	recenterCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the curves of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&logScale, "log", false, "log-log axes")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plot as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(analyzeCmd, infoCmd, checkCmd, recenterCmd, listCmd, plotCmd, exportCmd)
	return rootCmd
}

// main runs the trajmsd CLI and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}
