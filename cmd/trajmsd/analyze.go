package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/san-kum/trajmsd/internal/config"
	"github.com/san-kum/trajmsd/internal/pipeline"
	"github.com/san-kum/trajmsd/internal/storage"
	"github.com/spf13/cobra"
)

// analysisConfig merges the config file (if any), positional input and flags.
// Flags only override the file when set explicitly.
func analysisConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.InputFile = args[0]
	}
	flags := cmd.Flags()
	// A config file must state T_EQ itself unless --teq overrides it.
	if configFile == "" || flags.Changed("teq") {
		cfg.TEq = config.Int64(tEq)
	}
	if flags.Changed("atoms") {
		cfg.AtomIDs = atomIDs
	}
	if flags.Changed("mols") {
		cfg.MolIDs = molIDs
	}
	if flags.Changed("types") {
		cfg.AtomTypes = atomTypes
	}
	if flags.Changed("mode") {
		cfg.SelectionMode = mode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("com-removed") {
		cfg.CoMRemoved = comRemoved
	}
	if flags.Changed("com-time") {
		cfg.CoMTime = comTime
	}
	if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := analysisConfig(cmd, args)
	if err != nil {
		return err
	}
	opts, err := pipeline.OptionsFromConfig(cfg, outDir)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	opts.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	fields := []field{
		{"input", opts.Input},
		{"atoms", res.Index.NumAtoms},
		{"frames", res.Index.NumFrames()},
		{"delta", res.Index.DeltaTimestep},
		{"beads", res.Selection.Len()},
		{"lag slots", res.G1.Len()},
		{"elapsed", res.Elapsed.Round(time.Millisecond)},
	}
	keys := make([]string, 0, len(res.Outputs))
	for k := range res.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, field{k, res.Outputs[k]})
	}
	fmt.Println(panel("msd analysis", fields))

	if n := len(res.Mismatches); n > 0 {
		fmt.Println(warnStyle.Render(fmt.Sprintf("%d timestep gaps differ from delta; run `trajmsd check` for details", n)))
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(res.Metadata(opts), res.Curves())
		if err != nil {
			return err
		}
		fmt.Printf("saved run %s\n", runID)
	}
	return nil
}

func runRecenter(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Recenter(ctx, args[0], tEq, args[1], args[2], workers, logger)
	if err != nil {
		return err
	}
	fmt.Println(panel("recenter", []field{
		{"input", args[0]},
		{"frames", len(res.CoM)},
		{"com", args[1]},
		{"trajectory", args[2]},
	}))
	return nil
}
