package commands

import (
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/zerr"
)

const maxOptLevel = 3

var outputModes = []string{"auto", "tui", "linear"}

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [entries...]",
		Short: "Compile and link the project",
		Long: "Compile every module reachable from the entry modules, reusing cached\n" +
			"artifacts whose inputs are unchanged, and link the result.\n" +
			"Without arguments the entries from kiln.yaml are built.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(cmd, args)
			if err != nil {
				return err
			}
			_, err = c.app.Build(cmd.Context(), opts)
			return err
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [entries...]",
		Short: "Rebuild the project whenever a source file changes",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(cmd, args)
			if err != nil {
				return err
			}
			return c.app.Watch(cmd.Context(), opts)
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "Number of parallel compilations (0 means one per CPU)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the artifact cache and recompile everything")
	cmd.Flags().IntP("opt-level", "O", 0, "Optimization level (0-3)")
	cmd.Flags().String("target", "", "Target triple passed to the frontend and linker")
	cmd.Flags().StringP("output", "o", "", "Path of the linked binary")
	cmd.Flags().String("output-mode", "auto", "Output mode: auto, tui, or linear")
	cmd.Flags().Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	cmd.Flags().String("metrics-file", "", "Write build metrics in Prometheus text format to this file")
	cmd.Flags().String("trace-file", "", "Write build spans as JSON to this file")
}

func buildOptions(cmd *cobra.Command, args []string) (app.BuildOptions, error) {
	flags := cmd.Flags()
	noCache, _ := flags.GetBool("no-cache")
	target, _ := flags.GetString("target")
	output, _ := flags.GetString("output")
	outputMode, _ := flags.GetString("output-mode")
	ci, _ := flags.GetBool("ci")
	metricsFile, _ := flags.GetString("metrics-file")
	traceFile, _ := flags.GetString("trace-file")

	if !slices.Contains(outputModes, outputMode) {
		return app.BuildOptions{}, zerr.With(zerr.New("unknown output mode"), "mode", outputMode)
	}
	// If --ci is set, override output-mode to "linear"
	if ci {
		outputMode = "linear"
	}

	overrides := app.Overrides{Target: target, Output: output}
	if flags.Changed("jobs") {
		jobs, _ := flags.GetInt("jobs")
		if jobs < 0 {
			return app.BuildOptions{}, zerr.With(zerr.New("jobs must not be negative"), "jobs", jobs)
		}
		overrides.Jobs = &jobs
	}
	if flags.Changed("opt-level") {
		level, _ := flags.GetInt("opt-level")
		if level < 0 || level > maxOptLevel {
			return app.BuildOptions{}, zerr.With(zerr.New("optimization level must be between 0 and 3"), "level", level)
		}
		overrides.OptLevel = &level
	}

	return app.BuildOptions{
		Entries:     args,
		Overrides:   overrides,
		NoCache:     noCache,
		OutputMode:  outputMode,
		MetricsFile: metricsFile,
		TraceFile:   traceFile,
	}, nil
}
