package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/kreespyn/flatdata/internal/pipeline"
)

// PipelineOptions holds flags for the pipeline command.
type PipelineOptions struct {
	*RootOptions
}

// NewPipelineCommand creates the pipeline command.
func NewPipelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PipelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the full ingestion pipeline",
		Long: `Run one pipeline pass: bootstrap sample customer mappings, read the
five CSV sources, normalize and merge them, and rebuild the flattened_data
record set with its full-text index.

Example:
  flatdata pipeline
  flatdata pipeline --config ./flatdata.cue --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, cmd)
		},
	}

	return cmd
}

func runPipeline(opts *PipelineOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	summary, err := pipeline.Run(cmd.Context(), cfg, backend)
	if err != nil {
		if pipeline.IsRunLocked(err) {
			return WrapExitError(ExitFailure, "another pipeline run is in progress", err)
		}
		return WrapExitError(ExitFailure, "pipeline run failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"Pipeline complete: %d contacts, %d places, %d tags, %d+%d mappings -> %d flattened rows (%s)\n",
		summary.Contacts, summary.Places, summary.Tags,
		summary.SFDC, summary.HubSpot, summary.Flattened,
		summary.Elapsed.Round(time.Millisecond))
	return nil
}
