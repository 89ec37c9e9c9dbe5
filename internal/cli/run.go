package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/hidux/internal/harness"
	"github.com/roach88/hidux/internal/store"
	"github.com/roach88/hidux/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run one scenario against a fresh model instance and print every step.

Snapshot history is written to the SQLite database given with --db, or
kept in memory when --db is omitted.

Example:
  hidux run ./scenarios/cart.yaml
  hidux run ./scenarios/cart.yaml --db ./hidux.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional)")
	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	s, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runOpts := harness.Options{Logger: logger}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runOpts.Store = st
	}

	logger.Debug("running scenario", "name", s.Name, "steps", len(s.Steps))
	result, err := harness.RunWithOptions(context.Background(), s, runOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	if opts.Format == "json" {
		if result.Pass {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, "E_SCENARIO_FAILED", result.Errors[0]); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", s.Name))
	}

	writeTrace(formatter.Writer, s.Name, result, logger)
	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", s.Name))
	}
	return nil
}

// writeTrace prints a run as text: one line per step, then the final
// snapshot and the verdict.
func writeTrace(w io.Writer, name string, result *harness.Result, logger *slog.Logger) {
	fmt.Fprintf(w, "Scenario: %s (instance %s)\n", name, result.InstanceID)
	for _, ev := range result.Trace {
		line := fmt.Sprintf("  %d. %s %s", ev.Step, ev.Op, displayPath(ev.Path))
		switch {
		case ev.Error != "":
			line += fmt.Sprintf(" ! %s", ev.Error)
		case ev.Changed:
			line += fmt.Sprintf(" -> seq %d", ev.Seq)
		default:
			line += " (no change)"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "Final (%d transition(s)): %s\n", result.Transitions, canonicalText(result.Final, logger))
	if result.Pass {
		fmt.Fprintln(w, "✓ Scenario passed")
		return
	}
	fmt.Fprintln(w, "✗ Scenario failed")
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}

// canonicalText renders plain Go data as canonical JSON for display.
func canonicalText(v any, logger *slog.Logger) string {
	conv, err := value.FromGo(v)
	if err == nil {
		var data []byte
		if data, err = value.MarshalCanonical(conv); err == nil {
			return string(data)
		}
	}
	logger.Warn("state not representable as canonical JSON", "error", err)
	return fmt.Sprintf("%v", v)
}
