package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hidux/internal/store"
	"github.com/roach88/hidux/internal/value"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Instance string // optional - show one instance's snapshots
	Verify   bool   // recompute and compare stored fingerprints
}

// InstanceSummary is one row of the instance listing.
type InstanceSummary struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	CreatedSeq int64  `json:"created_seq"`
	Snapshots  int    `json:"snapshots"`
	LatestSeq  int64  `json:"latest_seq"`
}

// SnapshotEntry is one stored snapshot.
type SnapshotEntry struct {
	Seq   int64  `json:"seq"`
	Hash  string `json:"hash"`
	State any    `json:"state"`
}

// HistoryResult holds the history output.
type HistoryResult struct {
	Instances  []InstanceSummary `json:"instances,omitempty"`
	Instance   *InstanceSummary  `json:"instance,omitempty"`
	Snapshots  []SnapshotEntry   `json:"snapshots,omitempty"`
	Verified   bool              `json:"verified,omitempty"`
	Mismatches []string          `json:"mismatches,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored snapshot history",
		Long: `Show the snapshot history kept in a SQLite database.

Without --instance every stored instance is listed. With --instance the
instance's snapshots are printed in seq order. --verify recomputes every
snapshot fingerprint and fails when one differs from the stored hash.

Examples:
  hidux history --db ./hidux.db
  hidux history --db ./hidux.db --instance cart-1
  hidux history --db ./hidux.db --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Instance, "instance", "", "instance id to show")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verify stored fingerprints")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var (
		result HistoryResult
		ids    []string
	)
	if opts.Instance != "" {
		summary, snaps, err := instanceHistory(ctx, st, opts.Instance)
		if errors.Is(err, store.ErrNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("instance not found: %s", opts.Instance))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read history", err)
		}
		result.Instance = &summary
		result.Snapshots = snaps
		ids = []string{opts.Instance}
	} else {
		recs, err := st.ListInstances(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list instances", err)
		}
		for _, rec := range recs {
			summary, _, err := instanceHistory(ctx, st, rec.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read history", err)
			}
			result.Instances = append(result.Instances, summary)
			ids = append(ids, rec.ID)
		}
	}

	if opts.Verify {
		for _, id := range ids {
			bad, err := st.Verify(ctx, id)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to verify history", err)
			}
			for _, m := range bad {
				result.Mismatches = append(result.Mismatches, m.String())
			}
		}
		result.Verified = len(result.Mismatches) == 0
	}

	var failed error
	if len(result.Mismatches) > 0 {
		failed = NewExitError(ExitFailure, fmt.Sprintf("%d snapshot(s) failed verification", len(result.Mismatches)))
	}

	if opts.Format == "json" {
		if failed != nil {
			if err := formatter.Failure(result, "E_VERIFY_FAILED", result.Mismatches[0]); err != nil {
				return err
			}
			return failed
		}
		return formatter.Success(result)
	}

	writeHistory(formatter, opts, result)
	return failed
}

// instanceHistory reads one instance and its snapshots.
func instanceHistory(ctx context.Context, st *store.Store, id string) (InstanceSummary, []SnapshotEntry, error) {
	rec, err := st.GetInstance(ctx, id)
	if err != nil {
		return InstanceSummary{}, nil, err
	}
	snaps, err := st.ReadSnapshots(ctx, id)
	if err != nil {
		return InstanceSummary{}, nil, err
	}

	summary := InstanceSummary{
		ID:         rec.ID,
		Model:      rec.Model,
		CreatedSeq: rec.CreatedSeq,
		Snapshots:  len(snaps),
	}
	entries := make([]SnapshotEntry, len(snaps))
	for i, s := range snaps {
		entries[i] = SnapshotEntry{Seq: s.Seq, Hash: s.Hash, State: value.ToGo(s.State)}
		summary.LatestSeq = s.Seq
	}
	return summary, entries, nil
}

func writeHistory(f *OutputFormatter, opts *HistoryOptions, result HistoryResult) {
	w := f.Writer
	logger := newLogger(opts.RootOptions, f.GetErrWriter())

	if result.Instance != nil {
		in := result.Instance
		fmt.Fprintf(w, "Instance %s (model %s), %d snapshot(s)\n", in.ID, in.Model, in.Snapshots)
		for _, s := range result.Snapshots {
			fmt.Fprintf(w, "  seq %-4d %s  %s\n", s.Seq, shortHash(s.Hash), canonicalText(s.State, logger))
		}
	} else if len(result.Instances) == 0 {
		fmt.Fprintln(w, "No instances recorded.")
	} else {
		for _, in := range result.Instances {
			fmt.Fprintf(w, "  %s  model=%s  snapshots=%d  seq=%d..%d\n", in.ID, in.Model, in.Snapshots, in.CreatedSeq, in.LatestSeq)
		}
	}

	if !opts.Verify {
		return
	}
	if result.Verified {
		fmt.Fprintln(w, "✓ History verified")
		return
	}
	fmt.Fprintln(w, "✗ History verification failed")
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  %s\n", m)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
