package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List prior snapshots of the document",
		Long: `List snapshot history for the profile's document, newest first.

Only backends that keep history support this; currently that is the
sqlite backend.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, limit, cmd)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum snapshots to list (0 = all)")
	return cmd
}

func runHistory(opts *RootOptions, limit int, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	profile, err := loadProfileOrFail(opts, formatter)
	if err != nil {
		return err
	}
	b, err := openBackend(profile)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBackendOpen, "open backend", err)
	}
	defer b.Close()

	if b.history == nil {
		return fail(formatter, ExitCommandError, ErrCodeNoHistory,
			fmt.Sprintf("backend %q keeps no snapshot history", profile.Backend), nil)
	}

	history, err := b.history(cmd.Context(), limit)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "list history", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(history)
	}
	if len(history) == 0 {
		fmt.Fprintln(formatter.Writer, "no snapshots")
		return nil
	}
	for _, meta := range history {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", meta.SavedAt.UTC().Format(time.RFC3339), meta.SnapshotID)
	}
	return nil
}
