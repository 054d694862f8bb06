package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kvisten/autosave"
	"github.com/kvisten/autosave/store"
)

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <field>=<value> ...",
		Short: "Set document fields and persist through the synchronizer",
		Long: `Set one or more fields of the settings document.

All assignments of one invocation form a single logical mutation and
produce a single save. Values are parsed as YAML scalars, so numbers and
booleans keep their types; quote a value to force a string.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(rootOpts, args, cmd)
		},
	}
}

func runSet(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	assignments, err := parseAssignments(args)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBadAssignment, err.Error(), nil)
	}

	profile, err := loadProfileOrFail(opts, formatter)
	if err != nil {
		return err
	}
	cfg, err := profile.Config()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeProfileInvalid, err.Error(), nil)
	}
	b, err := openBackend(profile)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeBackendOpen, "open backend", err)
	}
	defer b.Close()

	ctx := cmd.Context()
	container := autosave.NewContainer[Document]()
	if _, err := container.Load(ctx, store.Loader(b.store)); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "load document", err)
	}

	sync, err := autosave.New(container, store.Saver(b.store), cfg,
		autosave.WithLogger(commandLogger(formatter)))
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, "build synchronizer", err)
	}

	// One Update per invocation: every assignment belongs to the same
	// logical mutation.
	container.Update(func(doc *Document) {
		if *doc == nil {
			*doc = make(Document, len(assignments))
		}
		for field, value := range assignments {
			(*doc)[field] = value
		}
	})

	if err := sync.Flush(ctx); err != nil {
		return fail(formatter, ExitFailure, ErrCodeSave, "save document", err)
	}

	_, meta, _, err := b.store.Load(ctx)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "read back saved document", err)
	}
	formatter.VerboseLog("saved snapshot %s at %s", meta.SnapshotID, meta.SavedAt)

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"fields":      assignments,
			"snapshot_id": meta.SnapshotID,
		})
	}
	fmt.Fprintf(formatter.Writer, "saved %d field(s), snapshot %s\n", len(assignments), meta.SnapshotID)
	return nil
}

// parseAssignments splits field=value arguments, decoding each value as a
// YAML scalar so numbers and booleans keep their types.
func parseAssignments(args []string) (map[string]any, error) {
	assignments := make(map[string]any, len(args))
	for _, arg := range args {
		field, raw, found := strings.Cut(arg, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("malformed assignment %q: want field=value", arg)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		assignments[field] = value
	}
	return assignments, nil
}

// commandLogger routes synchronizer logs to stderr in verbose mode and
// discards them otherwise.
func commandLogger(f *OutputFormatter) *slog.Logger {
	if f.Verbose && f.ErrWriter != nil {
		return slog.New(slog.NewTextHandler(f.ErrWriter, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
