package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [field]",
		Short: "Read the document, or one field of it",
		Long: `Read the persisted settings document from the profile's backend.

With no argument the whole document is printed; with a field name only
that field's value.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			field := ""
			if len(args) == 1 {
				field = args[0]
			}
			return runGet(rootOpts, field, cmd)
		},
	}
}

func runGet(opts *RootOptions, field string, cmd *cobra.Command) error {
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

	doc, meta, ok, err := b.store.Load(cmd.Context())
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeLoad, "load document", err)
	}
	if !ok {
		doc = Document{}
	}
	formatter.VerboseLog("loaded document %q (snapshot %s)", profile.Key, meta.SnapshotID)

	if field != "" {
		value, present := doc[field]
		if !present {
			return fail(formatter, ExitFailure, ErrCodeFieldMissing,
				fmt.Sprintf("field %q not set", field), nil)
		}
		if formatter.Format == "json" {
			return formatter.Success(map[string]any{"field": field, "value": value})
		}
		fmt.Fprintf(formatter.Writer, "%v\n", value)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(doc)
	}
	for _, k := range sortedKeys(doc) {
		fmt.Fprintf(formatter.Writer, "%s = %v\n", k, doc[k])
	}
	return nil
}

func sortedKeys(doc Document) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
