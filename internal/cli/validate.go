package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ValidationResult holds profile validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [profile]",
		Short: "Validate a profile file",
		Long: `Validate a profile file against the embedded schema without touching
any backend. With no argument the --profile path is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Profile
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeProfileRead,
			fmt.Sprintf("read profile %s", path), err)
	}
	formatter.VerboseLog("validating %s", path)

	verrs := ValidateProfileBytes(data)
	if len(verrs) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true})
		}
		fmt.Fprintln(formatter.Writer, "profile valid")
		return nil
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: verrs},
			Error: &CLIError{
				Code:    verrs[0].Code,
				Message: verrs[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("profile invalid with %d error(s)", len(verrs)))
	}

	fmt.Fprintln(formatter.Writer, "profile invalid")
	for _, verr := range verrs {
		if verr.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s (%s)\n", verr.Field, verr.Message, verr.Code)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s (%s)\n", verr.Message, verr.Code)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("profile invalid with %d error(s)", len(verrs)))
}
