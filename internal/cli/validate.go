package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracedraft/vellum/internal/docio"
)

// ValidationResult is the validate command's payload.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one schema or construction defect.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Validate an interchange document against the schema",
		Long: `Validate a JSON interchange document without running the audit.

Checks the document against the embedded schema and attempts graph
construction, reporting every defect found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, loadErrors := docio.Load(path, docio.LoadModeCollectAll)
	if len(loadErrors) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true})
		}
		fmt.Fprintln(formatter.Writer, "document valid")
		return nil
	}

	result := ValidationResult{Valid: false}
	for _, err := range loadErrors {
		var le *docio.LoadError
		if errors.As(err, &le) {
			result.Errors = append(result.Errors, ValidationError{Code: le.Code, Message: le.Error()})
		} else {
			result.Errors = append(result.Errors, ValidationError{Code: docio.ErrCodeSchema, Message: err.Error()})
		}
	}

	// A missing or unreadable file is a command error, not a finding.
	if result.Errors[0].Code == docio.ErrCodeNotFound {
		_ = formatter.Error(result.Errors[0].Code, result.Errors[0].Message, nil)
		return NewExitError(ExitCommandError, result.Errors[0].Message)
	}

	if formatter.Format == "json" {
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(Response{
			Status: "error",
			Data:   result,
			Error:  &ResponseError{Code: result.Errors[0].Code, Message: result.Errors[0].Message},
		})
	} else {
		fmt.Fprintln(formatter.Writer, "document invalid")
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", e.Code, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
