package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hidux/internal/schema"
)

// ModelSummary describes one valid model.
type ModelSummary struct {
	Name      string   `json:"name"`
	Doc       string   `json:"doc,omitempty"`
	HasSchema bool     `json:"has_schema"`
	Fields    []string `json:"fields"`
}

// ValidationError is one problem found in a models directory.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Models []ModelSummary    `json:"models"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <models-dir>",
		Short: "Validate CUE model definitions",
		Long: `Validate the CUE model definitions in a directory.

Every model must declare a concrete keyed-map initial state. When a model
declares a schema, its initial state must satisfy it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, loadErrs := schema.Load(dir, schema.LoadModeCollectAll)
	if loaded == nil {
		code, msg := schema.ErrCodeGeneric, loadErrs[0].Error()
		var le *schema.LoadError
		if errors.As(loadErrs[0], &le) {
			code, msg = le.Code, le.Message
		}
		_ = formatter.Error(code, msg, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, msg))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{
		Valid:  len(loadErrs) == 0,
		Files:  loaded.FileCount,
		Models: make([]ModelSummary, 0, len(loaded.Models)),
	}
	for _, m := range loaded.Models {
		formatter.VerboseLog("Validated model: %s", m.Name)
		result.Models = append(result.Models, ModelSummary{
			Name:      m.Name,
			Doc:       m.Doc,
			HasSchema: m.HasSchema(),
			Fields:    m.Initial.Keys(),
		})
	}
	for _, err := range loadErrs {
		result.Errors = append(result.Errors, toValidationError(err))
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, m := range result.Models {
		schemaNote := ""
		if m.HasSchema {
			schemaNote = " (schema)"
		}
		fmt.Fprintf(w, "  %s%s: %v\n", m.Name, schemaNote, m.Fields)
	}
	fmt.Fprintf(w, "✓ All models valid (%d model(s))\n", len(result.Models))
	return nil
}

func toValidationError(err error) ValidationError {
	var le *schema.LoadError
	if errors.As(err, &le) {
		ve := ValidationError{Code: le.Code, Message: le.Message}
		if le.Pos.IsValid() {
			ve.Line = le.Pos.Line()
		}
		return ve
	}
	return ValidationError{Code: schema.ErrCodeGeneric, Message: err.Error()}
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		first := result.Errors[0]
		if err := formatter.Failure(result, first.Code, first.Message); err != nil {
			return err
		}
		return failed
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failed
}
