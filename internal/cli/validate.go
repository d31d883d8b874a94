package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Filter      string
	InputFormat string
	Strict      bool
}

// ValidateResult is the payload of validate.
type ValidateResult struct {
	Valid       bool     `json:"valid"`
	Portable    bool     `json:"portable"`
	Depth       int      `json:"depth"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Warnings    []string `json:"warnings"`
}

func (r ValidateResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "valid (depth %d)\n", r.Depth)
	if r.Fingerprint != "" {
		fmt.Fprintf(w, "fingerprint: %s\n", r.Fingerprint)
	}
	if r.Portable {
		fmt.Fprintln(w, "portable across dialects")
		return
	}
	fmt.Fprintf(w, "not portable (%d warnings):\n", len(r.Warnings))
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a filter and report cross-dialect portability",
		Long: `Parse a filter, enforce --max-depth, and report features whose results
can differ between the full and embedded dialects.

Exit codes:
  0 - filter is valid (and portable, under --strict)
  1 - filter is rejected, or not portable under --strict
  2 - input could not be read or configuration is invalid`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "inline filter (JSON or YAML)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", FormatAuto, "input format (auto|json|yaml|cue)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat portability warnings as errors")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, args []string) error {
	formatter := opts.formatter(cmd)

	node, err := LoadFilter(filterSource(args, opts.Filter, opts.InputFormat), cmd.InOrStdin())
	if err != nil {
		return failLoad(formatter, "load filter", err)
	}

	// Compiling enforces max_depth and the column name exactly as a query would.
	dialect, err := querysql.DialectFor(opts.Config.Dialect)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "select dialect", err)
	}
	if _, err := querysql.Compile(node, dialect, opts.Config.CompileOptions()...); err != nil {
		return formatter.Fail(ErrCodeGeneric, "validate filter", err)
	}

	depth := queryir.Depth(node)

	v := queryir.Validate(node)
	out := ValidateResult{
		Valid:    true,
		Portable: v.IsPortable,
		Depth:    depth,
		Warnings: v.Warnings,
	}
	if node != nil {
		if out.Fingerprint, err = queryir.Fingerprint(node); err != nil {
			return formatter.Fail(ErrCodeGeneric, "fingerprint filter", err)
		}
	}

	if opts.Strict && !v.IsPortable {
		if err := formatter.Error(ErrCodeNotPortable, "filter is not portable across dialects", v.Warnings); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "filter is not portable")
	}

	return formatter.Success(out)
}
