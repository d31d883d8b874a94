package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/queryir"
	"github.com/roach88/filtersql/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Filter      string
	InputFormat string
	Where       bool
}

// CompileResult is the payload of a successful compile.
type CompileResult struct {
	Dialect     string `json:"dialect"`
	SQL         string `json:"sql"`
	Values      []any  `json:"values"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Shape       string `json:"shape,omitempty"`
}

func (r CompileResult) renderText(w io.Writer) {
	fmt.Fprintln(w, r.SQL)
	for i, v := range r.Values {
		fmt.Fprintf(w, "  %d: %#v\n", i+1, v)
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a filter to a SQL WHERE clause",
		Long: `Compile a JSON, YAML, or CUE filter into a parameterized WHERE clause
for the configured dialect. Reads stdin when no file is given or file is "-".

An empty filter ({}) compiles to empty SQL with no values.`,
		Example: `  filtersql compile --filter '{"age": {"$gte": 18}}'
  filtersql compile -d full filter.yaml
  filtersql compile --where --format json filter.cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "inline filter (JSON or YAML)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", FormatAuto, "input format (auto|json|yaml|cue)")
	cmd.Flags().BoolVar(&opts.Where, "where", false, "prefix the clause with WHERE")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, args []string) error {
	formatter := opts.formatter(cmd)
	cfg := opts.Config

	node, err := LoadFilter(filterSource(args, opts.Filter, opts.InputFormat), cmd.InOrStdin())
	if err != nil {
		return failLoad(formatter, "load filter", err)
	}

	dialect, err := querysql.DialectFor(cfg.Dialect)
	if err != nil {
		return formatter.Fail(ErrCodeConfig, "select dialect", err)
	}

	res, err := querysql.Compile(node, dialect, cfg.CompileOptions()...)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, "compile filter", err)
	}

	out := CompileResult{
		Dialect: dialect.Name(),
		SQL:     res.SQL,
		Values:  res.Values,
		Shape:   res.Shape(),
	}
	if out.Values == nil {
		out.Values = []any{}
	}
	if opts.Where {
		out.SQL = res.Where()
	}
	if node != nil {
		if out.Fingerprint, err = queryir.Fingerprint(node); err != nil {
			return formatter.Fail(ErrCodeGeneric, "fingerprint filter", err)
		}
	}
	formatter.VerboseLog("compiled %d placeholders for dialect %s", len(out.Values), out.Dialect)

	return formatter.Success(out)
}

// filterSource builds a FilterSource from a positional file argument and
// the --filter flag.
func filterSource(args []string, inline, format string) FilterSource {
	src := FilterSource{Inline: inline, Format: format}
	if len(args) > 0 {
		src.Path = args[0]
	}
	return src
}

// failLoad reports a LoadFilter/LoadDocuments failure under its own code.
func failLoad(f *OutputFormatter, message string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return f.Fail(le.Code, message, err)
	}
	return f.Fail(ErrCodeGeneric, message, err)
}
