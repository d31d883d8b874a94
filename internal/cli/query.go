package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/ir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Filter      string
	InputFormat string
	Count       bool
}

// QueryDocument is one matched row.
type QueryDocument struct {
	ID       string      `json:"id"`
	Metadata ir.IRObject `json:"metadata"`
}

// QueryResult is the payload of query.
type QueryResult struct {
	Count     int             `json:"count"`
	Documents []QueryDocument `json:"documents,omitempty"`

	countOnly bool
}

func (r QueryResult) renderText(w io.Writer) {
	if r.countOnly {
		fmt.Fprintln(w, r.Count)
		return
	}
	for _, doc := range r.Documents {
		data, err := ir.MarshalCanonical(doc.Metadata)
		if err != nil {
			fmt.Fprintf(w, "%s\t<%v>\n", doc.ID, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", doc.ID, data)
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [file]",
		Short: "Run a filter against the configured store",
		Long: `Compile a filter for the configured dialect and return matching
documents ordered by id. An empty filter matches every document.`,
		Example: `  filtersql query --filter '{"tags": {"$all": ["a", "b"]}}'
  filtersql query --count -d full --dsn "$DATABASE_URL" filter.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "inline filter (JSON or YAML)")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", FormatAuto, "input format (auto|json|yaml|cue)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print only the number of matches")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, args []string) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	node, err := LoadFilter(filterSource(args, opts.Filter, opts.InputFormat), cmd.InOrStdin())
	if err != nil {
		return failLoad(formatter, "load filter", err)
	}

	st, err := openBackend(ctx, opts.Config)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, "open store", err)
	}
	defer st.Close()

	out := QueryResult{countOnly: opts.Count}
	if opts.Count {
		if out.Count, err = st.Count(ctx, node); err != nil {
			return formatter.Fail(ErrCodeStoreFailed, "count documents", err)
		}
		return formatter.Success(out)
	}

	docs, err := st.Find(ctx, node)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, "find documents", err)
	}
	out.Count = len(docs)
	out.Documents = make([]QueryDocument, len(docs))
	for i, doc := range docs {
		out.Documents[i] = QueryDocument{ID: doc.ID, Metadata: doc.Metadata}
	}

	return formatter.Success(out)
}
