package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/querysql"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	IDField     string
	InputFormat string
}

// LoadResult is the payload of load.
type LoadResult struct {
	Dialect  string   `json:"dialect"`
	Inserted int      `json:"inserted"`
	IDs      []string `json:"ids"`
}

func (r LoadResult) renderText(w io.Writer) {
	fmt.Fprintf(w, "loaded %d documents (%s)\n", r.Inserted, r.Dialect)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load [file]",
		Short: "Insert JSON documents into the configured store",
		Long: `Insert documents from a JSON array, JSON lines, a YAML sequence, or a
CUE list. Every document must be an object; it is stored whole as metadata.

With --id-field, a string member of that name becomes the row id and an
existing row with the same id is replaced. Documents without it get a
generated UUIDv7 id.`,
		Example: `  filtersql load docs.jsonl
  filtersql load --id-field sku -d full --dsn postgres://localhost/app docs.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.IDField, "id-field", "", "document member to use as the row id")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", FormatAuto, "input format (auto|json|yaml|cue)")

	return cmd
}

func runLoad(cmd *cobra.Command, opts *LoadOptions, args []string) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	docs, err := LoadDocuments(path, opts.InputFormat, cmd.InOrStdin())
	if err != nil {
		return failLoad(formatter, "load documents", err)
	}

	st, err := openBackend(ctx, opts.Config)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, "open store", err)
	}
	defer st.Close()

	out := LoadResult{Dialect: querysql.MustDialect(opts.Config.Dialect).Name(), IDs: make([]string, 0, len(docs))}
	for i, doc := range docs {
		id, err := insertDocument(ctx, st, opts.IDField, doc)
		if err != nil {
			return formatter.Fail(ErrCodeStoreFailed, fmt.Sprintf("insert document %d", i), err)
		}
		out.IDs = append(out.IDs, id)
		formatter.VerboseLog("inserted %s", id)
	}
	out.Inserted = len(out.IDs)

	return formatter.Success(out)
}

func insertDocument(ctx context.Context, st documentStore, idField string, doc ir.IRObject) (string, error) {
	if idField == "" {
		return st.Insert(ctx, doc)
	}
	raw, ok := doc[idField]
	if !ok {
		return st.Insert(ctx, doc)
	}
	id, ok := raw.(ir.IRString)
	if !ok {
		return "", fmt.Errorf("id field %q is %s, not a string", idField, ir.TypeName(raw))
	}
	if err := st.InsertWithID(ctx, string(id), doc); err != nil {
		return "", err
	}
	return string(id), nil
}
