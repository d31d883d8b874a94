package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/filtersql/internal/ir"
	"github.com/roach88/filtersql/internal/queryir"
)

// Input formats.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCUE  = "cue"
)

// LoadError is an input problem that happens before filter parsing.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FilterSource says where a filter comes from: Inline text wins over Path;
// Path "-" reads stdin.
type FilterSource struct {
	Path   string
	Inline string
	Format string // auto|json|yaml|cue
}

// readInput returns the raw bytes and the resolved format.
func readInput(path, inline, format string, stdin io.Reader) ([]byte, string, error) {
	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case path == "" || path == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", &LoadError{Code: ErrCodeReadFailed, Message: "reading stdin", Err: err}
		}
		data = b
	default:
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
		}
		if err != nil {
			return nil, "", &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s", path), Err: err}
		}
		data = b
	}

	if format == "" || format == FormatAuto {
		format = detectFormat(path, inline, data)
	}
	switch format {
	case FormatJSON, FormatYAML, FormatCUE:
		return data, format, nil
	default:
		return nil, "", &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("unknown input format %q", format)}
	}
}

// detectFormat picks a format from the file extension, falling back to
// JSON when the text starts like JSON and YAML otherwise.
func detectFormat(path, inline string, data []byte) string {
	if inline == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".jsonl", ".ndjson":
			return FormatJSON
		case ".yaml", ".yml":
			return FormatYAML
		case ".cue":
			return FormatCUE
		}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// cueToJSON evaluates CUE source and exports it as JSON. Field order follows
// declaration order.
func cueToJSON(data []byte, name string) ([]byte, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeCUEFailed, Message: "evaluating CUE", Err: err}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeCUEFailed, Message: "CUE value is not concrete", Err: err}
	}
	out, err := v.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCUEFailed, Message: "exporting CUE as JSON", Err: err}
	}
	return out, nil
}

// LoadFilter reads and parses a filter. A LoadError reports unreadable or
// malformed input; a *queryir.FilterError reports a rejected filter.
func LoadFilter(src FilterSource, stdin io.Reader) (queryir.Node, error) {
	data, format, err := readInput(src.Path, src.Inline, src.Format, stdin)
	if err != nil {
		return nil, err
	}

	var obj queryir.Object
	switch format {
	case FormatCUE:
		if data, err = cueToJSON(data, src.Path); err != nil {
			return nil, err
		}
		obj, err = queryir.DecodeJSON(data)
	case FormatJSON:
		obj, err = queryir.DecodeJSON(data)
	default:
		obj, err = queryir.DecodeYAML(data)
	}
	if err != nil {
		if queryir.IsFilterError(err) {
			return nil, err
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "malformed filter", Err: err}
	}
	return queryir.Parse(obj)
}

// LoadDocuments reads documents for the load command: a JSON array, JSON
// lines, a YAML sequence (or multi-document stream), or a CUE list.
func LoadDocuments(path, format string, stdin io.Reader) ([]ir.IRObject, error) {
	data, format, err := readInput(path, "", format, stdin)
	if err != nil {
		return nil, err
	}
	if format == FormatCUE {
		if data, err = cueToJSON(data, path); err != nil {
			return nil, err
		}
		format = FormatJSON
	}

	var docs []ir.IRObject
	if format == FormatJSON {
		docs, err = decodeJSONDocuments(data)
	} else {
		docs, err = decodeYAMLDocuments(data)
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "malformed documents", Err: err}
	}
	return docs, nil
}

func decodeJSONDocuments(data []byte) ([]ir.IRObject, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		v, err := ir.UnmarshalIRValue(trimmed)
		if err != nil {
			return nil, err
		}
		arr, _ := v.(ir.IRArray)
		docs := make([]ir.IRObject, 0, len(arr))
		for i, elem := range arr {
			obj, ok := elem.(ir.IRObject)
			if !ok {
				return nil, fmt.Errorf("document %d is %s, not an object", i, ir.TypeName(elem))
			}
			docs = append(docs, obj)
		}
		return docs, nil
	}

	// JSON lines
	var docs []ir.IRObject
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		v, err := ir.UnmarshalIRValue(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("line %d: %s is not an object", line, ir.TypeName(v))
		}
		docs = append(docs, obj)
	}
	return docs, scanner.Err()
}

func decodeYAMLDocuments(data []byte) ([]ir.IRObject, error) {
	var docs []ir.IRObject
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}

		items := []*yaml.Node{&node}
		if len(node.Content) == 1 && node.Content[0].Kind == yaml.SequenceNode {
			items = node.Content[0].Content
		}
		for _, item := range items {
			obj, err := queryir.FromYAMLNode(item)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", item.Line, err)
			}
			docs = append(docs, obj.IR())
		}
	}
}
