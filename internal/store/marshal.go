package store

import (
	"fmt"

	"github.com/roach88/filtersql/internal/ir"
)

// Document is one stored row.
type Document struct {
	ID       string      `json:"id"`
	Metadata ir.IRObject `json:"metadata"`
}

// marshalMetadata converts metadata to canonical JSON TEXT for storage.
func marshalMetadata(meta ir.IRObject) (string, error) {
	if meta == nil {
		meta = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(meta)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// unmarshalMetadata parses stored JSON TEXT back into an object.
func unmarshalMetadata(data string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal metadata: expected object, got %s", ir.TypeName(v))
	}
	return obj, nil
}
