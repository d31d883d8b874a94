// Package queryir provides the filter tree that the SQL backends compile.
//
// A caller-supplied filter object (MongoDB-style operator syntax) is parsed
// once, at this boundary, into a closed tagged union. Backends never see raw
// maps or raw field keys.
//
// ARCHITECTURE:
//
//	[JSON / YAML / CUE / map] → Decode → Object → Parse → Node → [querysql]
//
// Object keeps member order from the source document. Node is either a
// Condition (one operator on one sanitized field path) or a Logical group.
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only Condition
// and Logical implement it, which lets backends use exhaustive type switches:
//
//	switch n := node.(type) {
//	case queryir.Condition:
//	    // leaf
//	case queryir.Logical:
//	    // AND / OR / NOT / NOR
//	}
//
// FIELD PATHS:
//
// Sanitize is the only function that turns raw keys into SafePath values.
// Segments are restricted to [A-Za-z0-9_]. Inside $elemMatch, paths are
// relative to the array element and an empty SafePath names the element.
//
// ERRORS:
//
// Every rejection is a *FilterError carrying one of the codes
// INVALID_FIELD_PATH, UNSUPPORTED_OPERATOR, EMPTY_NEGATION or TYPE_MISMATCH.
// DEPTH_EXCEEDED is raised only when a caller configures a depth limit.
//
// PORTABILITY:
//
// Validate reports features whose results can differ between the full and
// embedded dialects. Non-portable filters still compile.
package queryir
