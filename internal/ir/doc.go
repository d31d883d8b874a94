// Package ir provides the value model shared by the filter compiler and its
// callers.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - IRValue is sealed: null, string, int, float, bool, array, object
//   - Integral numbers are always IRInt, so 3 and 3.0 are the same value
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
//     and for JSON-typed SQL parameters
package ir
