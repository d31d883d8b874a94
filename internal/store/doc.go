// Package store provides a SQLite-backed JSON document store whose queries
// are filter trees compiled with the embedded dialect.
//
// Each document is one row of:
//
//	documents(id TEXT PRIMARY KEY, metadata TEXT)  -- metadata is a JSON object
//
// # Identity and ordering
//
// Ids are UUIDv7 strings unless the caller supplies one (InsertWithID).
// Every read orders by id COLLATE BINARY ASC, so v7 ids list in insertion
// order and results are identical across runs.
//
// # Storage format
//
// Metadata is stored as RFC 8785 canonical JSON (see internal/ir), so two
// equal objects always produce the same bytes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - regexp(pattern, text): registered on every connection for $regex
package store
