// Package harness runs conformance scenarios for the filter compiler.
//
// A scenario is a YAML file holding fixture rows and a list of cases. Each
// case is a filter plus what it must produce against those rows: the
// matching ids in order, a match count, or a filter error code.
//
//	name: scenario_c_in
//	description: $in matches array members and scalar values
//	rows:
//	  - id: r1
//	    doc: {tags: [a, z]}
//	  - id: r2
//	    doc: {tags: a}
//	cases:
//	  - name: in
//	    filter: {tags: {$in: [a, b]}}
//	    expect:
//	      ids: [r1, r2]
//
// Scenarios execute against a fresh in-memory SQLite store (the embedded
// dialect). Row ids sort with COLLATE BINARY, so expected ids are listed in
// byte order. RunWithGolden additionally snapshots every case's outcome
// under testdata/golden/{scenario.Name}.golden.
package harness
