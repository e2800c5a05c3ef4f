package schema

import (
	"bytes"
	_ "embed"
	"fmt"
)

// snapshotJSON is a capability document captured from a live engine,
// trimmed to the kinds the builtin templates emit. It lets the validator
// run in environments without a reachable engine.
//
//go:embed snapshot.json
var snapshotJSON []byte

// Snapshot parses the bundled capability snapshot.
func Snapshot() (Model, error) {
	model, err := Parse(bytes.NewReader(snapshotJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing bundled snapshot: %w", err)
	}
	return model, nil
}
