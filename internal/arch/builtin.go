package arch

import (
	"bytes"
	_ "embed"
)

//go:embed profiles.toml
var builtinProfiles []byte

// Default returns a resolver backed by the builtin profile table. The table
// is compiled in, so parse failures are programmer errors and panic.
func Default() *TableResolver {
	r, err := NewTableResolver(bytes.NewReader(builtinProfiles))
	if err != nil {
		panic(err)
	}
	return r
}
