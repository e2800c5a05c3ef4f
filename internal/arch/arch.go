// Package arch resolves a checkpoint model name to its architecture family,
// generation defaults, and feature capabilities. The compiler consumes the
// resolved profile to decide which optional nodes to emit and which literal
// defaults to substitute; the matching policy itself lives in a data table,
// not in code.
package arch

import (
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Capabilities flags which optional graph features a model family supports.
type Capabilities struct {
	StyleAdapters bool `toml:"style_adapters"`
	GuideImages   bool `toml:"guide_images"`
	Control       bool `toml:"control"`
}

// Defaults carries the literal values substituted for parameters the
// request leaves unset.
type Defaults struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Steps     int     `toml:"steps"`
	CFG       float64 `toml:"cfg"`
	Sampler   string  `toml:"sampler"`
	Scheduler string  `toml:"scheduler"`
	Negative  string  `toml:"negative"`
}

// Profile is the result of resolving a model name.
type Profile struct {
	Family       string
	Confidence   float64
	Defaults     Defaults
	Capabilities Capabilities
}

// Resolver maps a model name to a Profile.
type Resolver interface {
	Resolve(modelName string) (Profile, error)
}

// family is one row of the TOML profile table.
type family struct {
	ID           string       `toml:"id"`
	Patterns     []string     `toml:"patterns"`
	Confidence   float64      `toml:"confidence"`
	Defaults     Defaults     `toml:"defaults"`
	Capabilities Capabilities `toml:"capabilities"`
}

type table struct {
	Families []family `toml:"family"`
	Fallback family   `toml:"fallback"`
}

// TableResolver resolves model names against an ordered pattern table;
// the first family with a matching substring pattern wins.
type TableResolver struct {
	families []family
	fallback family
}

// NewTableResolver parses a TOML profile table.
func NewTableResolver(r io.Reader) (*TableResolver, error) {
	var t table
	dec := toml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing profile table: %w", err)
	}
	if t.Fallback.ID == "" {
		return nil, fmt.Errorf("profile table has no fallback entry")
	}
	return &TableResolver{families: t.Families, fallback: t.Fallback}, nil
}

// Resolve matches modelName (case-insensitively) against the table. Names
// matching no pattern resolve to the fallback profile, never to an error.
func (r *TableResolver) Resolve(modelName string) (Profile, error) {
	name := strings.ToLower(modelName)
	for _, f := range r.families {
		for _, pat := range f.Patterns {
			if pat != "" && strings.Contains(name, pat) {
				return profileOf(f), nil
			}
		}
	}
	return profileOf(r.fallback), nil
}

func profileOf(f family) Profile {
	return Profile{
		Family:       f.ID,
		Confidence:   f.Confidence,
		Defaults:     f.Defaults,
		Capabilities: f.Capabilities,
	}
}
