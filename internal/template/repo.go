// Package template owns the prototype graphs each generation mode starts
// from. Prototypes are built once at construction and never mutated; every
// retrieval hands out a deep clone, so concurrently compiling requests can
// never corrupt each other through a shared template.
package template

import (
	"fmt"
	"sort"

	"github.com/vk/promptweave/internal/workflow"
)

// Mode names a generation mode with a builtin template.
type Mode string

const (
	TextToImage  Mode = "text-to-image"
	ImageToImage Mode = "image-to-image"
	Speech       Mode = "speech"
	LipSync      Mode = "lipsync"
)

// Repository holds the immutable prototype graphs.
type Repository struct {
	prototypes map[Mode]workflow.Graph
}

// NewRepository builds a repository containing the builtin prototypes.
func NewRepository() *Repository {
	return &Repository{
		prototypes: map[Mode]workflow.Graph{
			TextToImage:  textToImagePrototype(),
			ImageToImage: imageToImagePrototype(),
			Speech:       speechPrototype(),
			LipSync:      lipSyncPrototype(),
		},
	}
}

// Get returns an owned deep clone of the prototype for mode. The caller may
// mutate the clone freely.
func (r *Repository) Get(mode Mode) (workflow.Graph, error) {
	proto, ok := r.prototypes[mode]
	if !ok {
		return nil, fmt.Errorf("no template for mode %q", mode)
	}
	return proto.Clone(), nil
}

// Modes lists the modes this repository can serve, sorted.
func (r *Repository) Modes() []Mode {
	modes := make([]Mode, 0, len(r.prototypes))
	for m := range r.prototypes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}
