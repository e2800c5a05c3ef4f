package compile

import (
	"fmt"

	"github.com/vk/promptweave/internal/workflow"
)

// batchGuideImages loads every guide image and folds the loaded images
// left-to-right through pairwise combine nodes, returning the single
// reference the downstream consumer should read. One image is referenced
// directly with no combine node at all.
//
// Calling this with an empty list is a programming error on the caller's
// side, reported as an error rather than a panic.
func batchGuideImages(g workflow.Graph, images []string) (workflow.Reference, error) {
	if len(images) == 0 {
		return workflow.Reference{}, fmt.Errorf("guide image batching requires at least one image")
	}

	loaders := make([]workflow.Reference, len(images))
	for i, img := range images {
		id := fmt.Sprintf("guide_image_%d", i)
		g.Add(&workflow.Node{ID: id, Kind: "LoadImage", Inputs: map[string]workflow.Input{
			"image": workflow.Str(img),
		}})
		loaders[i] = workflow.Ref(id, 0)
	}

	acc := loaders[0]
	for i := 1; i < len(loaders); i++ {
		id := fmt.Sprintf("image_batch_%d", i-1)
		g.Add(&workflow.Node{ID: id, Kind: "ImageBatch", Inputs: map[string]workflow.Input{
			"image1": acc,
			"image2": loaders[i],
		}})
		acc = workflow.Ref(id, 0)
	}
	return acc, nil
}
