package compile

import (
	"fmt"

	"github.com/vk/promptweave/internal/workflow"
)

// preprocessorKinds maps a control variant to the node kind that prepares
// its guidance image. Variants absent from the map feed the image through
// unprocessed.
var preprocessorKinds = map[ControlVariant]string{
	ControlCanny: "Canny",
	ControlDepth: "MiDaS-DepthMapPreprocessor",
	ControlPose:  "OpenposePreprocessor",
}

// threadConditions folds the ordered condition list onto the running
// (positive, negative) conditioning pair. Each condition contributes a
// guidance-image loader, an optional variant-specific preprocessor, a
// control model loader, and an apply node that consumes the running pair
// and emits the next one. The final pair is returned for the caller to
// wire into the sampler.
func threadConditions(g workflow.Graph, conds []ControlCondition, positive, negative workflow.Reference) (workflow.Reference, workflow.Reference, error) {
	if len(conds) == 0 {
		return workflow.Reference{}, workflow.Reference{}, fmt.Errorf("condition threading requires at least one condition")
	}

	for i, c := range conds {
		imageRef, err := conditionImage(g, i, c)
		if err != nil {
			return workflow.Reference{}, workflow.Reference{}, err
		}

		loaderID := fmt.Sprintf("control_loader_%d", i)
		g.Add(&workflow.Node{ID: loaderID, Kind: "ControlNetLoader", Inputs: map[string]workflow.Input{
			"control_net_name": workflow.Str(c.ModelName),
		}})

		applyID := fmt.Sprintf("control_apply_%d", i)
		g.Add(&workflow.Node{ID: applyID, Kind: "ControlNetApplyAdvanced", Inputs: map[string]workflow.Input{
			"positive":      positive,
			"negative":      negative,
			"control_net":   workflow.Ref(loaderID, 0),
			"image":         imageRef,
			"strength":      workflow.Float(c.Strength),
			"start_percent": workflow.Float(c.Start),
			"end_percent":   workflow.Float(c.End),
		}})
		positive = workflow.Ref(applyID, 0)
		negative = workflow.Ref(applyID, 1)
	}
	return positive, negative, nil
}

// conditionImage emits the image loader and, when the variant calls for
// one, the preprocessor node for condition i, returning the reference the
// apply node should read.
func conditionImage(g workflow.Graph, i int, c ControlCondition) (workflow.Reference, error) {
	switch c.Variant {
	case ControlCanny, ControlDepth, ControlPose, ControlRaw:
	default:
		return workflow.Reference{}, fmt.Errorf("condition %d: unknown control variant %q", i, c.Variant)
	}

	loadID := fmt.Sprintf("control_image_%d", i)
	g.Add(&workflow.Node{ID: loadID, Kind: "LoadImage", Inputs: map[string]workflow.Input{
		"image": workflow.Str(c.Image),
	}})
	ref := workflow.Ref(loadID, 0)

	kind, needsPrep := preprocessorKinds[c.Variant]
	if !needsPrep {
		return ref, nil
	}

	prepID := fmt.Sprintf("control_prep_%d", i)
	inputs := map[string]workflow.Input{"image": ref}
	if c.Variant == ControlCanny {
		inputs["low_threshold"] = workflow.Float(0.4)
		inputs["high_threshold"] = workflow.Float(0.8)
	}
	g.Add(&workflow.Node{ID: prepID, Kind: kind, Inputs: inputs})
	return workflow.Ref(prepID, 0), nil
}
