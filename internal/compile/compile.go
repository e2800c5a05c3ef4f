// Package compile turns mode-specific parameter records into workflow
// graphs by cloning a template and substituting values, then performing
// structural mutations for the optional modifiers a request carries:
// style-adapter chain injection, guide-image batching, and
// structural-guidance condition threading.
//
// Compile functions are pure and deterministic apart from unset seeds,
// which are drawn at compile time; callers needing reproducibility pass an
// explicit seed. Errors are reserved for structural contract violations;
// values merely outside a schema's declared range are the validator's
// business, never the compiler's.
package compile

import (
	"fmt"

	"github.com/vk/promptweave/internal/arch"
	"github.com/vk/promptweave/internal/template"
	"github.com/vk/promptweave/internal/workflow"
)

// Compiler compiles requests against an explicit resolver and template
// repository; it keeps no state of its own and is safe for concurrent use.
type Compiler struct {
	arch      arch.Resolver
	templates *template.Repository
}

// New returns a compiler using the given collaborators.
func New(resolver arch.Resolver, templates *template.Repository) *Compiler {
	return &Compiler{arch: resolver, templates: templates}
}

// TextToImage compiles a text-to-image generation request.
func (c *Compiler) TextToImage(p ImageParams) (workflow.Graph, error) {
	g, err := c.templates.Get(template.TextToImage)
	if err != nil {
		return nil, err
	}
	return c.finishImageGraph(g, p)
}

// ImageToImage compiles an image-to-image request; the source image is
// encoded into the latent the sampler starts from.
func (c *Compiler) ImageToImage(p ImageParams) (workflow.Graph, error) {
	if p.SourceImage == "" {
		return nil, fmt.Errorf("image-to-image requires a source image")
	}
	g, err := c.templates.Get(template.ImageToImage)
	if err != nil {
		return nil, err
	}
	g[template.SourceImageNode].Inputs["image"] = workflow.Str(p.SourceImage)
	if p.Denoise > 0 {
		g[template.SamplerNode].Inputs["denoise"] = workflow.Float(p.Denoise)
	}
	return c.finishImageGraph(g, p)
}

// finishImageGraph applies the parts shared by both image modes: profile
// defaults, literal substitution, and the three structural mutations.
func (c *Compiler) finishImageGraph(g workflow.Graph, p ImageParams) (workflow.Graph, error) {
	profile, err := c.arch.Resolve(p.Model)
	if err != nil {
		return nil, fmt.Errorf("resolving model %q: %w", p.Model, err)
	}
	applyImageDefaults(&p, profile.Defaults)

	seed := resolveSeed(p.Seed)
	sampler := g[template.SamplerNode]
	sampler.Inputs["seed"] = workflow.Int(seed)
	sampler.Inputs["steps"] = workflow.Int(int64(p.Steps))
	sampler.Inputs["cfg"] = workflow.Float(p.CFG)
	sampler.Inputs["sampler_name"] = workflow.Str(p.Sampler)
	sampler.Inputs["scheduler"] = workflow.Str(p.Scheduler)

	g[template.CheckpointNode].Inputs["ckpt_name"] = workflow.Str(p.Model)
	g[template.PositiveNode].Inputs["text"] = workflow.Str(p.Prompt)
	g[template.NegativeNode].Inputs["text"] = workflow.Str(p.Negative)
	g[template.SaveNode].Inputs["filename_prefix"] = workflow.Str(fmt.Sprintf("portrait_%d", seed))
	if latent, ok := g[template.LatentNode]; ok {
		latent.Inputs["width"] = workflow.Int(int64(p.Width))
		latent.Inputs["height"] = workflow.Int(int64(p.Height))
	}

	if len(p.StyleAdapters) > 0 {
		if !profile.Capabilities.StyleAdapters {
			return nil, fmt.Errorf("model family %q does not support style adapters", profile.Family)
		}
		injectChain(g, p.StyleAdapters, carrierPair{
			Model: workflow.Ref(template.CheckpointNode, 0),
			CLIP:  workflow.Ref(template.CheckpointNode, 1),
		})
	}

	if len(p.GuideImages) > 0 {
		if !profile.Capabilities.GuideImages {
			return nil, fmt.Errorf("model family %q does not support guide images", profile.Family)
		}
		if err := c.applyGuideImages(g, p); err != nil {
			return nil, err
		}
	}

	if len(p.Control) > 0 {
		if !profile.Capabilities.Control {
			return nil, fmt.Errorf("model family %q does not support structural guidance", profile.Family)
		}
		positive, negative, err := threadConditions(g, p.Control,
			workflow.Ref(template.PositiveNode, 0),
			workflow.Ref(template.NegativeNode, 0))
		if err != nil {
			return nil, err
		}
		sampler.Inputs["positive"] = positive
		sampler.Inputs["negative"] = negative
	}

	return g, nil
}

// applyGuideImages batches the guide images into one reference and feeds it
// through a guide adapter inserted between the sampler and whatever
// currently feeds its model input (the last style adapter, or the
// checkpoint itself).
func (c *Compiler) applyGuideImages(g workflow.Graph, p ImageParams) error {
	imageRef, err := batchGuideImages(g, p.GuideImages)
	if err != nil {
		return err
	}

	sampler := g[template.SamplerNode]
	modelSource, ok := sampler.Inputs["model"].(workflow.Reference)
	if !ok {
		return fmt.Errorf("sampler model input is not a reference")
	}

	weight := p.GuideWeight
	if weight == 0 {
		weight = 0.8
	}

	g.Add(&workflow.Node{ID: "guide_loader", Kind: "IPAdapterUnifiedLoader", Inputs: map[string]workflow.Input{
		"model":  modelSource,
		"preset": workflow.Str("PLUS (high strength)"),
	}})
	g.Add(&workflow.Node{ID: "guide_apply", Kind: "IPAdapterAdvanced", Inputs: map[string]workflow.Input{
		"model":          workflow.Ref("guide_loader", 0),
		"ipadapter":      workflow.Ref("guide_loader", 1),
		"image":          imageRef,
		"weight":         workflow.Float(weight),
		"weight_type":    workflow.Str("linear"),
		"combine_embeds": workflow.Str("concat"),
		"start_at":       workflow.Float(0.0),
		"end_at":         workflow.Float(1.0),
		"embeds_scaling": workflow.Str("V only"),
	}})
	sampler.Inputs["model"] = workflow.Ref("guide_apply", 0)
	return nil
}

// Speech compiles a voice-cloning request.
func (c *Compiler) Speech(p SpeechParams) (workflow.Graph, error) {
	if p.Text == "" {
		return nil, fmt.Errorf("speech requires text")
	}
	if p.VoiceSample == "" {
		return nil, fmt.Errorf("speech requires a voice sample")
	}
	g, err := c.templates.Get(template.Speech)
	if err != nil {
		return nil, err
	}

	if p.Speed == 0 {
		p.Speed = 1.0
	}
	if p.Model == "" {
		p.Model = "F5TTS_v1_Base"
	}
	if p.Vocoder == "" {
		p.Vocoder = "vocos"
	}

	g[template.VoiceSampleNode].Inputs["audio"] = workflow.Str(p.VoiceSample)
	synth := g[template.SynthesisNode]
	synth.Inputs["speech"] = workflow.Str(p.Text)
	synth.Inputs["sample_text"] = workflow.Str(p.SampleText)
	synth.Inputs["seed"] = workflow.Int(resolveSeed(p.Seed))
	synth.Inputs["model"] = workflow.Str(p.Model)
	synth.Inputs["vocoder"] = workflow.Str(p.Vocoder)
	synth.Inputs["speed"] = workflow.Float(p.Speed)
	return g, nil
}

// LipSync compiles an audio-driven portrait animation request. Duration
// must already be resolved to the actual audio length.
func (c *Compiler) LipSync(p LipSyncParams) (workflow.Graph, error) {
	if p.PortraitImage == "" {
		return nil, fmt.Errorf("lipsync requires a portrait image")
	}
	if p.Audio == "" {
		return nil, fmt.Errorf("lipsync requires an audio file")
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("lipsync requires a positive audio duration, got %v", p.Duration)
	}
	g, err := c.templates.Get(template.LipSync)
	if err != nil {
		return nil, err
	}

	if p.VideoModel == "" {
		p.VideoModel = "svd_xt_1_1.safetensors"
	}
	if p.MotionUNet == "" {
		p.MotionUNet = "unet.pth"
	}
	if p.InferenceSteps == 0 {
		p.InferenceSteps = 25
	}
	if p.FPS == 0 {
		p.FPS = 25.0
	}

	g[template.VideoCheckpointNode].Inputs["ckpt_name"] = workflow.Str("video/" + p.VideoModel)
	g[template.PortraitNode].Inputs["image"] = workflow.Str(p.PortraitImage)
	g[template.SpeechAudioNode].Inputs["audio"] = workflow.Str(p.Audio)
	g[template.MotionLoaderNode].Inputs["sonic_unet"] = workflow.Str(p.MotionUNet)
	g[template.PreDataNode].Inputs["duration"] = workflow.Float(p.Duration)

	sampler := g[template.MotionSamplerNode]
	sampler.Inputs["seed"] = workflow.Int(capMotionSeed(resolveSeed(p.Seed)))
	sampler.Inputs["inference_steps"] = workflow.Int(int64(p.InferenceSteps))
	sampler.Inputs["fps"] = workflow.Float(p.FPS)
	return g, nil
}

func applyImageDefaults(p *ImageParams, d arch.Defaults) {
	if p.Width == 0 {
		p.Width = d.Width
	}
	if p.Height == 0 {
		p.Height = d.Height
	}
	if p.Steps == 0 {
		p.Steps = d.Steps
	}
	if p.CFG == 0 {
		p.CFG = d.CFG
	}
	if p.Sampler == "" {
		p.Sampler = d.Sampler
	}
	if p.Scheduler == "" {
		p.Scheduler = d.Scheduler
	}
	if p.Negative == "" {
		p.Negative = d.Negative
	}
}
