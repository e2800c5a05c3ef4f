package template

import "github.com/vk/promptweave/internal/workflow"

// Well-known node ids inside the builtin prototypes. The compiler
// substitutes request parameters into these nodes and splices optional
// modifier chains around them.
const (
	// text-to-image / image-to-image
	SamplerNode     = "3"
	CheckpointNode  = "4"
	LatentNode      = "5"
	PositiveNode    = "6"
	NegativeNode    = "7"
	DecodeNode      = "8"
	SaveNode        = "9"
	SourceImageNode = "1" // image-to-image only
	EncodeNode      = "2" // image-to-image only

	// speech
	VoiceSampleNode = "1"
	SynthesisNode   = "2"
	AudioSaveNode   = "3"

	// lipsync
	VideoCheckpointNode = "1"
	PortraitNode        = "2"
	SpeechAudioNode     = "3"
	MotionLoaderNode    = "4"
	PreDataNode         = "5"
	MotionSamplerNode   = "6"
	VideoCombineNode    = "7"
)

// textToImagePrototype is the base portrait workflow: checkpoint, prompt
// pair, empty latent, sampler, decode, save. Literal values here are
// placeholders the compiler overwrites.
func textToImagePrototype() workflow.Graph {
	g := workflow.New()
	g.Add(&workflow.Node{ID: SamplerNode, Kind: "KSampler", Inputs: map[string]workflow.Input{
		"seed":         workflow.Int(0),
		"steps":        workflow.Int(20),
		"cfg":          workflow.Float(7.0),
		"sampler_name": workflow.Str("euler_ancestral"),
		"scheduler":    workflow.Str("normal"),
		"denoise":      workflow.Float(1.0),
		"model":        workflow.Ref(CheckpointNode, 0),
		"positive":     workflow.Ref(PositiveNode, 0),
		"negative":     workflow.Ref(NegativeNode, 0),
		"latent_image": workflow.Ref(LatentNode, 0),
	}})
	g.Add(&workflow.Node{ID: CheckpointNode, Kind: "CheckpointLoaderSimple", Inputs: map[string]workflow.Input{
		"ckpt_name": workflow.Str("sd_xl_base_1.0.safetensors"),
	}})
	g.Add(&workflow.Node{ID: LatentNode, Kind: "EmptyLatentImage", Inputs: map[string]workflow.Input{
		"width":      workflow.Int(768),
		"height":     workflow.Int(1024),
		"batch_size": workflow.Int(1),
	}})
	g.Add(&workflow.Node{ID: PositiveNode, Kind: "CLIPTextEncode", Inputs: map[string]workflow.Input{
		"text": workflow.Str(""),
		"clip": workflow.Ref(CheckpointNode, 1),
	}})
	g.Add(&workflow.Node{ID: NegativeNode, Kind: "CLIPTextEncode", Inputs: map[string]workflow.Input{
		"text": workflow.Str(""),
		"clip": workflow.Ref(CheckpointNode, 1),
	}})
	g.Add(&workflow.Node{ID: DecodeNode, Kind: "VAEDecode", Inputs: map[string]workflow.Input{
		"samples": workflow.Ref(SamplerNode, 0),
		"vae":     workflow.Ref(CheckpointNode, 2),
	}})
	g.Add(&workflow.Node{ID: SaveNode, Kind: "SaveImage", Inputs: map[string]workflow.Input{
		"filename_prefix": workflow.Str("output"),
		"images":          workflow.Ref(DecodeNode, 0),
	}})
	return g
}

// imageToImagePrototype replaces the empty latent with a loaded source
// image encoded through the checkpoint's VAE; the sampler's denoise is
// expected to drop below 1 so the source shows through.
func imageToImagePrototype() workflow.Graph {
	g := textToImagePrototype()
	delete(g, LatentNode)
	g.Add(&workflow.Node{ID: SourceImageNode, Kind: "LoadImage", Inputs: map[string]workflow.Input{
		"image": workflow.Str(""),
	}})
	g.Add(&workflow.Node{ID: EncodeNode, Kind: "VAEEncode", Inputs: map[string]workflow.Input{
		"pixels": workflow.Ref(SourceImageNode, 0),
		"vae":    workflow.Ref(CheckpointNode, 2),
	}})
	g[SamplerNode].Inputs["latent_image"] = workflow.Ref(EncodeNode, 0)
	g[SamplerNode].Inputs["denoise"] = workflow.Float(0.75)
	return g
}

// speechPrototype is the voice-cloning workflow: reference audio in,
// synthesized speech tensor out.
func speechPrototype() workflow.Graph {
	g := workflow.New()
	g.Add(&workflow.Node{ID: VoiceSampleNode, Kind: "LoadAudio", Inputs: map[string]workflow.Input{
		"audio": workflow.Str(""),
	}})
	g.Add(&workflow.Node{ID: SynthesisNode, Kind: "F5TTSAudioInputs", Inputs: map[string]workflow.Input{
		"sample_audio": workflow.Ref(VoiceSampleNode, 0),
		"sample_text":  workflow.Str(""),
		"speech":       workflow.Str(""),
		"seed":         workflow.Int(0),
		"model":        workflow.Str("F5TTS_v1_Base"),
		"vocoder":      workflow.Str("vocos"),
		"speed":        workflow.Float(1.0),
		"model_type":   workflow.Str("F5-TTS"),
	}})
	g.Add(&workflow.Node{ID: AudioSaveNode, Kind: "SaveAudioTensor", Inputs: map[string]workflow.Input{
		"audio":           workflow.Ref(SynthesisNode, 0),
		"filename_prefix": workflow.Str("speech"),
	}})
	return g
}

// lipSyncPrototype is the audio-driven portrait animation workflow.
func lipSyncPrototype() workflow.Graph {
	g := workflow.New()
	g.Add(&workflow.Node{ID: VideoCheckpointNode, Kind: "ImageOnlyCheckpointLoader", Inputs: map[string]workflow.Input{
		"ckpt_name": workflow.Str("video/svd_xt_1_1.safetensors"),
	}})
	g.Add(&workflow.Node{ID: PortraitNode, Kind: "LoadImage", Inputs: map[string]workflow.Input{
		"image": workflow.Str(""),
	}})
	g.Add(&workflow.Node{ID: SpeechAudioNode, Kind: "LoadAudio", Inputs: map[string]workflow.Input{
		"audio": workflow.Str(""),
	}})
	g.Add(&workflow.Node{ID: MotionLoaderNode, Kind: "SONICTLoader", Inputs: map[string]workflow.Input{
		"model":          workflow.Ref(VideoCheckpointNode, 0),
		"sonic_unet":     workflow.Str("unet.pth"),
		"ip_audio_scale": workflow.Float(1.0),
		"use_interframe": workflow.Bool(true),
		"dtype":          workflow.Str("fp16"),
	}})
	g.Add(&workflow.Node{ID: PreDataNode, Kind: "SONIC_PreData", Inputs: map[string]workflow.Input{
		"clip_vision":    workflow.Ref(VideoCheckpointNode, 1),
		"vae":            workflow.Ref(VideoCheckpointNode, 2),
		"audio":          workflow.Ref(SpeechAudioNode, 0),
		"image":          workflow.Ref(PortraitNode, 0),
		"min_resolution": workflow.Int(512),
		"duration":       workflow.Float(5.0),
		"expand_ratio":   workflow.Float(1.0),
		"weight_dtype":   workflow.Ref(MotionLoaderNode, 1),
	}})
	g.Add(&workflow.Node{ID: MotionSamplerNode, Kind: "SONICSampler", Inputs: map[string]workflow.Input{
		"model":           workflow.Ref(MotionLoaderNode, 0),
		"data_dict":       workflow.Ref(PreDataNode, 0),
		"seed":            workflow.Int(0),
		"randomize":       workflow.Str("randomize"),
		"inference_steps": workflow.Int(25),
		"dynamic_scale":   workflow.Float(1.0),
		"fps":             workflow.Float(25.0),
	}})
	g.Add(&workflow.Node{ID: VideoCombineNode, Kind: "VHS_VideoCombine", Inputs: map[string]workflow.Input{
		"images":          workflow.Ref(MotionSamplerNode, 0),
		"audio":           workflow.Ref(SpeechAudioNode, 0),
		"frame_rate":      workflow.Ref(MotionSamplerNode, 1),
		"loop_count":      workflow.Int(0),
		"filename_prefix": workflow.Str("lipsync"),
		"format":          workflow.Str("video/h264-mp4"),
		"pingpong":        workflow.Bool(false),
		"save_output":     workflow.Bool(true),
	}})
	return g
}
