package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vk/promptweave/internal/compile"
)

// Actions accepted in a request document.
const (
	ActionPortrait = "portrait"
	ActionSpeech   = "tts"
	ActionLipSync  = "lipsync"
)

// StyleAdapterRequest is one requested style modifier.
type StyleAdapterRequest struct {
	Name          string  `json:"name"`
	StrengthModel float64 `json:"strength_model"`
	StrengthCLIP  float64 `json:"strength_clip"`
}

// ControlRequest is one requested structural-guidance condition.
type ControlRequest struct {
	Type     string  `json:"type"`
	Model    string  `json:"model"`
	Image    string  `json:"image"`
	Strength float64 `json:"strength"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
}

// Request is the action-style request document. Fields are a union over
// the three actions; validation is per-action.
type Request struct {
	Action string `json:"action"`

	// Portrait generation.
	Model           string                `json:"model"`
	Prompt          string                `json:"prompt"`
	NegativePrompt  string                `json:"negative_prompt"`
	Width           int                   `json:"width"`
	Height          int                   `json:"height"`
	Steps           int                   `json:"steps"`
	CFGScale        float64               `json:"cfg_scale"`
	SourceImage     string                `json:"source_image"`
	Denoise         float64               `json:"denoise"`
	Loras           []StyleAdapterRequest `json:"loras"`
	ReferenceImages []string              `json:"reference_images"`
	ReferenceWeight float64               `json:"reference_weight"`
	Control         []ControlRequest      `json:"control"`

	// Speech synthesis.
	Text        string  `json:"text"`
	VoiceSample string  `json:"voice_sample"`
	SampleText  string  `json:"sample_text"`
	Speed       float64 `json:"speed"`

	// Lip-sync.
	PortraitImage  string  `json:"portrait_image"`
	Audio          string  `json:"audio"`
	Duration       float64 `json:"duration"`
	SVDCheckpoint  string  `json:"svd_checkpoint"`
	SonicUNet      string  `json:"sonic_unet"`
	InferenceSteps int     `json:"inference_steps"`
	FPS            float64 `json:"fps"`

	// Shared.
	Seed int64 `json:"seed"`
}

// ParseRequest decodes a request document. Unknown fields are rejected so
// typos surface instead of silently falling back to defaults.
func ParseRequest(r io.Reader) (*Request, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.Action == "" {
		req.Action = ActionPortrait
	}
	if req.Seed == 0 {
		// A zero seed in JSON is indistinguishable from an absent one;
		// absent means "draw randomly".
		req.Seed = -1
	}
	return &req, nil
}

// RequestError carries every problem found in a request so the caller can
// fix them in one round trip.
type RequestError struct {
	Problems []string
}

func (e *RequestError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// Validate checks the request's required fields for its action, collecting
// every violation.
func (r *Request) Validate() error {
	var problems []string
	missing := func(field string) {
		problems = append(problems, "missing required parameter: "+field)
	}

	switch r.Action {
	case ActionPortrait:
		if r.Prompt == "" {
			missing("prompt")
		}
	case ActionSpeech:
		if r.Text == "" {
			missing("text")
		}
	case ActionLipSync:
		if r.PortraitImage == "" {
			missing("portrait_image")
		}
		if r.Audio == "" {
			missing("audio")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown action: %q", r.Action))
	}

	for i, c := range r.Control {
		if c.Image == "" {
			problems = append(problems, fmt.Sprintf("control[%d]: missing image", i))
		}
	}

	if len(problems) > 0 {
		return &RequestError{Problems: problems}
	}
	return nil
}

func (r *Request) imageParams() compile.ImageParams {
	adapters := make([]compile.StyleAdapter, 0, len(r.Loras))
	for _, l := range r.Loras {
		adapters = append(adapters, compile.StyleAdapter{
			Name:          l.Name,
			StrengthModel: l.StrengthModel,
			StrengthCLIP:  l.StrengthCLIP,
		})
	}
	conditions := make([]compile.ControlCondition, 0, len(r.Control))
	for _, c := range r.Control {
		conditions = append(conditions, compile.ControlCondition{
			Variant:   compile.ControlVariant(c.Type),
			ModelName: c.Model,
			Image:     c.Image,
			Strength:  c.Strength,
			Start:     c.Start,
			End:       c.End,
		})
	}
	return compile.ImageParams{
		Model:         r.Model,
		Prompt:        r.Prompt,
		Negative:      r.NegativePrompt,
		Width:         r.Width,
		Height:        r.Height,
		Steps:         r.Steps,
		CFG:           r.CFGScale,
		SourceImage:   r.SourceImage,
		Denoise:       r.Denoise,
		Seed:          r.Seed,
		StyleAdapters: adapters,
		GuideImages:   r.ReferenceImages,
		GuideWeight:   r.ReferenceWeight,
		Control:       conditions,
	}
}

func (r *Request) speechParams() compile.SpeechParams {
	return compile.SpeechParams{
		Text:        r.Text,
		VoiceSample: r.VoiceSample,
		SampleText:  r.SampleText,
		Speed:       r.Speed,
		Seed:        r.Seed,
	}
}

func (r *Request) lipSyncParams(duration float64) compile.LipSyncParams {
	return compile.LipSyncParams{
		PortraitImage:  r.PortraitImage,
		Audio:          r.Audio,
		Duration:       duration,
		VideoModel:     r.SVDCheckpoint,
		MotionUNet:     r.SonicUNet,
		InferenceSteps: r.InferenceSteps,
		FPS:            r.FPS,
		Seed:           r.Seed,
	}
}
