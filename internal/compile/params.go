package compile

// StyleAdapter is one optional style modifier (a LoRA) spliced into the
// model/clip carrier chain, in request order.
type StyleAdapter struct {
	Name          string
	StrengthModel float64
	StrengthCLIP  float64
}

// ControlVariant selects the preprocessing a structural-guidance condition
// needs before its image feeds the apply node.
type ControlVariant string

const (
	ControlCanny ControlVariant = "canny"
	ControlDepth ControlVariant = "depth"
	ControlPose  ControlVariant = "pose"
	// ControlRaw feeds the guidance image through unprocessed.
	ControlRaw ControlVariant = "raw"
)

// ControlCondition is one structural-guidance condition threaded onto the
// running conditioning pair. Strength, Start and End are forwarded verbatim
// into the apply node.
type ControlCondition struct {
	Variant   ControlVariant
	ModelName string
	Image     string
	Strength  float64
	Start     float64
	End       float64
}

// ImageParams drives the text-to-image and image-to-image modes. Zero
// values mean "unset"; the compiler fills them from the resolved
// architecture profile. A negative Seed requests a random draw at compile
// time.
type ImageParams struct {
	Model    string
	Prompt   string
	Negative string

	Width  int
	Height int
	Steps  int
	CFG    float64

	Sampler   string
	Scheduler string

	// SourceImage and Denoise apply to image-to-image only.
	SourceImage string
	Denoise     float64

	Seed int64

	StyleAdapters []StyleAdapter

	// GuideImages are reference images batched into one guide-adapter
	// call; GuideWeight scales their influence.
	GuideImages []string
	GuideWeight float64

	Control []ControlCondition
}

// SpeechParams drives the voice-cloning speech mode.
type SpeechParams struct {
	Text        string
	VoiceSample string
	// SampleText is the transcript of the reference sample, when known.
	SampleText string
	Speed      float64
	Seed       int64
	Model      string
	Vocoder    string
}

// LipSyncParams drives the audio-driven portrait animation mode.
type LipSyncParams struct {
	PortraitImage string
	Audio         string
	// Duration is the probed audio duration in seconds.
	Duration       float64
	VideoModel     string
	MotionUNet     string
	InferenceSteps int
	FPS            float64
	Seed           int64
}
