package engine

// JobHandle identifies a submitted job for the duration of one watch.
type JobHandle struct {
	ID string
}

// FileRef is one produced file as the engine reports it.
type FileRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// NodeOutput collects the files one node produced, keyed the way the
// engine keys them. The video-combine node reports its containers under
// "gifs" even for mp4 output.
type NodeOutput struct {
	Images []FileRef `json:"images"`
	Gifs   []FileRef `json:"gifs"`
	Videos []FileRef `json:"videos"`
	Audio  []FileRef `json:"audio"`
}

// HistoryStatus is the engine's terminal verdict for a job.
type HistoryStatus struct {
	StatusStr string `json:"status_str"`
	Completed bool   `json:"completed"`
	Messages  []any  `json:"messages"`
}

// HistoryEntry is one job's record in the engine's history store. Presence
// of an entry means the job reached a terminal state.
type HistoryEntry struct {
	Status  HistoryStatus         `json:"status"`
	Outputs map[string]NodeOutput `json:"outputs"`
}

// Succeeded reports whether the entry records a successful run.
func (e *HistoryEntry) Succeeded() bool {
	return e.Status.StatusStr == "success"
}

// OutputFile is a produced file with its media type normalized.
type OutputFile struct {
	// Type is "image", "video" or "audio".
	Type      string
	Filename  string
	Subfolder string
}
