package engine

import "sort"

// OutputFiles flattens a terminal history entry into the files it
// produced, normalizing the engine's per-key grouping ("gifs" holds video
// containers) into media types. Node ids are walked in sorted order so the
// result is deterministic.
func OutputFiles(entry *HistoryEntry) []OutputFile {
	nodeIDs := make([]string, 0, len(entry.Outputs))
	for id := range entry.Outputs {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	var files []OutputFile
	for _, id := range nodeIDs {
		out := entry.Outputs[id]
		files = appendFiles(files, "image", out.Images)
		files = appendFiles(files, "video", out.Gifs)
		files = appendFiles(files, "video", out.Videos)
		files = appendFiles(files, "audio", out.Audio)
	}
	return files
}

func appendFiles(files []OutputFile, mediaType string, refs []FileRef) []OutputFile {
	for _, ref := range refs {
		files = append(files, OutputFile{
			Type:      mediaType,
			Filename:  ref.Filename,
			Subfolder: ref.Subfolder,
		})
	}
	return files
}
