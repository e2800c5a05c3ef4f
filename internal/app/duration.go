package app

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DurationProbe measures an audio file's length in seconds. It is a
// function value so tests run without ffprobe on the path.
type DurationProbe func(ctx context.Context, path string) (float64, error)

// ProbeWithFFprobe shells out to ffprobe for the container-reported
// duration.
func ProbeWithFFprobe(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return 0, fmt.Errorf("probing %s: empty duration", path)
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	return seconds, nil
}

// resolveDuration reconciles the caller-supplied duration with the probed
// one. The probed value always wins; a disagreement beyond one second is
// reported as a warning.
func resolveDuration(ctx context.Context, probe DurationProbe, path string, callerDuration float64) (float64, string, error) {
	detected, err := probe(ctx, path)
	if err != nil {
		return 0, "", err
	}
	var warning string
	if callerDuration > 0 {
		diff := detected - callerDuration
		if diff < 0 {
			diff = -diff
		}
		if diff > 1.0 {
			warning = fmt.Sprintf("caller duration (%gs) differs from detected (%.1fs), using detected", callerDuration, detected)
		}
	}
	return detected, warning, nil
}
