package enclosures

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DurationProber determines the playing time of a media file, used when
// the feed declares no duration for an episode.
type DurationProber interface {
	Duration(ctx context.Context, path string) (int, error)
}

// FFProbe reads media durations through the ffprobe binary.
type FFProbe struct {
	// Path overrides the binary looked up on $PATH.
	Path string
}

func (p FFProbe) Duration(ctx context.Context, path string) (int, error) {
	binary := p.Path
	if binary == "" {
		binary = "ffprobe"
	}
	out, err := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected output %q", path, out)
	}
	return int(seconds), nil
}
