package subtitles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clippa/internal/services"
)

// TrackPath returns where the downloader writes the subtitle track for a
// video saved at videoPath: the .mp4 extension is replaced by .<lang>.vtt.
func TrackPath(videoPath, lang string) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	return base + "." + lang + ".vtt"
}

// Summary counts the cues seen by AdjustFile. Cues that start before the
// offset are left in source time and are not counted as shifted.
type Summary struct {
	Cues    int
	Shifted int
}

// AdjustFile re-times the subtitle file at path by offset seconds. The result
// is written to tmpPath first and then renamed over path, so readers never see
// a partially written track.
func AdjustFile(ctx context.Context, path string, offset float64, tmpPath string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, services.Wrap(services.ErrSubtitleAdjustment, "subtitles", "adjust", "context cancelled", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrSubtitleAdjustment, "subtitles", "read track", fmt.Sprintf("read %s", filepath.Base(path)), err)
	}
	adjusted, summary := retime(string(data), offset)
	if err := os.WriteFile(tmpPath, []byte(adjusted), 0o644); err != nil {
		return Summary{}, services.Wrap(services.ErrSubtitleAdjustment, "subtitles", "write adjusted", fmt.Sprintf("write %s", filepath.Base(tmpPath)), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return Summary{}, services.Wrap(services.ErrSubtitleAdjustment, "subtitles", "replace track", fmt.Sprintf("rename %s", filepath.Base(tmpPath)), err)
	}
	return summary, nil
}
