package clip

import (
	"path/filepath"

	"clippa/internal/subtitles"
)

// Paths names the temporary files of one job.
type Paths struct {
	// Raw is the extraction output and, after promotion, the canonical clip.
	Raw string
	// Fast is the transcoder output before promotion.
	Fast string
	// Subtitle is the track the downloader writes next to Raw.
	Subtitle string
	// Adjusted holds the re-timed track before it replaces Subtitle.
	Adjusted string
	// Cookies is the job's staged credential copy.
	Cookies string
}

// PathsFor returns the temporary file layout for job id under workDir.
func PathsFor(workDir, id, subtitleLang string) Paths {
	raw := filepath.Join(workDir, "clip-"+id+".mp4")
	return Paths{
		Raw:      raw,
		Fast:     filepath.Join(workDir, "clip-"+id+"-fast.mp4"),
		Subtitle: subtitles.TrackPath(raw, subtitleLang),
		Adjusted: filepath.Join(workDir, "clip-"+id+"-adjusted.vtt"),
		Cookies:  filepath.Join(workDir, "cookies-"+id+".txt"),
	}
}

// ObjectKey is the storage key of a finished clip.
func ObjectKey(id string) string {
	return "clip-" + id + ".mp4"
}

// leftovers lists every path finalization removes. Subtitle tracks in other
// languages are matched by glob.
func (p Paths) leftovers() []string {
	files := []string{p.Raw, p.Fast, p.Subtitle, p.Adjusted, p.Cookies}
	base := p.Raw[:len(p.Raw)-len(filepath.Ext(p.Raw))]
	if matches, err := filepath.Glob(globEscape(base) + ".*.vtt"); err == nil {
		for _, m := range matches {
			if m != p.Subtitle {
				files = append(files, m)
			}
		}
	}
	return files
}

func globEscape(path string) string {
	out := make([]rune, 0, len(path))
	for _, r := range path {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
