package subtitles

import (
	"strings"

	"clippa/internal/timecode"
)

// Cue is one timed subtitle entry.
type Cue struct {
	Start   float64
	End     float64
	Payload string
}

// Duration returns End minus Start.
func (c Cue) Duration() float64 { return c.End - c.Start }

// ParseCues returns the cues in body in document order. Header blocks, NOTE
// blocks, and cue identifiers are skipped; the payload is every line after the
// timing line up to the next blank line, joined with "\n".
func ParseCues(body string) []Cue {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	var cues []Cue
	for i := 0; i < len(lines); i++ {
		m := timingPattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		start, err := timecode.Parse(m[1])
		if err != nil {
			continue
		}
		end, err := timecode.Parse(m[2])
		if err != nil {
			continue
		}
		var payload []string
		for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
			i++
			payload = append(payload, lines[i])
		}
		cues = append(cues, Cue{Start: start, End: end, Payload: strings.Join(payload, "\n")})
	}
	return cues
}
