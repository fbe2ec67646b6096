package subtitles

import (
	"regexp"

	"clippa/internal/timecode"
)

// timingPattern matches one cue timing pair. Cue settings after the end
// timestamp are outside the match and survive untouched.
var timingPattern = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2}\.\d{3}) --> (\d{2,}:\d{2}:\d{2}\.\d{3})`)

// Retime shifts every cue timing pair in body back by offset seconds. A pair
// whose shifted start would be negative is left byte-identical. The number and
// order of cues never change.
func Retime(body string, offset float64) string {
	out, _ := retime(body, offset)
	return out
}

func retime(body string, offset float64) (string, Summary) {
	var summary Summary
	out := timingPattern.ReplaceAllStringFunc(body, func(pair string) string {
		m := timingPattern.FindStringSubmatch(pair)
		start, err := timecode.Parse(m[1])
		if err != nil {
			return pair
		}
		end, err := timecode.Parse(m[2])
		if err != nil {
			return pair
		}
		summary.Cues++
		newStart := start - offset
		if newStart < 0 {
			return pair
		}
		summary.Shifted++
		return timecode.Format(newStart) + " --> " + timecode.Format(end-offset)
	})
	return out, summary
}
