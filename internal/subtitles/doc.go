// Package subtitles re-times WebVTT subtitle tracks from source-video time to
// clip time.
//
// Re-timing is line oriented: any "HH:MM:SS.mmm --> HH:MM:SS.mmm" timing pair
// is shifted back by the clip start offset and every other byte passes
// through. Cues that begin before the offset keep their original source
// timestamps rather than being clamped or dropped.
package subtitles
