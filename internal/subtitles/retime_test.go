package subtitles_test

import (
	"math"
	"strings"
	"testing"

	"clippa/internal/subtitles"
)

const scenarioTrack = `WEBVTT
Kind: captions
Language: en

00:00:55.000 --> 00:01:02.000
A

00:01:05.000 --> 00:01:08.000 align:start position:0%
B
`

func TestRetimeBoundaryScenario(t *testing.T) {
	got := subtitles.Retime(scenarioTrack, 60)

	if !strings.Contains(got, "00:00:55.000 --> 00:01:02.000\nA\n") {
		t.Fatalf("expected boundary cue A to stay in source time, got:\n%s", got)
	}
	if !strings.Contains(got, "00:00:05.000 --> 00:00:08.000 align:start position:0%\nB\n") {
		t.Fatalf("expected cue B shifted with settings preserved, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "WEBVTT\nKind: captions\nLanguage: en\n\n") {
		t.Fatalf("expected header to pass through, got:\n%s", got)
	}

	cues := subtitles.ParseCues(got)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Payload != "A" || cues[1].Payload != "B" {
		t.Fatalf("unexpected payload order: %+v", cues)
	}
}

func TestRetimeShiftPreservesDuration(t *testing.T) {
	source := "00:10:00.250 --> 00:10:03.750\nline one\nline two\n\n01:00:00.000 --> 01:00:00.001\nx\n"
	offset := 125.125
	before := subtitles.ParseCues(source)
	after := subtitles.ParseCues(subtitles.Retime(source, offset))
	if len(before) != len(after) {
		t.Fatalf("cue count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if math.Abs((before[i].Start-offset)-after[i].Start) > 0.0005 {
			t.Fatalf("cue %d start = %v, want %v", i, after[i].Start, before[i].Start-offset)
		}
		if math.Abs(before[i].Duration()-after[i].Duration()) > 0.0015 {
			t.Fatalf("cue %d duration changed: %v -> %v", i, before[i].Duration(), after[i].Duration())
		}
		if before[i].Payload != after[i].Payload {
			t.Fatalf("cue %d payload changed: %q -> %q", i, before[i].Payload, after[i].Payload)
		}
	}
}

func TestRetimeEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		offset float64
		want   string
	}{
		{
			name:   "zero offset",
			body:   "00:00:01.000 --> 00:00:02.000\nhi\n",
			offset: 0,
			want:   "00:00:01.000 --> 00:00:02.000\nhi\n",
		},
		{
			name:   "start exactly at offset",
			body:   "00:01:00.000 --> 00:01:01.500\nhi\n",
			offset: 60,
			want:   "00:00:00.000 --> 00:00:01.500\nhi\n",
		},
		{
			name:   "start before offset untouched",
			body:   "00:00:59.999 --> 00:01:00.500\nhi\n",
			offset: 60,
			want:   "00:00:59.999 --> 00:01:00.500\nhi\n",
		},
		{
			name:   "crlf line endings",
			body:   "WEBVTT\r\n\r\n00:02:00.000 --> 00:02:01.000\r\nhi\r\n",
			offset: 90,
			want:   "WEBVTT\r\n\r\n00:00:30.000 --> 00:00:31.000\r\nhi\r\n",
		},
		{
			name:   "non matching timing lines pass through",
			body:   "00:01.000 --> 00:02.000\n1:00:00,000 --> 1:00:01,000\n",
			offset: 10,
			want:   "00:01.000 --> 00:02.000\n1:00:00,000 --> 1:00:01,000\n",
		},
		{
			name:   "empty body",
			body:   "",
			offset: 10,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subtitles.Retime(tt.body, tt.offset); got != tt.want {
				t.Fatalf("Retime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCuesSkipsIdentifiersAndNotes(t *testing.T) {
	body := "WEBVTT\n\nNOTE a comment\n\nintro\n00:00:01.000 --> 00:00:02.000\n<c>hello</c>\n\n00:00:03.000 --> 00:00:04.000\n"
	cues := subtitles.ParseCues(body)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if cues[0].Start != 1 || cues[0].End != 2 || cues[0].Payload != "<c>hello</c>" {
		t.Fatalf("unexpected first cue: %+v", cues[0])
	}
	if cues[1].Payload != "" {
		t.Fatalf("expected empty payload for trailing cue, got %q", cues[1].Payload)
	}
}
