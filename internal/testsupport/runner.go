package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"clippa/internal/services"
	"clippa/internal/subtitles"
)

// Call is one recorded subprocess invocation.
type Call struct {
	Binary string
	Args   []string
}

// Behavior simulates one tool run.
type Behavior func(ctx context.Context, args []string) error

// FakeRunner is a media.Runner that records invocations and dispatches them
// to per-binary behaviors. Binaries without a behavior succeed without side
// effects.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []Call
	behaviors map[string]Behavior
}

// NewFakeRunner returns a runner with no behaviors.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{behaviors: make(map[string]Behavior)}
}

// On sets the behavior for binary and returns the runner for chaining.
func (f *FakeRunner) On(binary string, behavior Behavior) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviors[binary] = behavior
	return f
}

func (f *FakeRunner) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Binary: binary, Args: slices.Clone(args)})
	behavior := f.behaviors[binary]
	f.mu.Unlock()
	if onOutput != nil {
		onOutput("fake " + binary + " started")
	}
	if behavior == nil {
		return nil
	}
	return behavior(ctx, args)
}

// Calls returns a copy of the recorded invocations.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallsTo returns the recorded invocations of binary.
func (f *FakeRunner) CallsTo(binary string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Binary == binary {
			out = append(out, c)
		}
	}
	return out
}

// FlagValue returns the argument following flag, or "".
func FlagValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// DownloaderWrites simulates a successful downloader run: it writes the -o
// target and, when subtitles were requested and subtitleBody is not empty,
// the track next to it.
func DownloaderWrites(subtitleBody string) Behavior {
	return func(_ context.Context, args []string) error {
		out := FlagValue(args, "-o")
		if err := writeBytes(out, "raw video"); err != nil {
			return err
		}
		if subtitleBody != "" && slices.Contains(args, "--write-subs") {
			track := subtitles.TrackPath(out, FlagValue(args, "--sub-lang"))
			return writeBytes(track, subtitleBody)
		}
		return nil
	}
}

// TranscoderWrites simulates a successful transcoder run by writing its
// output file, the last .mp4 argument that is not an input.
func TranscoderWrites() Behavior {
	return func(_ context.Context, args []string) error {
		return writeBytes(TranscoderOutput(args), "transcoded video")
	}
}

// TranscoderOutput returns the output path of a transcoder argument list.
func TranscoderOutput(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 && args[i-1] == "-i" {
			continue
		}
		if strings.HasSuffix(a, ".mp4") {
			out = a
		}
	}
	return out
}

// ExitsWith simulates a tool that exits with code.
func ExitsWith(tool string, code int) Behavior {
	return func(context.Context, []string) error {
		return &services.ExitError{Tool: tool, Code: code}
	}
}

// BlocksUntilKilled simulates a tool that never exits on its own. It returns
// the error a SIGKILL on context expiry produces.
func BlocksUntilKilled(tool string) Behavior {
	return func(ctx context.Context, _ []string) error {
		<-ctx.Done()
		return &services.ExitError{Tool: tool, Signal: "SIGKILL", Context: ctx.Err()}
	}
}

func writeBytes(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
