// Package ffmpegtest provides a recording ffmpeg.Runner for tests.
package ffmpegtest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
)

// Recorder records every invocation instead of running the encoder. When an
// invocation carries a LogPath, the output returned by Output is written
// there, standing in for the encoder's combined output.
type Recorder struct {
	mu    sync.Mutex
	calls []ffmpeg.Invocation

	// Output returns the canned encoder output for inv.
	Output func(inv ffmpeg.Invocation) string
	// Err, when set, is returned for every invocation after the log is written.
	Err error
}

// Run implements ffmpeg.Runner.
func (r *Recorder) Run(_ context.Context, inv ffmpeg.Invocation) error {
	r.mu.Lock()
	r.calls = append(r.calls, ffmpeg.Invocation{
		Args:    append([]string(nil), inv.Args...),
		LogPath: inv.LogPath,
	})
	r.mu.Unlock()

	if inv.LogPath != "" {
		out := ""
		if r.Output != nil {
			out = r.Output(inv)
		}
		if err := os.MkdirAll(filepath.Dir(inv.LogPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(inv.LogPath, []byte(out), 0644); err != nil {
			return err
		}
	}
	return r.Err
}

// Calls returns a copy of the recorded invocations.
func (r *Recorder) Calls() []ffmpeg.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ffmpeg.Invocation(nil), r.calls...)
}

// Commands returns each invocation's arguments joined by spaces.
func (r *Recorder) Commands() []string {
	var cmds []string
	for _, c := range r.Calls() {
		cmds = append(cmds, strings.Join(c.Args, " "))
	}
	return cmds
}

// ArgAfter returns the argument following flag in inv, or "".
func ArgAfter(inv ffmpeg.Invocation, flag string) string {
	for i := 0; i < len(inv.Args)-1; i++ {
		if inv.Args[i] == flag {
			return inv.Args[i+1]
		}
	}
	return ""
}
