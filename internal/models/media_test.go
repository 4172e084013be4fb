package models

import (
	"errors"
	"testing"
)

func TestParseMediaFile(t *testing.T) {
	tests := []struct {
		path string
		dir  string
		stem string
		ext  string
	}{
		{path: "clip.mp4", dir: ".", stem: "clip", ext: "mp4"},
		{path: "/videos/lecture.mkv", dir: "/videos", stem: "lecture", ext: "mkv"},
		{path: "some.dir/talk.webm", dir: "some.dir", stem: "talk", ext: "webm"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, err := ParseMediaFile(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Dir != tt.dir || m.Stem != tt.stem || m.Ext != tt.ext {
				t.Errorf("got %+v, want dir=%q stem=%q ext=%q", m, tt.dir, tt.stem, tt.ext)
			}
			if m.Path != tt.path {
				t.Errorf("expected Path %q, got %q", tt.path, m.Path)
			}
		})
	}
}

func TestParseMediaFile_Malformed(t *testing.T) {
	for _, path := range []string{"noextension", "two.dots.mp4", "/videos/.hidden", "trailing."} {
		t.Run(path, func(t *testing.T) {
			_, err := ParseMediaFile(path)
			if !errors.Is(err, ErrMalformedName) {
				t.Errorf("expected ErrMalformedName, got %v", err)
			}
		})
	}
}

func TestMediaFile_WithSuffix(t *testing.T) {
	m := MediaFile{Stem: "clip", Ext: "mp4"}
	if got := m.WithSuffix("_sound"); got != "clip_sound.mp4" {
		t.Errorf("expected clip_sound.mp4, got %s", got)
	}
}

func TestLoudnormTarget_IsZero(t *testing.T) {
	if !(LoudnormTarget{}).IsZero() {
		t.Error("expected zero target to report IsZero")
	}
	if (LoudnormTarget{IntegratedLoudness: -16}).IsZero() {
		t.Error("expected target with loudness set to be non-zero")
	}
}

func TestDefaultAudioProcessingOptions(t *testing.T) {
	opts := DefaultAudioProcessingOptions()

	if opts.StatsDir != "stats_pass" {
		t.Errorf("expected StatsDir stats_pass, got %s", opts.StatsDir)
	}
	if opts.NormalizedDir != "normalized" {
		t.Errorf("expected NormalizedDir normalized, got %s", opts.NormalizedDir)
	}
	if opts.NegligibleDB != 0.3 {
		t.Errorf("expected NegligibleDB 0.3, got %f", opts.NegligibleDB)
	}
	if opts.AudioCodec != "aac" {
		t.Errorf("expected AudioCodec aac, got %s", opts.AudioCodec)
	}
}
