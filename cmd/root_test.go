package cmd

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/kartoza-audio-norms/internal/audio"
	"github.com/kartoza/kartoza-audio-norms/internal/config"
	"github.com/kartoza/kartoza-audio-norms/internal/deps"
	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg/ffmpegtest"
	"github.com/kartoza/kartoza-audio-norms/internal/models"
	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
)

const loudnormLog = "[Parsed_loudnorm_0 @ 0x5581d0c0a2c0] \n{\n" +
	"\t\"input_i\" : \"-27.61\",\n\t\"input_tp\" : \"-4.47\",\n\t\"input_lra\" : \"18.06\",\n" +
	"\t\"input_thresh\" : \"-39.20\",\n\t\"target_offset\" : \"0.58\"\n}\n"

type testEnv struct {
	dir    string
	input  string
	rec    *ffmpegtest.Recorder
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// newTestEnv swaps the encoder for a recorder whose volumedetect output
// reports maxVolume, and points all output directories into a temp dir.
func newTestEnv(t *testing.T, maxVolume string) *testEnv {
	t.Helper()

	env := &testEnv{dir: t.TempDir()}
	env.input = filepath.Join(env.dir, "clip.mp4")
	env.rec = &ffmpegtest.Recorder{Output: func(inv ffmpeg.Invocation) string {
		switch {
		case ffmpegtest.ArgAfter(inv, "-af") == "volumedetect":
			return "[Parsed_volumedetect_0 @ 0x55d0c5a1e2c0] max_volume: " + maxVolume + " dB\n"
		case ffmpegtest.ArgAfter(inv, "-pass") == "1":
			return loudnormLog
		}
		return ""
	}}

	origEncoder, origMissing, origNotify, origOS := newEncoder, missingEncoder, sendNotify, hostOS
	t.Cleanup(func() {
		newEncoder, missingEncoder, sendNotify, hostOS = origEncoder, origMissing, origNotify, origOS
	})
	newEncoder = func(string, io.Writer, *slog.Logger) ffmpeg.Runner { return env.rec }
	missingEncoder = func(string) []deps.CheckResult { return nil }
	sendNotify = false
	hostOS = "linux"

	cfg := config.DefaultConfig()
	cfg.AudioProcessing.StatsDir = filepath.Join(env.dir, "stats_pass")
	cfg.AudioProcessing.NormalizedDir = filepath.Join(env.dir, "normalized")
	cfg.AudioProcessing.VolumeOutputDir = env.dir
	require.NoError(t, config.SaveTo(env.configPath(), &cfg))

	return env
}

func (e *testEnv) configPath() string {
	return filepath.Join(e.dir, "config.json")
}

func (e *testEnv) run(args ...string) error {
	e.stdout.Reset()
	e.stderr.Reset()

	cmd := newRootCmd()
	cmd.SetOut(&e.stdout)
	cmd.SetErr(&e.stderr)
	cmd.SetArgs(normalizeArgs(append([]string{"--config", e.configPath()}, args...)))
	return cmd.Execute()
}

func TestRoot_VolumeFromDetection(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run(env.input, "-vd", "-vi"))

	calls := env.rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, filepath.Join(env.dir, "clip_detect.log"), calls[0].LogPath)
	assert.Equal(t, "volume=5.2dB", ffmpegtest.ArgAfter(calls[1], "-af"))
	assert.Contains(t, env.stdout.String(), "clip_sound.mp4")
}

func TestRoot_NegligibleDifference(t *testing.T) {
	env := newTestEnv(t, "0.15")

	require.NoError(t, env.run(env.input, "--detect", "--volume"))

	assert.Len(t, env.rec.Calls(), 1)
	assert.Contains(t, env.stdout.String(), "negligible")
}

func TestRoot_ThresholdFlag(t *testing.T) {
	env := newTestEnv(t, "0.15")

	require.NoError(t, env.run(env.input, "--detect", "--volume", "--threshold", "0.1"))

	calls := env.rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "volume=-0.15dB", ffmpegtest.ArgAfter(calls[1], "-af"))
}

func TestRoot_ExplicitVolumeWinsOverDetection(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run(env.input, "--detect", "--volume=3"))

	calls := env.rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "volume=3dB", ffmpegtest.ArgAfter(calls[1], "-af"))
	assert.Contains(t, env.stderr.String(), "using 3 dB instead of reading the detection log")
}

func TestRoot_VolumeWithoutDetect(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	err := env.run(env.input, "--loudnorm", "-vi")

	assert.ErrorIs(t, err, pipeline.ErrDetectionRequired)
	assert.Empty(t, env.rec.Calls())
}

func TestRoot_MissingMaxVolume(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	env.rec.Output = func(ffmpeg.Invocation) string { return "clip.mp4: No such file or directory\n" }

	err := env.run(env.input, "-vd", "-vi")

	assert.ErrorIs(t, err, audio.ErrNoMaxVolume)
	assert.Len(t, env.rec.Calls(), 1)
}

func TestRoot_LoudnormCachesStats(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run(env.input, "--loudnorm"))
	require.Len(t, env.rec.Calls(), 2)
	assert.Contains(t, env.stdout.String(), "(measured)")

	require.NoError(t, env.run(env.input, "-l"))
	calls := env.rec.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "2", ffmpegtest.ArgAfter(calls[2], "-pass"))
	assert.Contains(t, env.stdout.String(), "(cached)")

	require.NoError(t, env.run(env.input, "-l", "--refresh-stats"))
	assert.Len(t, env.rec.Calls(), 5)
}

func TestRoot_TargetFlags(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run(env.input, "-l", "--target-i=-16", "--target-tp=-1.5"))

	calls := env.rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "loudnorm=I=-16:TP=-1.5:print_format=json", ffmpegtest.ArgAfter(calls[0], "-af"))
}

func TestRoot_MalformedName(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	err := env.run(filepath.Join(env.dir, "noextension"), "--loudnorm")

	assert.ErrorIs(t, err, models.ErrMalformedName)
	assert.Empty(t, env.rec.Calls())
}

func TestRoot_InvalidVolume(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	err := env.run(env.input, "--volume=loud")

	assert.ErrorContains(t, err, "invalid volume")
	assert.Empty(t, env.rec.Calls())
}

func TestRoot_VolumeDetectWordRejected(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	err := env.run(env.input, "--detect", "--volume=detect")

	assert.ErrorContains(t, err, "invalid volume")
	assert.Empty(t, env.rec.Calls())
}

// fakeProgress stands in for the stage view and records what it was given.
type fakeProgress struct {
	stages []pipeline.Stage
	events int
}

func (f *fakeProgress) run(_ io.Writer, _ string, stages []pipeline.Stage, work func(pipeline.ProgressCallback) error) error {
	f.stages = stages
	return work(func(int, pipeline.Stage, bool, bool, error) { f.events++ })
}

func withFakeProgress(t *testing.T) *fakeProgress {
	t.Helper()
	fake := &fakeProgress{}
	origTerminal, origProgress := isTerminal, runProgress
	t.Cleanup(func() { isTerminal, runProgress = origTerminal, origProgress })
	isTerminal = func(io.Writer) bool { return true }
	runProgress = fake.run
	return fake
}

func TestRoot_QuietOnTerminalShowsStageView(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	fake := withFakeProgress(t)

	require.NoError(t, env.run(env.input, "-q", "--detect", "--volume"))

	assert.Equal(t, []pipeline.Stage{pipeline.StageDetect, pipeline.StageVolume}, fake.stages)
	assert.Equal(t, 4, fake.events)
	assert.Len(t, env.rec.Calls(), 2)
	assert.Contains(t, env.stdout.String(), "Done!")
	assert.NotContains(t, env.stderr.String(), "adjusting volume from detection")
}

func TestRoot_StageViewNeedsQuiet(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	fake := withFakeProgress(t)

	require.NoError(t, env.run(env.input, "--detect"))
	require.NoError(t, env.run(env.input, "-q", "--debug", "--detect"))

	assert.Nil(t, fake.stages)
	assert.Zero(t, fake.events)
}

// withFailingNotifications enables notifications that always fail.
func withFailingNotifications(t *testing.T) *[]string {
	t.Helper()
	var sent []string
	origComplete, origFailed := notifyComplete, notifyFailed
	t.Cleanup(func() { notifyComplete, notifyFailed = origComplete, origFailed })
	sendNotify = true
	notifyComplete = func(input string, outputs []string) error {
		sent = append(sent, "complete")
		return errors.New("notify-send: not found")
	}
	notifyFailed = func(input string, err error) error {
		sent = append(sent, "failed: "+err.Error())
		return errors.New("notify-send: not found")
	}
	return &sent
}

func TestRoot_NotifyFailureOnFailedJobIsLogged(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	sent := withFailingNotifications(t)
	env.rec.Err = errors.New("exit status 1")

	err := env.run(env.input, "--detect", "--notify", "--debug")

	assert.ErrorContains(t, err, "exit status 1")
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "failed: detect:")
	assert.Contains(t, env.stderr.String(), "notification failed")
}

func TestRoot_NotifyFailureOnSuccessIsLogged(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	sent := withFailingNotifications(t)

	require.NoError(t, env.run(env.input, "--detect", "--notify", "--debug"))

	assert.Equal(t, []string{"complete"}, *sent)
	assert.Contains(t, env.stderr.String(), "notification failed")
}

func TestRoot_NothingToDo(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run(env.input))

	assert.Empty(t, env.rec.Calls())
	assert.Contains(t, env.stderr.String(), "nothing to do")
}

func TestRoot_UnsupportedPlatform(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	hostOS = "windows"

	err := env.run(env.input, "--detect")

	assert.ErrorIs(t, err, errUnsupportedPlatform)
	assert.Empty(t, env.rec.Calls())
}

func TestRoot_MissingEncoder(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	missingEncoder = deps.MissingRequired

	err := env.run(env.input, "--detect", "--ffmpeg", "/nonexistent/bin/ffmpeg")

	assert.ErrorContains(t, err, "Missing dependencies")
	assert.Empty(t, env.rec.Calls())
}

func TestRoot_RequiresOneInput(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	assert.Error(t, env.run())
	assert.Error(t, env.run("a.mp4", "b.mp4", "--detect"))
}

func TestConfigCmd(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run("config", "--ffmpeg", "/opt/bin/ffmpeg"))

	out := env.stdout.String()
	assert.Contains(t, out, `"ffmpeg_path": "/opt/bin/ffmpeg"`)
	assert.Contains(t, out, filepath.Join(env.dir, "stats_pass"))
}

func TestConfigInitCmd(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	assert.ErrorContains(t, env.run("config", "init"), "already exists")

	require.NoError(t, os.Remove(env.configPath()))
	require.NoError(t, env.run("config", "init"))
	assert.FileExists(t, env.configPath())

	require.NoError(t, env.run("config", "init", "--force"))
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	require.NoError(t, env.run("version"))

	assert.Equal(t, "kartoza-audio-norms 1.2.3\n", env.stdout.String())
}

// withEncoderFound makes the deps checks find an encoder at path reporting
// the given missing filters.
func withEncoderFound(t *testing.T, missing []string) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	origVersion, origFilters := encoderVersion, missingFilters
	t.Cleanup(func() { encoderVersion, missingFilters = origVersion, origFilters })
	encoderVersion = func(string) (string, error) { return "ffmpeg version 6.1.1", nil }
	missingFilters = func(string) ([]string, error) { return missing, nil }
	return sh
}

func TestDepsCmd_EncoderDetails(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	sh := withEncoderFound(t, nil)

	require.NoError(t, env.run("deps", "--ffmpeg", sh))

	out := env.stdout.String()
	assert.Contains(t, out, "ffmpeg version 6.1.1")
	assert.Contains(t, out, "Filters: volumedetect, loudnorm, volume")
	assert.Contains(t, out, "All required dependencies are installed!")
}

func TestDepsCmd_MissingFilter(t *testing.T) {
	env := newTestEnv(t, "-5.2")
	sh := withEncoderFound(t, []string{"loudnorm"})

	require.NoError(t, env.run("deps", "--ffmpeg", sh))

	out := env.stdout.String()
	assert.Contains(t, out, "Missing filters: loudnorm")
	assert.Contains(t, out, "Some required dependencies are missing.")
}

func TestDepsCmd(t *testing.T) {
	env := newTestEnv(t, "-5.2")

	require.NoError(t, env.run("deps", "--ffmpeg", "/nonexistent/bin/ffmpeg"))

	out := env.stdout.String()
	assert.Contains(t, out, "/nonexistent/bin/ffmpeg")
	assert.Contains(t, out, "Some required dependencies are missing.")
}
