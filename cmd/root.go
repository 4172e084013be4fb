package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-audio-norms/internal/audio"
	"github.com/kartoza/kartoza-audio-norms/internal/config"
	"github.com/kartoza/kartoza-audio-norms/internal/deps"
	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/logging"
	"github.com/kartoza/kartoza-audio-norms/internal/notify"
	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
	"github.com/kartoza/kartoza-audio-norms/internal/tui"
)

var version = "dev"

// SetVersion sets the application version (called from main)
func SetVersion(v string) {
	version = v
}

// These are replaced in tests.
var (
	newEncoder = func(binary string, console io.Writer, logger *slog.Logger) ffmpeg.Runner {
		return ffmpeg.NewExecRunner(binary, console, logger)
	}
	missingEncoder = deps.MissingRequired
	encoderVersion = deps.EncoderVersion
	missingFilters = deps.MissingFilters
	sendNotify     = true
	notifyComplete = notify.JobComplete
	notifyFailed   = notify.JobFailed
	isTerminal     = logging.IsTerminal
	runProgress    = tui.Run
)

// rootOptions holds every flag of the root command and its subcommands.
type rootOptions struct {
	configPath string
	ffmpegPath string
	debug      bool

	detect   bool
	loudnorm bool
	volume   gainValue

	quiet     bool
	refresh   bool
	notify    bool
	threshold float64
	targetI   float64
	targetTP  float64
	targetLRA float64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kartoza-audio-norms <video>",
		Short: "Volume detection, loudness normalization and volume changes via ffmpeg",
		Long: `Kartoza Audio Norms wraps ffmpeg for three audio jobs on a media file:

  - Volume detection with the volumedetect filter (--detect)
  - Two-pass EBU R128 loudness normalization with cached first pass stats (--loudnorm)
  - Fixed gain changes, given in dB or derived from detection (--volume)

Stages always run in that order. Stats are cached in stats_pass/, normalized
files and their logs go to normalized/.`,
		Example: `  kartoza-audio-norms clip.mp4 --detect
  kartoza-audio-norms clip.mp4 --loudnorm
  kartoza-audio-norms clip.mp4 -vd -vi          # bring max volume towards 0 dB
  kartoza-audio-norms clip.mp4 --volume=-2.5`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, opts, args[0])
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: ~/.config/kartoza-audio-norms/config.json)")
	pf.StringVar(&opts.ffmpegPath, "ffmpeg", "", "ffmpeg binary (default: from config, then PATH)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	f := cmd.Flags()
	f.BoolVar(&opts.detect, "detect", false, "Apply the volumedetect filter (alias -vd)")
	f.BoolVarP(&opts.loudnorm, "loudnorm", "l", false, "Perform two-pass loudnorm normalization")
	f.Var(&opts.volume, "volume", "Change volume by the given dB, or by the detected max volume when no value is given (alias -vi)")
	f.Lookup("volume").NoOptDefVal = volumeFromDetection
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Do not echo ffmpeg output (logs are still written); on a terminal a stage view is shown instead")
	f.BoolVar(&opts.refresh, "refresh-stats", false, "Ignore cached loudnorm stats and rerun the first pass")
	f.BoolVar(&opts.notify, "notify", false, "Send a desktop notification when done")
	f.Float64Var(&opts.threshold, "threshold", 0, "Max volume difference in dB treated as negligible (default: from config, 0.3)")
	f.Float64Var(&opts.targetI, "target-i", 0, "Target integrated loudness in LUFS (default: ffmpeg's)")
	f.Float64Var(&opts.targetTP, "target-tp", 0, "Target true peak in dBTP (default: ffmpeg's)")
	f.Float64Var(&opts.targetLRA, "target-lra", 0, "Target loudness range in LU (default: ffmpeg's)")

	cmd.AddCommand(newDepsCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := newRootCmd()
	cmd.SetArgs(normalizeArgs(os.Args[1:]))

	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if opts.ffmpegPath != "" {
		cfg.FFmpegPath = opts.ffmpegPath
	}
	return cfg, nil
}

// applyJobFlags overrides cfg with the job flags the user actually passed.
func applyJobFlags(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) {
	f := cmd.Flags()
	ap := &cfg.AudioProcessing

	if f.Changed("threshold") {
		ap.NegligibleDB = opts.threshold
	}
	if f.Changed("target-i") {
		ap.Target.IntegratedLoudness = opts.targetI
	}
	if f.Changed("target-tp") {
		ap.Target.TruePeak = opts.targetTP
	}
	if f.Changed("target-lra") {
		ap.Target.LoudnessRange = opts.targetLRA
	}
	ap.RefreshStats = opts.refresh
	if opts.notify {
		cfg.Notify = true
	}
}

func runJob(cmd *cobra.Command, opts *rootOptions, input string) error {
	logger := logging.New(cmd.ErrOrStderr(), opts.debug)

	if err := checkPlatform(hostOS, logger); err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	applyJobFlags(cmd, opts, cfg)

	req := pipeline.Request{
		Input:    input,
		Detect:   opts.detect,
		Loudnorm: opts.loudnorm,
		Volume:   opts.volume.mode(),
		Gain:     opts.volume.gain,
	}
	logger.Debug("job request",
		"input", req.Input,
		"detect", req.Detect,
		"loudnorm", req.Loudnorm,
		"volume", opts.volume.String())

	plan, err := pipeline.NewPlan(req)
	if err != nil {
		return err
	}
	if plan.Empty() {
		logger.Warn("nothing to do; pass --detect, --loudnorm or --volume")
		return nil
	}

	if missing := missingEncoder(cfg.FFmpegPath); len(missing) > 0 {
		return fmt.Errorf("%s", deps.FormatMissing(missing))
	}

	var console io.Writer = cmd.OutOrStdout()
	if opts.quiet {
		console = nil
	}

	progress := opts.quiet && !opts.debug && isTerminal(cmd.OutOrStdout())
	if progress {
		// Only warnings and errors may interleave with the stage view.
		logger = logging.NewLevel(cmd.ErrOrStderr(), slog.LevelWarn)
	}

	proc := audio.NewProcessor(newEncoder(cfg.FFmpegPath, console, logger), cfg.AudioProcessing, logger)
	runner := pipeline.NewRunner(proc, cfg.AudioProcessing.NegligibleDB, logger)

	var res *pipeline.Result
	if progress {
		err = runProgress(cmd.OutOrStdout(), input, plan.Stages, func(report pipeline.ProgressCallback) error {
			runner.SetProgressCallback(report)
			var runErr error
			res, runErr = runner.Run(cmd.Context(), plan)
			return runErr
		})
	} else {
		res, err = runner.Run(cmd.Context(), plan)
	}
	if err != nil {
		if cfg.Notify && sendNotify {
			if nerr := notifyFailed(input, err); nerr != nil {
				logger.Debug("notification failed", "error", nerr)
			}
		}
		return err
	}

	printSummary(cmd.OutOrStdout(), res)

	if cfg.Notify && sendNotify {
		if err := notifyComplete(input, res.Outputs()); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
	return nil
}
