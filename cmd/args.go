package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
)

// volumeFromDetection is the value a bare --volume takes. The angle brackets
// keep it from being a word a user would type as the flag's value.
const volumeFromDetection = "<detected>"

// gainValue is the --volume flag: a number of dB, or volumeFromDetection.
type gainValue struct {
	set           bool
	fromDetection bool
	gain          float64
}

func (g *gainValue) String() string {
	switch {
	case !g.set:
		return ""
	case g.fromDetection:
		return volumeFromDetection
	default:
		return ffmpeg.FormatDB(g.gain)
	}
}

func (g *gainValue) Set(s string) error {
	if s == volumeFromDetection {
		g.set, g.fromDetection = true, true
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "dB"), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return fmt.Errorf("invalid volume %q: expected a gain in dB such as 3 or -2.5", s)
	}
	g.set, g.fromDetection, g.gain = true, false, v
	return nil
}

func (g *gainValue) Type() string {
	return "dB"
}

func (g *gainValue) mode() pipeline.VolumeMode {
	switch {
	case !g.set:
		return pipeline.VolumeNone
	case g.fromDetection:
		return pipeline.VolumeFromDetection
	default:
		return pipeline.VolumeExplicit
	}
}

// normalizeArgs rewrites the historical aliases -vd and -vi, which pflag
// cannot express as shorthands, and joins "--volume N" into "--volume=N" so
// the optional value may also be given as the next argument.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return append(out, args[i:]...)
		case a == "-vd":
			out = append(out, "--detect")
		case a == "-vi" || a == "--volume":
			if i+1 < len(args) && isNumber(args[i+1]) {
				out = append(out, "--volume="+args[i+1])
				i++
			} else {
				out = append(out, "--volume")
			}
		case strings.HasPrefix(a, "-vi="):
			out = append(out, "--volume="+strings.TrimPrefix(a, "-vi="))
		default:
			out = append(out, a)
		}
	}

	return out
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
