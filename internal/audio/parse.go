package audio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kartoza/kartoza-audio-norms/internal/models"
)

var (
	// ErrNoStats means the first pass log holds no JSON block.
	ErrNoStats = errors.New("no loudnorm stats found in log")
	// ErrInvalidStats means the extracted block is not valid JSON.
	ErrInvalidStats = errors.New("invalid loudnorm stats")
	// ErrMissingStat means a value required by the second pass is absent.
	ErrMissingStat = errors.New("missing loudnorm stat")
	// ErrNoMaxVolume means the volumedetect log has no max_volume line.
	ErrNoMaxVolume = errors.New("no max_volume line found")
	// ErrSilentInput means volumedetect measured -inf dB.
	ErrSilentInput = errors.New("input is silent")
)

// maxVolumeMarker identifies lines such as
// "[Parsed_volumedetect_0 @ 0x55d0c5a1e2c0] max_volume: -5.2 dB".
const maxVolumeMarker = "] max_volume:"

// ExtractStatsJSON pulls the loudnorm JSON block out of the encoder's output.
// The first line containing "{" opens the block and every following line is
// taken verbatim.
func ExtractStatsJSON(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var out bytes.Buffer
	found := false

	for {
		line, err := br.ReadString('\n')
		if found {
			out.WriteString(line)
		} else if strings.Contains(line, "{") {
			found = true
			out.WriteString("{\n")
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if !found {
		return nil, ErrNoStats
	}
	if !json.Valid(out.Bytes()) {
		return nil, fmt.Errorf("%w: extracted block is not valid JSON", ErrInvalidStats)
	}
	return out.Bytes(), nil
}

// LoadStats reads a stats cache file and checks the second pass inputs.
func LoadStats(path string) (*models.LoudnormStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var stats models.LoudnormStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidStats, err)
	}

	for _, field := range stats.RequiredFields() {
		if field[1] == "" {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingStat, field[0])
		}
	}

	return &stats, nil
}

// ParseMaxVolume returns the max_volume value in dB from volumedetect output.
// Carriage returns count as line breaks, since ffmpeg separates its progress
// updates with them.
func ParseMaxVolume(r io.Reader) (float64, error) {
	br := bufio.NewReader(r)

	for {
		chunk, err := br.ReadString('\n')
		for _, line := range strings.Split(chunk, "\r") {
			i := strings.Index(line, maxVolumeMarker)
			if i < 0 {
				continue
			}
			return parseMaxVolumeValue(line, line[i+len(maxVolumeMarker):])
		}
		if err == io.EOF {
			return 0, ErrNoMaxVolume
		}
		if err != nil {
			return 0, err
		}
	}
}

// parseMaxVolumeValue reads the number from " -5.2 dB".
func parseMaxVolumeValue(line, value string) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty value in %q", ErrNoMaxVolume, strings.TrimSpace(line))
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse max_volume %q: %w", fields[0], err)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrSilentInput
	}
	return v, nil
}
