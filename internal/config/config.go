package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/models"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".config/kartoza-audio-norms"
	// ConfigFileName is the name of the configuration file
	ConfigFileName = "config.json"
)

// Config holds the application configuration
type Config struct {
	FFmpegPath      string                        `json:"ffmpeg_path"`
	Notify          bool                          `json:"notify"`
	AudioProcessing models.AudioProcessingOptions `json:"audio_processing"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		FFmpegPath:      ffmpeg.DefaultBinary,
		AudioProcessing: models.DefaultAudioProcessingOptions(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDir
	}
	return filepath.Join(home, DefaultConfigDir)
}

// DefaultPath returns the configuration file path
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// LoadFrom loads the configuration from path. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveTo saves the configuration to path
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
