// Package config loads framemark settings from a JSON file via viper and
// exposes typed getters per concern.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// MemoryConfig holds flat-file export settings for the memory store backend.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// StoreConfig selects and configures the annotation store backend.
type StoreConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
}

// PlaybackConfig holds frame clock settings.
type PlaybackConfig struct {
	TickInterval     time.Duration `json:"tickInterval" mapstructure:"tickInterval"`
	FadeInterval     time.Duration `json:"fadeInterval" mapstructure:"fadeInterval"`
	EOFMissThreshold int           `json:"eofMissThreshold" mapstructure:"eofMissThreshold"`
}

// AnnotationConfig holds engine defaults.
type AnnotationConfig struct {
	DefaultColorTag string `json:"defaultColorTag" mapstructure:"defaultColorTag"`
}

// GraylogConfig holds the optional GELF log sink settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// MonitorConfig holds status monitor settings.
type MonitorConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// Load reads configuration from framemark.cfg.json in configDir and sets
// default values. A missing config file is not an error; defaults apply.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./framemark_logs")

	viper.SetDefault("playback.tickInterval", "60ms")
	viper.SetDefault("playback.fadeInterval", "100ms")
	viper.SetDefault("playback.eofMissThreshold", 50)

	viper.SetDefault("annotation.defaultColorTag", "blue")

	viper.SetDefault("store.type", "memory")
	viper.SetDefault("export.outputDir", ".")
	viper.SetDefault("export.compressOutput", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "10s")

	viper.SetConfigName("framemark.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStoreConfig returns the annotation store settings.
func GetStoreConfig() StoreConfig {
	return StoreConfig{
		Type: viper.GetString("store.type"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("export.outputDir"),
			CompressOutput: viper.GetBool("export.compressOutput"),
		},
	}
}

// GetPlaybackConfig returns the frame clock settings.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		TickInterval:     viper.GetDuration("playback.tickInterval"),
		FadeInterval:     viper.GetDuration("playback.fadeInterval"),
		EOFMissThreshold: viper.GetInt("playback.eofMissThreshold"),
	}
}

// GetAnnotationConfig returns the engine defaults.
func GetAnnotationConfig() AnnotationConfig {
	return AnnotationConfig{
		DefaultColorTag: viper.GetString("annotation.defaultColorTag"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}
