package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of channel configurations
type Loader struct {
	channelsDir string
}

// NewLoader creates a new configuration loader
func NewLoader(channelsDir string) *Loader {
	return &Loader{channelsDir: channelsDir}
}

// LoadAll loads all YAML configuration files from the channels directory,
// keyed by channel name
func (l *Loader) LoadAll() (map[string]*ChannelConfig, error) {
	configs := make(map[string]*ChannelConfig)

	if _, err := os.Stat(l.channelsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		if _, exists := configs[config.Channel.Name]; exists {
			return nil, fmt.Errorf("duplicate channel name %q in %s", config.Channel.Name, file)
		}

		configs[config.Channel.Name] = config
		slog.Debug("Loaded channel configuration", "file", file, "channel", config.Channel.Name)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*ChannelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config ChannelConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config, path)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *ChannelConfig, path string) {
	if config.Channel.Name == "" {
		base := filepath.Base(path)
		config.Channel.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if config.Settings.RequestLimit == 0 {
		config.Settings.RequestLimit = 100 // listing API maximum
	}
	if config.Settings.MaxPages == 0 {
		config.Settings.MaxPages = 10
	}
	if config.Settings.RefreshInterval == 0 {
		config.Settings.RefreshInterval = 3600 // seconds
	}
}

// validate validates the configuration
func (l *Loader) validate(config *ChannelConfig) error {
	if config.Channel.Subreddit == "" {
		return fmt.Errorf("channel subreddit is required")
	}
	if config.Settings.RequestLimit < 0 || config.Settings.RequestLimit > 100 {
		return fmt.Errorf("request limit must be between 1 and 100")
	}
	if config.Settings.MaxPages < 0 {
		return fmt.Errorf("max pages must be non-negative")
	}
	if config.Settings.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	return nil
}
