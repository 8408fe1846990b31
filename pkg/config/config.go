package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fulmenhq/gousemin/pkg/flow"
)

// Config holds all configuration for gousemin
type Config struct {
	// Root is the directory inputs are discovered under.
	Root string `mapstructure:"root"`
	// Dest receives processed files and generated bundles.
	Dest string `mapstructure:"dest"`
	// Staging receives intermediate flow outputs.
	Staging string `mapstructure:"staging"`
	// Patterns names the reference table: html, css, js, django:html, django:css.
	Patterns   string   `mapstructure:"patterns"`
	SearchPath []string `mapstructure:"search_path"`
	Include    []string `mapstructure:"include"`
	Exclude    []string `mapstructure:"exclude"`
	Workers    int      `mapstructure:"workers"`

	Flow   flow.Flow    `mapstructure:"flow"`
	Finder FinderConfig `mapstructure:"finder"`
	Scan   ScanConfig   `mapstructure:"scan"`
}

// FinderConfig holds revved file lookup options
type FinderConfig struct {
	// Manifest is an optional JSON, YAML or TOML rev manifest.
	Manifest string `mapstructure:"manifest"`
}

// ScanConfig holds block scanning options
type ScanConfig struct {
	StrictMedia bool `mapstructure:"strict_media"`
}

var defaultConfig = Config{
	Root:       ".",
	Dest:       "dist",
	Staging:    ".tmp",
	Patterns:   "html",
	SearchPath: []string{""},
	Include:    []string{"**/*.html"},
	Exclude:    []string{"node_modules/**", "dist/**", ".tmp/**"},
	Workers:    0,
	Flow:       flow.DefaultFlow(),
}

// projectConfigs are looked up in the working directory, first match wins.
var projectConfigs = []string{
	".gousemin.yaml",
	".gousemin.yml",
	".gousemin.json",
	"gousemin.yaml",
	"gousemin.yml",
	"gousemin.json",
	".gousemin.toml",
	"gousemin.toml",
}

// LoadConfig loads configuration from defaults, an optional .env file, the
// environment and a config file. configFile overrides the file search.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("root", defaultConfig.Root)
	v.SetDefault("dest", defaultConfig.Dest)
	v.SetDefault("staging", defaultConfig.Staging)
	v.SetDefault("patterns", defaultConfig.Patterns)
	v.SetDefault("search_path", defaultConfig.SearchPath)
	v.SetDefault("include", defaultConfig.Include)
	v.SetDefault("exclude", defaultConfig.Exclude)
	v.SetDefault("workers", defaultConfig.Workers)
	v.SetDefault("finder.manifest", "")
	v.SetDefault("scan.strict_media", false)
	for typ, steps := range defaultConfig.Flow.Steps {
		v.SetDefault("flow.steps."+typ, steps)
	}

	// Environment variables
	v.SetEnvPrefix("GOUSEMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = findProjectConfig()
	}
	if configFile == "" {
		v.SetConfigName("gousemin")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "gousemin"))
		}
		// Config in the home directory is optional; ignore a missing file
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	} else {
		if err := ValidateConfigFile(configFile); err != nil {
			return nil, err
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", configFile, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	c := defaultConfig
	c.Flow = flow.DefaultFlow()
	return &c
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must be >= 0", c.Workers)
	}
	if err := c.Flow.Validate(); err != nil {
		return fmt.Errorf("invalid flow: %w", err)
	}
	return nil
}

// ConfigFileUsed reports the project config LoadConfig would read.
func ConfigFileUsed() string {
	return findProjectConfig()
}

func findProjectConfig() string {
	for _, name := range projectConfigs {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
