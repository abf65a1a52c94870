package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const ConfigFileName = "swapbytes.toml"

// Load loads configuration from a TOML file, falling back to defaults when
// the file does not exist. An empty path means "the default file name in the
// working directory, if present".
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = ConfigFileName
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// No config file, return defaults
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Merge merges command-line flags into configuration
// Flags take precedence over config file values
func (c *Config) Merge(port int, bootstrap, nickname, outputDir string, verbosity int) {
	if port != 0 {
		c.Node.ListenPort = port
	}
	if bootstrap != "" {
		c.Node.Bootstrap = bootstrap
	}
	if nickname != "" {
		c.Chat.Nickname = nickname
	}
	if outputDir != "" {
		c.Files.OutputDir = outputDir
	}
	if verbosity > 0 {
		c.Node.Verbosity = verbosity
	}
}

// Validate checks if configuration values are valid
func (c *Config) Validate() error {
	if c.Node.ListenPort < 0 || c.Node.ListenPort > 65535 {
		return fmt.Errorf("invalid port: %d (must be 0-65535)", c.Node.ListenPort)
	}
	if c.Node.DiscoverInterval.Duration <= 0 {
		return fmt.Errorf("invalid discover interval: %v (must be positive)", c.Node.DiscoverInterval)
	}
	if c.Chat.Topic == "" {
		return fmt.Errorf("chat topic cannot be empty")
	}
	if c.Files.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return nil
}
