package config

import "time"

// Config holds all swapbytes configuration
type Config struct {
	Node  NodeConfig  `toml:"node"`
	Chat  ChatConfig  `toml:"chat"`
	Files FilesConfig `toml:"files"`
}

// NodeConfig holds libp2p node settings
type NodeConfig struct {
	ListenPort       int      `toml:"listenPort"`
	Bootstrap        string   `toml:"bootstrap"`
	DiscoverInterval Duration `toml:"discoverInterval"`
	Verbosity        int      `toml:"verbosity"`
}

// ChatConfig holds chat settings
type ChatConfig struct {
	Topic    string `toml:"topic"`
	Nickname string `toml:"nickname"`
}

// FilesConfig holds file exchange settings
type FilesConfig struct {
	OutputDir string `toml:"outputDir"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
