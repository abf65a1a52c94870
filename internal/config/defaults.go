package config

import "time"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ListenPort:       0, // Random port
			Bootstrap:        "",
			DiscoverInterval: Duration{30 * time.Second},
			Verbosity:        0,
		},
		Chat: ChatConfig{
			Topic:    "chat",
			Nickname: "",
		},
		Files: FilesConfig{
			OutputDir: "received",
		},
	}
}
