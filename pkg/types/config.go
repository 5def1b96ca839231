// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TransportConfig holds settings for the NETCONF session to the device.
type TransportConfig struct {
	// Port is the TCP port for the NETCONF subsystem (default 830).
	Port int `json:"port" yaml:"port"`

	// Timeout bounds the SSH dial and each RPC round trip.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ExtractConfig holds settings for the extraction pipeline.
type ExtractConfig struct {
	// SchemaDir is the default directory searched for table definition
	// files when no explicit path is given.
	SchemaDir string `json:"schema_dir" yaml:"schema_dir"`

	// ResponseType selects the default output shape: records or items.
	ResponseType ResponseType `json:"response_type" yaml:"response_type"`

	// ConnectRetries is the number of additional connect attempts the CLI
	// makes on transient dial failures (the engine itself never retries).
	ConnectRetries int `json:"connect_retries" yaml:"connect_retries"`
}

// StoreConfig holds settings for the optional sqlite result sink.
type StoreConfig struct {
	// Path is the sqlite database file; empty disables persistence.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Config groups all configuration for the netharvest CLI.
type Config struct {
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Extract   ExtractConfig   `json:"extract" yaml:"extract"`
	Store     StoreConfig     `json:"store" yaml:"store"`
}

// Defaults returns the built-in configuration used when no config file or
// environment overrides are present.
func Defaults() Config {
	return Config{
		Transport: TransportConfig{
			Port:    830,
			Timeout: 30 * time.Second,
		},
		Extract: ExtractConfig{
			SchemaDir:    "schemas",
			ResponseType: ResponseRecords,
		},
	}
}
