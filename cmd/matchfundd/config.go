package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration, loaded from a YAML file.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen"`
	// MinimumOffer overrides the smallest acceptable offer, as a
	// human-readable token amount. Empty keeps the default floor.
	MinimumOffer string `yaml:"minimumOffer"`

	Store StoreConfig `yaml:"store"`
	Bank  BankConfig  `yaml:"bank"`
}

// StoreConfig selects the commitment store backend.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path"`
}

// BankConfig selects the escrow transfer backend.
type BankConfig struct {
	// Backend is "sim", "evm" or "svm". The sim backend resolves every
	// transfer successfully in-process and is only meant for development.
	Backend string `yaml:"backend"`
	RPCURL  string `yaml:"rpcUrl"`
	// PrivateKey is the escrow signing key: hex for evm, base58 for svm.
	PrivateKey   string   `yaml:"privateKey"`
	PollInterval Duration `yaml:"pollInterval"`
	PollTimeout  Duration `yaml:"pollTimeout"`
}

// Duration wraps time.Duration so "5s" style values parse from YAML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// defaultConfig returns the configuration used when a field is omitted.
func defaultConfig() Config {
	return Config{
		Listen: ":8080",
		Store:  StoreConfig{Driver: "memory"},
		Bank:   BankConfig{Backend: "sim"},
	}
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	switch c.Bank.Backend {
	case "sim":
	case "evm", "svm":
		if c.Bank.RPCURL == "" || c.Bank.PrivateKey == "" {
			return fmt.Errorf("bank.rpcUrl and bank.privateKey are required for the %s backend", c.Bank.Backend)
		}
	default:
		return fmt.Errorf("unknown bank backend %q", c.Bank.Backend)
	}
	return nil
}
