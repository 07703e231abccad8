package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	storageJSON   = "json"
	storageSQLite = "sqlite"
)

type config struct {
	RelayURL    string        `yaml:"relay_url"`
	AuthURL     string        `yaml:"auth_url"`
	Storage     string        `yaml:"storage"`
	DataDir     string        `yaml:"data_dir"`
	Temperature *float64      `yaml:"temperature"`
	LogLevel    string        `yaml:"log_level"`
	Timeout     time.Duration `yaml:"timeout"`
}

// defaultTimeout bounds each relay and login request.
const defaultTimeout = 60 * time.Second

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".chatrelay")
}

func defaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

func defaultConfig() config {
	return config{
		RelayURL: "http://localhost:8080",
		Storage:  storageJSON,
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Timeout:  defaultTimeout,
	}
}

// loadConfig reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags the user set explicitly.
func (c *config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("relay-url") {
		c.RelayURL, _ = flags.GetString("relay-url")
	}
	if flags.Changed("auth-url") {
		c.AuthURL, _ = flags.GetString("auth-url")
	}
	if flags.Changed("storage") {
		c.Storage, _ = flags.GetString("storage")
	}
	if flags.Changed("data-dir") {
		c.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("timeout") {
		d, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	if flags.Changed("temperature") {
		t, err := flags.GetFloat64("temperature")
		if err != nil {
			return err
		}
		c.Temperature = &t
	}
	return c.validate()
}

func (c config) validate() error {
	switch c.Storage {
	case storageJSON, storageSQLite:
	default:
		return fmt.Errorf("unknown storage %q: must be %q or %q", c.Storage, storageJSON, storageSQLite)
	}
	if c.RelayURL == "" {
		return errors.New("relay_url is required")
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature %v out of range [0, 2]", *c.Temperature)
	}
	return nil
}
