// Package config defines file locations and optional integrations for the
// tracker. Everything has a default, a missing config file is fine. All paths
// are explicit values threaded into the components, there are no ambient
// globals.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trackjobs/trackjobs/app/conditions"
)

// Config is the full tool configuration, loaded from YAML.
type Config struct {
	TableFile   string `yaml:"table_file" json:"table_file"`                       // job table CSV
	CommandFile string `yaml:"command_file" json:"command_file"`                   // status-query command spec
	HistoryFile string `yaml:"history_file,omitempty" json:"history_file,omitempty"` // sqlite pass history, empty disables

	Notify Notify            `yaml:"notify,omitempty" json:"notify,omitempty"`
	Guard  conditions.Config `yaml:"guard,omitempty" json:"guard,omitempty"`
}

// Notify holds SMTP delivery settings, disabled unless host and recipients
// are set.
type Notify struct {
	Host     string        `yaml:"host,omitempty" json:"host,omitempty"`
	Port     int           `yaml:"port,omitempty" json:"port,omitempty"`
	TLS      bool          `yaml:"tls,omitempty" json:"tls,omitempty"`
	Username string        `yaml:"username,omitempty" json:"username,omitempty"`
	Password string        `yaml:"password,omitempty" json:"password,omitempty"`
	TimeOut  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	From     string        `yaml:"from,omitempty" json:"from,omitempty"`
	To       []string      `yaml:"to,omitempty" json:"to,omitempty"`

	OnAssumed bool `yaml:"on_assumed,omitempty" json:"on_assumed,omitempty"` // mail when jobs flip to Finished?
	OnError   bool `yaml:"on_error,omitempty" json:"on_error,omitempty"`     // mail when the pass fails
}

// DefaultLocation returns the default config file path.
func DefaultLocation() string {
	return filepath.Join(homeDir(), ".config", "trackjobs", "trackjobs.yml")
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	home := homeDir()
	return Config{
		TableFile:   filepath.Join(home, "job_db.csv"),
		CommandFile: filepath.Join(home, ".config", "trackjobs", "check_status_command"),
	}
}

// Load reads the config file, overlaying values on the defaults. A missing
// file yields the defaults, a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from a flag or env
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("can't read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("can't parse config %s: %w", path, err)
	}

	if cfg.TableFile == "" || cfg.CommandFile == "" {
		return Config{}, fmt.Errorf("config %s: table_file and command_file can't be empty", path)
	}
	return cfg, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
