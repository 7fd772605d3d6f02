package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/javanhut/raven-session/tab"
)

// Profile is a named way to start a terminal session.
type Profile struct {
	Name             string   `toml:"name"`
	Shell            string   `toml:"shell"`
	Args             []string `toml:"args"`
	WorkingDirectory string   `toml:"working_directory"`
}

// ShellConfig holds shell-specific settings
type ShellConfig struct {
	// Path to shell binary (empty = system default)
	Path string `toml:"path"`
	// AdditionalEnv extra environment variables
	AdditionalEnv map[string]string `toml:"env"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level       string `toml:"level"` // "debug", "info", "warn", "error"
	Development bool   `toml:"development"`
}

// Config holds the session configuration
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	// OnLastTabClosed is "close-window" or "new-tab".
	OnLastTabClosed string `toml:"on_last_tab_closed"`
	// MaxTabs and MaxPanes cap the layout; 0 = unlimited.
	MaxTabs     int               `toml:"max_tabs"`
	MaxPanes    int               `toml:"max_panes"`
	Cols        uint16            `toml:"cols"`
	Rows        uint16            `toml:"rows"`
	Theme       string            `toml:"theme"`
	Shell       ShellConfig       `toml:"shell"`
	Log         LogConfig         `toml:"log"`
	Profiles    []Profile         `toml:"profiles"`
	Keybindings map[string]string `toml:"keybindings"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		OnLastTabClosed: tab.CloseWindow.String(),
		Cols:            80,
		Rows:            24,
		Theme:           "raven-blue",
		Shell: ShellConfig{
			AdditionalEnv: map[string]string{},
		},
		Log: LogConfig{
			Level: "info",
		},
		Profiles:    []Profile{},
		Keybindings: map[string]string{},
	}
}

// GetConfigDir returns the config directory path
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".config/raven-session"
	}
	return filepath.Join(homeDir, ".config", "raven-session")
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// Load loads the configuration from path, writing the defaults there first
// when the file does not exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return load(path)
}

func load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves the configuration to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := tab.ParseLastTabPolicy(c.OnLastTabClosed); err != nil {
		errs = append(errs, err)
	}
	if c.MaxTabs < 0 {
		errs = append(errs, fmt.Errorf("max_tabs must not be negative, got %d", c.MaxTabs))
	}
	if c.MaxPanes < 0 {
		errs = append(errs, fmt.Errorf("max_panes must not be negative, got %d", c.MaxPanes))
	}

	seen := make(map[string]bool)
	for i, p := range c.Profiles {
		switch {
		case strings.TrimSpace(p.Name) == "":
			errs = append(errs, fmt.Errorf("profile %d has no name", i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("duplicate profile %q", p.Name))
		}
		seen[p.Name] = true
	}
	if c.DefaultProfile != "" && !seen[c.DefaultProfile] {
		errs = append(errs, fmt.Errorf("default_profile %q is not defined", c.DefaultProfile))
	}
	return errors.Join(errs...)
}

// LastTabPolicy returns the parsed on_last_tab_closed setting.
func (c *Config) LastTabPolicy() (tab.LastTabPolicy, error) {
	return tab.ParseLastTabPolicy(c.OnLastTabClosed)
}

// Profile returns the profile with the given name.
func (c *Config) Profile(name string) (Profile, bool) {
	if name == "" {
		return Profile{}, false
	}
	i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
	if i < 0 {
		return Profile{}, false
	}
	return c.Profiles[i], true
}

// ProfileNames lists the configured profiles in file order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// LaunchSpec resolves a profile name and working directory into what to
// start. A name that is not a profile but is a Host in ~/.ssh/config opens
// "ssh <host>". Other unknown or empty names fall back to the default
// profile, then to the configured shell. An explicit cwd overrides the
// profile's directory.
func (c *Config) LaunchSpec(profile, cwd string) tab.LaunchSpec {
	p, ok := c.Profile(profile)
	if !ok && profile != "" && slices.Contains(SSHHosts(SSHConfigPath()), profile) {
		p, ok = Profile{Name: profile, Shell: "ssh", Args: []string{profile}}, true
	}
	if !ok {
		p, ok = c.Profile(c.DefaultProfile)
	}

	var spec tab.LaunchSpec
	if ok {
		spec = tab.LaunchSpec{
			Profile:    p.Name,
			Shell:      p.Shell,
			Args:       slices.Clone(p.Args),
			WorkingDir: p.WorkingDirectory,
		}
	}
	if spec.Shell == "" {
		spec.Shell = c.Shell.Path
	}
	if cwd != "" {
		spec.WorkingDir = cwd
	}
	spec.WorkingDir = expandHome(spec.WorkingDir)
	return spec
}

// SessionOptions builds the session options described by the config.
func (c *Config) SessionOptions() (tab.Options, error) {
	policy, err := c.LastTabPolicy()
	if err != nil {
		return tab.Options{}, err
	}
	return tab.Options{
		OnLastTabClosed: policy,
		MaxTabs:         c.MaxTabs,
		MaxPanes:        c.MaxPanes,
		Resolve:         c.LaunchSpec,
	}, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
