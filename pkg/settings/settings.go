// Package settings loads hscompose preferences.
//
// Preferences live in a TOML file at $XDG_CONFIG_HOME/hscompose/config.toml
// (or ~/.config/hscompose/config.toml). A missing file yields [Default].
// HSCOMPOSE_REMOTE and HSCOMPOSE_BUFFER_BACKEND override the file.
//
// Example file:
//
//	remote = true
//	server_name = "render.lan"
//	server_port = 7000
//	frequency = 2.0
//
//	[buffer]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[[cluster]]
//	name = "karolina"
//	host = "login.karolina.it4i.cz"
//	user = "me"
//	key_file = "~/.ssh/id_ed25519"
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/braas-hpc/hscompose/pkg/buffer"
	"github.com/braas-hpc/hscompose/pkg/errors"
	"github.com/braas-hpc/hscompose/pkg/node"
)

const appName = "hscompose"

// Environment variables read by Load and PortOverride.
const (
	EnvRemote        = "HSCOMPOSE_REMOTE"
	EnvBufferBackend = "HSCOMPOSE_BUFFER_BACKEND"
	EnvPort          = "HAYSTACK_PORT"
)

// Settings are the user's preferences.
type Settings struct {
	Remote           bool          `toml:"remote"`
	EscapeDrives     bool          `toml:"escape_drives"`
	ServerName       string        `toml:"server_name"`
	ServerPort       int           `toml:"server_port"`
	AutoGenerate     bool          `toml:"auto_generate"`
	Frequency        float64       `toml:"frequency"` // auto-generate ticks per second
	FallbackInterval Duration      `toml:"fallback_interval"`
	Buffer           buffer.Config `toml:"buffer"`
	Clusters         []Cluster     `toml:"cluster"`
}

// Cluster is an SSH preset for remote browsing and buffer upload.
type Cluster struct {
	Name       string `toml:"name"`
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	User       string `toml:"user"`
	KeyFile    string `toml:"key_file"`
	KnownHosts string `toml:"known_hosts"`
	RemoteDir  string `toml:"remote_dir"` // default directory for browse and push
}

// Address returns host:port, defaulting the port to 22.
func (c Cluster) Address() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return c.Host + ":" + strconv.Itoa(port)
}

// Duration is a time.Duration that reads from TOML strings like "1s".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in preferences.
func Default() Settings {
	return Settings{
		EscapeDrives:     runtime.GOOS == "windows",
		ServerName:       node.DefaultServerName,
		ServerPort:       node.DefaultServerPort,
		Frequency:        1,
		FallbackInterval: Duration{time.Second},
		Buffer:           buffer.DefaultConfig(),
	}
}

// Dir returns the configuration directory using the XDG standard
// (~/.config/hscompose/).
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the path of config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads preferences from path, or from DefaultPath when path is empty,
// and applies environment overrides. A missing file is not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return s, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return s, fmt.Errorf("read settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
	}

	if err := s.applyEnv(); err != nil {
		return s, err
	}
	return s, s.Validate()
}

func (s *Settings) applyEnv() error {
	if v, ok := os.LookupEnv(EnvRemote); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s=%q is not a boolean", EnvRemote, v)
		}
		s.Remote = b
	}
	if v := os.Getenv(EnvBufferBackend); v != "" {
		s.Buffer.Backend = strings.ToLower(v)
	}
	return nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.Frequency <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "frequency must be positive, got %v", s.Frequency)
	}
	if s.FallbackInterval.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "fallback_interval must be positive")
	}
	if s.ServerPort < 0 || s.ServerPort > 65535 {
		return errors.New(errors.ErrCodeInvalidInput, "server_port %d out of range", s.ServerPort)
	}
	seen := make(map[string]bool, len(s.Clusters))
	for _, c := range s.Clusters {
		if c.Name == "" || c.Host == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cluster presets need a name and a host")
		}
		if seen[c.Name] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate cluster preset %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Cluster returns the preset with the given name. An empty name selects
// the first preset.
func (s Settings) Cluster(name string) (Cluster, error) {
	if len(s.Clusters) == 0 {
		return Cluster{}, errors.New(errors.ErrCodeNotFound, "no cluster presets configured")
	}
	if name == "" {
		return s.Clusters[0], nil
	}
	for _, c := range s.Clusters {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return Cluster{}, errors.New(errors.ErrCodeNotFound, "cluster preset %q not found", name)
}

// Env builds the compile environment. baseDir anchors relative local
// paths, normally the graph document's directory.
func (s Settings) Env(baseDir string) node.Env {
	return node.Env{
		Paths: node.PathPolicy{
			Remote:       s.Remote,
			BaseDir:      baseDir,
			EscapeDrives: s.EscapeDrives,
		},
		ServerName:   s.ServerName,
		ServerPort:   s.ServerPort,
		PortOverride: PortOverride,
	}
}

// Interval returns the auto-generate tick interval, 1s / frequency.
func (s Settings) Interval() time.Duration {
	if s.Frequency <= 0 {
		return s.FallbackInterval.Duration
	}
	return time.Duration(float64(time.Second) / s.Frequency)
}

// Write stores s as TOML at path, creating the directory.
func (s Settings) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create settings: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return f.Close()
}
