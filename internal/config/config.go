// Package config holds the YAML configuration file shared by the server and
// the client commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen        = "127.0.0.1:8080"
	DefaultTransport     = TransportHTTP
	DefaultMetricsAddr   = ":9090"
	DefaultServerURL     = "http://127.0.0.1:8080"
	DefaultDrainSchedule = "@every 1m"
	DefaultTimeout       = 15 * time.Second
	DefaultQueueFile     = "queue.db"
	DefaultConfigFile    = "config.yaml"
)

// Transports for the MCP surface of the server.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// ServerConfig configures `courses serve`.
type ServerConfig struct {
	// Listen is the HTTP listen address for the REST API and /mcp.
	Listen string `yaml:"listen"`

	// Transport selects how MCP clients connect: "http" serves /mcp next
	// to the REST API, "stdio" serves MCP on stdin/stdout only.
	Transport string `yaml:"transport"`

	// ReadOnly rejects every mutation.
	ReadOnly bool `yaml:"read_only"`

	// DefaultPrincipal is used for requests that carry no user.
	DefaultPrincipal string `yaml:"default_principal,omitempty"`

	// Users, when non-empty, is the set of principals the server accepts.
	Users []string `yaml:"users,omitempty"`

	// DemoSeed fills the in-memory store with sample lists on startup.
	DemoSeed bool `yaml:"demo_seed"`
}

// MetricsConfig configures the dedicated Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// ClientConfig configures the commands that talk to a running server.
type ClientConfig struct {
	ServerURL string `yaml:"server_url"`
	Principal string `yaml:"principal,omitempty"`

	// QueuePath is the SQLite file holding mutations made while offline.
	// Relative paths are resolved against the config directory.
	QueuePath string `yaml:"queue_path"`

	// DrainSchedule is the cron spec used by `sync --watch`.
	DrainSchedule string `yaml:"drain_schedule"`

	Timeout time.Duration `yaml:"timeout"`
}

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Client  ClientConfig  `yaml:"client"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:    DefaultListen,
			Transport: DefaultTransport,
			DemoSeed:  true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
		},
		Client: ClientConfig{
			ServerURL:     DefaultServerURL,
			QueuePath:     DefaultQueueFile,
			DrainSchedule: DefaultDrainSchedule,
			Timeout:       DefaultTimeout,
		},
	}
}

// Normalize fills zero values with defaults so that partial files behave
// like complete ones.
func (c *Config) Normalize() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	switch strings.ToLower(c.Server.Transport) {
	case TransportHTTP, TransportStdio:
		c.Server.Transport = strings.ToLower(c.Server.Transport)
	default:
		c.Server.Transport = DefaultTransport
	}
	c.Server.DefaultPrincipal = strings.TrimSpace(c.Server.DefaultPrincipal)
	var users []string
	for _, u := range c.Server.Users {
		if u = strings.TrimSpace(u); u != "" {
			users = append(users, u)
		}
	}
	c.Server.Users = users

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}

	if c.Client.ServerURL == "" {
		c.Client.ServerURL = DefaultServerURL
	}
	c.Client.ServerURL = strings.TrimRight(c.Client.ServerURL, "/")
	c.Client.Principal = strings.TrimSpace(c.Client.Principal)
	if c.Client.QueuePath == "" {
		c.Client.QueuePath = DefaultQueueFile
	}
	if c.Client.DrainSchedule == "" {
		c.Client.DrainSchedule = DefaultDrainSchedule
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = DefaultTimeout
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Server.DefaultPrincipal != "" && len(c.Server.Users) > 0 && !contains(c.Server.Users, c.Server.DefaultPrincipal) {
		return fmt.Errorf("default principal %q is not in the user list", c.Server.DefaultPrincipal)
	}
	if _, err := cron.ParseStandard(c.Client.DrainSchedule); err != nil {
		return fmt.Errorf("invalid drain schedule %q: %w", c.Client.DrainSchedule, err)
	}
	return nil
}

// ResolveQueuePath returns the queue path, relative paths being taken from
// the directory of the config file at configPath.
func (c *Config) ResolveQueuePath(configPath string) string {
	if filepath.IsAbs(c.Client.QueuePath) || configPath == "" {
		return c.Client.QueuePath
	}
	return filepath.Join(filepath.Dir(configPath), c.Client.QueuePath)
}

// DefaultPath returns $XDG_CONFIG_HOME/courses/config.yaml or its
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "courses", DefaultConfigFile), nil
}

// Load reads the configuration at path. A missing file is created with the
// defaults and 0600 permissions.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically through a temp file in the same
// directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".courses-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
