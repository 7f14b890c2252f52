package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds castgraph configuration.
type Config struct {
	TMDB      TMDBConfig      `toml:"tmdb"`
	Aggregate AggregateConfig `toml:"aggregate"`
	Layout    LayoutConfig    `toml:"layout"`
	Selection SelectionConfig `toml:"selection"`
	Server    ServerConfig    `toml:"server"`
	UI        UIConfig        `toml:"ui"`
}

// TMDBConfig controls the metadata API client.
type TMDBConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	CacheTTLHours     int     `toml:"cache_ttl_hours"`
}

// AggregateConfig controls colleague aggregation.
type AggregateConfig struct {
	Concurrency int `toml:"concurrency"`
	Limit       int `toml:"limit"`
}

// LayoutConfig controls the force simulation.
type LayoutConfig struct {
	TickMS   int     `toml:"tick_ms"`
	Charge   float64 `toml:"charge"`
	AlphaMin float64 `toml:"alpha_min"`
}

// SelectionConfig controls node activation handling.
type SelectionConfig struct {
	DoubleClickMS int  `toml:"double_click_ms"`
	Strict        bool `toml:"strict"`
}

// ServerConfig controls the explorer HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// UIConfig controls display options.
type UIConfig struct {
	Color bool `toml:"color"`
}

const (
	DefaultBaseURL     = "https://api.themoviedb.org/3"
	DefaultConcurrency = 6
	MaxConcurrency     = 16
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:           DefaultBaseURL,
			TimeoutSeconds:    10,
			RequestsPerSecond: 40,
			Burst:             20,
			CacheTTLHours:     24,
		},
		Aggregate: AggregateConfig{Concurrency: DefaultConcurrency, Limit: 100},
		Layout:    LayoutConfig{TickMS: 16, Charge: -30, AlphaMin: 0.001},
		Selection: SelectionConfig{DoubleClickMS: 250},
		Server:    ServerConfig{Addr: "127.0.0.1:8787"},
		UI:        UIConfig{Color: true},
	}
}

// ConfigDir returns the castgraph config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "castgraph")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file over the defaults, then applies environment
// overrides. A missing or unreadable file yields the defaults.
func Load() *Config {
	cfg := Default()

	if data, err := os.ReadFile(Path()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		cfg.TMDB.APIKey = v
	}
	if v := os.Getenv("TMDB_BASE_URL"); v != "" {
		cfg.TMDB.BaseURL = v
	}
	if v := os.Getenv("CASTGRAPH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := Default()
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = def.TMDB.BaseURL
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		c.TMDB.TimeoutSeconds = def.TMDB.TimeoutSeconds
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		c.TMDB.RequestsPerSecond = def.TMDB.RequestsPerSecond
	}
	if c.TMDB.Burst <= 0 {
		c.TMDB.Burst = def.TMDB.Burst
	}
	if c.Aggregate.Concurrency < 1 {
		c.Aggregate.Concurrency = 1
	}
	if c.Aggregate.Concurrency > MaxConcurrency {
		c.Aggregate.Concurrency = MaxConcurrency
	}
	if c.Aggregate.Limit <= 0 {
		c.Aggregate.Limit = def.Aggregate.Limit
	}
	if c.Layout.TickMS <= 0 {
		c.Layout.TickMS = def.Layout.TickMS
	}
	if c.Layout.AlphaMin <= 0 || c.Layout.AlphaMin >= 1 {
		c.Layout.AlphaMin = def.Layout.AlphaMin
	}
	if c.Selection.DoubleClickMS <= 0 {
		c.Selection.DoubleClickMS = def.Selection.DoubleClickMS
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

// Timeout is the per-request HTTP timeout.
func (c TMDBConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL is how long disk-cached responses stay fresh. Zero disables the
// disk cache.
func (c TMDBConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// TickInterval is the simulation step period.
func (c LayoutConfig) TickInterval() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// Window is the double-activation window.
func (c SelectionConfig) Window() time.Duration {
	return time.Duration(c.DoubleClickMS) * time.Millisecond
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
