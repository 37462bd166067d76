package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/pders01/qrsum/internal/summary"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Query    QueryConfig    `mapstructure:"query"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	// Summary holds formatter options keyed by option name. Values are kept
	// loosely typed so the formatter can apply its own coercion rules.
	Summary map[string]any `mapstructure:"summary"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type FeedConfig struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	UserAgent       string        `mapstructure:"user_agent"`
}

type QueryConfig struct {
	PageSize int    `mapstructure:"page_size"`
	Timezone string `mapstructure:"timezone"`
}

// LogToStderr as log.file sends logs to stderr instead of a file.
const LogToStderr = "-"

type LogConfig struct {
	Level string `mapstructure:"level"`
	// File is the log file; empty means the default path.
	File string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit     string `mapstructure:"quit"`
	Search   string `mapstructure:"search"`
	NextPage string `mapstructure:"next_page"`
	PrevPage string `mapstructure:"prev_page"`
	Refresh  string `mapstructure:"refresh"`
	Back     string `mapstructure:"back"`
	Open     string `mapstructure:"open"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(homeDir, ".qrsum", "posts.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(homeDir, ".qrsum", "index.bleve"),
		},
		Feed: FeedConfig{
			HTTPTimeout:     30 * time.Second,
			RefreshInterval: 5 * time.Minute,
			UserAgent:       "qrsum/1.0 (https://github.com/pders01/qrsum)",
		},
		Query: QueryConfig{
			PageSize: 10,
			Timezone: "Local",
		},
		Log: LogConfig{
			Level: "off",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
			},
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:     "q",
				Search:   "/",
				NextPage: "n",
				PrevPage: "p",
				Refresh:  "r",
				Back:     "esc",
				Open:     "o",
			},
		},
		Summary: summary.New().Settings(),
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("QRSUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	expandPaths(&config)

	return &config, nil
}

// setDefaults registers every leaf key so a partial section in the file
// does not hide the defaults of its siblings.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("feed.http_timeout", cfg.Feed.HTTPTimeout)
	v.SetDefault("feed.refresh_interval", cfg.Feed.RefreshInterval)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)

	v.SetDefault("query.page_size", cfg.Query.PageSize)
	v.SetDefault("query.timezone", cfg.Query.Timezone)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	c := cfg.UI.Colors
	v.SetDefault("ui.colors.primary", c.Primary)
	v.SetDefault("ui.colors.secondary", c.Secondary)
	v.SetDefault("ui.colors.accent", c.Accent)
	v.SetDefault("ui.colors.text", c.Text)
	v.SetDefault("ui.colors.muted", c.Muted)
	v.SetDefault("ui.colors.error", c.Error)

	k := cfg.Keys.Bindings
	v.SetDefault("keys.bindings.quit", k.Quit)
	v.SetDefault("keys.bindings.search", k.Search)
	v.SetDefault("keys.bindings.next_page", k.NextPage)
	v.SetDefault("keys.bindings.prev_page", k.PrevPage)
	v.SetDefault("keys.bindings.refresh", k.Refresh)
	v.SetDefault("keys.bindings.back", k.Back)
	v.SetDefault("keys.bindings.open", k.Open)

	for name, value := range cfg.Summary {
		v.SetDefault("summary."+name, value)
	}
}

// DefaultDir is the directory searched for config.toml.
func DefaultDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "qrsum")
}

// DefaultPath is where GenerateDefaultConfig writes by default.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.toml")
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" || path == ":memory:" || path == LogToStderr {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// Location resolves Query.Timezone; "" and "Local" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Query.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Query.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "loading timezone %q", c.Query.Timezone)
	}
	return loc, nil
}

// NewFormatter builds a summary formatter from the [summary] section. The
// formatter is always returned; the error lists option names it did not know.
func (c *Config) NewFormatter(opts ...summary.Option) (*summary.Formatter, error) {
	f := summary.New(opts...)
	if err := f.Apply(c.Summary); err != nil {
		return f, errors.Wrap(err, "applying summary settings")
	}
	return f, nil
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings for TOML readability
	dbCfg := map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	feedCfg := map[string]any{
		"http_timeout":     config.Feed.HTTPTimeout.String(),
		"refresh_interval": config.Feed.RefreshInterval.String(),
		"user_agent":       config.Feed.UserAgent,
	}

	queryCfg := map[string]any{
		"page_size": config.Query.PageSize,
		"timezone":  config.Query.Timezone,
	}

	logCfg := map[string]any{
		"level": config.Log.Level,
		"file":  config.Log.File,
	}

	colors := config.UI.Colors
	uiCfg := map[string]any{
		"colors": map[string]any{
			"primary":   colors.Primary,
			"secondary": colors.Secondary,
			"accent":    colors.Accent,
			"text":      colors.Text,
			"muted":     colors.Muted,
			"error":     colors.Error,
		},
	}

	keys := config.Keys.Bindings
	keysCfg := map[string]any{
		"bindings": map[string]any{
			"quit":      keys.Quit,
			"search":    keys.Search,
			"next_page": keys.NextPage,
			"prev_page": keys.PrevPage,
			"refresh":   keys.Refresh,
			"back":      keys.Back,
			"open":      keys.Open,
		},
	}

	v.Set("database", dbCfg)
	v.Set("feed", feedCfg)
	v.Set("query", queryCfg)
	v.Set("log", logCfg)
	v.Set("ui", uiCfg)
	v.Set("keys", keysCfg)
	v.Set("summary", config.Summary)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
