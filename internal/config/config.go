// Package config resolves the client settings. Sources apply in order:
// built-in defaults, the YAML file, TASKAURA_* environment variables, then
// command line flags. Only flags that were given on the command line
// override the earlier sources.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"taskaura/internal/pagination"
	"taskaura/internal/util"
)

// Config is the resolved client configuration.
type Config struct {
	Addr               string        `yaml:"addr"`
	APIBaseURL         string        `yaml:"api_base_url"`
	StaticDir          string        `yaml:"static_dir"`
	SessionDB          string        `yaml:"session_db"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	SearchDebounce     time.Duration `yaml:"search_debounce"`
	TaskSearchDebounce time.Duration `yaml:"task_search_debounce"`
	PageSize           int           `yaml:"page_size"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:               "127.0.0.1:5173",
		APIBaseURL:         "http://localhost:8080/api",
		StaticDir:          "web/dist",
		RequestTimeout:     15 * time.Second,
		SearchDebounce:     500 * time.Millisecond,
		TaskSearchDebounce: 300 * time.Millisecond,
		PageSize:           pagination.DefaultSize,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load resolves the configuration for the given command line arguments
// (without the program name). It returns pflag.ErrHelp when help was asked.
func Load(args []string) (Config, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("taskaura", pflag.ContinueOnError)
	configPath := fs.String("config", util.EnvOrDefault("TASKAURA_CONFIG", ""), "path to a YAML config file")
	addr := fs.String("addr", cfg.Addr, "local listen address")
	apiURL := fs.String("api-url", cfg.APIBaseURL, "base URL of the TaskAura API")
	staticDir := fs.String("static", cfg.StaticDir, "directory with the built frontend")
	sessionDB := fs.String("session-db", cfg.SessionDB, "sqlite file keeping the API session (empty keeps it in memory)")
	timeout := fs.Duration("request-timeout", cfg.RequestTimeout, "timeout of one API request")
	searchDelay := fs.Duration("search-debounce", cfg.SearchDebounce, "quiet period of the project search")
	taskSearchDelay := fs.Duration("task-search-debounce", cfg.TaskSearchDebounce, "quiet period of the task search")
	pageSize := fs.Int("page-size", cfg.PageSize, "initial projects per page (6, 12, 24 or 48)")
	logLevel := fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	logFormat := fs.String("log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if fs.Changed("addr") {
		cfg.Addr = *addr
	}
	if fs.Changed("api-url") {
		cfg.APIBaseURL = *apiURL
	}
	if fs.Changed("static") {
		cfg.StaticDir = *staticDir
	}
	if fs.Changed("session-db") {
		cfg.SessionDB = *sessionDB
	}
	if fs.Changed("request-timeout") {
		cfg.RequestTimeout = *timeout
	}
	if fs.Changed("search-debounce") {
		cfg.SearchDebounce = *searchDelay
	}
	if fs.Changed("task-search-debounce") {
		cfg.TaskSearchDebounce = *taskSearchDelay
	}
	if fs.Changed("page-size") {
		cfg.PageSize = *pageSize
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = *logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = util.EnvOrDefault("TASKAURA_ADDR", c.Addr)
	c.APIBaseURL = util.EnvOrDefault("TASKAURA_API_URL", c.APIBaseURL)
	c.StaticDir = util.EnvOrDefault("TASKAURA_STATIC_DIR", c.StaticDir)
	c.SessionDB = util.EnvOrDefault("TASKAURA_SESSION_DB", c.SessionDB)
	c.RequestTimeout = util.EnvDurationOrDefault("TASKAURA_REQUEST_TIMEOUT", c.RequestTimeout)
	c.SearchDebounce = util.EnvDurationOrDefault("TASKAURA_SEARCH_DEBOUNCE", c.SearchDebounce)
	c.TaskSearchDebounce = util.EnvDurationOrDefault("TASKAURA_TASK_SEARCH_DEBOUNCE", c.TaskSearchDebounce)
	c.PageSize = util.EnvIntOrDefault("TASKAURA_PAGE_SIZE", c.PageSize)
	c.LogLevel = util.EnvOrDefault("TASKAURA_LOG_LEVEL", c.LogLevel)
	c.LogFormat = util.EnvOrDefault("TASKAURA_LOG_FORMAT", c.LogFormat)
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("api_base_url must be an absolute URL, got %q", c.APIBaseURL))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.SearchDebounce <= 0 || c.TaskSearchDebounce <= 0 {
		errs = append(errs, errors.New("debounce periods must be positive"))
	}
	if !pagination.ValidSize(c.PageSize) {
		errs = append(errs, fmt.Errorf("page_size must be one of %v, got %d", pagination.Sizes, c.PageSize))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger on w.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
