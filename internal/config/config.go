// Package config loads client settings from defaults, a YAML file, a .env
// file and PERFUMERY_* environment variables, then checks the result against
// a CUE schema.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Retry mirrors api.RetryPolicy in file form.
type Retry struct {
	MaxAttempts int      `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay" json:"max_delay"`
}

// Config is the resolved client configuration.
type Config struct {
	APIURL         string   `yaml:"api_url" json:"api_url"`
	DBPath         string   `yaml:"db_path" json:"db_path"`
	SyncDebounce   Duration `yaml:"sync_debounce" json:"sync_debounce"`
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout"`
	Retry          Retry    `yaml:"retry" json:"retry"`
	LogLevel       string   `yaml:"log_level" json:"log_level"`
}

// Duration is a time.Duration written as "500ms" in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default values used when nothing overrides them.
const (
	DefaultAPIURL   = "http://localhost:3000/api"
	DefaultDBPath   = "perfumery.db"
	DefaultLogLevel = "info"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		DBPath:         DefaultDBPath,
		SyncDebounce:   Duration(500 * time.Millisecond),
		RequestTimeout: Duration(10 * time.Second),
		Retry: Retry{
			MaxAttempts: 3,
			BaseDelay:   Duration(200 * time.Millisecond),
			MaxDelay:    Duration(2 * time.Second),
		},
		LogLevel: DefaultLogLevel,
	}
}

// environ holds the PERFUMERY_* overrides. Every field is a string so an
// unset variable can be told apart from a zero value.
type environ struct {
	APIURL           string `env:"PERFUMERY_API_URL"`
	DBPath           string `env:"PERFUMERY_DB_PATH"`
	SyncDebounce     string `env:"PERFUMERY_SYNC_DEBOUNCE"`
	RequestTimeout   string `env:"PERFUMERY_REQUEST_TIMEOUT"`
	RetryMaxAttempts string `env:"PERFUMERY_RETRY_MAX_ATTEMPTS"`
	RetryBaseDelay   string `env:"PERFUMERY_RETRY_BASE_DELAY"`
	RetryMaxDelay    string `env:"PERFUMERY_RETRY_MAX_DELAY"`
	LogLevel         string `env:"PERFUMERY_LOG_LEVEL"`
}

// Sources names the optional files Load reads. Empty paths are skipped.
type Sources struct {
	File    string // YAML config file
	EnvFile string // dotenv file
}

// Error reports a configuration problem with the source it came from.
type Error struct {
	Source  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Load resolves the configuration. A named config file must exist; a missing
// env file is skipped. Variables already set in the process environment win
// over the env file.
func Load(src Sources) (Config, error) {
	cfg := Default()

	if src.File != "" {
		if err := readFile(src.File, &cfg); err != nil {
			return Config{}, err
		}
	}

	if src.EnvFile != "" {
		if err := godotenv.Load(src.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, &Error{Source: src.EnvFile, Message: "read env file", Err: err}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Source: path, Message: "read config file", Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &Error{Source: path, Message: "parse config file", Err: err}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var e environ
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return &Error{Source: "environment", Message: "read variables", Err: err}
	}

	if e.APIURL != "" {
		cfg.APIURL = e.APIURL
	}
	if e.DBPath != "" {
		cfg.DBPath = e.DBPath
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}

	durations := []struct {
		name  string
		value string
		dst   *Duration
	}{
		{"PERFUMERY_SYNC_DEBOUNCE", e.SyncDebounce, &cfg.SyncDebounce},
		{"PERFUMERY_REQUEST_TIMEOUT", e.RequestTimeout, &cfg.RequestTimeout},
		{"PERFUMERY_RETRY_BASE_DELAY", e.RetryBaseDelay, &cfg.Retry.BaseDelay},
		{"PERFUMERY_RETRY_MAX_DELAY", e.RetryMaxDelay, &cfg.Retry.MaxDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return &Error{Source: d.name, Message: "invalid duration", Err: err}
		}
		*d.dst = Duration(parsed)
	}

	if e.RetryMaxAttempts != "" {
		n, err := strconv.Atoi(e.RetryMaxAttempts)
		if err != nil {
			return &Error{Source: "PERFUMERY_RETRY_MAX_ATTEMPTS", Message: "invalid integer", Err: err}
		}
		cfg.Retry.MaxAttempts = n
	}
	return nil
}
