package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "mcpchat"
	// ConfigFile is the config file name
	ConfigFile = "config.yaml"
	// LogFile is the default log file name inside ConfigDir
	LogFile = "mcpchat.log"
)

// envKeys maps environment variables to config keys.
var envKeys = map[string]string{
	"MCPCHAT_PROVIDER":       "provider.name",
	"MCPCHAT_MODEL":          "provider.model",
	"MCPCHAT_MAX_ITERATIONS": "agent.max_iterations",
	"MCPCHAT_LOG_LEVEL":      "log.level",
	"MCPCHAT_LOG_FILE":       "log.file",
	"MCPCHAT_METRICS_ADDR":   "metrics.addr",
	"MCPCHAT_CALL_TIMEOUT":   "host.call_timeout",
	"MCPCHAT_TOOLS_DENY":     "tools.deny",
	"MCPCHAT_PLAIN":          "ui.plain",
}

// FileSystem abstracts file and environment access for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
	LookupEnv(key string) (string, bool)
}

// OSFileSystem implements FileSystem using the real OS
type OSFileSystem struct{}

func (OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFileSystem) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs   FileSystem
	path string
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: OSFileSystem{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// WithPath makes Load read path instead of ~/.config/mcpchat/config.yaml.
// An explicit path that does not exist is an error.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Load reads the config file and applies MCPCHAT_* environment overrides.
// Returns the defaults when no config file exists. The result is not
// validated so callers can layer command-line overrides first; call
// Config.Validate once all sources are applied.
//
// NOTE: YAML is decoded directly over the default configuration, so present
// keys overwrite defaults (even if zero) while missing keys keep them.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, homeErr := l.fs.UserHomeDir()

	configPath := l.path
	if configPath == "" && homeErr == nil {
		configPath = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
	}

	if configPath != "" {
		data, err := l.fs.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse %s", configPath)
			}
		case errors.Is(err, fs.ErrNotExist) && l.path == "":
			// No config file: keep defaults.
		default:
			return nil, errors.Wrapf(err, "read %s", configPath)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Log.File == "" && homeErr == nil {
		cfg.Log.File = filepath.Join(homeDir, ".config", ConfigDir, LogFile)
	}

	return cfg, nil
}

// applyEnv decodes set MCPCHAT_* variables over cfg. Values are weakly typed,
// so "20" fills an int, "30s" a duration and "a,b" a list.
func (l *Loader) applyEnv(cfg *Config) error {
	overrides := map[string]any{}
	for env, key := range envKeys {
		val, ok := l.fs.LookupEnv(env)
		if !ok {
			continue
		}
		section, field, _ := strings.Cut(key, ".")
		m, _ := overrides[section].(map[string]any)
		if m == nil {
			m = map[string]any{}
			overrides[section] = m
		}
		m[field] = val
	}
	if len(overrides) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		TagName:          "yaml",
		Result:           cfg,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := dec.Decode(overrides); err != nil {
		return errors.Wrap(err, "decode environment overrides")
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(err, "load %s", p)
		}
	}
	return nil
}

// Load is a convenience function using the default loader. The result is
// validated.
func Load() (*Config, error) {
	cfg, err := NewLoader().Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
