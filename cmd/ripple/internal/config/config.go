package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/ripple/pkg/engine"
	"github.com/go-drift/ripple/pkg/errors"
)

// FileName is the optional configuration file looked up in the project
// directory.
const FileName = "ripple.yaml"

// Scheduler modes.
const (
	ModeLoop = "loop"
	ModeSync = "sync"
)

// Config represents the optional ripple.yaml configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Debug     DebugConfig     `yaml:"debug"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
}

// AppConfig names the application in logs.
type AppConfig struct {
	Name string `yaml:"name,omitempty"`
}

// SchedulerConfig selects how passes are sliced.
type SchedulerConfig struct {
	Mode   string `yaml:"mode,omitempty"`
	Budget string `yaml:"budget,omitempty"`
	Tick   string `yaml:"tick,omitempty"`
}

// DebugConfig enables the debug HTTP server.
type DebugConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// StoreConfig points at the todo database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root       string
	ModulePath string
	AppName    string
	Mode       string
	Budget     time.Duration
	Tick       time.Duration
	DebugAddr  string
	LogLevel   slog.Level
	LogFormat  string
	StorePath  string
}

// LoadOptional reads ripple.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil && stderrors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("config.Load", fmt.Errorf("failed to read %s: %w", path, err))
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, configError("config.Load", fmt.Errorf("failed to parse %s: %w", path, err))
	}
	return &cfg, nil
}

// Resolve loads ripple.yaml from dir (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve fills defaults and validates c. dir is the project directory;
// when it holds a go.mod the module path names the app.
func (c *Config) Resolve(dir string) (*Resolved, error) {
	r := &Resolved{Root: dir, ModulePath: modulePath(dir)}

	r.AppName = strings.TrimSpace(c.App.Name)
	if r.AppName == "" {
		r.AppName = defaultAppName(r.ModulePath, dir)
	}

	r.Mode = strings.ToLower(strings.TrimSpace(c.Scheduler.Mode))
	switch r.Mode {
	case "":
		r.Mode = ModeLoop
	case ModeLoop, ModeSync:
	default:
		return nil, configError("config.Resolve", fmt.Errorf("scheduler.mode must be %q or %q (got %q)", ModeLoop, ModeSync, c.Scheduler.Mode))
	}

	var err error
	if r.Budget, err = parseDuration("scheduler.budget", c.Scheduler.Budget, engine.DefaultBudget); err != nil {
		return nil, err
	}
	if r.Tick, err = parseDuration("scheduler.tick", c.Scheduler.Tick, engine.DefaultTick); err != nil {
		return nil, err
	}

	r.DebugAddr = strings.TrimSpace(c.Debug.Addr)

	if r.LogLevel, err = ParseLevel(c.Log.Level); err != nil {
		return nil, err
	}
	r.LogFormat = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch r.LogFormat {
	case "":
		r.LogFormat = "text"
	case "text", "json":
	default:
		return nil, configError("config.Resolve", fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format))
	}

	r.StorePath = strings.TrimSpace(c.Store.Path)
	if r.StorePath != "" && !filepath.IsAbs(r.StorePath) {
		r.StorePath = filepath.Join(dir, r.StorePath)
	}
	return r, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. An empty
// string is info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, configError("config.ParseLevel", fmt.Errorf("log.level: %w", err))
	}
	return level, nil
}

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, configError("config.Resolve", fmt.Errorf("%s: %w", field, err))
	}
	if d < 0 {
		return 0, configError("config.Resolve", fmt.Errorf("%s must not be negative (got %s)", field, s))
	}
	return d, nil
}

func configError(op string, err error) *errors.EngineError {
	return &errors.EngineError{Op: op, Kind: errors.KindConfig, Err: err, Timestamp: time.Now()}
}

// modulePath returns the module path declared by dir/go.mod, or "".
func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modName, _, ok := module.SplitPathVersion(modulePath); ok && modName != "" {
		parts := strings.Split(modName, "/")
		base = parts[len(parts)-1]
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "ripple"
	}
	return base
}
