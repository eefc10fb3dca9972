package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Diff engines.
const (
	EngineExec    = "exec"    // external diff binary
	EngineBuiltin = "builtin" // in-process line diff
)

// Branch backends.
const (
	BackendGit   = "git"    // git binary
	BackendGoGit = "go-git" // in-process repository read
)

// Config holds all configurable statusline settings.
type Config struct {
	BranchFallback string `json:"branch_fallback,omitempty" split_words:"true"`
	BranchBackend  string `json:"branch_backend,omitempty" split_words:"true"` // "git" | "go-git"
	GitBin         string `json:"git_bin,omitempty" split_words:"true"`
	DiffEngine     string `json:"diff_engine,omitempty" split_words:"true"` // "exec" | "builtin"
	DiffBin        string `json:"diff_bin,omitempty" split_words:"true"`
	ScratchDir     string `json:"scratch_dir,omitempty" split_words:"true"` // parent of the per-run scratch dir
	Color          *bool  `json:"color,omitempty" split_words:"true"`
	LogFile        string `json:"log_file,omitempty" split_words:"true"`
	LogLevel       string `json:"log_level,omitempty" split_words:"true"`
}

// envPrefix namespaces environment overrides, e.g. STATUSLINE_DIFF_ENGINE.
const envPrefix = "STATUSLINE"

// Defaults returns sensible default configuration values.
func Defaults() Config {
	color := true
	return Config{
		BranchFallback: "no-git",
		BranchBackend:  BackendGit,
		GitBin:         "git",
		DiffEngine:     EngineExec,
		DiffBin:        "diff",
		Color:          &color,
		LogLevel:       "info",
	}
}

// UseColor reports whether ANSI colors are enabled.
func (c Config) UseColor() bool {
	return c.Color == nil || *c.Color
}

// Validate rejects unknown engine and backend names.
func (c Config) Validate() error {
	switch c.DiffEngine {
	case EngineExec, EngineBuiltin:
	default:
		return fmt.Errorf("unknown diff_engine %q (want %q or %q)", c.DiffEngine, EngineExec, EngineBuiltin)
	}
	switch c.BranchBackend {
	case BackendGit, BackendGoGit:
	default:
		return fmt.Errorf("unknown branch_backend %q (want %q or %q)", c.BranchBackend, BackendGit, BackendGoGit)
	}
	return nil
}

// GlobalPath returns $XDG_CONFIG_HOME/statusline/config.json, falling back
// to ~/.config/statusline/config.json.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "statusline", "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadFile reads an explicitly named config file. Unlike LoadGlobal, a
// missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg, err := loadFile(path, false)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}
	return cfg, nil
}

// LoadProject reads .statuslineconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".statuslineconfig", false)
}

// LoadEnv reads STATUSLINE_* environment overrides. Unset variables leave
// the corresponding fields empty.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge layers configs over the defaults. Later layers take precedence;
// empty fields and nil layers fall through to the layer below.
func Merge(layers ...*Config) Config {
	result := Defaults()
	for _, l := range layers {
		if l == nil {
			continue
		}
		overlay(&result.BranchFallback, l.BranchFallback)
		overlay(&result.BranchBackend, l.BranchBackend)
		overlay(&result.GitBin, l.GitBin)
		overlay(&result.DiffEngine, l.DiffEngine)
		overlay(&result.DiffBin, l.DiffBin)
		overlay(&result.ScratchDir, l.ScratchDir)
		overlay(&result.LogFile, l.LogFile)
		overlay(&result.LogLevel, l.LogLevel)
		if l.Color != nil {
			c := *l.Color
			result.Color = &c
		}
	}
	return result
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
