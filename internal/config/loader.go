package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".textveil"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML representation of settings.
//
// Design decision: enabled flags are pointers so the loader can distinguish
// "explicitly false" from "absent, keep the default". String and list fields
// treat empty as absent, which is the same thing for them.
type File struct {
	KeywordFilter struct {
		Enabled  *bool  `yaml:"enabled"`
		Keywords string `yaml:"keywords"`
	} `yaml:"keyword_filter"`

	ScriptFilter struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"script_filter"`

	AIFilter struct {
		Enabled           *bool  `yaml:"enabled"`
		APIKey            string `yaml:"api_key"`
		Model             string `yaml:"model"`
		FilterDescription string `yaml:"filter_description"`
		Endpoint          string `yaml:"endpoint"`
	} `yaml:"ai_filter"`

	AllowReveal    *bool    `yaml:"allow_reveal"`
	EnabledDomains []string `yaml:"enabled_domains"`
	CacheDir       string   `yaml:"cache_dir"`
	CacheMaxAge    duration `yaml:"cache_max_age"`
}

// duration wraps time.Duration so the config file can use Go duration
// syntax ("168h", "30m") instead of raw nanoseconds.
type duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// LoadConfigFile loads settings from a YAML file.
// Returns ErrConfigNotFound if the file does not exist so callers can decide
// whether a missing file is fatal (explicit path) or fine (default search).
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply overlays the file's values onto a settings snapshot.
// Only fields present in the file are written; everything else keeps its
// current (default or flag-provided) value.
func (f *File) Apply(s *Settings) {
	if f.KeywordFilter.Enabled != nil {
		s.KeywordFilterEnabled = *f.KeywordFilter.Enabled
	}
	if f.KeywordFilter.Keywords != "" {
		s.Keywords = f.KeywordFilter.Keywords
	}
	if f.ScriptFilter.Enabled != nil {
		s.ScriptFilterEnabled = *f.ScriptFilter.Enabled
	}
	if f.AIFilter.Enabled != nil {
		s.AIFilterEnabled = *f.AIFilter.Enabled
	}
	if f.AIFilter.APIKey != "" {
		s.APIKey = f.AIFilter.APIKey
	}
	if f.AIFilter.Model != "" {
		s.Model = f.AIFilter.Model
	}
	if f.AIFilter.FilterDescription != "" {
		s.FilterDescription = f.AIFilter.FilterDescription
	}
	if f.AIFilter.Endpoint != "" {
		s.Endpoint = f.AIFilter.Endpoint
	}
	if f.AllowReveal != nil {
		s.AllowReveal = *f.AllowReveal
	}
	if len(f.EnabledDomains) > 0 {
		s.EnabledDomains = f.EnabledDomains
	}
	if f.CacheDir != "" {
		s.CacheDir = f.CacheDir
	}
	if f.CacheMaxAge != 0 {
		s.CacheMaxAge = time.Duration(f.CacheMaxAge)
	}
}

// FindConfigFile searches for the configuration file:
//  1. an explicit path, if given
//  2. .textveil in the current directory
//  3. .textveil in the user's home directory
//  4. the XDG config directory
//
// Returns the path if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	return ""
}
