package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// TestNewSettings verifies default values.
func TestNewSettings(t *testing.T) {
	t.Parallel()

	s := NewSettings()

	if !s.KeywordFilterEnabled {
		t.Error("keyword filter should default to enabled")
	}
	if !s.AIFilterEnabled {
		t.Error("AI filter should default to enabled")
	}
	if s.ScriptFilterEnabled {
		t.Error("script filter should default to disabled")
	}
	if s.APIKey != "" {
		t.Error("API key should default to empty (AI layer inert)")
	}
	if s.AIUsable() {
		t.Error("AI layer must be unusable without a key")
	}
	if s.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", s.BatchSize, DefaultBatchSize)
	}
	if s.DebounceWindow != DefaultDebounceWindow {
		t.Errorf("DebounceWindow = %v, want %v", s.DebounceWindow, DefaultDebounceWindow)
	}
}

// TestKeywordList verifies keyword normalization.
func TestKeywordList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		keywords string
		want     []string
	}{
		{"empty string", "", nil},
		{"whitespace only", "   ", nil},
		{"single keyword", "spoiler", []string{"spoiler"}},
		{"trims and lowercases", " Spoiler , LEAK ", []string{"spoiler", "leak"}},
		{"drops empty entries", "a,,b, ,c", []string{"a", "b", "c"}},
		{"preserves order", "zebra,apple,mango", []string{"zebra", "apple", "mango"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSettings()
			s.Keywords = tt.keywords
			if got := s.KeywordList(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("KeywordList() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDomainEnabled verifies the per-document domain gate.
func TestDomainEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		domains []string
		host    string
		want    bool
	}{
		{"empty allowlist enables everything", nil, "anything.example", true},
		{"exact match", []string{"example.com"}, "example.com", true},
		{"subdomain suffix match", []string{"example.com"}, "feed.example.com", true},
		{"case-insensitive", []string{"Example.COM"}, "EXAMPLE.com", true},
		{"no partial label match", []string{"example.com"}, "notexample.com", false},
		{"unlisted host", []string{"example.com"}, "other.net", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSettings()
			s.EnabledDomains = tt.domains
			if got := s.DomainEnabled(tt.host); got != tt.want {
				t.Errorf("DomainEnabled(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

// TestValidate verifies settings validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		s := NewSettings()
		s.Targets = []string{"page.html"}
		return s
	}

	t.Run("valid settings pass", func(t *testing.T) {
		t.Parallel()

		if err := valid().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Settings)
		want   error
	}{
		{"no targets", func(s *Settings) { s.Targets = nil }, ErrNoTarget},
		{"zero batch size", func(s *Settings) { s.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative yield", func(s *Settings) { s.YieldInterval = -1 }, ErrInvalidYieldInterval},
		{"negative debounce", func(s *Settings) { s.DebounceWindow = -1 }, ErrInvalidDebounceWindow},
		{"negative min length", func(s *Settings) { s.MinTextLength = -1 }, ErrInvalidMinTextLength},
		{"zero timeout", func(s *Settings) { s.Timeout = 0 }, ErrInvalidTimeout},
		{"negative cache max age", func(s *Settings) { s.CacheMaxAge = -1 }, ErrInvalidCacheMaxAge},
		{"both report formats", func(s *Settings) { s.JSONReport = true; s.MarkdownReport = true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := valid()
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestLoadConfigFile verifies the YAML loader and overlay behavior.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("keyword_filter: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("applies present fields and keeps defaults for absent ones", func(t *testing.T) {
		t.Parallel()

		content := `
keyword_filter:
  enabled: false
  keywords: "spoiler, ending"
ai_filter:
  api_key: sk-test
  filter_description: "spoilers about the finale"
enabled_domains:
  - example.com
`
		path := filepath.Join(t.TempDir(), ".textveil")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatal(err)
		}

		s := NewSettings()
		f.Apply(s)

		if s.KeywordFilterEnabled {
			t.Error("keyword filter should be disabled by the file")
		}
		if s.Keywords != "spoiler, ending" {
			t.Errorf("Keywords = %q", s.Keywords)
		}
		if !s.AIFilterEnabled {
			t.Error("AI filter should keep its enabled default")
		}
		if s.APIKey != "sk-test" {
			t.Errorf("APIKey = %q", s.APIKey)
		}
		if s.FilterDescription != "spoilers about the finale" {
			t.Errorf("FilterDescription = %q", s.FilterDescription)
		}
		if s.Model != DefaultModel {
			t.Errorf("Model = %q, want default %q", s.Model, DefaultModel)
		}
		if len(s.EnabledDomains) != 1 || s.EnabledDomains[0] != "example.com" {
			t.Errorf("EnabledDomains = %v", s.EnabledDomains)
		}
		if s.CacheMaxAge != DefaultCacheMaxAge {
			t.Errorf("CacheMaxAge = %v, want default %v", s.CacheMaxAge, DefaultCacheMaxAge)
		}
	})

	t.Run("cache max age parses duration syntax", func(t *testing.T) {
		t.Parallel()

		content := `
cache_dir: /tmp/textveil-cache
cache_max_age: "48h"
`
		path := filepath.Join(t.TempDir(), ".textveil")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatal(err)
		}

		s := NewSettings()
		f.Apply(s)

		if s.CacheMaxAge != 48*time.Hour {
			t.Errorf("CacheMaxAge = %v, want 48h", s.CacheMaxAge)
		}
	})

	t.Run("invalid cache max age returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".textveil")
		if err := os.WriteFile(path, []byte(`cache_max_age: "two days"`), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestFindConfigFile verifies explicit-path lookup.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
