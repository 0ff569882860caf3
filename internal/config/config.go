package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The pipeline timing constants reproduce the throttling contract exactly:
// they exist to guarantee a host document's processing is never starved by
// an unbroken run of classification calls.
const (
	// DefaultBatchSize is the number of fragments classified concurrently
	// within one group. Five keeps remote-classifier fan-out small enough
	// that a burst of discoveries never floods the endpoint.
	DefaultBatchSize = 5

	// DefaultYieldInterval is the pause between classification groups.
	DefaultYieldInterval = 100 * time.Millisecond

	// DefaultDebounceWindow is how long change notifications are coalesced
	// before a batch scan runs. 500ms merges the notification storms that
	// infinite-scroll pages produce into a single scan.
	DefaultDebounceWindow = 500 * time.Millisecond

	// DefaultMinTextLength is the minimum number of characters a fragment
	// must have to be worth classifying. Shorter strings (button labels,
	// counters) carry no classifiable meaning.
	DefaultMinTextLength = 10

	// DefaultTimeout is the per-request timeout for HTTP operations
	// (page fetches and classifier calls). The pipeline itself enforces no
	// internal deadline; stalls rely on the transport's limit.
	DefaultTimeout = 30 * time.Second

	// DefaultModel is the classifier model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultEndpoint is the chat-completions endpoint for the AI layer.
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

	// DefaultMaxBodySize limits how much of a fetched document is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultCacheMaxAge is how long a cached verdict stays valid. Entries
	// older than this are pruned when the cache opens. A week is long enough
	// to survive repeated scans of the same pages while still picking up
	// keyword-list changes eventually.
	DefaultCacheMaxAge = 7 * 24 * time.Hour

	// DefaultUserAgent identifies textveil in HTTP requests.
	DefaultUserAgent = "textveil/1.0"

	// AppName is the application name used for XDG directory paths.
	AppName = "textveil"
)

// Settings is the snapshot of all configuration the pipeline reads.
//
// Design decision: a single flat struct because the option count is small
// and the whole snapshot is passed by injection. The file loader and CLI
// flags both write into it before validation; afterwards it is read-only.
type Settings struct {
	// KeywordFilterEnabled gates the keyword layer. Note that an empty
	// Keywords string disables the layer regardless of this flag: the
	// matcher represents "disabled" as an empty keyword list, not as a
	// flag check of its own.
	KeywordFilterEnabled bool

	// Keywords is the comma-separated, case-insensitive keyword list.
	Keywords string

	// ScriptFilterEnabled gates the script-variant layer.
	ScriptFilterEnabled bool

	// AIFilterEnabled gates the AI layer. An empty APIKey leaves the layer
	// inert even when enabled (a configuration gap, not an error).
	AIFilterEnabled bool

	// APIKey authenticates against the classification endpoint.
	APIKey string

	// Model is the model identifier sent with each classification request.
	Model string

	// FilterDescription is the natural-language criterion passed verbatim
	// into the classifier prompt.
	FilterDescription string

	// Endpoint is the chat-completions URL the AI layer posts to.
	Endpoint string

	// AllowReveal controls whether blocked placeholders keep the original
	// content recoverable for an explicit reveal.
	AllowReveal bool

	// EnabledDomains restricts which URL targets are scanned at all.
	// Matching is exact or dot-suffix ("example.com" matches
	// "sub.example.com"). Empty means every domain is scanned. The gate is
	// evaluated once per document, never per fragment.
	EnabledDomains []string

	// BatchSize is the number of fragments classified concurrently per group.
	BatchSize int

	// YieldInterval is the pause between classification groups.
	YieldInterval time.Duration

	// DebounceWindow is the change-notification coalescing window.
	DebounceWindow time.Duration

	// MinTextLength is the minimum fragment length in characters.
	MinTextLength int

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxBodySize limits fetched document size in bytes.
	MaxBodySize int64

	// UserAgent is sent with page fetches.
	UserAgent string

	// CacheDir is the directory for the persistent verdict cache.
	// Empty disables the cache.
	CacheDir string

	// CacheMaxAge is how long cached verdicts stay valid. Entries older
	// than this are pruned when the cache opens. Zero keeps everything.
	CacheMaxAge time.Duration

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// JSONReport and MarkdownReport select the report format.
	// Mutually exclusive; neither means the human-readable simple format.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the report destination; empty means stdout.
	ReportFile string

	// FilteredHTMLFile, when set, receives the post-verdict document with
	// placeholders applied.
	FilteredHTMLFile string

	// Targets is the list of HTML files or URLs to scan.
	Targets []string
}

// NewSettings creates a Settings snapshot with defaults.
// Keyword and AI layers default to enabled but are inert until keywords or
// an API key are configured; this is the tolerated "absent snapshot" shape.
func NewSettings() *Settings {
	return &Settings{
		KeywordFilterEnabled: true,
		AIFilterEnabled:      true,
		AllowReveal:          true,
		Model:                DefaultModel,
		Endpoint:             DefaultEndpoint,
		BatchSize:            DefaultBatchSize,
		YieldInterval:        DefaultYieldInterval,
		DebounceWindow:       DefaultDebounceWindow,
		MinTextLength:        DefaultMinTextLength,
		Timeout:              DefaultTimeout,
		MaxBodySize:          DefaultMaxBodySize,
		UserAgent:            DefaultUserAgent,
		CacheMaxAge:          DefaultCacheMaxAge,
	}
}

// KeywordList returns the normalized keyword list: split on commas, trimmed,
// lowercased, empties dropped, original order preserved. Normalization
// happens here, once per settings read, so the matcher never re-normalizes
// per call.
func (s *Settings) KeywordList() []string {
	if strings.TrimSpace(s.Keywords) == "" {
		return nil
	}
	parts := strings.Split(s.Keywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		kw := strings.ToLower(strings.TrimSpace(p))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// DomainEnabled reports whether a document served from host should be
// scanned. An empty allowlist enables every host; otherwise the host must
// equal an entry or be a subdomain of one.
func (s *Settings) DomainEnabled(host string) bool {
	if len(s.EnabledDomains) == 0 {
		return true
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, d := range s.EnabledDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// AIUsable reports whether the AI layer can actually run: enabled and
// holding an API key. Enabled-but-keyless is a configuration gap treated as
// "layer absent".
func (s *Settings) AIUsable() bool {
	return s.AIFilterEnabled && s.APIKey != ""
}

// Validate checks the snapshot before any scanning begins.
// Returns the first problem found; fixing one often changes the rest.
func (s *Settings) Validate() error {
	if len(s.Targets) == 0 {
		return ErrNoTarget
	}
	if s.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if s.YieldInterval < 0 {
		return ErrInvalidYieldInterval
	}
	if s.DebounceWindow < 0 {
		return ErrInvalidDebounceWindow
	}
	if s.MinTextLength < 0 {
		return ErrInvalidMinTextLength
	}
	if s.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if s.CacheMaxAge < 0 {
		return ErrInvalidCacheMaxAge
	}
	if s.JSONReport && s.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// XDGConfigDir returns the XDG config directory for textveil.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for textveil.
// This is the default location of the verdict cache.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}
