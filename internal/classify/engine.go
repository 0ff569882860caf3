package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"textveil/internal/config"
	"textveil/internal/model"
)

// Engine orchestrates the classification layers into an ordered,
// short-circuiting decision with fail-open error handling.
//
// Layer visit order is fixed: KEYWORD → SCRIPT → AI → DONE. Any layer may
// short-circuit straight to DONE with a block verdict. Only a successful
// explicit match (keyword, script) or a successful AI classification
// returning true can ever produce a block; every error path resolves to
// allow. That asymmetry is the central safety property: partial failure must
// never degrade into unexpected over-blocking.
type Engine struct {
	// keywordEnabled gates the keyword layer. The matcher additionally
	// never matches on an empty list.
	keywordEnabled bool

	// keywords matches the configured keyword list.
	keywords *KeywordMatcher

	// scriptEnabled gates the script-variant layer.
	scriptEnabled bool

	// script is the variant detector; nil when the layer is unavailable
	// (construction failed), which reads as disabled.
	script *ScriptVariantDetector

	// ai is the remote classifier; nil when the AI layer is disabled or
	// has no API key (a configuration gap, treated as "layer absent").
	ai AIClassifier

	// logger is used for per-verdict diagnostics.
	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithAIClassifier injects a classifier, replacing the one derived from
// settings. Tests use this for call-count assertions.
func WithAIClassifier(ai AIClassifier) EngineOption {
	return func(e *Engine) {
		e.ai = ai
	}
}

// WithScriptDetector injects a pre-built script detector.
func WithScriptDetector(d *ScriptVariantDetector) EngineOption {
	return func(e *Engine) {
		e.script = d
	}
}

// NewEngine builds an engine from a settings snapshot.
//
// Configuration gaps are resolved here, once: an enabled AI layer without an
// API key yields a nil classifier, and a script detector that fails to load
// its tables yields a nil detector. Both read as absent layers downstream,
// informational and never errors.
func NewEngine(settings *config.Settings, opts ...EngineOption) *Engine {
	e := &Engine{
		keywordEnabled: settings.KeywordFilterEnabled,
		keywords:       NewKeywordMatcher(settings.KeywordList()),
		scriptEnabled:  settings.ScriptFilterEnabled,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	if e.scriptEnabled && e.script == nil {
		detector, err := NewScriptVariantDetector()
		if err != nil {
			e.logger.Warn("script detector unavailable, layer treated as absent", "error", err)
		} else {
			e.script = detector
		}
	}

	if e.ai == nil && settings.AIUsable() {
		e.ai = NewClient(settings.Endpoint, settings.APIKey, settings.Model,
			settings.FilterDescription,
			WithClientLogger(e.logger),
			WithHTTPClient(&http.Client{Timeout: settings.Timeout}),
		)
	}

	return e
}

// Classify runs the pipeline for one text fragment and returns the final
// verdict. It never returns an error and never panics: failures and faults
// collapse to the allow-with-error verdict at this boundary.
func (e *Engine) Classify(ctx context.Context, text string) (verdict model.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("classification fault", "panic", r)
			verdict = model.AllowWithError(fmt.Errorf("classification fault: %v", r))
		}
	}()

	v, err := e.evaluate(ctx, text)
	if err != nil {
		e.logger.Warn("classifier error, failing open", "error", err)
		return model.AllowWithError(err)
	}
	return v
}

// evaluate is the internal tagged-result pipeline: it keeps "no match" and
// "could not determine" distinct. Classify collapses the distinction into
// the public allow-on-error contract.
func (e *Engine) evaluate(ctx context.Context, text string) (model.Verdict, error) {
	if e.keywordEnabled {
		if kw, ok := e.keywords.Match(text); ok {
			e.logger.Debug("blocked by keyword", "keyword", kw)
			return model.BlockedByKeyword(kw), nil
		}
	}

	if e.scriptEnabled && e.script != nil && e.script.IsSimplified(text) {
		e.logger.Debug("blocked by script variant")
		return model.BlockedByScript(), nil
	}

	if e.ai == nil {
		return model.Allow(), nil
	}

	shouldBlock, err := e.ai.Classify(ctx, text)
	if err != nil {
		return model.Verdict{}, err
	}
	e.logger.Debug("AI verdict", "block", shouldBlock)
	return model.FromAI(shouldBlock), nil
}
