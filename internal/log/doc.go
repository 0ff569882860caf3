// Package log provides logging with automatic sanitization of classifier
// credentials, built on top of the standard slog package.
//
// The RedactHandler masks attribute values that look like API keys or
// authorization material before they reach the underlying handler. The AI
// layer's key travels through configuration and request construction; even
// in verbose mode it must never appear in log output that may be shared.
//
// Usage:
//
//	logger := log.NewRedactLogger(os.Stderr, verbose)
//	logger.Info("classifier configured",
//	    "api_key", key,          // masked
//	    "model", "gpt-4o-mini",  // logged as-is
//	)
package log
