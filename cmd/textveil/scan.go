package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"textveil/internal/cache"
	"textveil/internal/classify"
	"textveil/internal/config"
	"textveil/internal/log"
	"textveil/internal/model"
	"textveil/internal/present"
	"textveil/internal/report"
	"textveil/internal/scanner"
	"textveil/internal/schedule"
)

// apiKeyEnv is the environment variable consulted when no api-key flag or
// config entry is set.
const apiKeyEnv = "TEXTVEIL_API_KEY"

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file-or-url]",
		Short: "Scan HTML documents and veil matching text",
		Long: `Scan parses each target document, finds text fragments, and runs them
through the filter pipeline:

1. Keyword matching (case-insensitive substrings)
2. Script-variant detection (Simplified Chinese)
3. AI classification (remote, optional)

Matched fragments are replaced with placeholders in the in-memory
document. Filter failures never hide content.

Examples:
  # Scan a local file for keywords
  textveil scan --keywords spoiler,leak page.html

  # Scan a URL and block Simplified Chinese text
  textveil scan --script-filter https://example.com/thread

  # Use the AI layer with a natural-language filter
  textveil scan --api-key sk-... --filter "unreleased episode plots" page.html

  # Write the filtered document and a JSON report
  textveil scan --keywords leak --write-html out.html --json -o report.json page.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Filter layer flags
	cmd.Flags().StringP("keywords", "k", "",
		"Comma-separated keywords to block (case-insensitive)")
	cmd.Flags().Bool("no-keyword-filter", false,
		"Disable the keyword layer")
	cmd.Flags().Bool("script-filter", false,
		"Enable the Simplified Chinese script-variant layer")
	cmd.Flags().Bool("no-ai-filter", false,
		"Disable the AI layer")
	cmd.Flags().String("api-key", "",
		"API key for the AI classifier (or set "+apiKeyEnv+")")
	cmd.Flags().String("model", config.DefaultModel,
		"Model identifier for the AI classifier")
	cmd.Flags().String("filter", "",
		"Natural-language description of content to block")
	cmd.Flags().String("endpoint", config.DefaultEndpoint,
		"Chat-completions endpoint for the AI classifier")

	// Presentation flags
	cmd.Flags().Bool("no-reveal", false,
		"Drop blocked content instead of keeping it recoverable")
	cmd.Flags().String("write-html", "",
		"Write the filtered document to the specified file")

	// Scan behavior flags
	cmd.Flags().StringSlice("domains", nil,
		"Only scan URL targets on these domains (empty scans everything)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of fragments classified concurrently per group")
	cmd.Flags().Duration("yield", config.DefaultYieldInterval,
		"Pause between classification groups")
	cmd.Flags().Int("min-length", config.DefaultMinTextLength,
		"Minimum fragment length in characters")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"HTTP timeout for fetches and classification requests")
	cmd.Flags().String("cache-dir", "",
		"Directory for the persistent verdict cache (empty disables)")
	cmd.Flags().Duration("cache-max-age", config.DefaultCacheMaxAge,
		"Prune cached verdicts older than this on startup (0 keeps everything)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: "+config.DefaultConfigFile+" in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	settings, err := buildSettings(cmd, args)
	if err != nil {
		return err
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewRedactLogger(os.Stderr, settings.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, settings, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildSettings creates Settings from the config file and command flags.
// The config file applies first; flags the user actually set override it.
func buildSettings(cmd *cobra.Command, args []string) (*config.Settings, error) {
	settings := config.NewSettings()

	// Load the config file before flags so explicit flags win.
	// An explicitly specified file that doesn't exist is an error; a
	// missing default file is fine.
	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath := config.FindConfigFile(configFlag)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(settings)
	} else if configFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configFlag)
	}

	flags := cmd.Flags()

	if flags.Changed("keywords") {
		settings.Keywords, _ = flags.GetString("keywords")
	}
	if noKeyword, _ := flags.GetBool("no-keyword-filter"); noKeyword {
		settings.KeywordFilterEnabled = false
	}
	if flags.Changed("script-filter") {
		settings.ScriptFilterEnabled, _ = flags.GetBool("script-filter")
	}
	if noAI, _ := flags.GetBool("no-ai-filter"); noAI {
		settings.AIFilterEnabled = false
	}
	if flags.Changed("api-key") {
		settings.APIKey, _ = flags.GetString("api-key")
	}
	if settings.APIKey == "" {
		settings.APIKey = os.Getenv(apiKeyEnv)
	}
	if flags.Changed("model") {
		settings.Model, _ = flags.GetString("model")
	}
	if flags.Changed("filter") {
		settings.FilterDescription, _ = flags.GetString("filter")
	}
	if flags.Changed("endpoint") {
		settings.Endpoint, _ = flags.GetString("endpoint")
	}
	if noReveal, _ := flags.GetBool("no-reveal"); noReveal {
		settings.AllowReveal = false
	}
	if flags.Changed("domains") {
		settings.EnabledDomains, _ = flags.GetStringSlice("domains")
	}
	if flags.Changed("batch") {
		settings.BatchSize, _ = flags.GetInt("batch")
	}
	if flags.Changed("yield") {
		settings.YieldInterval, _ = flags.GetDuration("yield")
	}
	if flags.Changed("min-length") {
		settings.MinTextLength, _ = flags.GetInt("min-length")
	}
	if flags.Changed("timeout") {
		settings.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("cache-dir") {
		settings.CacheDir, _ = flags.GetString("cache-dir")
	}
	if flags.Changed("cache-max-age") {
		settings.CacheMaxAge, _ = flags.GetDuration("cache-max-age")
	}

	settings.JSONReport, _ = flags.GetBool("json")
	settings.MarkdownReport, _ = flags.GetBool("markdown")
	settings.ReportFile, _ = flags.GetString("output")
	settings.FilteredHTMLFile, _ = flags.GetString("write-html")
	settings.Verbose = getVerboseFlag(cmd)
	settings.Targets = args

	return settings, nil
}

// runScan scans every target sequentially.
func runScan(ctx context.Context, settings *config.Settings, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", settings.Targets,
		"keywordFilter", settings.KeywordFilterEnabled,
		"scriptFilter", settings.ScriptFilterEnabled,
		"aiFilter", settings.AIUsable(),
		"batchSize", settings.BatchSize,
	)

	var verdictCache *cache.VerdictCache
	if settings.CacheDir != "" {
		var err error
		verdictCache, err = cache.Open(settings.CacheDir, cache.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open verdict cache: %w", err)
		}
		defer verdictCache.Close()

		if settings.CacheMaxAge > 0 {
			removed, err := verdictCache.Prune(ctx, settings.CacheMaxAge)
			if err != nil {
				return fmt.Errorf("failed to prune verdict cache: %w", err)
			}
			if removed > 0 {
				logger.Info("pruned stale cached verdicts", "removed", removed, "maxAge", settings.CacheMaxAge)
			}
		}
		entries, err := verdictCache.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count cached verdicts: %w", err)
		}
		logger.Info("verdict cache opened", "path", verdictCache.Path(), "entries", entries)
	}

	engine := classify.NewEngine(settings, classify.WithLogger(logger))

	for _, target := range settings.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := scanTarget(ctx, settings, engine, verdictCache, target, logger); err != nil {
			logger.Error("scan failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Scan error for %s: %v\n", target, err)
		}
	}

	return nil
}

// scanTarget fetches, scans and reports on one document.
func scanTarget(ctx context.Context, settings *config.Settings, engine *classify.Engine, verdictCache *cache.VerdictCache, target string, logger *slog.Logger) error {
	doc, skipped, err := fetchTarget(ctx, settings, target, logger)
	if err != nil {
		return err
	}
	if skipped {
		fmt.Printf("Skipping %s (domain not enabled)\n", target)
		return nil
	}

	presenter := present.NewHTMLPresenter(
		present.WithAllowReveal(settings.AllowReveal),
		present.WithPresenterLogger(logger),
	)
	scanReport := model.NewScanReport(target)

	opts := []schedule.Option{
		schedule.WithReport(scanReport),
		schedule.WithBatchSize(settings.BatchSize),
		schedule.WithYieldInterval(settings.YieldInterval),
		schedule.WithDebounceWindow(settings.DebounceWindow),
		schedule.WithSchedulerLogger(logger),
		schedule.WithScannerOptions(
			scanner.WithMinTextLength(settings.MinTextLength),
			scanner.WithLogger(logger),
		),
	}
	if verdictCache != nil {
		opts = append(opts, schedule.WithCache(verdictCache))
	}
	sched := schedule.New(engine, presenter, opts...)

	fmt.Printf("Scanning %s...\n", target)
	startTime := time.Now()

	if err := sched.ScanDocument(ctx, doc); err != nil {
		return err
	}
	scanReport.Finish()

	fmt.Printf("Scan completed in %s (%d blocked, %d allowed)\n\n",
		time.Since(startTime).Round(time.Millisecond),
		scanReport.Blocked, scanReport.Allowed)

	if err := outputReport(settings, scanReport); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if settings.FilteredHTMLFile != "" {
		if err := writeFilteredHTML(settings.FilteredHTMLFile, doc); err != nil {
			return fmt.Errorf("failed to write filtered document: %w", err)
		}
		logger.Info("filtered document written", "path", settings.FilteredHTMLFile)
	}

	return nil
}

// fetchTarget loads and parses the target document. URL targets are gated by
// the domain allowlist, evaluated once per document; the skipped return is
// true when the gate rejects the target.
func fetchTarget(ctx context.Context, settings *config.Settings, target string, logger *slog.Logger) (*html.Node, bool, error) {
	var body io.ReadCloser

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, false, fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		if !settings.DomainEnabled(u.Hostname()) {
			logger.Info("target domain not in allowlist", "host", u.Hostname())
			return nil, true, nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, false, err
		}
		req.Header.Set("User-Agent", settings.UserAgent)

		client := &http.Client{Timeout: settings.Timeout}
		resp, err := client.Do(req)
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch %s: %w", target, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, false, fmt.Errorf("fetch of %s returned status %d", target, resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(target) //nolint:gosec // User-provided scan target is intentional
		if err != nil {
			return nil, false, fmt.Errorf("failed to open %s: %w", target, err)
		}
		body = f
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, settings.MaxBodySize))
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", target, err)
	}
	return doc, false, nil
}

// outputReport writes the scan report in the requested format.
// When a report file is set, the formatted report goes to the file and a
// human-readable summary still goes to the terminal.
func outputReport(settings *config.Settings, scanReport *model.ScanReport) error {
	if settings.ReportFile == "" {
		_, err := formatWriter(settings, os.Stdout).Write(scanReport)
		return err
	}

	dir := filepath.Dir(settings.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports quote page content, so owner-only permissions.
	f, err := os.OpenFile(settings.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer := report.NewMultiWriter(
		formatWriter(settings, f),
		report.NewSimpleWriter(os.Stdout),
	)
	_, err = writer.Write(scanReport)
	return err
}

// formatWriter selects the report writer for the configured format.
func formatWriter(settings *config.Settings, output io.Writer) report.Writer {
	switch {
	case settings.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case settings.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}

// writeFilteredHTML renders the post-verdict document to path.
func writeFilteredHTML(path string, doc *html.Node) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return html.Render(f, doc)
}
