package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spherical/pdf2excel/internal/assets"
	"github.com/spherical/pdf2excel/internal/config"
	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/history"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/pdf"
	"github.com/spherical/pdf2excel/internal/provision"
	"github.com/spherical/pdf2excel/internal/resolve"
	"github.com/spherical/pdf2excel/internal/service"
)

// app bundles everything a command needs.
type app struct {
	cfg       *config.Config
	logger    *observability.Logger
	extractor *provision.Extractor
	resolver  *resolve.Resolver
	history   *history.Store
	svc       *service.Service
}

// appOptions selects what newApp wires.
type appOptions struct {
	// history opens the history store when history is enabled.
	history bool
	// interactive quiets console logging below warn unless LOG_LEVEL or
	// --verbose says otherwise.
	interactive bool
}

// newApp loads configuration and wires the command API.
func newApp(ctx context.Context, o appOptions) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	} else if o.interactive && cfg.Observability.LogFormat == "console" && os.Getenv("LOG_LEVEL") == "" {
		level = "warn"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      cfg.Observability.LogFormat,
		NoColor:     noColor,
		ServiceName: cfg.App.Name,
	})

	catalog, err := assets.Default()
	if err != nil {
		return nil, fmt.Errorf("load embedded assets: %w", err)
	}

	extractor := provision.NewExtractor(catalog, cfg.CacheDir(), logger)
	resolver := resolve.New(resolve.Options{
		InterpreterOverride: cfg.Bridge.InterpreterPath,
		ScriptOverride:      cfg.Bridge.ScriptPath,
	}, catalog, extractor, logger)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		resolver:  resolver,
	}

	opts := service.Options{Timeout: cfg.Bridge.Timeout}
	if cfg.Bridge.Preflight {
		opts.Preflight = pdf.NewPreflight(nil, logger)
	}

	if o.history && cfg.History.Enabled {
		store, err := history.Open(ctx, history.Config{
			Driver: cfg.History.Driver,
			DSN:    cfg.HistoryDSN(),
		}, logger)
		if err != nil {
			// History is best effort; conversions still run.
			logger.Warn().Err(err).Msg("Conversion history unavailable")
		} else {
			a.history = store
			opts.Recorder = store
		}
	}

	a.svc = service.New(resolver, logger, opts)
	return a, nil
}

// Close releases resources held by the app.
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to close history store")
		}
	}
}

// readResult loads a ParseResult saved by "parse --out".
func readResult(path string) (*domain.ParseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}
	var result domain.ParseResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse result file %s: %w", path, err)
	}
	return &result, nil
}

// writeJSON writes v as indented JSON with non-ASCII kept verbatim.
func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// surfaced renders a command failure the way hosts show it.
func surfaced(err error) error {
	if kind := domain.KindOf(err); kind != "" {
		return fmt.Errorf("%s (%s)", domain.Message(err), kind)
	}
	return err
}
