// Package service is the command surface hosts call: probe, parse, export
// and the environment check. Each parse or export runs one interpreter
// process through the bridge.
package service

import (
	"context"
	"time"

	"github.com/spherical/pdf2excel/internal/bridge"
	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/resolve"
)

// Greeting is the fixed Probe reply.
const Greeting = "Hello from Go!"

// recordTimeout bounds a history write after the call itself finished.
const recordTimeout = 5 * time.Second

// EnvironmentSource yields the resolved interpreter and script.
// *resolve.Resolver satisfies it.
type EnvironmentSource interface {
	Environment() resolve.Environment
}

// Options configures a Service. Zero values disable the optional parts.
type Options struct {
	// Timeout bounds each interpreter call.
	Timeout time.Duration
	// Preflight runs before a parse spawns anything.
	Preflight domain.Preflight
	// Recorder stores a history entry for each parse and export.
	Recorder domain.Recorder
	// Bridge is passed to every bridge the service creates.
	Bridge bridge.Options
}

// Service runs commands against the resolved environment
type Service struct {
	env    EnvironmentSource
	opts   Options
	logger *observability.Logger
}

// New creates a service. Resolution is deferred to the first call.
func New(env EnvironmentSource, logger *observability.Logger, opts Options) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		env:    env,
		opts:   opts,
		logger: logger.WithComponent("service"),
	}
}

// Probe reports that the host side is alive.
func (s *Service) Probe() string {
	return Greeting
}

// Environment returns the resolved locations.
func (s *Service) Environment() resolve.Environment {
	return s.env.Environment()
}

// CheckEnvironment reports whether both the interpreter and the script
// exist on disk. Nothing is spawned.
func (s *Service) CheckEnvironment() bool {
	return s.env.Environment().Exists()
}

// ParsePDF extracts order rows and header info from the PDF at path.
func (s *Service) ParsePDF(ctx context.Context, path string) (*domain.ParseResult, error) {
	start := time.Now()

	result, err := s.parse(ctx, path)

	count := 0
	if result != nil {
		count = len(result.Items)
	}
	s.record(ctx, bridge.CommandParse, path, count, start, err)

	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("path", path).
		Int("items", count).
		Dur("duration", time.Since(start)).
		Msg("Parsed PDF")
	return result, nil
}

func (s *Service) parse(ctx context.Context, path string) (*domain.ParseResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.opts.Preflight != nil {
		if err := s.opts.Preflight.Check(ctx, path); err != nil {
			return nil, err
		}
	}

	resp, err := s.bridge().Invoke(ctx, bridge.NewParseRequest(path))
	if err != nil {
		return nil, err
	}

	// Items that do not decode count as no rows.
	var items []domain.OrderItem
	if _, err := resp.Decode("items", &items); err != nil {
		return nil, domain.ValidationError(domain.MsgNoRows, err)
	}
	if len(items) == 0 {
		return nil, domain.ValidationError(domain.MsgNoRows, nil)
	}

	info := domain.DefaultPdfInfo()
	var decoded domain.PdfInfo
	if ok, err := resp.Decode("info", &decoded); ok && err == nil {
		info = decoded
	} else if err != nil {
		s.logger.Debug().Err(err).Msg("Ignoring malformed info")
	}

	return &domain.ParseResult{Items: items, Info: info}, nil
}

// ExportExcel asks the script to write items to a spreadsheet at path.
// The script's success payload is discarded.
func (s *Service) ExportExcel(ctx context.Context, path string, items []domain.OrderItem, info domain.PdfInfo) error {
	start := time.Now()

	err := s.export(ctx, path, items, info)
	s.record(ctx, bridge.CommandExport, path, len(items), start, err)

	if err != nil {
		return err
	}
	s.logger.Info().
		Str("path", path).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Exported spreadsheet")
	return nil
}

func (s *Service) export(ctx context.Context, path string, items []domain.OrderItem, info domain.PdfInfo) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.bridge().Invoke(ctx, bridge.NewExportRequest(path, items, info))
	return err
}

// History returns up to limit recorded conversions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.Conversion, error) {
	if s.opts.Recorder == nil {
		return nil, domain.ConfigError("conversion history is disabled", nil)
	}
	return s.opts.Recorder.Recent(ctx, limit)
}

func (s *Service) bridge() *bridge.Bridge {
	return bridge.New(s.env.Environment(), s.logger, s.opts.Bridge)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) record(ctx context.Context, command, path string, items int, start time.Time, callErr error) {
	if s.opts.Recorder == nil {
		return
	}

	c := &domain.Conversion{
		Command:   command,
		Path:      path,
		ItemCount: items,
		Status:    domain.ConversionSucceeded,
		Duration:  time.Since(start),
	}
	if callErr != nil {
		c.Status = domain.ConversionFailed
		c.ErrorKind = domain.KindOf(callErr)
		c.Error = domain.Message(callErr)
	}

	// The call's own context may already be done; history is written anyway.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.opts.Recorder.Record(rctx, c); err != nil {
		s.logger.Warn().Err(err).Str("command", command).Msg("Failed to record conversion")
	}
}
