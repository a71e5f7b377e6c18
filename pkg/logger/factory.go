package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dmitrymomot/tenantkit/pkg/environment"
)

// Format is the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Option configures logger creation.
type Option func(*config)

// WithLevel sets the minimum level. Apply it after an environment preset to
// override the preset's level.
func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets output format. Panics on unknown formats.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithContextExtractors registers functions that add request-scoped
// attributes, e.g. tenant.LoggerExtractor(). Nil extractors are skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// preset applies level, format and the service/env attributes.
func preset(c *config, service string, env environment.Environment, level slog.Level, format Format) {
	if service == "" {
		return
	}
	c.level = level
	c.format = format
	if c.output == nil {
		c.output = os.Stdout
	}
	c.attrs = append(c.attrs,
		slog.String("service", service),
		slog.String("env", env.String()),
	)
}

// WithDevelopment: text output at debug level.
func WithDevelopment(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Development, slog.LevelDebug, FormatText)
	}
}

// WithProduction: JSON output at info level.
func WithProduction(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Production, slog.LevelInfo, FormatJSON)
	}
}

func WithStaging(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Staging, slog.LevelInfo, FormatJSON)
	}
}

// WithTest keeps test output quiet: text at warn level.
func WithTest(service string) Option {
	return func(c *config) {
		preset(c, service, environment.Test, slog.LevelWarn, FormatText)
	}
}

// WithEnvironment picks the preset matching env. Unknown values fall back
// to development.
func WithEnvironment(env environment.Environment, service string) Option {
	return func(c *config) {
		switch env {
		case environment.Production:
			WithProduction(service)(c)
		case environment.Staging:
			WithStaging(service)(c)
		case environment.Test:
			WithTest(service)(c)
		default:
			WithDevelopment(service)(c)
		}
	}
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

type config struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// defaultConfig: JSON at info level on stdout.
func defaultConfig() *config {
	return &config{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
}

// New builds a *slog.Logger whose handler is wrapped by LogHandlerDecorator.
func New(opts ...Option) *slog.Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}

	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}

	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	decorated := NewLogHandlerDecorator(handler, cfg.extractors...)
	return slog.New(decorated)
}

// Security returns a child logger for security events such as tenant
// isolation violations. Records carry component=security so they can be
// routed separately.
func Security(l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(Component("security"))
}
