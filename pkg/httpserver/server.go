package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

var (
	ErrStart          = errors.New("httpserver: start failed")
	ErrShutdown       = errors.New("httpserver: graceful shutdown failed")
	ErrAlreadyRunning = errors.New("httpserver: already running")
)

// Option configures a Server. Non-positive durations and empty addresses
// are ignored.
type Option func(*Server)

func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { setPositive(&s.srv.ReadTimeout, d) }
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) { setPositive(&s.srv.ReadHeaderTimeout, d) }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { setPositive(&s.srv.WriteTimeout, d) }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { setPositive(&s.srv.IdleTimeout, d) }
}

// WithShutdownTimeout bounds how long in-flight requests may take to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { setPositive(&s.shutdownTimeout, d) }
}

// WithLogger sets the lifecycle logger. Nil discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func setPositive(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}

// Server runs one http.Server until its context ends.
type Server struct {
	addr            string
	shutdownTimeout time.Duration
	log             *slog.Logger

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	running bool
	ready   chan struct{}
}

// New returns a Server listening on :8080 unless configured otherwise.
func New(opts ...Option) *Server {
	s := &Server{
		addr:            ":8080",
		shutdownTimeout: 5 * time.Second,
		log:             slog.New(slog.DiscardHandler),
		srv:             &http.Server{ReadHeaderTimeout: 10 * time.Second},
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves handler until ctx is cancelled or the process receives
// SIGINT/SIGTERM, then drains in-flight requests. A Server runs once.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return errors.Join(ErrStart, err)
	}
	s.ln = ln
	s.srv.Handler = handler
	s.srv.BaseContext = func(net.Listener) context.Context { return context.WithoutCancel(ctx) }
	s.mu.Unlock()
	close(s.ready)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.InfoContext(ctx, "http server starting", slog.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(ErrShutdown, err)
	}
	<-errCh
	s.log.InfoContext(shutdownCtx, "http server stopped")
	return nil
}

// Addr blocks until Run has bound its listener and returns the address, or
// returns "" when ctx ends first.
func (s *Server) Addr(ctx context.Context) string {
	select {
	case <-s.ready:
		return s.ln.Addr().String()
	case <-ctx.Done():
		return ""
	}
}
