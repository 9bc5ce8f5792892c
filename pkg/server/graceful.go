package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dd0wney/cluso-contingency/pkg/health"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
)

// DefaultShutdownTimeout bounds how long Serve waits for in-flight scrapes.
const DefaultShutdownTimeout = 5 * time.Second

// GracefulServer wraps an HTTP server that shuts down when its context ends.
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
	checker         *health.Checker

	mu       sync.Mutex
	listener net.Listener

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// Option configures a GracefulServer.
type Option func(*GracefulServer)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) Option {
	return func(gs *GracefulServer) {
		if l != nil {
			gs.logger = l
		}
	}
}

// WithShutdownTimeout overrides DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(gs *GracefulServer) {
		if d > 0 {
			gs.shutdownTimeout = d
		}
	}
}

// WithHealth serves checker on /healthz instead of a bare liveness probe.
// Only NewMetricsServer consults it.
func WithHealth(checker *health.Checker) Option {
	return func(gs *GracefulServer) {
		gs.checker = checker
	}
}

// NewGracefulServer creates a server for handler on addr.
func NewGracefulServer(addr string, handler http.Handler, opts ...Option) *GracefulServer {
	gs := &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logging.NewNopLogger(),
		shutdownTimeout: DefaultShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.logger = gs.logger.With(logging.Component("http"))
	return gs
}

// NewMetricsServer exposes reg on /metrics and health on /healthz.
func NewMetricsServer(addr string, reg *metrics.Registry, opts ...Option) *GracefulServer {
	mux := http.NewServeMux()
	gs := NewGracefulServer(addr, mux, opts...)

	mux.Handle("GET /metrics", reg.Handler())
	if gs.checker != nil {
		mux.Handle("GET /healthz", gs.checker.Handler())
	} else {
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("ok\n"))
		})
	}
	return gs
}

// Listen binds the listening socket. Serve calls it when needed; calling it
// first lets the caller learn the bound address of ":0".
func (gs *GracefulServer) Listen() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", gs.server.Addr, err)
	}
	gs.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (gs *GracefulServer) Addr() string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.listener != nil {
		return gs.listener.Addr().String()
	}
	return gs.server.Addr
}

// Serve handles requests until ctx is done, then shuts down gracefully.
func (gs *GracefulServer) Serve(ctx context.Context) error {
	if err := gs.Listen(); err != nil {
		return err
	}
	gs.mu.Lock()
	ln := gs.listener
	gs.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		gs.logger.Info("http server listening", logging.String("addr", ln.Addr().String()))
		errCh <- gs.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return gs.Shutdown(gs.shutdownTimeout)
	}
}

// Shutdown stops accepting connections and waits up to timeout for active
// requests. Later calls are no-ops.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("http shutdown failed", logging.Error(err))
			return
		}
		gs.logger.Info("http server stopped")
	})
	return err
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}
