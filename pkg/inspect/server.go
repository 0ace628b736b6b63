// Package inspect serves a small HTTP API for looking at and poking a running
// window: list widgets, read their properties, set values and call methods.
package inspect

import (
	"context"
	stdliberrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odvcencio/rapidgui/pkg/logging"
	"github.com/odvcencio/rapidgui/pkg/rapidgui"
	"github.com/odvcencio/rapidgui/pkg/ui/scene"
)

// Target is the window the server inspects. *rapidgui.App satisfies it.
type Target interface {
	Name() string
	Identifiers() []string
	Window() scene.Window
	Widget(id string) (*rapidgui.Proxy, error)
	Call(id, method string, args ...any) (any, error)
	Done() <-chan struct{}
}

// Server exposes a Target over HTTP.
type Server struct {
	target Target
	addr   string
	logger *logging.Logger
	router chi.Router
}

// New creates a server for target listening on addr.
func New(target Target, addr string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		target: target,
		addr:   addr,
		logger: logger.WithComponent("inspect"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(securityHeaders)

	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/widgets", func(r chi.Router) {
		r.Get("/", s.handleListWidgets)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetWidget)
			r.Get("/properties/{property}", s.handleGetProperty)
			r.Put("/properties/{property}", s.handleSetProperty)
			r.Post("/methods/{method}", s.handleCallMethod)
		})
	})
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens until ctx is cancelled or the window closes.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled or the window closes.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.ServerListening(ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !stdliberrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case <-s.target.Done():
	case err := <-serverErr:
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}
