package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"reelpress/internal/logging"
)

// Server exposes the output root over HTTP so the rasterization engine can
// reference run-directory images by URL. Files are served read-only and
// directory listings are disabled.
type Server struct {
	bind   string
	root   string
	logger *slog.Logger

	srv      *http.Server
	listener net.Listener
}

// NewServer builds an asset server bound to bind (host:port) serving files
// under root.
func NewServer(bind, root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:   bind,
		root:   root,
		logger: logger.With(logging.String(logging.FieldComponent, "assets")),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Get("/*", s.serveFile)

	s.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start binds the listener. Call before Serve so URL is valid even when the
// configured port is 0.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("bind asset server %s: %w", s.bind, err)
	}
	s.listener = ln
	return nil
}

// Serve runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Start(); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()
	s.logger.Info("asset server listening", logging.String("addr", s.Addr()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown asset server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("asset server: %w", err)
		}
		return nil
	}
}

// Addr reports the bound address, or the configured bind before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

// URL maps an absolute file path under the output root to the URL the engine
// fetches it from.
func (s *Server) URL(filePath string) (string, error) {
	rel, err := filepath.Rel(s.root, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s is outside the asset root", filePath)
	}
	u := url.URL{
		Scheme: "http",
		Host:   s.Addr(),
		Path:   "/" + path.Clean(filepath.ToSlash(rel)),
	}
	return u.String(), nil
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	target := filepath.Join(s.root, filepath.FromSlash(clean))

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, target)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("asset request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("duration", time.Since(start)),
		)
	})
}
