package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/db"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/files"
	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

// HealthStore is what the health probes need from the metadata store.
type HealthStore interface {
	Ready() bool
	RecordHealthCheck(ctx context.Context) error
}

// FileService is the upload/fetch/delete workflow.
type FileService interface {
	Upload(ctx context.Context, up files.Upload) (*db.File, error)
	Get(ctx context.Context, id string) (*db.File, error)
	Delete(ctx context.Context, id string) error
}

type Config struct {
	Addr string // e.g. ":8080"
	// MaxUploadBytes caps request bodies on upload; 0 means no limit.
	MaxUploadBytes int64

	Health  HealthStore
	Files   FileService
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

type Server struct {
	cfg        Config
	log        *slog.Logger
	httpServer *http.Server
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg: cfg,
		log: cfg.Logger.With("component", "http"),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
