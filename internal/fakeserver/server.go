// Package fakeserver is an in-memory stand-in for the subtitle correction
// service. It speaks the same HTTP API under /api and moves tasks forward one
// step per poll, which makes the client deterministic to test and easy to
// try out locally.
package fakeserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/srtctl/internal/model"
)

// DefaultPIN is the PIN the service ships with.
const DefaultPIN = "1324"

// Version is reported by /health.
const Version = "1.0.0"

// Options configures a Server.
type Options struct {
	PIN          string
	PollsPerFile int // processing polls per uploaded file before completion
	Correction   model.Dictionary
	Protection   model.Dictionary

	// FailWith makes every task end with status "error" and this message.
	FailWith string
	// LegacySingle answers single-file tasks with the old "result" object.
	LegacySingle bool
}

// Server holds the fake service state.
type Server struct {
	opts   Options
	engine *gin.Engine

	mu      sync.Mutex
	dicts   map[model.Kind]model.Dictionary
	tasks   map[string]*task
	outputs map[string][]byte
	writes  int
}

// New creates a Server with its routes registered.
func New(opts Options) *Server {
	if opts.PIN == "" {
		opts.PIN = DefaultPIN
	}
	if opts.PollsPerFile <= 0 {
		opts.PollsPerFile = 2
	}

	s := &Server{
		opts: opts,
		dicts: map[model.Kind]model.Dictionary{
			model.KindCorrection: opts.Correction.Clone(),
			model.KindProtection: opts.Protection.Clone(),
		},
		tasks:   map[string]*task{},
		outputs: map[string][]byte{},
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors.Default())
	s.RegisterRoutes(r.Group("/api"))
	s.engine = r
	return s
}

// RegisterRoutes mounts the API on g.
func (s *Server) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("/health", s.Health)
	g.GET("/dictionaries/:kind", s.GetDictionary)
	g.POST("/dictionaries/:kind", s.PostDictionary)
	g.POST("/process", s.Process)
	g.GET("/tasks/:id", s.TaskStatus)
	g.GET("/download/:filename", s.Download)
	g.POST("/download-multiple", s.DownloadMultiple)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Dictionary returns a copy of a stored dictionary.
func (s *Server) Dictionary(kind model.Kind) model.Dictionary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dicts[kind].Clone()
}

// Writes counts dictionary writes that were applied.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Health answers the liveness probe.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   Version,
		"timestamp": float64(time.Now().UnixMilli()) / 1000,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if len(c.Errors) > 0 {
			ev = log.Warn().Str("error", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("mock request")
	}
}

// abort writes the service's error body {"error": msg}.
func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
