// Package server exposes the live portfolio over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
)

// Refresher forces an out-of-schedule position cycle
type Refresher interface {
	TriggerNow()
}

// Server wraps the HTTP server and the components it reads from.
type Server struct {
	config       *common.Config
	feed         interfaces.PortfolioFeed
	balances     interfaces.BalanceLog
	refresher    Refresher
	server       *http.Server
	logger       *common.Logger
	now          func() time.Time
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel that will be signaled when HTTP shutdown is requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer creates the HTTP API over a running App.
func NewServer(a *app.App) *Server {
	return newServer(a.Config, a.Orchestrator, a.Balances, a.Scheduler, a.Logger.Component("http"))
}

func newServer(config *common.Config, feed interfaces.PortfolioFeed, balances interfaces.BalanceLog, refresher Refresher, logger *common.Logger) *Server {
	s := &Server{
		config:    config,
		feed:      feed,
		balances:  balances,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}

	r := chi.NewRouter()
	applyMiddleware(r, logger)
	s.registerRoutes(r)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
