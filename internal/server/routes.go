package server

import (
	"github.com/go-chi/chi/v5"
)

// registerRoutes sets up all REST API routes.
func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		// System
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Post("/shutdown", s.handleShutdown)

		// Portfolio
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/portfolio/refresh", s.handleRefresh)
		r.Get("/history", s.handleHistory)
		r.Get("/balances", s.handleBalances)
		r.Get("/performance", s.handlePerformance)
	})
}
