package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

// PortfolioResponse is the body of GET /api/portfolio
type PortfolioResponse struct {
	models.ValuedPortfolio
	SortedAllocation []portfolio.ClassShare `json:"sorted_allocation"`
	Currency         string                 `json:"currency"`
	Fresh            bool                   `json:"fresh"`
}

// PerformanceResponse is the body of GET /api/performance
type PerformanceResponse struct {
	models.PerformanceData
	Current      float64 `json:"current"`
	LastRecorded float64 `json:"last_recorded"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	info := common.GetVersionInfo()
	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    info.Version,
		"build":      info.Build,
		"git_commit": info.GitCommit,
		"go":         runtime.Version(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// handlePortfolio serves the latest published portfolio. ?sort=balance
// orders positions by descending balance instead of document order.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	vp, ok := s.feed.LatestPortfolio()
	if !ok {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Portfolio not yet available", "not_ready")
		return
	}

	if r.URL.Query().Get("sort") == "balance" {
		vp.Positions = portfolio.ByBalance(vp.Positions)
	}

	WriteJSON(w, http.StatusOK, PortfolioResponse{
		ValuedPortfolio:  vp,
		SortedAllocation: portfolio.SortedAllocation(vp.Allocation),
		Currency:         s.config.DisplayCurrency,
		Fresh:            common.IsFresh(vp.UpdatedAt, 2*s.config.Refresh.GetInterval()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		WriteError(w, http.StatusServiceUnavailable, "Refresh not available")
		return
	}
	s.refresher.TriggerNow()
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	series, ok := s.feed.LatestSeries()
	if !ok {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Historic series not yet available", "not_ready")
		return
	}
	WriteJSON(w, http.StatusOK, series)
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	if s.balances == nil {
		WriteJSON(w, http.StatusOK, []models.BalanceEntry{})
		return
	}
	entries, err := s.balances.Entries(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read balance log")
		WriteError(w, http.StatusInternalServerError, "Failed to read balance log")
		return
	}
	if entries == nil {
		entries = []models.BalanceEntry{}
	}
	WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	vp, ok := s.feed.LatestPortfolio()
	if !ok {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Portfolio not yet available", "not_ready")
		return
	}
	series, _ := s.feed.LatestSeries()

	var last float64
	if s.balances != nil {
		v, err := s.balances.Last(r.Context())
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to read last balance")
		}
		last = v
	}

	WriteJSON(w, http.StatusOK, PerformanceResponse{
		PerformanceData: portfolio.Performance(series, vp.TotalValue, last, s.now()),
		Current:         vp.TotalValue,
		LastRecorded:    last,
	})
}
