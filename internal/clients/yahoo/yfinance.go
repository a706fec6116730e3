package yahoo

import (
	"fmt"

	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	folio "github.com/bobmcallan/folio/internal/models"
)

// yfinanceBackend talks to Yahoo through go-yfinance
type yfinanceBackend struct{}

func (yfinanceBackend) latest(symbol string) (float64, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	quote, err := t.Quote()
	if err == nil && quote != nil {
		if quote.RegularMarketPrice > 0 {
			return quote.RegularMarketPrice, nil
		}
		if quote.PostMarketPrice > 0 {
			return quote.PostMarketPrice, nil
		}
		if quote.PreMarketPrice > 0 {
			return quote.PreMarketPrice, nil
		}
	}

	info, infoErr := t.Info()
	if infoErr != nil {
		if err != nil {
			return 0, err
		}
		return 0, infoErr
	}
	if info == nil {
		return 0, nil
	}
	if info.CurrentPrice > 0 {
		return info.CurrentPrice, nil
	}
	return info.RegularMarketPreviousClose, nil
}

func (yfinanceBackend) history(symbol, period string) ([]folio.Quote, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, err
	}

	quotes := make([]folio.Quote, 0, len(bars))
	for _, bar := range bars {
		quotes = append(quotes, folio.Quote{Close: bar.Close, Date: bar.Date})
	}
	return quotes, nil
}

func (yfinanceBackend) name(symbol string) (string, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return "", fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", nil
	}
	if info.ShortName != "" {
		return info.ShortName, nil
	}
	return info.LongName, nil
}
