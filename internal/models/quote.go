package models

import "time"

// Quote is a single closing price observation
type Quote struct {
	Close float64   `json:"close"`
	Date  time.Time `json:"date"`
}

// QuoteResponse is what a quote source returns for a latest-price request.
// Either field may be empty.
type QuoteResponse struct {
	Latest *Quote  `json:"latest,omitempty"`
	Quotes []Quote `json:"quotes,omitempty"`
}

// Last returns the latest quote, falling back to the final entry of Quotes
func (r *QuoteResponse) Last() (Quote, bool) {
	if r == nil {
		return Quote{}, false
	}
	if r.Latest != nil {
		return *r.Latest, true
	}
	if len(r.Quotes) > 0 {
		return r.Quotes[len(r.Quotes)-1], true
	}
	return Quote{}, false
}

// HistoricKey identifies a historic quote lookup: a ticker on a calendar day
type HistoricKey struct {
	Ticker string
	Date   string // DateLayout
}

// NewHistoricKey builds a key from a ticker and any time on the wanted day
func NewHistoricKey(ticker string, day time.Time) HistoricKey {
	return HistoricKey{Ticker: ticker, Date: day.UTC().Format(DateLayout)}
}
