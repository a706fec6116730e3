package cache

import "github.com/bobmcallan/folio/internal/models"

// Bundle is the set of caches built once at startup and passed to the
// resolver and the aggregator.
type Bundle struct {
	Latest        *FallbackCache[string, models.Quote]
	PreviousClose *FallbackCache[string, float64]
	Historic      *FallbackCache[models.HistoricKey, models.Quote]
	Names         *FallbackCache[string, string]
}

// NewBundle creates four empty caches
func NewBundle() *Bundle {
	return &Bundle{
		Latest:        New[string, models.Quote](),
		PreviousClose: New[string, float64](),
		Historic:      New[models.HistoricKey, models.Quote](),
		Names:         New[string, string](),
	}
}

// Stats reports every cache by name
func (b *Bundle) Stats() map[string]Stats {
	return map[string]Stats{
		"latest":         b.Latest.Stats(),
		"previous_close": b.PreviousClose.Stats(),
		"historic":       b.Historic.Stats(),
		"names":          b.Names.Stats(),
	}
}
