package balance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1234.57", FormatValue(1234.567))
	assert.Equal(t, "0.00", FormatValue(0))
	assert.Equal(t, "-3.10", FormatValue(-3.1))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 1234.57, ParseValue("1234.57"))
	assert.Equal(t, 0.0, ParseValue("garbage"))
	assert.Equal(t, 0.0, ParseValue(""))
}

func TestMemoryLog(t *testing.T) {
	log := NewMemoryLog()
	ctx := context.Background()

	last, err := log.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, last)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, base.Add(time.Hour), 200))
	require.NoError(t, log.Append(ctx, base, 100))

	last, err = log.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200.0, last)

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].At.Equal(base))
	assert.Equal(t, 100.0, entries[0].Value)

	// Same second overwrites
	require.NoError(t, log.Append(ctx, base.Add(time.Hour+300*time.Millisecond), 250))
	entries, _ = log.Entries(ctx)
	assert.Len(t, entries, 2)
	assert.Equal(t, 250.0, entries[1].Value)
}
