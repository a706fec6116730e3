package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
)

func TestBalanceLog_AppendLastEntries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log, err := NewBalanceLog(ctx, db, common.NewSilentLogger())
	require.NoError(t, err)

	last, err := log.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, last)

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, base.Add(2*time.Hour), 510.5))
	require.NoError(t, log.Append(ctx, base, 500))

	last, err = log.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, 510.5, last)

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].At.Equal(base))
	assert.Equal(t, 500.0, entries[0].Value)
}

func TestBalanceLog_SameSecondUpserts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	log, err := NewBalanceLog(ctx, db, common.NewSilentLogger())
	require.NoError(t, err)

	at := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, log.Append(ctx, at, 1))
	require.NoError(t, log.Append(ctx, at, 2))

	entries, err := log.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2.0, entries[0].Value)
}
