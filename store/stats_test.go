package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ar7340/CS2-Player-States/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func TestUpsertStatSuccessOverwritesEverything(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	first := &models.StatRecord{
		SteamID:    "76561198000000002",
		PlayerName: "device",
		ProfileURL: "https://csstats.gg/player/76561198000000002",
		Fields: models.StatFields{
			Kills:   intPtr(4821),
			Deaths:  intPtr(3190),
			KDRatio: floatPtr(1.51),
			WinRate: strPtr("54%"),
		},
	}
	require.NoError(t, s.UpsertStatSuccess(ctx, first))

	// A later success with fewer fields must blank the ones it lacks.
	second := &models.StatRecord{
		SteamID:    "76561198000000002",
		PlayerName: "device",
		ProfileURL: "https://csstats.gg/player/76561198000000002",
		Fields: models.StatFields{
			Kills: intPtr(4999),
		},
	}
	require.NoError(t, s.UpsertStatSuccess(ctx, second))

	got, err := s.GetStat(ctx, "76561198000000002")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Success)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.Fields.Kills)
	assert.Equal(t, 4999, *got.Fields.Kills)
	assert.Nil(t, got.Fields.Deaths)
	assert.Nil(t, got.Fields.KDRatio)
	assert.Nil(t, got.Fields.WinRate)
}

func TestUpsertStatFailurePreservesLastGoodReading(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	rec := &models.StatRecord{
		SteamID:    "76561198000000003",
		PlayerName: "s1mple",
		ProfileURL: "https://csstats.gg/player/76561198000000003",
		Fields: models.StatFields{
			Kills:      intPtr(30210),
			HLTVRating: floatPtr(1.28),
		},
	}
	require.NoError(t, s.UpsertStatSuccess(ctx, rec))

	require.NoError(t, s.UpsertStatFailure(ctx, "76561198000000003", "", "https://csstats.gg/player/76561198000000003", "SCRAPE_TIMEOUT: navigation deadline exceeded"))

	got, err := s.GetStat(ctx, "76561198000000003")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Contains(t, got.ErrorMessage, "SCRAPE_TIMEOUT")

	// Metric columns and the known name survive the failure.
	assert.Equal(t, "s1mple", got.PlayerName)
	require.NotNil(t, got.Fields.Kills)
	assert.Equal(t, 30210, *got.Fields.Kills)
	require.NotNil(t, got.Fields.HLTVRating)
	assert.InDelta(t, 1.28, *got.Fields.HLTVRating, 0.0001)

	// A success after the failure clears the error again.
	require.NoError(t, s.UpsertStatSuccess(ctx, rec))
	got, err = s.GetStat(ctx, "76561198000000003")
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Empty(t, got.ErrorMessage)
}

func TestUpsertStatFailureInsertsBareRecord(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertStatFailure(ctx, "fresh", "", "https://csstats.gg/player/fresh", "TRANSPORT_ERROR: HTTP 503"))

	got, err := s.GetStat(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Empty(t, got.PlayerName)
	assert.Nil(t, got.Fields.Kills)
	assert.Equal(t, 0, got.Fields.Count())
	assert.False(t, got.LastAttemptAt.IsZero())
}

func TestGetStatUnknownPlayer(t *testing.T) {
	s := OpenMemory(t)
	got, err := s.GetStat(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
