//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-etl/internal/adapter/history"
	"github.com/couchcryptid/flood-risk-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepository_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	pool, err := history.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := history.NewPostgresRepository(pool, discardLogger())

	_, err = repo.Get(ctx)
	require.ErrorIs(t, err, domain.ErrHistoryNotFound, "fresh schema has no history")

	first := []domain.RiskRecord{
		{Date: "2025-06-01", Hour: 10, StationID: "Imbiribeira", VP: domain.Float(40), AM: domain.Float(1.5), RiskValue: 60, Band: domain.BandModerateHigh},
		{Date: "2025-06-01", Hour: 10, StationID: "Torreão", VP: domain.Float(7), RiskValue: 0, Band: domain.BandLow},
		{Date: "2025-05-31", Hour: 23, StationID: "Imbiribeira", VP: domain.Float(2), AM: domain.Float(1), RiskValue: 2, Band: domain.BandLow},
	}
	require.NoError(t, repo.Put(ctx, first))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Fatalf("stored history mismatch (-want +got):\n%s", diff)
	}

	// Put replaces the whole dataset.
	second := domain.Merge(got, []domain.RiskRecord{
		{Date: "2025-06-01", Hour: 10, StationID: "Torreão", VP: domain.Float(7), AM: domain.Float(1.5), RiskValue: 10.5, Band: domain.BandLow},
	})
	require.NoError(t, repo.Put(ctx, second))

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("replaced history mismatch (-want +got):\n%s", diff)
	}

	// Migrations are idempotent.
	require.NoError(t, history.MigratePostgres(dsn))
}
