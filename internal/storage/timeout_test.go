package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderinc/brewblog/internal/search"
)

// stalledGateway accepts writes but never answers reads before the caller's deadline.
type stalledGateway struct{}

func (stalledGateway) Put(context.Context, string, string, map[string]string) error { return nil }

func (stalledGateway) Delete(context.Context, string, string) error { return nil }

func (stalledGateway) Query(ctx context.Context, _, _ string) ([]string, int, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}

func (stalledGateway) Clear(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledGateway) Count(ctx context.Context, _ string) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestSearch_GatewayTimeout(t *testing.T) {
	s := newTestStoreWithTimeout(t, stalledGateway{}, 50*time.Millisecond)

	start := time.Now()
	res, err := Search[Brewery](context.Background(), s, "river")

	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrGatewayCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, res.Items)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestReindex_ClearTimeout(t *testing.T) {
	s := newTestStoreWithTimeout(t, stalledGateway{}, 50*time.Millisecond)

	n, err := Reindex[Drinker](context.Background(), s, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrGatewayCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
}

func TestIndexStatuses_CountTimeout(t *testing.T) {
	s := newTestStoreWithTimeout(t, stalledGateway{}, 50*time.Millisecond)

	statuses, err := s.IndexStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, st := range statuses {
		assert.Contains(t, st.Error, "deadline exceeded")
	}
}
