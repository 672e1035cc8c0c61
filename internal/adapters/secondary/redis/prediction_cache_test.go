package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesion-inference-service/internal/core/domain"
)

func newCache(t *testing.T) (*miniredis.Miniredis, *PredictionCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewPredictionCache(client).(*PredictionCache)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = Connect(context.Background(), "redis://%zz")
	assert.Error(t, err)

	mr.Close()
	_, err = Connect(context.Background(), mr.Addr())
	assert.Error(t, err)
}

func TestPredictionCache_Miss(t *testing.T) {
	_, cache := newCache(t)

	got, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPredictionCache_RoundTrip(t *testing.T) {
	mr, cache := newCache(t)
	ctx := context.Background()

	classified := domain.NewClassifiedResponse(domain.ScreeningResult{Probability: 0.91234, IsMole: true},
		&domain.PredictionResult{Probabilities: map[string]float64{"Melanoma": 0.7, "Nevus": 0.3}, ModelVersion: "1.0.2"})
	require.NoError(t, cache.Put(ctx, "abc", classified, time.Minute))

	assert.True(t, mr.Exists(keyPrefix+"abc"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"abc"))

	got, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, classified, got)

	notMole := domain.NewNotMoleResponse(domain.ScreeningResult{Probability: 0.1}, domain.NotAMoleMessage)
	require.NoError(t, cache.Put(ctx, "def", notMole, time.Minute))
	got, err = cache.Get(ctx, "def")
	require.NoError(t, err)
	assert.Equal(t, notMole, got)

	mr.FastForward(2 * time.Minute)
	got, err = cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPredictionCache_CorruptEntry(t *testing.T) {
	mr, cache := newCache(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))

	got, err := cache.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.Nil(t, got)
}
