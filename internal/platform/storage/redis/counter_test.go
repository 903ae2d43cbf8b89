package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestCounter_Increment_AccumulatesUnderPrefix(t *testing.T) {
	client, mr := setupClient(t)
	counter := NewCounter(client, "counter")
	ctx := context.Background()

	total, err := counter.Increment(ctx, "event:1:entry:7", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	total, err = counter.Increment(ctx, "event:1:entry:7", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	// The raw key carries the prefix.
	raw, err := mr.Get("counter:event:1:entry:7")
	require.NoError(t, err)
	assert.Equal(t, "3", raw)
}

func TestCounter_Get_MissingKey_ReturnsZero(t *testing.T) {
	client, _ := setupClient(t)
	counter := NewCounter(client, "counter")

	value, err := counter.Get(context.Background(), "event:1:entry:99")
	require.NoError(t, err)
	assert.Zero(t, value)
}

func TestCounter_GetAll_MixesExistingAndMissingKeys(t *testing.T) {
	client, _ := setupClient(t)
	counter := NewCounter(client, "counter")
	ctx := context.Background()

	_, err := counter.Increment(ctx, "event:1:entry:7", 5)
	require.NoError(t, err)

	counts, err := counter.GetAll(ctx, []string{"event:1:entry:7", "event:1:entry:8"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts["event:1:entry:7"])
	assert.Equal(t, int64(0), counts["event:1:entry:8"])
}

func TestCounter_GetAll_EmptyKeyList(t *testing.T) {
	client, _ := setupClient(t)
	counter := NewCounter(client, "counter")

	counts, err := counter.GetAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCounter_NoPrefix_UsesBareKeys(t *testing.T) {
	client, mr := setupClient(t)
	counter := NewCounter(client, "")

	_, err := counter.Increment(context.Background(), "event:1:total", 1)
	require.NoError(t, err)

	raw, err := mr.Get("event:1:total")
	require.NoError(t, err)
	assert.Equal(t, "1", raw)
}
