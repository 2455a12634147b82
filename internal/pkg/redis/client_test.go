package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClient(t *testing.T) {
	c, err := New(context.Background(), Options{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	var dst map[string]int
	found, err := c.GetJSON(context.Background(), "k", &dst)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(context.Background(), "k", 1))
	assert.NoError(t, c.Close())
}

func TestGetOrSet_DisabledAlwaysLoads(t *testing.T) {
	c, _ := New(context.Background(), Options{})
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}

	for range 2 {
		v, err := GetOrSet(context.Background(), c, "k", load)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	}
	assert.Equal(t, 2, calls)
}

func TestGetOrSet_PropagatesLoadError(t *testing.T) {
	c, _ := New(context.Background(), Options{})
	boom := errors.New("boom")
	_, err := GetOrSet(context.Background(), c, "k", func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestKeyPrefix(t *testing.T) {
	c := &Client{prefix: "hris"}
	assert.Equal(t, "hris:analytics:x", c.key("analytics:x"))
	assert.Equal(t, "x", (&Client{}).key("x"))
}

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	c := NewFromClient(rdb, "hris", time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestGetOrSet_MissThenHit(t *testing.T) {
	c, mr := newMiniClient(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Name: "a", Score: calls}, nil
	}

	v, err := GetOrSet(ctx, c, "analytics:k", load)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "a", Score: 1}, v)

	v, err = GetOrSet(ctx, c, "analytics:k", load)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "a", Score: 1}, v)
	assert.Equal(t, 1, calls)

	assert.True(t, mr.Exists("hris:analytics:k"))
	assert.False(t, mr.Exists("analytics:k"))
	raw, err := mr.Get("hris:analytics:k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","score":1}`, raw)
}

func TestGetOrSet_EntryExpiresAfterTTL(t *testing.T) {
	c, mr := newMiniClient(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	_, err := GetOrSet(ctx, c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("hris:k"))

	mr.FastForward(time.Minute + time.Second)
	assert.False(t, mr.Exists("hris:k"))

	v, err := GetOrSet(ctx, c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestGetOrSet_CorruptEntryReloads(t *testing.T) {
	c, mr := newMiniClient(t)
	require.NoError(t, mr.Set("hris:k", "{not json"))

	calls := 0
	v, err := GetOrSet(context.Background(), c, "k", func(context.Context) (int, error) {
		calls++
		return 5, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 1, calls)

	raw, err := mr.Get("hris:k")
	require.NoError(t, err)
	assert.Equal(t, "5", raw)
}

func TestGetOrSet_LoadErrorIsNotCached(t *testing.T) {
	c, mr := newMiniClient(t)
	boom := errors.New("boom")
	_, err := GetOrSet(context.Background(), c, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("hris:k"))
}

func TestGetOrSet_UnavailableServerStillLoads(t *testing.T) {
	c, mr := newMiniClient(t)
	mr.Close()

	v, err := GetOrSet(context.Background(), c, "k", func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}
