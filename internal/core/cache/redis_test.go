package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type item struct {
	Name string `json:"name"`
}

func TestGetOrLoadJSON_CachesValue(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) (*item, error) {
		atomic.AddInt32(&calls, 1)
		return &item{Name: "ana"}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Name)

	got, err = GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Name)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists("k"))

	c.Del(ctx, "k")
	assert.False(t, mr.Exists("k"))
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestRevoke(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	revoked, err := c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = c.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	got, err := GetOrLoadJSON(c, ctx, "k", time.Minute, func(context.Context) (*item, error) {
		return &item{Name: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", got.Name)

	assert.NoError(t, c.Revoke(ctx, "jti", time.Minute))
	revoked, err := c.IsRevoked(ctx, "jti")
	assert.NoError(t, err)
	assert.False(t, revoked)
	c.Del(ctx, "k")
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestGetOrLoad_DelDuringLoadSkipsWriteBack(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan []byte, 1)
	go func() {
		b, err := c.GetOrLoad(ctx, "user:1", time.Minute, func(context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte(`{"name":"old"}`), nil
		})
		assert.NoError(t, err)
		done <- b
	}()

	<-started
	c.Del(ctx, "user:1")
	close(release)

	assert.JSONEq(t, `{"name":"old"}`, string(<-done))
	assert.False(t, mr.Exists("user:1"), "stale value must not be written back after Del")

	// 之后的回源正常写入
	_, err := c.GetOrLoad(ctx, "user:1", time.Minute, func(context.Context) ([]byte, error) {
		return []byte(`{"name":"new"}`), nil
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:1"))
}
