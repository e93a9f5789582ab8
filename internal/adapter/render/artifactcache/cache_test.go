package artifactcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Subhamsidhanta/Vision-U/internal/adapter/render/artifactcache"
	"github.com/Subhamsidhanta/Vision-U/internal/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*artifactcache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return artifactcache.NewWithClient(rdb, ttl), mr
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	doc := []byte("%PDF-1.4 body")

	require.NoError(t, c.Put(context.Background(), "report:abc", doc))
	got, err := c.Get(context.Background(), "report:abc")
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestCache_MissIsNotFound(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	_, err := c.Get(context.Background(), "report:missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, c.Put(context.Background(), "report:abc", []byte("x")))

	mr.FastForward(2 * time.Minute)
	_, err := c.Get(context.Background(), "report:abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCache_Ping(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, c.Ping(context.Background()))
	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := artifactcache.New("not-a-url", time.Minute)
	assert.Error(t, err)
}
