package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/pubconcept/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.cache = NewRedisCache(NewClientWithRDB(db, logging.NewNopLogger()), nil, WithPrefix("test:"), WithJitter(0))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type testStruct struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func (s *CacheTestSuite) TestGet_CacheHit() {
	val := testStruct{Name: "John", Age: 30}
	bytes, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(bytes))

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_CacheMiss() {
	s.mock.ExpectGet("test:key1").RedisNil()

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)

	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *CacheTestSuite) TestGet_NullCacheMarker() {
	s.mock.ExpectGet("test:key1").SetVal(nullMarker)

	var dest testStruct
	s.Equal(ErrCachedNull, s.cache.Get(context.Background(), "key1", &dest))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:key1").SetErr(fmt.Errorf("READONLY"))

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:key1").SetVal("{not json")

	var dest testStruct
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_UsesDefaultTTL() {
	data, _ := json.Marshal(testStruct{Name: "Ada"})
	s.mock.ExpectSet("test:k", data, 24*time.Hour).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "k", testStruct{Name: "Ada"}, 0))
}

func (s *CacheTestSuite) TestDelete_Success() {
	s.mock.ExpectDel("test:k1", "test:k2").SetVal(2)

	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestGetOrSet_HitSkipsLoader() {
	val := testStruct{Name: "John", Age: 30}
	bytes, _ := json.Marshal(val)
	s.mock.ExpectGet("test:key1").SetVal(string(bytes))

	var dest testStruct
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(ctx context.Context) (interface{}, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})

	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:mesh:*", 100).SetVal([]string{"test:mesh:a", "test:mesh:b"}, 7)
	s.mock.ExpectDel("test:mesh:a", "test:mesh:b").SetVal(2)
	s.mock.ExpectScan(7, "test:mesh:*", 100).SetVal([]string{"test:mesh:c"}, 0)
	s.mock.ExpectDel("test:mesh:c").SetVal(1)

	n, err := s.cache.DeleteByPrefix(context.Background(), "mesh:")
	s.NoError(err)
	s.Equal(int64(3), n)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

// ─────────────────────────────────────────────────────────────────────────────
// GetOrSet against an in-memory server
// ─────────────────────────────────────────────────────────────────────────────

func newMiniCache(t *testing.T, opts ...CacheOption) (Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(NewClientWithRDB(rdb, nil), nil, opts...), mr
}

func TestGetOrSet_MissLoadsAndStores(t *testing.T) {
	cache, mr := newMiniCache(t, WithPrefix("t:"), WithJitter(0))

	var dest testStruct
	err := cache.GetOrSet(context.Background(), "k", &dest, time.Hour, func(ctx context.Context) (interface{}, error) {
		return testStruct{Name: "Grace", Age: 85}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, testStruct{Name: "Grace", Age: 85}, dest)

	raw, err := mr.Get("t:k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Grace","age":85}`, raw)
	assert.Equal(t, time.Hour, mr.TTL("t:k"))
}

func TestGetOrSet_NilResultCachesNull(t *testing.T) {
	cache, mr := newMiniCache(t, WithPrefix("t:"), WithNullCacheTTL(time.Minute))

	var dest testStruct
	err := cache.GetOrSet(context.Background(), "gone", &dest, 0, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.Equal(t, ErrCacheMiss, err)

	raw, _ := mr.Get("t:gone")
	assert.Equal(t, nullMarker, raw)
	assert.Equal(t, time.Minute, mr.TTL("t:gone"))

	calls := 0
	err = cache.GetOrSet(context.Background(), "gone", &dest, 0, func(ctx context.Context) (interface{}, error) {
		calls++
		return testStruct{Name: "Ada"}, nil
	})
	assert.Equal(t, ErrCacheMiss, err)
	assert.Zero(t, calls)
}

func TestGetOrSet_LoaderErrorNotCached(t *testing.T) {
	cache, mr := newMiniCache(t)

	var dest testStruct
	err := cache.GetOrSet(context.Background(), "k", &dest, 0, func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("graph unavailable")
	})
	assert.EqualError(t, err, "graph unavailable")
	assert.False(t, mr.Exists("pubconcept:k"))
}

func TestGetOrSet_ConcurrentMissesShareLoader(t *testing.T) {
	cache, _ := newMiniCache(t)

	var calls int32
	release := make(chan struct{})
	loader := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testStruct{Name: "x"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var dest testStruct
			assert.NoError(t, cache.GetOrSet(context.Background(), "shared", &dest, 0, loader))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestJitterTTL(t *testing.T) {
	c := &redisCache{jitter: 0.1}
	for i := 0; i < 100; i++ {
		got := c.jitterTTL(time.Hour)
		assert.InDelta(t, float64(time.Hour), float64(got), float64(6*time.Minute))
	}
	assert.Equal(t, time.Duration(0), c.jitterTTL(0))

	c.jitter = 0
	assert.Equal(t, time.Hour, c.jitterTTL(time.Hour))
}

//Personal.AI order the ending
