package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
	gocache "github.com/patrickmn/go-cache"
)

// Store 缓存查询结果的地方
type Store interface {
	Get(key string) (any, bool)
	Set(key string, val any)
	// Flush 清空全部的结果
	Flush()
}

type ttlStore struct {
	c *gocache.Cache
}

// NewTTLStore 结果在 expiration 之后过期，每隔 cleanup 清理一次
func NewTTLStore(expiration time.Duration, cleanup time.Duration) Store {
	return &ttlStore{
		c: gocache.New(expiration, cleanup),
	}
}

func (s *ttlStore) Get(key string) (any, bool) {
	return s.c.Get(key)
}

func (s *ttlStore) Set(key string, val any) {
	s.c.SetDefault(key, val)
}

func (s *ttlStore) Flush() {
	s.c.Flush()
}

type lruStore struct {
	c *lru.Cache
}

// NewLRUStore 最多保留 size 个结果
func NewLRUStore(size int) (Store, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &lruStore{c: c}, nil
}

func (s *lruStore) Get(key string) (any, bool) {
	return s.c.Get(key)
}

func (s *lruStore) Set(key string, val any) {
	s.c.Add(key, val)
}

func (s *lruStore) Flush() {
	s.c.Purge()
}
