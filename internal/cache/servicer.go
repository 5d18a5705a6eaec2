package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 256
	DefaultTTL  = 10 * time.Minute
)

// ServicerCache maps servicer names to team-member ids. Entries expire after
// the TTL and the least recently used name is evicted once Size is reached.
type ServicerCache struct {
	lru *expirable.LRU[string, string]
}

func NewServicerCache(size int, ttl time.Duration) *ServicerCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ServicerCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *ServicerCache) Get(name string) (string, bool) {
	return c.lru.Get(name)
}

func (c *ServicerCache) Put(name, id string) {
	c.lru.Add(name, id)
}

func (c *ServicerCache) Purge() {
	c.lru.Purge()
}

func (c *ServicerCache) Len() int {
	return c.lru.Len()
}
