// Package cache provides the namespaced TTL cache shared by the
// transaction queries and the recommendation orchestrator.
package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Namespace partitions the cache; each namespace has its own TTL.
type Namespace string

const (
	TransactionsUser       Namespace = "transactions-user"
	TransactionsAccount    Namespace = "transactions-account"
	RecommendationCategory Namespace = "recommendation-category"
	RecommendationOffers   Namespace = "recommendation-offers"
	QuickInsights          Namespace = "quick-insights"
)

// TTLs maps each namespace to its entry lifetime.
type TTLs map[Namespace]time.Duration

// DefaultTTLs returns the standard lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		TransactionsUser:       6 * time.Minute,
		TransactionsAccount:    6 * time.Minute,
		RecommendationCategory: 30 * 24 * time.Hour,
		RecommendationOffers:   7 * 24 * time.Hour,
		QuickInsights:          24 * time.Hour,
	}
}

// Cache is a set of size-bounded expiring LRUs, one per namespace.
// It is safe for concurrent use.
type Cache struct {
	namespaces map[Namespace]*expirable.LRU[string, any]
}

// New creates a cache holding up to size entries per namespace.
func New(size int, ttls TTLs) *Cache {
	c := &Cache{namespaces: make(map[Namespace]*expirable.LRU[string, any], len(ttls))}
	for ns, ttl := range ttls {
		c.namespaces[ns] = expirable.NewLRU[string, any](size, nil, ttl)
	}
	return c
}

// Get returns the live entry for key in ns.
func (c *Cache) Get(ns Namespace, key string) (any, bool) {
	lru, ok := c.namespaces[ns]
	if !ok {
		return nil, false
	}
	return lru.Get(key)
}

// Set stores value under key in ns.
func (c *Cache) Set(ns Namespace, key string, value any) error {
	lru, ok := c.namespaces[ns]
	if !ok {
		return fmt.Errorf("cache: unknown namespace %q", ns)
	}
	lru.Add(key, value)
	return nil
}

// Delete drops key from ns.
func (c *Cache) Delete(ns Namespace, key string) {
	if lru, ok := c.namespaces[ns]; ok {
		lru.Remove(key)
	}
}

// Purge empties ns.
func (c *Cache) Purge(ns Namespace) {
	if lru, ok := c.namespaces[ns]; ok {
		lru.Purge()
	}
}

// Len reports the number of live entries in ns.
func (c *Cache) Len(ns Namespace) int {
	if lru, ok := c.namespaces[ns]; ok {
		return lru.Len()
	}
	return 0
}

// Lookup is a typed Get. An entry of another type counts as a miss.
func Lookup[T any](c *Cache, ns Namespace, key string) (T, bool) {
	var zero T
	v, ok := c.Get(ns, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
