package mapbox

import (
	"container/list"
	"context"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/fire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/fire-hotspot-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// cellScale rounds coordinates to three decimals (about 110 m), well inside
// one VIIRS pixel, so repeat detections of the same fire share a lookup.
const cellScale = 1000

type cell struct {
	lat, lon int32
}

func cellOf(lat, lon float64) cell {
	return cell{
		lat: int32(math.Round(lat * cellScale)),
		lon: int32(math.Round(lon * cellScale)),
	}
}

// CacheOptions sizes the geocoding cache.
type CacheOptions struct {
	Size  int
	TTL   time.Duration // zero keeps entries until evicted
	Clock clockwork.Clock
}

// CachedGeocoder memoizes reverse lookups per grid cell. Misses and
// not-found answers go to the wrapped geocoder every time.
type CachedGeocoder struct {
	inner   domain.Geocoder
	entries *lru[cell, domain.GeocodingResult]
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

func NewCachedGeocoder(inner domain.Geocoder, opts CacheOptions, metrics *observability.Metrics) *CachedGeocoder {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedGeocoder{
		inner:   inner,
		entries: newLRU[cell, domain.GeocodingResult](opts.Size),
		ttl:     opts.TTL,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := cellOf(lat, lon)
	now := c.clock.Now()

	switch result, state := c.entries.get(key, now); state {
	case lookupHit:
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	case lookupExpired:
		c.metrics.GeocodeCache.WithLabelValues("expired").Inc()
	default:
		c.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	}

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil || !result.Found() {
		return result, err
	}

	var expires time.Time
	if c.ttl > 0 {
		expires = now.Add(c.ttl)
	}
	c.entries.put(key, result, expires)
	return result, nil
}

// Len returns the number of cached cells, expired ones included until touched.
func (c *CachedGeocoder) Len() int {
	return c.entries.len()
}

type lookup int

const (
	lookupMiss lookup = iota
	lookupHit
	lookupExpired
)

type lruItem[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// lru is a fixed-capacity least-recently-used map. The front of order is the
// most recently used item.
type lru[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

func newLRU[K comparable, V any](capacity int) *lru[K, V] {
	return &lru[K, V]{
		capacity: max(capacity, 1),
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}
}

func (l *lru[K, V]) get(key K, now time.Time) (V, lookup) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero V
	el, ok := l.items[key]
	if !ok {
		return zero, lookupMiss
	}
	it := el.Value.(*lruItem[K, V])
	if !it.expires.IsZero() && !now.Before(it.expires) {
		l.order.Remove(el)
		delete(l.items, key)
		return zero, lookupExpired
	}
	l.order.MoveToFront(el)
	return it.value, lookupHit
}

func (l *lru[K, V]) put(key K, value V, expires time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.items[key]; ok {
		it := el.Value.(*lruItem[K, V])
		it.value, it.expires = value, expires
		l.order.MoveToFront(el)
		return
	}

	l.items[key] = l.order.PushFront(&lruItem[K, V]{key: key, value: value, expires: expires})
	for l.order.Len() > l.capacity {
		oldest := l.order.Back()
		l.order.Remove(oldest)
		delete(l.items, oldest.Value.(*lruItem[K, V]).key)
	}
}

func (l *lru[K, V]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}
