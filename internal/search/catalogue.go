package search

import (
	"context"
	"sync"
	"time"

	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// Source loads every organization from a backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Organization, error)
}

type catalogueCache struct {
	orgs    []Organization
	expires time.Time
}

// Catalogue caches a Source's organizations for a fixed TTL.
type Catalogue struct {
	source  Source
	ttl     time.Duration
	metrics metrics.Recorder
	now     func() time.Time

	cacheMu sync.RWMutex
	cache   *catalogueCache
	group   singleflight.Group
}

// NewCatalogue creates a catalogue over source. A ttl of zero reloads on
// every call.
func NewCatalogue(source Source, ttl time.Duration, recorder metrics.Recorder) *Catalogue {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Catalogue{
		source:  source,
		ttl:     ttl,
		metrics: recorder,
		now:     time.Now,
	}
}

func (c *Catalogue) cached() ([]Organization, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	if c.cache != nil && c.now().Before(c.cache.expires) {
		return c.cache.orgs, true
	}
	return nil, false
}

// Organizations returns the cached organizations, reloading them once the
// TTL has passed. Concurrent reloads share a single load.
func (c *Catalogue) Organizations(ctx context.Context) ([]Organization, error) {
	if orgs, ok := c.cached(); ok {
		return orgs, nil
	}

	v, err, _ := c.group.Do("load", func() (any, error) {
		if orgs, ok := c.cached(); ok {
			return orgs, nil
		}
		return c.reload(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]Organization), nil
}

func (c *Catalogue) reload(ctx context.Context) ([]Organization, error) {
	start := c.now()
	orgs, err := c.source.Load(ctx)
	c.metrics.RecordCatalogueReload(c.source.Name(), err)
	if err != nil {
		log.LogErrorWithFields("search", "Failed to load organizations", map[string]any{
			"source": c.source.Name(),
			"error":  err.Error(),
		})
		return nil, err
	}

	c.cacheMu.Lock()
	c.cache = &catalogueCache{orgs: orgs, expires: c.now().Add(c.ttl)}
	c.cacheMu.Unlock()

	log.LogInfoWithFields("search", "Loaded organizations", map[string]any{
		"source":   c.source.Name(),
		"count":    len(orgs),
		"duration": c.now().Sub(start).String(),
	})
	return orgs, nil
}

// Invalidate drops the cached organizations.
func (c *Catalogue) Invalidate() {
	c.cacheMu.Lock()
	c.cache = nil
	c.cacheMu.Unlock()
}
