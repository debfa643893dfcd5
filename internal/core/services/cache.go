package services

import (
	"reflect"

	"github.com/custodia-labs/bimlink/internal/core/domain"
	"github.com/custodia-labs/bimlink/internal/core/ports/driven"
)

// ConversionCache memoizes conversion results per (type, index, layer).
// It is the only record of what a batch has already converted.
//
// Success, Skip and Failure outcomes are memoized. NotReady is not, so a
// later call can retry once the dependency exists.
type ConversionCache struct {
	entries    map[domain.CacheKey]domain.Result
	inProgress map[domain.CacheKey]struct{}
	sink       driven.DiagnosticsSink
	metrics    driven.Metrics
}

// NewConversionCache creates an empty cache. Both arguments may be nil.
func NewConversionCache(sink driven.DiagnosticsSink, metrics driven.Metrics) *ConversionCache {
	return &ConversionCache{
		entries:    make(map[domain.CacheKey]domain.Result),
		inProgress: make(map[domain.CacheKey]struct{}),
		sink:       sinkOrNop(sink),
		metrics:    metricsOrNop(metrics),
	}
}

// Resolve returns the objects converted for key, or nil if the key has not
// produced objects. A nil result means "not converted yet", not an error.
func (c *ConversionCache) Resolve(key domain.CacheKey) []*domain.ConvertedObject {
	res, ok := c.entries[key]
	if !ok || res.Outcome != domain.OutcomeSuccess {
		return nil
	}
	return res.Objects
}

// Insert stores obj under key. Inserting an object identical to the one
// already stored is a no-op. Inserting a different object leaves the first
// in place, reports a cache consistency fault and returns false.
func (c *ConversionCache) Insert(key domain.CacheKey, obj *domain.ConvertedObject) bool {
	existing, ok := c.entries[key]
	if !ok || existing.Outcome != domain.OutcomeSuccess {
		c.entries[key] = domain.Success(obj)
		return true
	}
	for _, o := range existing.Objects {
		if identical(o, obj) {
			return true
		}
	}
	c.sink.Report(domain.Errorf(key.String(), "%v: %s already holds %s, ignoring %s",
		domain.ErrCacheConsistency, key, describe(existing.Objects), describe([]*domain.ConvertedObject{obj})))
	return false
}

// ResolveOrMaterialize returns the memoized result for key, or runs fn once
// and memoizes its outcome. A call that re-enters a key still being
// materialized fails fast with a diagnostic instead of recursing.
// Records without a persisted index are never memoized.
func (c *ConversionCache) ResolveOrMaterialize(key domain.CacheKey, fn func() domain.Result) domain.Result {
	if !key.Index.IsSet() {
		c.metrics.CacheMiss()
		return fn()
	}
	if res, ok := c.entries[key]; ok {
		c.metrics.CacheHit()
		return res
	}
	if _, busy := c.inProgress[key]; busy {
		c.sink.Report(domain.Errorf(key.String(), "%v: %s requested while being converted",
			domain.ErrReentrantMaterialization, key))
		return domain.Failuref(domain.ErrReentrantMaterialization, "%s", key)
	}

	c.metrics.CacheMiss()
	c.inProgress[key] = struct{}{}
	res := fn()
	delete(c.inProgress, key)

	switch res.Outcome {
	case domain.OutcomeNotReady:
		return res
	case domain.OutcomeSuccess:
		if _, ok := c.entries[key]; ok {
			// fn inserted under its own key; keep the first object.
			for _, obj := range res.Objects {
				c.Insert(key, obj)
			}
			return c.entries[key]
		}
	}
	c.entries[key] = res
	return res
}

// Len returns the number of memoized keys.
func (c *ConversionCache) Len() int {
	return len(c.entries)
}

func identical(a, b *domain.ConvertedObject) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(*a, *b)
}

func describe(objs []*domain.ConvertedObject) string {
	if len(objs) == 0 || objs[0] == nil {
		return "nothing"
	}
	return objs[0].Kind + " " + objs[0].ApplicationID
}
