package templates

import (
	"fmt"
	"math"

	"github.com/pulsekit/golc/utils"
)

// MaxCacheOrder is the highest derivative order the cache stores
// (order 0 is the function value).
const MaxCacheOrder = 2

// InterpMode selects how cached grids are interpolated.
type InterpMode int

const (
	InterpNearest InterpMode = iota
	InterpLinear
)

const defaultNCache = 1000

// evalCache holds precomputed grids of ncache+1 samples covering the
// closed phase interval [0,1], one per derivative order.  Any
// parameter or setting change invalidates every order; invalidation is
// the sole consistency mechanism.
type evalCache struct {
	grids  [MaxCacheOrder + 1][]float64
	valid  [MaxCacheOrder + 1]bool
	ncache int
	interp InterpMode
}

func (c *evalCache) init() {
	c.ncache = defaultNCache
	c.interp = InterpLinear
}

// SetCacheProperties reconfigures the grid size and interpolation
// mode, invalidating all cached orders.
func (t *LCTemplate) SetCacheProperties(ncache int, interp InterpMode) {
	t.cache.ncache = ncache
	t.cache.interp = interp
	t.MarkCacheDirty()
}

// MarkCacheDirty invalidates every cached order.  Every
// parameter-mutating operation on the template must call this.
func (t *LCTemplate) MarkCacheDirty() {
	for i := range t.cache.valid {
		t.cache.valid[i] = false
	}
}

func (t *LCTemplate) setCache(order int) error {
	var (
		grid []float64
		err  error
		pts  = utils.Linspace(0, 1, t.cache.ncache+1)
	)
	if order == 0 {
		grid, err = t.Evaluate(pts, DefaultLog10E, false, false)
	} else {
		grid, err = t.Derivative(pts, DefaultLog10E, order, false)
	}
	if err != nil {
		return err
	}
	t.cache.grids[order] = grid
	t.cache.valid[order] = true
	return nil
}

func (t *LCTemplate) getCache(order int) ([]float64, error) {
	if order < 0 || order > MaxCacheOrder {
		return nil, fmt.Errorf("cache order %d: %w", order, ErrNotImplemented)
	}
	if !t.cache.valid[order] || len(t.cache.grids[order]) != t.cache.ncache+1 {
		if err := t.setCache(order); err != nil {
			return nil, err
		}
	}
	return t.cache.grids[order], nil
}

// evalCachedValues serves phases from the cached grid.  In nearest
// mode, indices derived from NaN phases are remapped to index 0 with a
// diagnostic instead of failing; any genuinely out-of-range phase
// still faults.
func (t *LCTemplate) evalCachedValues(phases []float64, order int) ([]float64, error) {
	grid, err := t.getCache(order)
	if err != nil {
		return nil, err
	}
	var (
		ncache = float64(t.cache.ncache)
		r      = make([]float64, len(phases))
	)
	switch t.cache.interp {
	case InterpNearest:
		nan := 0
		for i, ph := range phases {
			if math.IsNaN(ph) {
				nan++
				r[i] = grid[0]
				continue
			}
			r[i] = grid[int(ph*ncache+0.5)]
		}
		if nan > 0 {
			t.log.Warn("NaN phases remapped to cache index 0", "count", nan)
		}
		return r, nil
	case InterpLinear:
		for i, ph := range phases {
			lo := int(ph * ncache)
			frac := ph*ncache - float64(lo)
			r[i] = grid[lo]*(1-frac) + grid[lo+1]*frac
		}
		return r, nil
	}
	return nil, fmt.Errorf("interpolation mode %d: %w", t.cache.interp, ErrNotImplemented)
}
