package engine

import "github.com/fairsheet/gridcalc-go/pkg/gridcalc/models"

// cacheKey identifies one memoized result. The formula text is part of the
// key, so a cell rewritten to a new formula never collides with the result
// of its old one.
type cacheKey struct {
	Row     int
	Col     int
	Formula string
}

// resultCache memoizes evaluation results for the sheet the engine is
// currently bound to. Keys carry no sheet name; the whole cache is dropped
// when the engine switches sheets.
type resultCache struct {
	entries map[cacheKey]models.Value
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[cacheKey]models.Value)}
}

func (c *resultCache) get(row, col int, formula string) (models.Value, bool) {
	v, ok := c.entries[cacheKey{Row: row, Col: col, Formula: formula}]
	return v, ok
}

func (c *resultCache) put(row, col int, formula string, v models.Value) {
	c.entries[cacheKey{Row: row, Col: col, Formula: formula}] = v
}

// invalidate drops every entry stored for the cell, whatever formula text
// produced it.
func (c *resultCache) invalidate(row, col int) {
	for k := range c.entries {
		if k.Row == row && k.Col == col {
			delete(c.entries, k)
		}
	}
}

func (c *resultCache) clear() {
	c.entries = make(map[cacheKey]models.Value)
}

func (c *resultCache) size() int {
	return len(c.entries)
}
