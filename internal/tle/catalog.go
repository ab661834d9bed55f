package tle

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/nate-enders/keplemon/internal/metrics"
)

// Catalog holds element sets keyed by satellite id, in file order. A later
// record for an id already present replaces it in place.
type Catalog struct {
	mu      sync.RWMutex
	name    string
	order   []int
	byID    map[int]*TLE
	skipped int
}

// NewCatalog creates an empty catalog.
func NewCatalog(name string) *Catalog {
	return &Catalog{name: name, byID: make(map[int]*TLE)}
}

// LoadCatalog parses the element file at path. Malformed records are logged
// and counted in Skipped; only I/O errors fail the load.
func LoadCatalog(path string, logger *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	res, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	metrics.RecordTLERecords(len(res.TLEs), res.Skipped)

	c := NewCatalog(path)
	for _, t := range res.TLEs {
		c.Add(t)
	}
	c.skipped = res.Skipped

	logger.Info("catalog loaded",
		"path", path,
		"format", int(res.Format),
		"records", len(res.TLEs),
		"satellites", c.Count(),
		"skipped", res.Skipped,
	)
	return c, nil
}

// Name is the catalog's provenance, usually the source path.
func (c *Catalog) Name() string { return c.name }

// Count returns the number of distinct satellites.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Skipped returns how many malformed records the load dropped.
func (c *Catalog) Skipped() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.skipped
}

// Keys returns satellite ids in catalog order.
func (c *Catalog) Keys() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.order)
}

// Get returns the element set for id.
func (c *Catalog) Get(id int) (*TLE, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// All returns the element sets in catalog order.
func (c *Catalog) All() []*TLE {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*TLE, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// Add inserts t, replacing any element set with the same id in place.
func (c *Catalog) Add(t *TLE) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[t.SatelliteID]; !ok {
		c.order = append(c.order, t.SatelliteID)
	}
	c.byID[t.SatelliteID] = t
}

// Remove deletes id and reports whether it was present.
func (c *Catalog) Remove(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	c.order = slices.DeleteFunc(c.order, func(v int) bool { return v == id })
	return true
}
