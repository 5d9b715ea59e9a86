package cache

import (
	"sync"

	"github.com/quakeph/quakemap/pkg/core"
)

// QuakeCache keeps the latest earthquake feed by event id so a refresh can
// tell which events are new since the previous one.
type QuakeCache struct {
	m      sync.Mutex
	quakes map[string]core.Quake
}

func NewQuakeCache() *QuakeCache {
	return &QuakeCache{quakes: make(map[string]core.Quake)}
}

// Put replaces the cached feed with quakes and returns the events whose ids
// were not present before. Events without an id are never reported as new.
func (c *QuakeCache) Put(quakes []core.Quake) []core.Quake {
	c.m.Lock()
	defer c.m.Unlock()

	next := make(map[string]core.Quake, len(quakes))
	var added []core.Quake
	for _, q := range quakes {
		if q.ID == "" {
			continue
		}
		if _, seen := c.quakes[q.ID]; !seen {
			added = append(added, q)
		}
		next[q.ID] = q
	}
	c.quakes = next
	return added
}

// Len returns how many events are cached.
func (c *QuakeCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.quakes)
}
