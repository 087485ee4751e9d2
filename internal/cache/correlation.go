// Package cache holds the transient lookup structures the engine consults
// on every input event: the marker-to-row correlation table and the
// drawable registry used for hit testing.
package cache

import "sync"

// CorrelationTable maps marker object ids to their row index in the arrows
// table for the current session. At most one entry exists per id.
type CorrelationTable struct {
	mu   sync.RWMutex
	rows map[uint]int
}

// NewCorrelationTable creates an empty CorrelationTable.
func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{
		rows: make(map[uint]int),
	}
}

// Get retrieves the arrow row index for a marker id.
func (c *CorrelationTable) Get(id uint) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.rows[id]
	return row, ok
}

// Set stores the arrow row index for a marker id.
func (c *CorrelationTable) Set(id uint, row int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[id] = row
}

// RemoveRow deletes the entry for id and returns the row index it held.
// Every surviving entry whose index is greater than the removed row is
// decremented by one, keeping indices contiguous with the shorter table.
// Returns false if the id has no entry; nothing shifts in that case.
func (c *CorrelationTable) RemoveRow(id uint) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, ok := c.rows[id]
	if !ok {
		return 0, false
	}
	delete(c.rows, id)

	for other, otherRow := range c.rows {
		if otherRow > row {
			c.rows[other] = otherRow - 1
		}
	}
	return row, true
}

// Len returns the number of correlated markers.
func (c *CorrelationTable) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

// Reset clears all entries when a new session opens.
func (c *CorrelationTable) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[uint]int)
}
