package textrules

// Cursor keeps rotation state for one document or one caller. The zero
// value is ready to use. A Cursor is not safe for concurrent use; callers
// that share one across goroutines must serialise access.
type Cursor struct {
	pos  map[string]int
	last map[string]string
}

// NewCursor returns an empty cursor.
func NewCursor() *Cursor {
	return &Cursor{}
}

func (c *Cursor) init() {
	if c.pos == nil {
		c.pos = make(map[string]int)
		c.last = make(map[string]string)
	}
}

// Next returns the next item of the rotation named key.
func (c *Cursor) Next(key string, items []string) string {
	return c.NextAvoiding(key, items, nil)
}

// NextAvoiding returns the next item of the rotation named key for which
// reject returns false. It tries each item at most once and falls back to
// items[0] when every candidate is rejected.
func (c *Cursor) NextAvoiding(key string, items []string, reject func(string) bool) string {
	if len(items) == 0 {
		return ""
	}
	c.init()
	start := c.pos[key]
	for i := range items {
		idx := (start + i) % len(items)
		cand := items[idx]
		if reject != nil && reject(cand) {
			continue
		}
		c.pos[key] = idx + 1
		c.last[key] = cand
		return cand
	}
	c.pos[key] = start + 1
	c.last[key] = items[0]
	return items[0]
}

// Last returns the item most recently handed out for key.
func (c *Cursor) Last(key string) string {
	if c.last == nil {
		return ""
	}
	return c.last[key]
}

// SetLast records v as the most recent item for key without moving the
// rotation.
func (c *Cursor) SetLast(key, v string) {
	c.init()
	c.last[key] = v
}
