package orca

// Context holds the named values a Template renders against. Keys are
// write-once: re-inserting an existing key is a programmer error the
// pipeline surfaces rather than silently overwrites (§4.1, §7).
type Context struct {
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Insert adds key/value to the context. It returns ErrDuplicateContextKey if
// key is already present.
func (c *Context) Insert(key string, value any) error {
	if _, exists := c.values[key]; exists {
		return ErrDuplicateContextKey
	}
	c.values[key] = value
	return nil
}

// Set adds or overwrites key/value, bypassing the duplicate-key check. Used
// internally by pipelines that re-render the same template across records.
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// InsertRecord adds a Record's content string under key, returning
// ErrDuplicateRecordKey if key is already present.
func (c *Context) InsertRecord(key string, r Record) error {
	if _, exists := c.values[key]; exists {
		return ErrDuplicateRecordKey
	}
	c.values[key] = r.Content.String()
	return nil
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key from the context, if present.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Clone returns a shallow copy: the value map is duplicated, but individual
// values are not deep-copied.
func (c *Context) Clone() *Context {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return &Context{values: out}
}

// Map returns the underlying values as a plain map, for use by the template
// renderer. Callers must not mutate the result.
func (c *Context) Map() map[string]any {
	return c.values
}
