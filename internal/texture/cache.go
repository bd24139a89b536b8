package texture

import (
	"image"
	"sync"
)

// Resolver turns a material's texture reference into an image, or nil.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache loads each texture once and is safe for concurrent use by batch workers.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA // nil records a failed load
	index *Index
}

// NewCache returns a cache over index. A nil index resolves names as plain paths.
func NewCache(index *Index) *Cache {
	return &Cache{items: make(map[string]*image.NRGBA), index: index}
}

// Resolve returns the decoded texture, or nil when it cannot be found or decoded.
func (c *Cache) Resolve(name string) *image.NRGBA {
	if name == "" {
		return nil
	}
	path := name
	if c.index != nil {
		p, ok := c.index.ResolvePath(name)
		if !ok {
			return nil
		}
		path = p
	}

	c.mu.RLock()
	img, ok := c.items[path]
	c.mu.RUnlock()
	if ok {
		return img
	}

	img, _ = Load(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.items[path]; ok {
		return prev
	}
	c.items[path] = img
	return img
}
