package domain

import "github.com/kirillkom/media-recommender/internal/core/textnorm"

// Catalog is the read-only item table of one domain. Lookups are exact and
// case-sensitive; every item also carries a folded search key used by title
// resolution.
type Catalog struct {
	items   []Item
	keys    []string
	byTitle map[string]int
}

// NewCatalog indexes items in the given order. When titles repeat, the first
// row wins and later rows are dropped.
func NewCatalog(items []Item) *Catalog {
	c := &Catalog{
		items:   make([]Item, 0, len(items)),
		keys:    make([]string, 0, len(items)),
		byTitle: make(map[string]int, len(items)),
	}
	folder := textnorm.NewFolder()
	for _, item := range items {
		if _, exists := c.byTitle[item.Title]; exists {
			continue
		}
		c.byTitle[item.Title] = len(c.items)
		c.items = append(c.items, item)
		c.keys = append(c.keys, folder.Key(item.Title))
	}
	return c
}

func (c *Catalog) Lookup(title string) (Item, bool) {
	pos, ok := c.byTitle[title]
	if !ok {
		return Item{}, false
	}
	return c.items[pos], true
}

// All returns a copy of the items in insertion order.
func (c *Catalog) All() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Popularity returns the offline popularity score of title, or 0 when the title
// is not in the catalog.
func (c *Catalog) Popularity(title string) int {
	pos, ok := c.byTitle[title]
	if !ok {
		return 0
	}
	return c.items[pos].Metadata.Popularity
}

// Range calls fn for each item in insertion order with its folded search key
// until fn returns false.
func (c *Catalog) Range(fn func(position int, item Item, key string) bool) {
	for i := range c.items {
		if !fn(i, c.items[i], c.keys[i]) {
			return
		}
	}
}
