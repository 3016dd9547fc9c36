/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package transform

import "container/list"

// DefaultCacheSize bounds the cache during continuous pan/zoom.
const DefaultCacheSize = 20

// Cache memoizes Transforms by their full Params snapshot with LRU
// eviction. Keying on the complete snapshot is a correctness requirement:
// a key missing any mapping parameter would hand out a stale transform.
// The cache is confined to the view's owner goroutine like the rest of
// the interaction layer; it has no locking.
type Cache struct {
	max     int
	entries map[Params]*list.Element
	order   *list.List // front = most recently used
	version uint64

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	params Params
	tf     *Transform
}

// NewCache creates a cache holding at most max transforms. max <= 0 uses
// DefaultCacheSize.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultCacheSize
	}
	return &Cache{
		max:     max,
		entries: make(map[Params]*list.Element, max),
		order:   list.New(),
	}
}

// Get returns the transform for the snapshot, constructing and caching it
// on first use. A construction for a snapshot not seen most recently also
// advances the cache version, which spatial indexes compare against to
// detect a changed active transform.
func (c *Cache) Get(p Params) *Transform {
	if el, ok := c.entries[p]; ok {
		if c.order.Front() != el {
			c.order.MoveToFront(el)
			c.version++
		}
		c.hits++
		return el.Value.(*cacheEntry).tf
	}
	c.misses++
	c.version++
	tf := New(p)
	el := c.order.PushFront(&cacheEntry{params: p, tf: tf})
	c.entries[p] = el
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).params)
	}
	return tf
}

// Version advances whenever the active (most recently used) transform
// changes. Read-side caches keyed on screen space use it as a stamp.
func (c *Cache) Version() uint64 { return c.version }

// Len returns the number of cached transforms.
func (c *Cache) Len() int { return c.order.Len() }

// Stats returns hit/miss counters for diagnostics.
func (c *Cache) Stats() (hits, misses uint64) { return c.hits, c.misses }
