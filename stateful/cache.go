/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package stateful

import (
	"context"
	"sort"
	"time"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

type cacheEntry struct {
	doc     document.Document
	loaded  bool
	touched time.Time
}

// Cache holds the entities of one collection in memory and reads through to
// the store on a miss. It belongs to a single actor and is not safe for
// concurrent use.
type Cache struct {
	collection string
	store      store.Store
	entries    map[string]*cacheEntry
	clock      func() time.Time
	onCached   func(ctx context.Context, doc document.Document)
	onEvicted  func(ctx context.Context, uid string)
	hits       int64
	misses     int64
}

// NewCache creates a Cache of collection backed by st
func NewCache(collection string, st store.Store) *Cache {
	return &Cache{
		collection: collection,
		store:      st,
		entries:    make(map[string]*cacheEntry),
		clock:      time.Now,
	}
}

// OnCached sets the hook called when an entity is first loaded or stored
func (c *Cache) OnCached(hook func(ctx context.Context, doc document.Document)) {
	c.onCached = hook
}

// OnEvicted sets the hook called when an entity leaves the memory
func (c *Cache) OnEvicted(hook func(ctx context.Context, uid string)) {
	c.onEvicted = hook
}

// Collection returns the cached collection
func (c *Cache) Collection() string {
	return c.collection
}

// Get returns the entity with the given uid. A miss loads it from the store
// and merges it over any staged fields, the stored values winning. An
// entity absent from the store is a NotFoundError and nothing is cached.
func (c *Cache) Get(ctx context.Context, uid string) (document.Document, error) {
	if entry, ok := c.entries[uid]; ok && entry.loaded {
		entry.touched = c.clock()
		c.hits++
		return entry.doc.Clone(), nil
	}

	c.misses++
	fresh, found, err := c.store.FindOne(ctx, c.collection, document.ByUID(uid))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, gerrors.NewNotFoundError(c.collection, uid)
	}

	merged := fresh
	if staged, ok := c.entries[uid]; ok {
		merged = document.Merge(staged.doc, fresh)
	}

	c.entries[uid] = &cacheEntry{doc: merged, loaded: true, touched: c.clock()}
	if c.onCached != nil {
		c.onCached(ctx, merged.Clone())
	}
	return merged.Clone(), nil
}

// Peek returns the in-memory entity without touching the store
func (c *Cache) Peek(uid string) (document.Document, bool) {
	entry, ok := c.entries[uid]
	if !ok || !entry.loaded {
		return nil, false
	}
	return entry.doc.Clone(), true
}

// stage records fields of an entity that is not loaded yet. They survive
// the next load unless the store holds a value for the same key.
func (c *Cache) stage(uid string, fields document.Document) {
	entry, ok := c.entries[uid]
	if !ok {
		entry = &cacheEntry{doc: document.Document{document.UIDField: uid}}
		c.entries[uid] = entry
	}
	entry.doc = document.Merge(entry.doc, fields)
	entry.touched = c.clock()
}

// Put stores doc and, once the store accepted it, replaces the cached copy.
// A missing updated timestamp is stamped with the current time. An upsert
// that neither inserted nor matched is a StorageError.
func (c *Cache) Put(ctx context.Context, doc document.Document) (document.Document, error) {
	uid := doc.UID()
	if uid == "" {
		return nil, gerrors.NewValidationError("uid is required", map[string]string{document.UIDField: "required"})
	}

	prepared := doc.Clone()
	if !prepared.Has(document.UpdatedField) {
		prepared[document.UpdatedField] = c.clock().UTC().Format(time.RFC3339Nano)
	}

	prepared, err := store.Prepare(uid, prepared)
	if err != nil {
		return nil, err
	}

	result, err := c.store.Upsert(ctx, c.collection, uid, prepared)
	if err != nil {
		return nil, err
	}
	if result == store.Neither {
		return nil, gerrors.NewStorageError("upsert", gerrors.ErrUpsertNoop)
	}

	entry, existed := c.entries[uid]
	newlyCached := !existed || !entry.loaded
	c.entries[uid] = &cacheEntry{doc: prepared, loaded: true, touched: c.clock()}
	if newlyCached && c.onCached != nil {
		c.onCached(ctx, prepared.Clone())
	}
	return prepared.Clone(), nil
}

// Remove deletes the entity from the store and, on success, from memory
func (c *Cache) Remove(ctx context.Context, uid string) error {
	if err := c.store.DeleteOne(ctx, c.collection, uid); err != nil {
		return err
	}
	c.Forget(ctx, uid)
	return nil
}

// Forget drops the entity from memory only. The eviction hook runs for
// loaded entities, never for staged fields alone.
func (c *Cache) Forget(ctx context.Context, uid string) {
	entry, ok := c.entries[uid]
	if !ok {
		return
	}
	delete(c.entries, uid)
	if entry.loaded && c.onEvicted != nil {
		c.onEvicted(ctx, uid)
	}
}

// Sweep evicts from memory every entity untouched for longer than idle and
// returns their uids in order
func (c *Cache) Sweep(ctx context.Context, idle time.Duration) []string {
	threshold := c.clock().Add(-idle)
	var evicted []string
	for uid, entry := range c.entries {
		if entry.touched.Before(threshold) {
			evicted = append(evicted, uid)
		}
	}
	sort.Strings(evicted)

	for _, uid := range evicted {
		c.Forget(ctx, uid)
	}
	return evicted
}

// Len returns the number of entities in memory
func (c *Cache) Len() int {
	return len(c.entries)
}

// UIDs returns the sorted uids of the loaded entities
func (c *Cache) UIDs() []string {
	uids := make([]string, 0, len(c.entries))
	for uid, entry := range c.entries {
		if entry.loaded {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// Stats returns the number of hits and misses since creation
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits, c.misses
}
