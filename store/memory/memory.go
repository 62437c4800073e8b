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

// Package memory provides an in-process Store used by tests and single-node
// deployments that do not need durability.
package memory

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

// Store keeps documents in memory
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]document.Document
	closed      *atomic.Bool
}

var _ store.Store = (*Store)(nil)

// New creates an empty memory Store
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]document.Document),
		closed:      atomic.NewBool(false),
	}
}

// Upsert inserts or replaces the document under uid
func (s *Store) Upsert(ctx context.Context, collection, uid string, doc document.Document) (store.UpsertResult, error) {
	if err := s.check(ctx); err != nil {
		return store.Neither, err
	}

	prepared, err := store.Prepare(uid, doc)
	if err != nil {
		return store.Neither, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]document.Document)
		s.collections[collection] = docs
	}

	_, exists := docs[uid]
	docs[uid] = prepared
	if exists {
		return store.Matched, nil
	}
	return store.Inserted, nil
}

// FindOne returns the first document, by uid, matching filter
func (s *Store) FindOne(ctx context.Context, collection string, filter document.Filter) (document.Document, bool, error) {
	docs, err := s.Find(ctx, collection, filter)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

// Find returns every document matching filter
func (s *Store) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// a uid lookup does not need a scan
	if uid, ok := prepared[document.UIDField].(string); ok {
		doc, found := s.collections[collection][uid]
		if !found || !doc.Matches(prepared) {
			return nil, nil
		}
		return []document.Document{doc.Clone()}, nil
	}

	var result []document.Document
	for _, doc := range s.collections[collection] {
		if doc.Matches(prepared) {
			result = append(result, doc.Clone())
		}
	}
	store.SortByUID(result)
	return result, nil
}

// DeleteOne removes the document with the given uid
func (s *Store) DeleteOne(ctx context.Context, collection, uid string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.collections[collection], uid)
	s.mu.Unlock()
	return nil
}

// DeleteMany removes every document matching filter
func (s *Store) DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	docs := s.collections[collection]
	for uid, doc := range docs {
		if doc.Matches(prepared) {
			delete(docs, uid)
			count++
		}
	}
	return count, nil
}

// Close drops every document
func (s *Store) Close(context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	s.collections = make(map[string]map[string]document.Document)
	s.mu.Unlock()
	return nil
}

// Len returns the number of documents in a collection
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *Store) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.NewStorageError("memory", store.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return gerrors.NewStorageError("memory", err)
	}
	return nil
}
