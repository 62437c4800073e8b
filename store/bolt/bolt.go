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

// Package bolt provides a Store persisted in a single bbolt file. Every
// collection is a bucket and every document a JSON value keyed by uid.
package bolt

import (
	"context"
	"fmt"
	"os"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

const fileMode os.FileMode = 0o600

var defaultOptions = &bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}

// Store implements store.Store on bbolt. bbolt serializes writers so only the
// closed state needs guarding.
type Store struct {
	db     *bbolt.DB
	path   string
	closed *atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open opens, or creates, the database at path and ensures a bucket exists
// for every known collection
func Open(path string) (*Store, error) {
	options := *defaultOptions
	db, err := bbolt.Open(path, fileMode, &options)
	if err != nil {
		return nil, gerrors.NewStorageError("open", fmt.Errorf("bolt %s: %w", path, err))
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, collection := range store.Collections {
			if _, e := tx.CreateBucketIfNotExists([]byte(collection)); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, gerrors.NewStorageError("open", err)
	}

	return &Store{db: db, path: path, closed: atomic.NewBool(false)}, nil
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or replaces the document under uid
func (s *Store) Upsert(ctx context.Context, collection, uid string, doc document.Document) (store.UpsertResult, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return store.Neither, err
	}

	prepared, err := store.Prepare(uid, doc)
	if err != nil {
		return store.Neither, err
	}
	data, err := prepared.Marshal()
	if err != nil {
		return store.Neither, gerrors.NewStorageError("upsert", err)
	}

	result := store.Neither
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		key := []byte(uid)
		result = store.Inserted
		if bucket.Get(key) != nil {
			result = store.Matched
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return store.Neither, gerrors.NewStorageError("upsert", err)
	}
	return result, nil
}

// FindOne returns the first document, by uid, matching filter
func (s *Store) FindOne(ctx context.Context, collection string, filter document.Filter) (document.Document, bool, error) {
	docs, err := s.find(ctx, collection, filter, 1)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

// Find returns every document matching filter. bbolt keeps keys sorted so
// the result is ordered by uid.
func (s *Store) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	return s.find(ctx, collection, filter, 0)
}

// DeleteOne removes the document with the given uid
func (s *Store) DeleteOne(ctx context.Context, collection, uid string) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(uid))
	})
	if err != nil {
		return gerrors.NewStorageError("deleteOne", err)
	}
	return nil
}

// DeleteMany removes every document matching filter
func (s *Store) DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return 0, err
	}
	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return 0, err
	}

	var count int64
	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}

		var keys [][]byte
		if err := bucket.ForEach(func(key, value []byte) error {
			doc, err := document.Unmarshal(value)
			if err != nil {
				return err
			}
			if doc.Matches(prepared) {
				keys = append(keys, append([]byte(nil), key...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, key := range keys {
			if err := bucket.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, gerrors.NewStorageError("deleteMany", err)
	}
	return count, nil
}

// Close closes the database file
func (s *Store) Close(context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return gerrors.NewStorageError("close", err)
	}
	return nil
}

func (s *Store) find(ctx context.Context, collection string, filter document.Filter, limit int) ([]document.Document, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return nil, err
	}

	var result []document.Document
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(collection))
		if bucket == nil {
			return nil
		}

		if uid, ok := prepared[document.UIDField].(string); ok {
			value := bucket.Get([]byte(uid))
			if value == nil {
				return nil
			}
			doc, err := document.Unmarshal(value)
			if err != nil {
				return err
			}
			if doc.Matches(prepared) {
				result = append(result, doc)
			}
			return nil
		}

		cursor := bucket.Cursor()
		for key, value := cursor.First(); key != nil; key, value = cursor.Next() {
			doc, err := document.Unmarshal(value)
			if err != nil {
				return err
			}
			if !doc.Matches(prepared) {
				continue
			}
			result = append(result, doc)
			if limit > 0 && len(result) == limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, gerrors.NewStorageError("find", err)
	}
	return result, nil
}

func (s *Store) ensureOpen(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.NewStorageError("bolt", store.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return gerrors.NewStorageError("bolt", err)
	}
	return nil
}
