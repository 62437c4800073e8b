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

// Package redis provides a Store keeping every collection in one redis hash
// whose fields are document uids and whose values are JSON documents.
// Filtering is done client side after loading the hash.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

// DefaultPrefix is prepended to every collection key
const DefaultPrefix = "quizakt"

// Config defines the redis connection
type Config struct {
	Addr     string `yaml:"addr" env:"ADDR" env-default:"127.0.0.1:6379"`
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB" env-default:"0"`
	Prefix   string `yaml:"prefix" env:"PREFIX" env-default:"quizakt"`
}

// Store implements store.Store on redis
type Store struct {
	client *redis.Client
	prefix string
	closed *atomic.Bool
}

var _ store.Store = (*Store)(nil)

// Open connects to redis and pings it
func Open(ctx context.Context, config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Username: config.Username,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, gerrors.NewStorageError("open", fmt.Errorf("ping redis %s: %w", config.Addr, err))
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, closed: atomic.NewBool(false)}, nil
}

// Upsert inserts or replaces the document under uid. HSET reports how many
// fields were created, which tells an insert from a replace.
func (s *Store) Upsert(ctx context.Context, collection, uid string, doc document.Document) (store.UpsertResult, error) {
	if err := s.ensureOpen(); err != nil {
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

	created, err := s.client.HSet(ctx, s.key(collection), uid, data).Result()
	if err != nil {
		return store.Neither, gerrors.NewStorageError("upsert", err)
	}
	if created == 1 {
		return store.Inserted, nil
	}
	return store.Matched, nil
}

// FindOne returns the first document, by uid, matching filter
func (s *Store) FindOne(ctx context.Context, collection string, filter document.Filter) (document.Document, bool, error) {
	docs, err := s.Find(ctx, collection, filter)
	if err != nil || len(docs) == 0 {
		return nil, false, err
	}
	return docs[0], true, nil
}

// Find returns every document matching filter ordered by uid
func (s *Store) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return nil, err
	}

	if uid, ok := prepared[document.UIDField].(string); ok {
		data, err := s.client.HGet(ctx, s.key(collection), uid).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, gerrors.NewStorageError("find", err)
		}
		doc, err := document.Unmarshal(data)
		if err != nil {
			return nil, gerrors.NewStorageError("find", err)
		}
		if !doc.Matches(prepared) {
			return nil, nil
		}
		return []document.Document{doc}, nil
	}

	docs, err := s.scan(ctx, collection, prepared)
	if err != nil {
		return nil, gerrors.NewStorageError("find", err)
	}
	store.SortByUID(docs)
	return docs, nil
}

// DeleteOne removes the document with the given uid
func (s *Store) DeleteOne(ctx context.Context, collection, uid string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.key(collection), uid).Err(); err != nil {
		return gerrors.NewStorageError("deleteOne", err)
	}
	return nil
}

// DeleteMany removes every document matching filter
func (s *Store) DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	prepared, err := store.PrepareFilter(filter)
	if err != nil {
		return 0, err
	}

	docs, err := s.scan(ctx, collection, prepared)
	if err != nil {
		return 0, gerrors.NewStorageError("deleteMany", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	uids := make([]string, len(docs))
	for i, doc := range docs {
		uids[i] = doc.UID()
	}

	removed, err := s.client.HDel(ctx, s.key(collection), uids...).Result()
	if err != nil {
		return 0, gerrors.NewStorageError("deleteMany", err)
	}
	return removed, nil
}

// Close closes the client
func (s *Store) Close(context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return gerrors.NewStorageError("close", err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	values, err := s.client.HGetAll(ctx, s.key(collection)).Result()
	if err != nil {
		return nil, err
	}

	var result []document.Document
	for _, value := range values {
		doc, err := document.Unmarshal([]byte(value))
		if err != nil {
			return nil, err
		}
		if doc.Matches(filter) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (s *Store) key(collection string) string {
	return s.prefix + ":" + collection
}

func (s *Store) ensureOpen() error {
	if s.closed.Load() {
		return gerrors.NewStorageError("redis", store.ErrClosed)
	}
	return nil
}
