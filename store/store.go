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

// Package store defines the persistent document store every stateful actor
// reads through and writes to. Documents are keyed by uid inside a named
// collection; no operation spans more than one document except the
// filtered Find and DeleteMany.
package store

import (
	"context"
	"errors"

	"github.com/tochemey/quizakt/document"
)

// ErrClosed is returned by a store used after Close
var ErrClosed = errors.New("store is closed")

// UpsertResult tells what an Upsert did
type UpsertResult int

const (
	// Neither means the write neither inserted nor matched a document
	Neither UpsertResult = iota
	// Inserted means a new document was created
	Inserted
	// Matched means an existing document was replaced
	Matched
)

// String returns the result name
func (r UpsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Matched:
		return "matched"
	default:
		return "neither"
	}
}

// Collections names every collection the service writes to
var Collections = []string{
	"quizzes",
	"questions",
	"comments",
	"quizruns",
	"statistics",
	"users",
	"sessions",
	"fingerprints",
}

// Store is the persistent document store.
type Store interface {
	// Upsert inserts the document under uid or replaces the stored one
	Upsert(ctx context.Context, collection, uid string, doc document.Document) (UpsertResult, error)
	// FindOne returns the first document matching filter. found is false when nothing matches.
	FindOne(ctx context.Context, collection string, filter document.Filter) (doc document.Document, found bool, err error)
	// Find returns every document matching filter ordered by uid
	Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error)
	// DeleteOne removes the document with the given uid. Removing a missing document is not an error.
	DeleteOne(ctx context.Context, collection, uid string) error
	// DeleteMany removes every document matching filter and returns how many were removed
	DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error)
	// Close releases the store resources
	Close(ctx context.Context) error
}
