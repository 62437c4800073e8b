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

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
	"github.com/tochemey/quizakt/store/memory"
)

// flaky fails the first failures calls of every operation
type flaky struct {
	store.Store
	failures int64
	calls    *atomic.Int64
	err      error
}

func newFlaky(failures int64, err error) *flaky {
	return &flaky{
		Store:    memory.New(),
		failures: failures,
		calls:    atomic.NewInt64(0),
		err:      err,
	}
}

func (f *flaky) Upsert(ctx context.Context, collection, uid string, doc document.Document) (store.UpsertResult, error) {
	if f.calls.Inc() <= f.failures {
		return store.Neither, f.err
	}
	return f.Store.Upsert(ctx, collection, uid, doc)
}

func (f *flaky) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	if f.calls.Inc() <= f.failures {
		return nil, f.err
	}
	return f.Store.Find(ctx, collection, filter)
}

func TestWithRetries(t *testing.T) {
	ctx := context.Background()
	transient := gerrors.NewStorageError("upsert", errors.New("connection reset"))

	t.Run("With a transient failure", func(t *testing.T) {
		underlying := newFlaky(2, transient)
		s := store.WithRetries(underlying, store.WithRetryDelays(time.Millisecond, 5*time.Millisecond))

		result, err := s.Upsert(ctx, "quizzes", "q1", document.Document{"title": "Go"})
		require.NoError(t, err)
		assert.Equal(t, store.Inserted, result)
		assert.EqualValues(t, 3, underlying.calls.Load())
	})
	t.Run("With attempts exhausted", func(t *testing.T) {
		underlying := newFlaky(10, transient)
		s := store.WithRetries(underlying,
			store.WithMaxRetries(2),
			store.WithRetryDelays(time.Millisecond, 2*time.Millisecond))

		_, err := s.Find(ctx, "quizzes", document.Filter{})
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrStorage)
		assert.EqualValues(t, 2, underlying.calls.Load())
	})
	t.Run("With a noop upsert not retried", func(t *testing.T) {
		underlying := newFlaky(10, gerrors.ErrUpsertNoop)
		s := store.WithRetries(underlying, store.WithRetryDelays(time.Millisecond, 2*time.Millisecond))

		_, err := s.Upsert(ctx, "quizzes", "q1", document.Document{})
		assert.ErrorIs(t, err, gerrors.ErrUpsertNoop)
		assert.EqualValues(t, 1, underlying.calls.Load())
	})
	t.Run("With the store contract preserved", func(t *testing.T) {
		s := store.WithRetries(memory.New())
		_, err := s.Upsert(ctx, "quizzes", "q1", document.Document{"title": "Go"})
		require.NoError(t, err)

		count, err := s.DeleteMany(ctx, "quizzes", document.Filter{"title": "Go"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		require.NoError(t, s.Close(ctx))
	})
}

func TestUpsertResult(t *testing.T) {
	assert.Equal(t, "inserted", store.Inserted.String())
	assert.Equal(t, "matched", store.Matched.String())
	assert.Equal(t, "neither", store.Neither.String())
}
