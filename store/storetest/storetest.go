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

// Package storetest holds the behavior every store.Store backend must honor.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

// Run exercises a store backend. newStore must return an empty store; the
// suite closes it.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("With upsert insert then match", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		result, err := s.Upsert(ctx, "quizzes", "q1", document.Document{"title": "Go", "state": "DRAFT"})
		require.NoError(t, err)
		assert.Equal(t, store.Inserted, result)

		result, err = s.Upsert(ctx, "quizzes", "q1", document.Document{"title": "Go 2", "state": "DRAFT"})
		require.NoError(t, err)
		assert.Equal(t, store.Matched, result)

		doc, found, err := s.FindOne(ctx, "quizzes", document.ByUID("q1"))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Go 2", doc.String("title"))
		assert.Equal(t, "q1", doc.UID())
	})
	t.Run("With FindOne on a missing document", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		doc, found, err := s.FindOne(ctx, "quizzes", document.ByUID("missing"))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, doc)
	})
	t.Run("With collections isolated", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		_, err := s.Upsert(ctx, "quizzes", "x1", document.Document{"title": "quiz"})
		require.NoError(t, err)

		_, found, err := s.FindOne(ctx, "questions", document.ByUID("x1"))
		require.NoError(t, err)
		assert.False(t, found)
	})
	t.Run("With Find by field equality ordered by uid", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		for _, item := range []struct {
			uid  string
			quiz string
		}{{"c3", "q1"}, {"c1", "q1"}, {"c2", "q2"}} {
			_, err := s.Upsert(ctx, "comments", item.uid, document.Document{"quiz": item.quiz, "text": "hi " + item.uid})
			require.NoError(t, err)
		}

		docs, err := s.Find(ctx, "comments", document.Filter{"quiz": "q1"})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "c1", docs[0].UID())
		assert.Equal(t, "c3", docs[1].UID())

		all, err := s.Find(ctx, "comments", document.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
	t.Run("With a scalar filter matching an array field", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		_, err := s.Upsert(ctx, "quizzes", "q1", document.Document{"tags": []any{"go", "actors"}})
		require.NoError(t, err)
		_, err = s.Upsert(ctx, "quizzes", "q2", document.Document{"tags": []any{"rust"}})
		require.NoError(t, err)

		docs, err := s.Find(ctx, "quizzes", document.Filter{"tags": "actors"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "q1", docs[0].UID())
	})
	t.Run("With numeric and boolean filters", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		_, err := s.Upsert(ctx, "questions", "n1", document.Document{"position": 2, "visible": true})
		require.NoError(t, err)
		_, err = s.Upsert(ctx, "questions", "n2", document.Document{"position": 3, "visible": false})
		require.NoError(t, err)

		docs, err := s.Find(ctx, "questions", document.Filter{"position": 2})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "n1", docs[0].UID())

		docs, err = s.Find(ctx, "questions", document.Filter{"visible": false})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "n2", docs[0].UID())
	})
	t.Run("With nested values preserved", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		original := document.Document{
			"answers": []any{map[string]any{"text": "yes", "correct": true}},
			"meta":    map[string]any{"level": "easy"},
		}
		_, err := s.Upsert(ctx, "questions", "n1", original)
		require.NoError(t, err)

		doc, found, err := s.FindOne(ctx, "questions", document.ByUID("n1"))
		require.NoError(t, err)
		require.True(t, found)

		expected, err := original.Normalize()
		require.NoError(t, err)
		expected[document.UIDField] = "n1"
		assert.Equal(t, expected, doc)
	})
	t.Run("With DeleteOne", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		_, err := s.Upsert(ctx, "sessions", "s1", document.Document{"user": "u1"})
		require.NoError(t, err)

		require.NoError(t, s.DeleteOne(ctx, "sessions", "s1"))
		require.NoError(t, s.DeleteOne(ctx, "sessions", "s1"))

		_, found, err := s.FindOne(ctx, "sessions", document.ByUID("s1"))
		require.NoError(t, err)
		assert.False(t, found)
	})
	t.Run("With DeleteMany", func(t *testing.T) {
		s := newStore(t)
		defer func() { _ = s.Close(ctx) }()

		for _, uid := range []string{"a", "b", "c"} {
			owner := "u1"
			if uid == "c" {
				owner = "u2"
			}
			_, err := s.Upsert(ctx, "sessions", uid, document.Document{"user": owner})
			require.NoError(t, err)
		}

		count, err := s.DeleteMany(ctx, "sessions", document.Filter{"user": "u1"})
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		remaining, err := s.Find(ctx, "sessions", document.Filter{})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, "c", remaining[0].UID())
	})
	t.Run("With a closed store", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close(ctx))

		_, err := s.Upsert(ctx, "quizzes", "q1", document.Document{})
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrStorage)
		assert.ErrorIs(t, err, store.ErrClosed)
	})
}
