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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/document"
	"github.com/tochemey/quizakt/store"
	"github.com/tochemey/quizakt/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(*testing.T) store.Store {
		return New()
	})

	t.Run("With returned documents isolated from the store", func(t *testing.T) {
		ctx := context.Background()
		s := New()
		_, err := s.Upsert(ctx, "quizzes", "q1", document.Document{"title": "Go"})
		require.NoError(t, err)

		doc, found, err := s.FindOne(ctx, "quizzes", document.ByUID("q1"))
		require.NoError(t, err)
		require.True(t, found)
		doc["title"] = "changed"

		again, _, err := s.FindOne(ctx, "quizzes", document.ByUID("q1"))
		require.NoError(t, err)
		assert.Equal(t, "Go", again.String("title"))
		assert.Equal(t, 1, s.Len("quizzes"))
	})
	t.Run("With a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New().Find(ctx, "quizzes", document.Filter{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
