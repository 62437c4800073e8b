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

package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UID      string    `json:"uid"`
	Title    string    `json:"title"`
	Teachers []string  `json:"teachers"`
	Count    int       `json:"count"`
	Created  time.Time `json:"created"`
}

func TestDocument(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("With struct round trip", func(t *testing.T) {
		in := sample{UID: "q1", Title: "Go", Teachers: []string{"t1"}, Count: 3, Created: created}
		doc, err := From(in)
		require.NoError(t, err)
		assert.Equal(t, "q1", doc.UID())
		assert.Equal(t, float64(3), doc["count"])
		assert.Equal(t, []any{"t1"}, doc["teachers"])
		assert.Equal(t, "2024-03-01T10:00:00Z", doc.String("created"))

		var out sample
		require.NoError(t, doc.Decode(&out))
		assert.Equal(t, in, out)
	})
	t.Run("With invalid json", func(t *testing.T) {
		_, err := Unmarshal([]byte("[1,2]"))
		require.Error(t, err)
		_, err = Unmarshal([]byte("null"))
		require.Error(t, err)
	})
	t.Run("With Clone", func(t *testing.T) {
		doc := Document{"uid": "q1", "teachers": []any{"t1"}, "meta": map[string]any{"a": 1.0}}
		clone := doc.Clone()
		clone["teachers"].([]any)[0] = "t2"
		clone["meta"].(map[string]any)["a"] = 2.0
		assert.Equal(t, "t1", doc["teachers"].([]any)[0])
		assert.Equal(t, 1.0, doc["meta"].(map[string]any)["a"])
	})
	t.Run("With Merge", func(t *testing.T) {
		base := Document{"uid": "q1", "title": "old", "note": "keep", "tmp": "x"}
		merged := Merge(base, Document{"title": "new", "tmp": nil})
		assert.Equal(t, Document{"uid": "q1", "title": "new", "note": "keep"}, merged)
		assert.Equal(t, "old", base["title"])
		assert.Equal(t, Document{"a": 1}, Merge(nil, Document{"a": 1}))
	})
	t.Run("With Project", func(t *testing.T) {
		doc := Document{"uid": "q1", "title": "Go", "state": "EDITING", "teachers": []any{"t1"}}
		assert.Equal(t, Document{"uid": "q1", "title": "Go"}, doc.Project([]string{"title", "missing"}))
		assert.Equal(t, doc, doc.Project(nil))
		assert.Equal(t, Document{"uid": "q1", "state": "EDITING"}, doc.Without("title", "teachers"))
	})
	t.Run("With Matches", func(t *testing.T) {
		doc := Document{"uid": "c1", "quiz": "q1", "tags": []any{"a", "b"}, "archived": nil}
		assert.True(t, doc.Matches(Filter{}))
		assert.True(t, doc.Matches(Filter{"quiz": "q1"}))
		assert.False(t, doc.Matches(Filter{"quiz": "q2"}))
		assert.True(t, doc.Matches(Filter{"tags": "a"}))
		assert.False(t, doc.Matches(Filter{"tags": "c"}))
		assert.True(t, doc.Matches(Filter{"tags": []any{"a", "b"}}))
		assert.True(t, doc.Matches(Filter{"archived": nil}))
		assert.True(t, doc.Matches(Filter{"missing": nil}))
		assert.False(t, doc.Matches(Filter{"missing": "x"}))
		assert.False(t, Document{"archived": "2024"}.Matches(Filter{"archived": nil}))
	})
	t.Run("With normalized filters", func(t *testing.T) {
		filter, err := Filter{"count": 3, "uid": "q1"}.Normalize()
		require.NoError(t, err)
		assert.Equal(t, float64(3), filter["count"])
		assert.Equal(t, []string{"count", "uid"}, filter.Keys())

		doc, err := From(sample{UID: "q1", Count: 3})
		require.NoError(t, err)
		assert.True(t, doc.Matches(filter))
	})
}
