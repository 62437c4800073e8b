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

package store

import (
	"sort"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
)

// Prepare returns the JSON form of doc with its uid field set to uid.
// Backends call it before persisting so every stored document carries its key.
func Prepare(uid string, doc document.Document) (document.Document, error) {
	normalized, err := doc.Normalize()
	if err != nil {
		return nil, gerrors.NewStorageError("encode", err)
	}
	if normalized == nil {
		normalized = document.Document{}
	}
	normalized[document.UIDField] = uid
	return normalized, nil
}

// PrepareFilter returns the JSON form of filter
func PrepareFilter(filter document.Filter) (document.Filter, error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return nil, gerrors.NewStorageError("encode", err)
	}
	return normalized, nil
}

// SortByUID orders documents by uid in place
func SortByUID(docs []document.Document) {
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].UID() < docs[j].UID()
	})
}
