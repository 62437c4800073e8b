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

// Package document holds the schemaless representation of persisted
// entities. A Document is the JSON form of an entity: numbers are float64,
// timestamps are RFC 3339 strings and nested values are maps and slices.
package document

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

const (
	// UIDField is the key of every document
	UIDField = "uid"
	// CreatedField is the creation timestamp
	CreatedField = "created"
	// UpdatedField is refreshed on every mutation
	UpdatedField = "updated"
	// ArchivedField is set when an entity is archived
	ArchivedField = "archived"
)

// Document is a persisted entity
type Document map[string]any

// Filter selects documents by top-level field equality.
// A scalar filter value also matches an array field containing it, and a nil
// filter value matches a missing or null field.
type Filter map[string]any

// ByUID returns the filter selecting the document with the given uid
func ByUID(uid string) Filter {
	return Filter{UIDField: uid}
}

// From converts any JSON-serializable value, typically an entity struct, into a Document
func From(value any) (Document, error) {
	bytes, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("document: encode %T: %w", value, err)
	}
	return Unmarshal(bytes)
}

// Unmarshal decodes JSON bytes into a Document
func Unmarshal(bytes []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(bytes, &doc); err != nil {
		return nil, fmt.Errorf("document: decode: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document: decode: not an object")
	}
	return doc, nil
}

// Marshal encodes the document as JSON
func (d Document) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// Decode fills out, a pointer to an entity struct, from the document
func (d Document) Decode(out any) error {
	bytes, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("document: encode: %w", err)
	}
	if err := json.Unmarshal(bytes, out); err != nil {
		return fmt.Errorf("document: decode into %T: %w", out, err)
	}
	return nil
}

// Normalize returns the JSON form of the document so that values compare
// equal to what a store returns.
func (d Document) Normalize() (Document, error) {
	if d == nil {
		return nil, nil
	}
	return From(d)
}

// UID returns the document uid or an empty string
func (d Document) UID() string {
	uid, _ := d[UIDField].(string)
	return uid
}

// String returns the string value of field
func (d Document) String(field string) string {
	value, _ := d[field].(string)
	return value
}

// Has reports whether field is present and not null
func (d Document) Has(field string) bool {
	value, ok := d[field]
	return ok && value != nil
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

// Merge returns a copy of base with every top-level field of delta applied.
// A nil value in delta removes the field.
func Merge(base, delta Document) Document {
	merged := base.Clone()
	if merged == nil {
		merged = Document{}
	}
	for key, value := range delta {
		if value == nil {
			delete(merged, key)
			continue
		}
		merged[key] = cloneValue(value)
	}
	return merged
}

// Project returns a copy restricted to fields. The uid is always kept.
// An empty field list returns the full document.
func (d Document) Project(fields []string) Document {
	if len(fields) == 0 {
		return d.Clone()
	}

	projected := make(Document, len(fields)+1)
	if uid, ok := d[UIDField]; ok {
		projected[UIDField] = uid
	}
	for _, field := range fields {
		if value, ok := d[field]; ok {
			projected[field] = cloneValue(value)
		}
	}
	return projected
}

// Without returns a copy without the given fields
func (d Document) Without(fields ...string) Document {
	clone := d.Clone()
	for _, field := range fields {
		delete(clone, field)
	}
	return clone
}

// Keys returns the sorted top-level keys
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Matches reports whether the document satisfies every field of the filter
func (d Document) Matches(filter Filter) bool {
	for key, expected := range filter {
		actual, ok := d[key]
		if expected == nil {
			if ok && actual != nil {
				return false
			}
			continue
		}
		if !ok || !matchValue(actual, expected) {
			return false
		}
	}
	return true
}

// Normalize returns the JSON form of the filter values
func (f Filter) Normalize() (Filter, error) {
	if len(f) == 0 {
		return Filter{}, nil
	}
	doc, err := From(map[string]any(f))
	if err != nil {
		return nil, err
	}
	return Filter(doc), nil
}

// Keys returns the sorted filter keys
func (f Filter) Keys() []string {
	return Document(f).Keys()
}

func matchValue(actual, expected any) bool {
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	if items, ok := actual.([]any); ok {
		if _, expectedIsList := expected.([]any); !expectedIsList {
			for _, item := range items {
				if reflect.DeepEqual(item, expected) {
					return true
				}
			}
		}
	}
	return false
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(v))
		for key, item := range v {
			clone[key] = cloneValue(item)
		}
		return clone
	case Document:
		return map[string]any(v.Clone())
	case []any:
		clone := make([]any, len(v))
		for i, item := range v {
			clone[i] = cloneValue(item)
		}
		return clone
	default:
		return v
	}
}
