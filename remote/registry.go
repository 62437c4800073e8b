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

package remote

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Registry maps wire names to the Go types that may cross a system boundary.
// Only registered types can be received. Messages are registered and sent as
// pointers to structs.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry creates a Registry holding the given message types
func NewRegistry(messages ...any) *Registry {
	registry := &Registry{types: make(map[string]reflect.Type)}
	registry.Register(messages...)
	return registry
}

// Register adds message types to the registry
func (r *Registry) Register(messages ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, message := range messages {
		rtype := elem(reflect.TypeOf(message))
		r.types[nameOf(rtype)] = rtype
	}
}

// Name returns the wire name of message
func (r *Registry) Name(message any) (string, error) {
	name := nameOf(elem(reflect.TypeOf(message)))
	r.mu.RLock()
	_, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("message type %s is not registered", name)
	}
	return name, nil
}

// Encode returns the wire name and the JSON payload of message
func (r *Registry) Encode(message any) (string, []byte, error) {
	name, err := r.Name(message)
	if err != nil {
		return "", nil, err
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return name, payload, nil
}

// Decode rebuilds a message from its wire name and payload. The result is a
// pointer to the registered struct.
func (r *Registry) Decode(name string, payload []byte) (any, error) {
	r.mu.RLock()
	rtype, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("message type %s is not registered", name)
	}

	value := reflect.New(rtype)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, value.Interface()); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return value.Interface(), nil
}

func elem(rtype reflect.Type) reflect.Type {
	for rtype != nil && rtype.Kind() == reflect.Pointer {
		rtype = rtype.Elem()
	}
	return rtype
}

func nameOf(rtype reflect.Type) string {
	if rtype == nil {
		return "nil"
	}
	if rtype.PkgPath() == "" {
		return rtype.String()
	}
	return rtype.PkgPath() + "." + rtype.Name()
}
