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

// Package deadclient keeps track of client connections that failed or closed
// so that subscription registries can drop the subscribers they own.
//
// A client connection runs its own actor system; the tracker therefore
// remembers the owning system of every reported address. There should be a
// single Tracker per process.
package deadclient

import (
	"sort"
	"sync"
	"time"

	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/log"
)

// DefaultRetention is how long a closed client stays listed. It is twice the
// default reap interval so that every registry sees the client at least once.
const DefaultRetention = 2 * time.Minute

type entry struct {
	addr *address.Address
	seen time.Time
	err  error
}

// Tracker is a process-wide registry of closed or unreachable clients.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	entries   map[string]entry
	retention time.Duration
	clock     func() time.Time
	logger    log.Logger
}

// New creates an instance of Tracker
func New(opts ...Option) *Tracker {
	tracker := &Tracker{
		entries:   make(map[string]entry),
		retention: DefaultRetention,
		clock:     time.Now,
		logger:    log.DiscardLogger,
	}

	for _, opt := range opts {
		opt.Apply(tracker)
	}
	return tracker
}

// ReportError records that delivering to addr failed
func (t *Tracker) ReportError(addr *address.Address, err error) {
	if addr.IsNoSender() {
		return
	}
	t.logger.Debugf("client %s reported unreachable: %v", addr.System(), err)
	t.record(addr, err)
}

// ReportClosed records that the client owning addr closed its connection
func (t *Tracker) ReportClosed(addr *address.Address) {
	if addr.IsNoSender() {
		return
	}
	t.logger.Debugf("client %s reported closed", addr.System())
	t.record(addr, nil)
}

// ListClosed returns one address per closed client, oldest first.
// Entries older than the retention window are pruned.
func (t *Tracker) ListClosed() []*address.Address {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pruneLocked()
	entries := make([]entry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seen.Before(entries[j].seen)
	})

	addrs := make([]*address.Address, 0, len(entries))
	for _, e := range entries {
		addrs = append(addrs, e.addr)
	}
	return addrs
}

// IsClosed reports whether the client owning addr is currently listed
func (t *Tracker) IsClosed(addr *address.Address) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked()
	_, ok := t.entries[addr.System()]
	return ok
}

// LastError returns the delivery error recorded for the client owning addr
func (t *Tracker) LastError(addr *address.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[addr.System()].err
}

// Forget removes the client owning addr, typically after it reconnected
func (t *Tracker) Forget(addr *address.Address) {
	t.mu.Lock()
	delete(t.entries, addr.System())
	t.mu.Unlock()
}

func (t *Tracker) record(addr *address.Address, err error) {
	t.mu.Lock()
	t.entries[addr.System()] = entry{addr: addr, seen: t.clock(), err: err}
	t.mu.Unlock()
}

func (t *Tracker) pruneLocked() {
	threshold := t.clock().Add(-t.retention)
	for key, e := range t.entries {
		if e.seen.Before(threshold) {
			delete(t.entries, key)
		}
	}
}
