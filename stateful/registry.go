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

package stateful

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/auth"
)

// Subscription is a standing collection subscription
type Subscription struct {
	Fields   []string
	Identity auth.Identity
}

// Subscriber is a subscriber together with the identity it subscribed with
type Subscriber struct {
	Address      *address.Address
	Identity     auth.Identity
	Subscription *Subscription
}

// Registry tracks the subscribers of one actor. A subscriber is keyed by its
// address; removing it clears every trace of it. It belongs to a single
// actor and is not safe for concurrent use.
type Registry struct {
	entities   map[string]mapset.Set[string]
	collection map[string]*Subscription
	identities map[string]auth.Identity
	addresses  map[string]*address.Address
	lastSeen   map[string]time.Time
	clock      func() time.Time
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		entities:   make(map[string]mapset.Set[string]),
		collection: make(map[string]*Subscription),
		identities: make(map[string]auth.Identity),
		addresses:  make(map[string]*address.Address),
		lastSeen:   make(map[string]time.Time),
		clock:      time.Now,
	}
}

// SubscribeToEntity adds subscriber to the subscribers of uid
func (r *Registry) SubscribeToEntity(uid string, subscriber *address.Address, identity auth.Identity) {
	key := r.track(subscriber, identity)
	set, ok := r.entities[uid]
	if !ok {
		set = mapset.NewThreadUnsafeSet[string]()
		r.entities[uid] = set
	}
	set.Add(key)
}

// UnsubscribeFromEntity removes subscriber from the subscribers of uid
func (r *Registry) UnsubscribeFromEntity(uid string, subscriber *address.Address) {
	key := subscriber.String()
	if set, ok := r.entities[uid]; ok {
		set.Remove(key)
		if set.Cardinality() == 0 {
			delete(r.entities, uid)
		}
	}
	r.release(key)
}

// SubscribeToCollection replaces the collection subscription of subscriber
func (r *Registry) SubscribeToCollection(subscriber *address.Address, fields []string, identity auth.Identity) {
	key := r.track(subscriber, identity)
	r.collection[key] = &Subscription{
		Fields:   append([]string(nil), fields...),
		Identity: identity,
	}
}

// UnsubscribeFromCollection removes the collection subscription of subscriber
func (r *Registry) UnsubscribeFromCollection(subscriber *address.Address) {
	key := subscriber.String()
	delete(r.collection, key)
	r.release(key)
}

// DropEntity removes every subscription to uid, typically after its deletion
func (r *Registry) DropEntity(uid string) {
	set, ok := r.entities[uid]
	if !ok {
		return
	}
	delete(r.entities, uid)
	for _, key := range set.ToSlice() {
		r.release(key)
	}
}

// Touch refreshes the last-seen time of a known subscriber
func (r *Registry) Touch(subscriber *address.Address) {
	key := subscriber.String()
	if _, ok := r.lastSeen[key]; ok {
		r.lastSeen[key] = r.clock()
	}
}

// Remove drops every subscription of subscriber
func (r *Registry) Remove(subscriber *address.Address) {
	r.remove(subscriber.String())
}

// CollectionSubscribers returns the collection subscribers ordered by address
func (r *Registry) CollectionSubscribers() []Subscriber {
	keys := make([]string, 0, len(r.collection))
	for key := range r.collection {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	subscribers := make([]Subscriber, 0, len(keys))
	for _, key := range keys {
		subscription := r.collection[key]
		subscribers = append(subscribers, Subscriber{
			Address:      r.addresses[key],
			Identity:     subscription.Identity,
			Subscription: subscription,
		})
	}
	return subscribers
}

// EntitySubscribers returns the subscribers of uid ordered by address
func (r *Registry) EntitySubscribers(uid string) []Subscriber {
	set, ok := r.entities[uid]
	if !ok {
		return nil
	}
	keys := set.ToSlice()
	sort.Strings(keys)

	subscribers := make([]Subscriber, 0, len(keys))
	for _, key := range keys {
		subscribers = append(subscribers, Subscriber{
			Address:  r.addresses[key],
			Identity: r.identities[key],
		})
	}
	return subscribers
}

// SweepIdle removes every subscriber not seen for longer than idle
func (r *Registry) SweepIdle(idle time.Duration) []*address.Address {
	threshold := r.clock().Add(-idle)
	var keys []string
	for key, seen := range r.lastSeen {
		if seen.Before(threshold) {
			keys = append(keys, key)
		}
	}
	return r.removeAll(keys)
}

// ReapDead removes every subscriber owned by one of the closed client
// systems
func (r *Registry) ReapDead(closed []*address.Address) []*address.Address {
	if len(closed) == 0 {
		return nil
	}

	systems := mapset.NewThreadUnsafeSet[string]()
	for _, addr := range closed {
		systems.Add(addr.System())
	}

	var keys []string
	for key, addr := range r.addresses {
		if systems.Contains(addr.System()) {
			keys = append(keys, key)
		}
	}
	return r.removeAll(keys)
}

// Len returns the number of distinct subscribers
func (r *Registry) Len() int {
	return len(r.lastSeen)
}

// Contains reports whether any trace of subscriber remains
func (r *Registry) Contains(subscriber *address.Address) bool {
	key := subscriber.String()
	if _, ok := r.lastSeen[key]; ok {
		return true
	}
	if _, ok := r.collection[key]; ok {
		return true
	}
	for _, set := range r.entities {
		if set.Contains(key) {
			return true
		}
	}
	return false
}

// LastSeen returns when subscriber last subscribed or was notified
func (r *Registry) LastSeen(subscriber *address.Address) (time.Time, bool) {
	seen, ok := r.lastSeen[subscriber.String()]
	return seen, ok
}

func (r *Registry) track(subscriber *address.Address, identity auth.Identity) string {
	key := subscriber.String()
	r.addresses[key] = subscriber
	r.identities[key] = identity
	r.lastSeen[key] = r.clock()
	return key
}

// release forgets the subscriber once nothing references it
func (r *Registry) release(key string) {
	if _, ok := r.collection[key]; ok {
		return
	}
	for _, set := range r.entities {
		if set.Contains(key) {
			return
		}
	}
	delete(r.lastSeen, key)
	delete(r.addresses, key)
	delete(r.identities, key)
}

func (r *Registry) remove(key string) {
	delete(r.collection, key)
	for uid, set := range r.entities {
		set.Remove(key)
		if set.Cardinality() == 0 {
			delete(r.entities, uid)
		}
	}
	delete(r.lastSeen, key)
	delete(r.addresses, key)
	delete(r.identities, key)
}

func (r *Registry) removeAll(keys []string) []*address.Address {
	sort.Strings(keys)
	removed := make([]*address.Address, 0, len(keys))
	for _, key := range keys {
		if addr, ok := r.addresses[key]; ok {
			removed = append(removed, addr)
		}
		r.remove(key)
	}
	return removed
}
