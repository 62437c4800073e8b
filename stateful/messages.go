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
	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/document"
)

// SubscribeTo subscribes the sender to every change of one entity
type SubscribeTo struct {
	UID string `json:"uid"`
}

// UnsubscribeFrom cancels a SubscribeTo
type UnsubscribeFrom struct {
	UID string `json:"uid"`
}

// SubscribeToCollection subscribes the sender to every change of the
// collection. Fields restricts the pushed views; empty means full views.
type SubscribeToCollection struct {
	Fields []string `json:"fields,omitempty"`
}

// UnsubscribeFromCollection cancels a SubscribeToCollection
type UnsubscribeFromCollection struct{}

// ClientClosed reports that the client system owning Address went away.
// Every subscriber of that client is dropped immediately.
type ClientClosed struct {
	Address *address.Address `json:"address"`
}

// CleanupCache triggers the idle sweep of the cache and of the subscriptions
type CleanupCache struct{}

// ReapDeadClients drops the subscribers of clients the tracker lists as closed
type ReapDeadClients struct{}

// Updated notifies a subscriber of a created or changed entity. Entity is
// the full view or the projection the subscriber asked for.
type Updated struct {
	Collection string            `json:"collection"`
	Entity     document.Document `json:"entity"`
}

// Deleted notifies a subscriber that an entity no longer exists
type Deleted struct {
	Collection string `json:"collection"`
	UID        string `json:"uid"`
}

// Ack acknowledges a request that has no other result
type Ack struct{}

// Created answers a successful creation
type Created struct {
	UID string `json:"uid"`
}

// Streamed answers a query whose results were sent as Updated notifications
type Streamed struct {
	Count int `json:"count"`
}

// Messages returns an instance of every message of this package, ready to
// be registered for remoting
func Messages() []any {
	return []any{
		new(SubscribeTo),
		new(UnsubscribeFrom),
		new(SubscribeToCollection),
		new(UnsubscribeFromCollection),
		new(ClientClosed),
		new(Updated),
		new(Deleted),
		new(Ack),
		new(Created),
		new(Streamed),
	}
}
