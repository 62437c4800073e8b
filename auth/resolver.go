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

package auth

import (
	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/log"
)

// SessionLookup returns the identity bound to a client system. found is
// false when the client has no valid session.
type SessionLookup func(rctx *actor.ReceiveContext, clientSystem string) (identity Identity, found bool, err error)

// Resolver turns the sender of a message into an Identity. The result is
// never cached: sessions can change between two messages.
type Resolver struct {
	lookup SessionLookup
	logger log.Logger
}

// NewResolver creates a Resolver backed by lookup
func NewResolver(lookup SessionLookup, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the identity of the sender of the message being handled.
// Senders from the same actor system, and messages without a sender, are
// SYSTEM. A failed or empty lookup yields a STUDENT without user id.
func (r *Resolver) Resolve(rctx *actor.ReceiveContext) Identity {
	sender := rctx.SenderAddress()
	if sender.IsNoSender() || sender.System() == rctx.ActorSystem().Name() {
		return SystemIdentity
	}

	if r.lookup == nil {
		return Anonymous
	}

	identity, found, err := r.lookup(rctx, sender.System())
	switch {
	case err != nil:
		r.logger.Warnf("failed to resolve the session of client %s: %v", sender.System(), err)
		return Anonymous
	case !found || !identity.Role.Valid():
		return Anonymous
	default:
		return identity
	}
}
