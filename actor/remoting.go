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

package actor

import (
	"context"
	"time"

	"github.com/tochemey/quizakt/address"
)

// Remoting carries messages to actors living in other actor systems.
// Implementations deliver the inbound traffic of a system through Tell and Ask
// using WithSender so that receivers see the remote sender address.
type Remoting interface {
	// Start begins serving inbound messages for the given system
	Start(ctx context.Context, system ActorSystem) error
	// Tell delivers message to the remote actor at the given address
	Tell(ctx context.Context, from, to *address.Address, message any) error
	// Ask delivers message to the remote actor and waits for its reply
	Ask(ctx context.Context, from, to *address.Address, message any, timeout time.Duration) (any, error)
	// Stop releases the transport
	Stop(ctx context.Context) error
}
