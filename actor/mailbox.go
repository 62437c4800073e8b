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
	"github.com/tochemey/quizakt/internal/queue"
)

// Mailbox defines the contract for an actor's message queue.
//
// Enqueue must be safe for concurrent producers. Dequeue is only called by the
// single goroutine processing the actor and returns nil when nothing is queued.
type Mailbox interface {
	// Enqueue pushes a message into the mailbox.
	// Bounded implementations return an error when full.
	Enqueue(msg *ReceiveContext) error
	// Dequeue fetches the next message or nil when the mailbox is empty.
	Dequeue() (msg *ReceiveContext)
	// IsEmpty reports whether the mailbox currently has no messages.
	IsEmpty() bool
	// Len returns a snapshot of the number of messages in the mailbox.
	Len() int64
	// Dispose releases the resources held by the mailbox.
	Dispose()
}

// UnboundedMailbox is the default Mailbox, backed by a lock-free MPSC queue.
type UnboundedMailbox struct {
	underlying *queue.Mpsc[*ReceiveContext]
}

var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox creates an instance of UnboundedMailbox
func NewUnboundedMailbox() *UnboundedMailbox {
	return &UnboundedMailbox{underlying: queue.NewMpsc[*ReceiveContext]()}
}

// Enqueue places the given value in the mailbox. It never fails.
func (m *UnboundedMailbox) Enqueue(msg *ReceiveContext) error {
	m.underlying.Push(msg)
	return nil
}

// Dequeue takes a message from the mailbox or returns nil
func (m *UnboundedMailbox) Dequeue() *ReceiveContext {
	if msg, ok := m.underlying.Pop(); ok {
		return msg
	}
	return nil
}

// IsEmpty returns true when the mailbox is empty
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.underlying.IsEmpty()
}

// Len returns mailbox length
func (m *UnboundedMailbox) Len() int64 {
	return m.underlying.Len()
}

// Dispose drops whatever is still queued
func (m *UnboundedMailbox) Dispose() {
	for !m.underlying.IsEmpty() {
		_, _ = m.underlying.Pop()
	}
}
