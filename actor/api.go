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
	gerrors "github.com/tochemey/quizakt/errors"
)

type sendConfig struct {
	sender *address.Address
}

// SendOption customizes Tell and Ask
type SendOption func(config *sendConfig)

// WithSender makes the receiver see the given address as sender.
// Remoting uses it to hand over messages coming from client connections.
func WithSender(sender *address.Address) SendOption {
	return func(config *sendConfig) {
		config.sender = sender
	}
}

func newSendConfig(opts ...SendOption) *sendConfig {
	config := &sendConfig{sender: address.NoSender()}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Tell sends an asynchronous message to an actor from outside of any actor.
func Tell(ctx context.Context, to *PID, message any, opts ...SendOption) error {
	config := newSendConfig(opts...)
	return tell(ctx, config.sender, nil, to, message)
}

// Ask sends a synchronous message to an actor from outside of any actor and
// waits for the reply. An error replied by the receiver is returned as error.
func Ask(ctx context.Context, to *PID, message any, timeout time.Duration, opts ...SendOption) (any, error) {
	config := newSendConfig(opts...)
	return ask(ctx, config.sender, nil, to, message, timeout)
}

func tell(ctx context.Context, sender *address.Address, senderPID *PID, to *PID, message any) error {
	if message == nil {
		return gerrors.ErrInvalidMessage
	}
	if !to.IsRunning() {
		return gerrors.ErrDead
	}
	return to.doReceive(newReceiveContext(ctx, sender, senderPID, to, message))
}

func ask(ctx context.Context, sender *address.Address, senderPID *PID, to *PID, message any, timeout time.Duration) (any, error) {
	if message == nil {
		return nil, gerrors.ErrInvalidMessage
	}
	if !to.IsRunning() {
		return nil, gerrors.ErrDead
	}
	if timeout <= 0 {
		return nil, gerrors.ErrInvalidTimeout
	}

	received := newReceiveContext(ctx, sender, senderPID, to, message)
	received.reply = newReply()
	if err := to.doReceive(received); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case response := <-received.reply.ch:
		if err, ok := response.(error); ok {
			return nil, err
		}
		return response, nil
	case <-ctx.Done():
		received.reply.done.Store(true)
		return nil, ctx.Err()
	case <-timer.C:
		received.reply.done.Store(true)
		return nil, gerrors.NewTimeoutError(to.Name())
	}
}
