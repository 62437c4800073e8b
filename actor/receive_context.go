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

	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
)

// reply is the one-shot channel an Ask waits on. It travels with the message
// when the message is forwarded so that the final handler answers the asker.
type reply struct {
	ch   chan any
	done *atomic.Bool
}

func newReply() *reply {
	return &reply{ch: make(chan any, 1), done: atomic.NewBool(false)}
}

// send delivers the first value only. Later values, including replies arriving
// after the asker gave up, are dropped.
func (r *reply) send(value any) {
	if r == nil || !r.done.CompareAndSwap(false, true) {
		return
	}
	r.ch <- value
}

// ReceiveContext carries a message and its sender to the receiving actor.
type ReceiveContext struct {
	ctx       context.Context
	message   any
	sender    *address.Address
	senderPID *PID
	self      *PID
	reply     *reply
	err       error
}

func newReceiveContext(ctx context.Context, sender *address.Address, senderPID *PID, to *PID, message any) *ReceiveContext {
	if sender == nil {
		sender = address.NoSender()
	}
	return &ReceiveContext{
		ctx:       ctx,
		message:   message,
		sender:    sender,
		senderPID: senderPID,
		self:      to,
	}
}

// Context returns the context of the current message
func (rctx *ReceiveContext) Context() context.Context {
	return rctx.ctx
}

// Message returns the message being processed
func (rctx *ReceiveContext) Message() any {
	return rctx.message
}

// Self returns the receiver PID
func (rctx *ReceiveContext) Self() *PID {
	return rctx.self
}

// Sender returns the PID of a local sender or nil when the message came from
// outside the actor system or from another system.
func (rctx *ReceiveContext) Sender() *PID {
	return rctx.senderPID
}

// SenderAddress returns the address of the sender. It is never nil: messages
// without sender report address.NoSender.
func (rctx *ReceiveContext) SenderAddress() *address.Address {
	return rctx.sender
}

// ActorSystem returns the actor system of the receiver
func (rctx *ReceiveContext) ActorSystem() ActorSystem {
	return rctx.self.system
}

// Logger returns the receiver logger
func (rctx *ReceiveContext) Logger() log.Logger {
	return rctx.self.Logger()
}

// Response answers the Ask that carried the current message.
// It is a no-op for messages that were told.
func (rctx *ReceiveContext) Response(resp any) {
	rctx.reply.send(resp)
}

// Err records the failure of the current message. When the message was
// asked, the asker receives err as the outcome of its Ask.
func (rctx *ReceiveContext) Err(err error) {
	rctx.err = err
	rctx.reply.send(err)
}

// Unhandled answers the current message with an UnknownMessageError
func (rctx *ReceiveContext) Unhandled() {
	rctx.Err(gerrors.NewUnknownMessageError(rctx.message))
}

// Tell sends an asynchronous message to another actor with self as sender.
func (rctx *ReceiveContext) Tell(to *PID, message any) {
	if err := rctx.self.Tell(context.WithoutCancel(rctx.ctx), to, message); err != nil {
		rctx.self.logger.Warnf("failed to tell %s: %v", to.Name(), err)
	}
}

// Ask sends a synchronous message to another actor and waits for its reply.
// The receiver keeps processing only this message while waiting.
func (rctx *ReceiveContext) Ask(to *PID, message any, timeout time.Duration) (any, error) {
	return rctx.self.Ask(rctx.ctx, to, message, timeout)
}

// Deliver sends message to any address, local or remote, with self as sender.
func (rctx *ReceiveContext) Deliver(to *address.Address, message any) error {
	return rctx.self.system.Deliver(context.WithoutCancel(rctx.ctx), rctx.self.Address(), to, message)
}

// Forward passes the current message to another actor keeping the original
// sender. A pending Ask is answered by the actor the message is forwarded to.
func (rctx *ReceiveContext) Forward(to *PID) {
	rctx.ForwardMessage(to, rctx.message)
}

// ForwardMessage behaves like Forward but passes a different message.
func (rctx *ReceiveContext) ForwardMessage(to *PID, message any) {
	if !to.IsRunning() {
		rctx.Err(gerrors.ErrDead)
		return
	}

	forwarded := newReceiveContext(context.WithoutCancel(rctx.ctx), rctx.sender, rctx.senderPID, to, message)
	forwarded.reply = rctx.reply
	if err := to.doReceive(forwarded); err != nil {
		rctx.Err(err)
	}
}

// SpawnChild creates a child actor supervised by the receiver.
func (rctx *ReceiveContext) SpawnChild(name string, actor Actor, opts ...SpawnOption) (*PID, error) {
	return rctx.self.SpawnChild(rctx.ctx, name, actor, opts...)
}

// Stop stops the given child actor and waits for its PostStop to complete.
func (rctx *ReceiveContext) Stop(child *PID) {
	if child == nil || child == rctx.self {
		rctx.Shutdown()
		return
	}
	if err := child.Shutdown(context.WithoutCancel(rctx.ctx)); err != nil {
		rctx.self.logger.Warnf("failed to stop child %s: %v", child.Name(), err)
	}
}

// Shutdown stops the receiver once the current message and those already
// queued have been handled.
func (rctx *ReceiveContext) Shutdown() {
	rctx.self.stopAsync(context.WithoutCancel(rctx.ctx))
}

func (rctx *ReceiveContext) getError() error {
	return rctx.err
}
