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

package testkit

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
)

const (
	// MessagesQueueMax is the number of messages a probe buffers
	MessagesQueueMax int = 1000
	// DefaultTimeout is how long expectations wait for a message
	DefaultTimeout time.Duration = 3 * time.Second
)

// Message is a message received by a probe together with its sender
type Message struct {
	Sender  *address.Address
	Payload any
}

type probeActor struct {
	messages chan Message
}

var _ actor.Actor = (*probeActor)(nil)

func (x *probeActor) PreStart(*actor.Context) error {
	return nil
}

func (x *probeActor) Receive(ctx *actor.ReceiveContext) {
	if _, ok := ctx.Message().(*actor.PostStart); ok {
		return
	}
	x.messages <- Message{Sender: ctx.SenderAddress(), Payload: ctx.Message()}
}

func (x *probeActor) PostStop(*actor.Context) error {
	return nil
}

// Probe is an actor recording every message it receives so that tests can
// assert on them. Its address can be used as sender so that replies and
// notifications land in the probe.
type Probe struct {
	t       *testing.T
	pid     *actor.PID
	system  actor.ActorSystem
	actor   *probeActor
	mu      sync.Mutex
	last    *address.Address
	timeout time.Duration
}

// NewProbe spawns a probe actor with the given name in system
func NewProbe(ctx context.Context, t *testing.T, system actor.ActorSystem, name string) *Probe {
	t.Helper()
	probeActor := &probeActor{messages: make(chan Message, MessagesQueueMax)}
	pid, err := system.Spawn(ctx, name, probeActor)
	require.NoError(t, err)
	return &Probe{t: t, pid: pid, system: system, actor: probeActor, timeout: DefaultTimeout}
}

// PID returns the probe PID
func (p *Probe) PID() *actor.PID {
	return p.pid
}

// Address returns the probe address
func (p *Probe) Address() *address.Address {
	return p.pid.Address()
}

// Sender returns the sender of the last received message
func (p *Probe) Sender() *address.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Tell sends message to the actor to from the probe
func (p *Probe) Tell(to *actor.PID, message any) {
	p.t.Helper()
	require.NoError(p.t, actor.Tell(context.Background(), to, message, actor.WithSender(p.Address())))
}

// Ask asks the actor to from the probe and returns the reply or error
func (p *Probe) Ask(to *actor.PID, message any) (any, error) {
	return actor.Ask(context.Background(), to, message, p.timeout, actor.WithSender(p.Address()))
}

// ExpectMessage asserts that the next message equals expected
func (p *Probe) ExpectMessage(expected any) {
	p.t.Helper()
	p.ExpectMessageWithin(p.timeout, expected)
}

// ExpectMessageWithin asserts that the next message, received within duration, equals expected
func (p *Probe) ExpectMessageWithin(duration time.Duration, expected any) {
	p.t.Helper()
	received := p.receive(duration)
	require.NotNil(p.t, received, "timeout (%v) while waiting for %T", duration, expected)
	require.Equal(p.t, expected, received.Payload)
}

// ExpectAnyMessage returns the next message
func (p *Probe) ExpectAnyMessage() any {
	p.t.Helper()
	return p.ExpectAnyMessageWithin(p.timeout)
}

// ExpectAnyMessageWithin returns the next message received within duration
func (p *Probe) ExpectAnyMessageWithin(duration time.Duration) any {
	p.t.Helper()
	received := p.receive(duration)
	require.NotNil(p.t, received, "timeout (%v) while waiting for a message", duration)
	return received.Payload
}

// ExpectNoMessage asserts that nothing arrives within a short window
func (p *Probe) ExpectNoMessage() {
	p.t.Helper()
	p.ExpectNoMessageWithin(100 * time.Millisecond)
}

// ExpectNoMessageWithin asserts that nothing arrives within duration
func (p *Probe) ExpectNoMessageWithin(duration time.Duration) {
	p.t.Helper()
	received := p.receive(duration)
	require.Nil(p.t, received, "unexpected message %s", describe(received))
}

// ExpectMessageOf returns the next message asserting it has type T
func ExpectMessageOf[T any](p *Probe) T {
	p.t.Helper()
	payload := p.ExpectAnyMessage()
	typed, ok := payload.(T)
	require.True(p.t, ok, "expected %s, got %T", reflect.TypeFor[T](), payload)
	return typed
}

// Drain discards the messages already received
func (p *Probe) Drain() {
	for {
		select {
		case <-p.actor.messages:
		default:
			return
		}
	}
}

// Stop stops the probe actor
func (p *Probe) Stop() {
	_ = p.pid.Shutdown(context.Background())
}

func (p *Probe) receive(duration time.Duration) *Message {
	select {
	case received := <-p.actor.messages:
		p.mu.Lock()
		p.last = received.Sender
		p.mu.Unlock()
		return &received
	case <-time.After(duration):
		return nil
	}
}

func describe(message *Message) string {
	if message == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T %+v", message.Payload, message.Payload)
}
