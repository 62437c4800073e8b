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
	"sync"
	"time"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
)

// Loopback is an in-process actor.Remoting connecting every actor system
// started with it. It lets tests run a server system and several client
// systems in one process without a broker.
type Loopback struct {
	mu      sync.RWMutex
	systems map[string]actor.ActorSystem
}

var _ actor.Remoting = (*Loopback)(nil)

// NewLoopback creates an instance of Loopback
func NewLoopback() *Loopback {
	return &Loopback{systems: make(map[string]actor.ActorSystem)}
}

// Start registers the system
func (l *Loopback) Start(_ context.Context, system actor.ActorSystem) error {
	l.mu.Lock()
	l.systems[system.Name()] = system
	l.mu.Unlock()
	return nil
}

// Stop is a no-op; systems unregister through Disconnect
func (l *Loopback) Stop(context.Context) error {
	return nil
}

// Disconnect makes the named system unreachable, as if its connection dropped
func (l *Loopback) Disconnect(system string) {
	l.mu.Lock()
	delete(l.systems, system)
	l.mu.Unlock()
}

// Tell delivers message to the actor at address to
func (l *Loopback) Tell(ctx context.Context, from, to *address.Address, message any) error {
	pid, err := l.lookup(to)
	if err != nil {
		return err
	}
	return actor.Tell(ctx, pid, message, actor.WithSender(from))
}

// Ask asks the actor at address to
func (l *Loopback) Ask(ctx context.Context, from, to *address.Address, message any, timeout time.Duration) (any, error) {
	pid, err := l.lookup(to)
	if err != nil {
		return nil, err
	}
	return actor.Ask(ctx, pid, message, timeout, actor.WithSender(from))
}

func (l *Loopback) lookup(to *address.Address) (*actor.PID, error) {
	l.mu.RLock()
	system, ok := l.systems[to.System()]
	l.mu.RUnlock()
	if !ok || !system.Running() {
		return nil, gerrors.NewErrRemoteSendFailure(gerrors.NewErrActorNotFound(to.String()))
	}
	return system.LocalActor(to.Name())
}
