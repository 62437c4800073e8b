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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/log"
)

type ping struct{ Value int }
type pong struct{ Value int }
type boom struct{}
type fail struct{}
type record struct{}
type slow struct{ Duration time.Duration }
type forwardTo struct {
	To      *PID
	Message any
}
type spawnChild struct{ Name string }

// tester is an actor used across the package tests
type tester struct {
	mu       sync.Mutex
	received []any
	senders  []*address.Address
	started  chan struct{}
	stopped  chan struct{}
	preStart func() error
}

func newTester() *tester {
	return &tester{
		started: make(chan struct{}, 1),
		stopped: make(chan struct{}, 1),
	}
}

func (x *tester) PreStart(*Context) error {
	if x.preStart != nil {
		return x.preStart()
	}
	return nil
}

func (x *tester) Receive(ctx *ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *PostStart:
		x.started <- struct{}{}
	case *ping:
		ctx.Response(&pong{Value: msg.Value + 1})
	case *boom:
		panic("boom")
	case *fail:
		ctx.Err(errors.New("failed"))
	case *slow:
		time.Sleep(msg.Duration)
		ctx.Response(&pong{})
	case *forwardTo:
		ctx.ForwardMessage(msg.To, msg.Message)
	case *spawnChild:
		child, err := ctx.SpawnChild(msg.Name, newTester())
		if err != nil {
			ctx.Err(err)
			return
		}
		ctx.Response(child)
	case *record:
		x.mu.Lock()
		x.received = append(x.received, msg)
		x.senders = append(x.senders, ctx.SenderAddress())
		x.mu.Unlock()
	default:
		ctx.Unhandled()
	}
}

func (x *tester) PostStop(*Context) error {
	x.stopped <- struct{}{}
	return nil
}

func (x *tester) count() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.received)
}

func (x *tester) lastSender() *address.Address {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.senders) == 0 {
		return nil
	}
	return x.senders[len(x.senders)-1]
}

func newTestSystem(t *testing.T, name string, opts ...Option) ActorSystem {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger), WithShutdownTimeout(5 * time.Second)}, opts...)
	system, err := NewActorSystem(name, opts...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		if system.Running() {
			_ = system.Stop(context.Background())
		}
	})
	return system
}
