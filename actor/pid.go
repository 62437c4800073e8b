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
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
)

const (
	idle int32 = iota
	busy
)

// PID is a reference to a running actor. It is safe for concurrent use.
type PID struct {
	actor   Actor
	address *address.Address
	system  *actorSystem
	parent  *PID

	mu       sync.RWMutex
	children map[string]*PID

	mailbox    Mailbox
	processing *atomic.Int32
	running    *atomic.Bool
	stopping   *atomic.Bool
	stopped    chan struct{}
	stopErr    error

	logger         log.Logger
	initMaxRetries int
	initTimeout    time.Duration
}

func newPID(ctx context.Context, system *actorSystem, addr *address.Address, actor Actor, parent *PID, config *spawnConfig) (*PID, error) {
	pid := &PID{
		actor:          actor,
		address:        addr,
		system:         system,
		parent:         parent,
		children:       make(map[string]*PID),
		mailbox:        config.mailbox,
		processing:     atomic.NewInt32(idle),
		running:        atomic.NewBool(false),
		stopping:       atomic.NewBool(false),
		stopped:        make(chan struct{}),
		logger:         system.logger.With("actor", addr.Name()),
		initMaxRetries: config.initMaxRetries,
		initTimeout:    config.initTimeout,
	}

	if pid.mailbox == nil {
		pid.mailbox = NewUnboundedMailbox()
	}

	if err := pid.init(ctx); err != nil {
		return nil, err
	}

	pid.running.Store(true)
	if err := pid.doReceive(newReceiveContext(ctx, address.NoSender(), nil, pid, new(PostStart))); err != nil {
		return nil, err
	}
	return pid, nil
}

// Name returns the actor name
func (pid *PID) Name() string {
	return pid.address.Name()
}

// Address returns the actor address
func (pid *PID) Address() *address.Address {
	return pid.address
}

// Parent returns the parent PID or nil for top-level actors
func (pid *PID) Parent() *PID {
	return pid.parent
}

// ActorSystem returns the actor system the actor belongs to
func (pid *PID) ActorSystem() ActorSystem {
	return pid.system
}

// Logger returns the actor logger
func (pid *PID) Logger() log.Logger {
	return pid.logger
}

// IsRunning returns true when the actor is alive and ready to process messages
func (pid *PID) IsRunning() bool {
	return pid != nil && pid.running.Load()
}

// MailboxSize returns the number of messages waiting in the mailbox
func (pid *PID) MailboxSize() int64 {
	return pid.mailbox.Len()
}

// Children returns the running children sorted by name
func (pid *PID) Children() []*PID {
	pid.mu.RLock()
	children := make([]*PID, 0, len(pid.children))
	for _, child := range pid.children {
		if child.IsRunning() {
			children = append(children, child)
		}
	}
	pid.mu.RUnlock()

	sort.Slice(children, func(i, j int) bool {
		return children[i].Name() < children[j].Name()
	})
	return children
}

// Child returns the running child with the given name
func (pid *PID) Child(name string) (*PID, error) {
	pid.mu.RLock()
	child, ok := pid.children[name]
	pid.mu.RUnlock()
	if !ok || !child.IsRunning() {
		return nil, gerrors.NewErrActorNotFound(name)
	}
	return child, nil
}

// SpawnChild creates a child actor
func (pid *PID) SpawnChild(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error) {
	if !pid.IsRunning() {
		return nil, gerrors.ErrDead
	}

	child, err := pid.system.spawn(ctx, name, actor, pid, opts...)
	if err != nil {
		return nil, err
	}

	pid.mu.Lock()
	pid.children[name] = child
	pid.mu.Unlock()
	return child, nil
}

// Tell sends an asynchronous message to another actor
func (pid *PID) Tell(ctx context.Context, to *PID, message any) error {
	return tell(ctx, pid.Address(), pid, to, message)
}

// Ask sends a synchronous message to another actor and waits for its reply.
// An error sent back by the receiver is returned as the error.
func (pid *PID) Ask(ctx context.Context, to *PID, message any, timeout time.Duration) (any, error) {
	return ask(ctx, pid.Address(), pid, to, message, timeout)
}

// Shutdown stops the actor and its children. Messages queued before the stop
// request are processed first.
func (pid *PID) Shutdown(ctx context.Context) error {
	if pid == nil {
		return nil
	}

	pid.stopAsync(ctx)
	select {
	case <-pid.stopped:
		return pid.stopErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (pid *PID) stopAsync(ctx context.Context) {
	if !pid.IsRunning() || !pid.stopping.CompareAndSwap(false, true) {
		return
	}
	pill := newReceiveContext(ctx, address.NoSender(), nil, pid, new(poisonPill))
	if err := pid.mailbox.Enqueue(pill); err != nil {
		// a full bounded mailbox: keep offering the pill until there is room
		go func() {
			for pid.mailbox.Enqueue(pill) != nil {
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Millisecond):
				}
			}
			pid.process()
		}()
		return
	}
	pid.process()
}

func (pid *PID) doReceive(received *ReceiveContext) error {
	if !pid.IsRunning() {
		return gerrors.ErrDead
	}
	if err := pid.mailbox.Enqueue(received); err != nil {
		return err
	}
	pid.process()
	return nil
}

// process starts the processing loop when the actor is idle.
func (pid *PID) process() {
	if !pid.processing.CompareAndSwap(idle, busy) {
		return
	}

	go func() {
		for {
			for received := pid.mailbox.Dequeue(); received != nil; received = pid.mailbox.Dequeue() {
				switch received.Message().(type) {
				case *poisonPill:
					pid.stop(received.Context())
				default:
					if !pid.IsRunning() {
						received.reply.send(gerrors.ErrDead)
						continue
					}
					pid.handleReceived(received)
				}
			}

			pid.processing.Store(idle)
			if !pid.mailbox.IsEmpty() && pid.processing.CompareAndSwap(idle, busy) {
				continue
			}
			return
		}
	}()
}

func (pid *PID) handleReceived(received *ReceiveContext) {
	defer pid.recovery(received)
	pid.actor.Receive(received)
}

// recovery keeps the actor alive when Receive panics: the panic is logged and
// the asker, if any, gets an InternalError.
func (pid *PID) recovery(received *ReceiveContext) {
	r := recover()
	if r == nil {
		return
	}

	pc, fn, line, _ := runtime.Caller(2)
	var err error
	if cause, ok := r.(error); ok {
		err = fmt.Errorf("%w at %s[%s:%d]", cause, runtime.FuncForPC(pc).Name(), fn, line)
	} else {
		err = fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line)
	}

	panicErr := gerrors.NewPanicError(err)
	pid.logger.Errorf("recovered while handling %T: %v", received.Message(), panicErr)
	received.Err(gerrors.NewInternalError(panicErr))
}

// init runs PreStart with retries
func (pid *PID) init(ctx context.Context) error {
	pid.logger.Debugf("initialization process started for actor %s", pid.Name())

	cctx, cancel := context.WithTimeout(ctx, pid.initTimeout)
	defer cancel()

	retrier := retry.NewRetrier(pid.initMaxRetries, time.Millisecond, pid.initTimeout)
	if err := retrier.RunContext(cctx, func(ctx context.Context) error {
		return pid.actor.PreStart(newContext(ctx, pid))
	}); err != nil {
		pid.logger.Errorf("failed to initialize actor %s: %v", pid.Name(), err)
		return gerrors.NewErrInitFailure(err)
	}
	return nil
}

func (pid *PID) stop(ctx context.Context) {
	pid.running.Store(false)

	for _, child := range pid.Children() {
		if err := child.Shutdown(ctx); err != nil {
			pid.logger.Warnf("failed to stop child %s: %v", child.Name(), err)
		}
	}

	err := pid.actor.PostStop(newContext(ctx, pid))
	if err != nil {
		pid.logger.Errorf("actor %s PostStop failed: %v", pid.Name(), err)
	}

	pid.system.unregister(pid)
	if pid.parent != nil {
		pid.parent.removeChild(pid)
	}

	for received := pid.mailbox.Dequeue(); received != nil; received = pid.mailbox.Dequeue() {
		received.reply.send(gerrors.ErrDead)
	}
	pid.mailbox.Dispose()

	pid.stopErr = err
	close(pid.stopped)
	pid.logger.Debugf("actor %s stopped", pid.Name())
}

func (pid *PID) removeChild(child *PID) {
	pid.mu.Lock()
	if current, ok := pid.children[child.Name()]; ok && current == child {
		delete(pid.children, child.Name())
	}
	pid.mu.Unlock()
}
