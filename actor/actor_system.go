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
	"regexp"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/deadclient"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
)

const (
	// DefaultShutdownTimeout is the time allowed for actors to stop
	DefaultShutdownTimeout = 30 * time.Second
	// DefaultHost is the host advertised when none is configured
	DefaultHost = "127.0.0.1"
)

var systemNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_]*$`)

// ActorSystem hosts actors and routes messages between them.
type ActorSystem interface {
	// Name returns the actor system name
	Name() string
	// Host returns the host advertised in local addresses
	Host() string
	// Port returns the port advertised in local addresses
	Port() int
	// Start starts the actor system
	Start(ctx context.Context) error
	// Stop stops every actor, the scheduler and the remoting
	Stop(ctx context.Context) error
	// Running returns true when the actor system is running
	Running() bool
	// Spawn creates a top-level actor
	Spawn(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error)
	// LocalActor returns the running local actor with the given name
	LocalActor(name string) (*PID, error)
	// ActorOf resolves the logical name of a local actor to its address
	ActorOf(ctx context.Context, name string) (*address.Address, error)
	// Actors returns the running local actors sorted by name
	Actors() []*PID
	// Kill stops the local actor with the given name
	Kill(ctx context.Context, name string) error
	// Deliver sends message to the actor at the given address, local or remote
	Deliver(ctx context.Context, from, to *address.Address, message any) error
	// AskAddress asks the actor at the given address, local or remote
	AskAddress(ctx context.Context, from, to *address.Address, message any, timeout time.Duration) (any, error)
	// Schedule delivers message to pid every interval and returns a reference
	Schedule(ctx context.Context, message any, pid *PID, interval time.Duration) (string, error)
	// CancelSchedule cancels a schedule created with Schedule
	CancelSchedule(reference string) error
	// DeadClients returns the tracker of closed clients
	DeadClients() *deadclient.Tracker
	// Logger returns the actor system logger
	Logger() log.Logger
}

type actorSystem struct {
	name            string
	host            string
	port            int
	logger          log.Logger
	remoting        Remoting
	deadClients     *deadclient.Tracker
	shutdownTimeout time.Duration
	scheduler       *scheduler
	started         *atomic.Bool

	mu     sync.RWMutex
	actors map[string]*PID
}

var _ ActorSystem = (*actorSystem)(nil)

// NewActorSystem creates an instance of ActorSystem
func NewActorSystem(name string, opts ...Option) (ActorSystem, error) {
	if name == "" {
		return nil, gerrors.ErrNameRequired
	}
	if !systemNamePattern.MatchString(name) {
		return nil, gerrors.ErrInvalidActorSystemName
	}

	system := &actorSystem{
		name:            name,
		host:            DefaultHost,
		logger:          log.DefaultLogger,
		shutdownTimeout: DefaultShutdownTimeout,
		started:         atomic.NewBool(false),
		actors:          make(map[string]*PID),
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	if system.deadClients == nil {
		system.deadClients = deadclient.New(deadclient.WithLogger(system.logger))
	}

	system.logger = system.logger.With("system", name)
	system.scheduler = newScheduler(system.logger, system.shutdownTimeout)
	return system, nil
}

func (x *actorSystem) Name() string {
	return x.name
}

func (x *actorSystem) Host() string {
	return x.host
}

func (x *actorSystem) Port() int {
	return x.port
}

func (x *actorSystem) Logger() log.Logger {
	return x.logger
}

func (x *actorSystem) DeadClients() *deadclient.Tracker {
	return x.deadClients
}

func (x *actorSystem) Running() bool {
	return x.started.Load()
}

func (x *actorSystem) Start(ctx context.Context) error {
	if !x.started.CompareAndSwap(false, true) {
		return gerrors.ErrActorSystemAlreadyStarted
	}

	x.scheduler.Start(ctx)
	if x.remoting != nil {
		if err := x.remoting.Start(ctx, x); err != nil {
			x.scheduler.Stop(ctx)
			x.started.Store(false)
			return err
		}
	}

	x.logger.Infof("actor system %s started", x.name)
	return nil
}

func (x *actorSystem) Stop(ctx context.Context) error {
	if !x.started.Load() {
		return gerrors.ErrActorSystemNotStarted
	}

	ctx, cancel := context.WithTimeout(ctx, x.shutdownTimeout)
	defer cancel()

	x.scheduler.Stop(ctx)

	eg, egCtx := errgroup.WithContext(ctx)
	for _, pid := range x.Actors() {
		if pid.Parent() != nil {
			continue
		}
		eg.Go(func() error {
			return pid.Shutdown(egCtx)
		})
	}

	err := eg.Wait()
	if x.remoting != nil {
		err = multierr.Append(err, x.remoting.Stop(ctx))
	}

	x.started.Store(false)
	x.logger.Infof("actor system %s stopped", x.name)
	return err
}

func (x *actorSystem) Spawn(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error) {
	return x.spawn(ctx, name, actor, nil, opts...)
}

func (x *actorSystem) LocalActor(name string) (*PID, error) {
	x.mu.RLock()
	pid, ok := x.actors[name]
	x.mu.RUnlock()
	if !ok || !pid.IsRunning() {
		return nil, gerrors.NewErrActorNotFound(name)
	}
	return pid, nil
}

func (x *actorSystem) ActorOf(_ context.Context, name string) (*address.Address, error) {
	pid, err := x.LocalActor(name)
	if err != nil {
		return nil, err
	}
	return pid.Address(), nil
}

func (x *actorSystem) Actors() []*PID {
	x.mu.RLock()
	pids := make([]*PID, 0, len(x.actors))
	for _, pid := range x.actors {
		if pid.IsRunning() {
			pids = append(pids, pid)
		}
	}
	x.mu.RUnlock()

	sort.Slice(pids, func(i, j int) bool {
		return pids[i].Name() < pids[j].Name()
	})
	return pids
}

func (x *actorSystem) Kill(ctx context.Context, name string) error {
	pid, err := x.LocalActor(name)
	if err != nil {
		return err
	}
	return pid.Shutdown(ctx)
}

func (x *actorSystem) Deliver(ctx context.Context, from, to *address.Address, message any) error {
	if to.IsNoSender() {
		return nil
	}

	if to.System() == x.name {
		pid, err := x.LocalActor(to.Name())
		if err != nil {
			return err
		}
		return tell(ctx, from, x.localSender(from), pid, message)
	}

	if x.remoting == nil {
		return gerrors.ErrRemotingDisabled
	}

	if err := x.remoting.Tell(ctx, from, to, message); err != nil {
		x.deadClients.ReportError(to, err)
		return err
	}
	return nil
}

func (x *actorSystem) AskAddress(ctx context.Context, from, to *address.Address, message any, timeout time.Duration) (any, error) {
	if to.System() == x.name {
		pid, err := x.LocalActor(to.Name())
		if err != nil {
			return nil, err
		}
		return ask(ctx, from, x.localSender(from), pid, message, timeout)
	}

	if x.remoting == nil {
		return nil, gerrors.ErrRemotingDisabled
	}
	return x.remoting.Ask(ctx, from, to, message, timeout)
}

func (x *actorSystem) Schedule(_ context.Context, message any, pid *PID, interval time.Duration) (string, error) {
	if !x.started.Load() {
		return "", gerrors.ErrActorSystemNotStarted
	}
	return x.scheduler.Schedule(message, pid, interval)
}

func (x *actorSystem) CancelSchedule(reference string) error {
	return x.scheduler.Cancel(reference)
}

func (x *actorSystem) localSender(from *address.Address) *PID {
	if from.IsNoSender() || from.System() != x.name {
		return nil
	}
	pid, _ := x.LocalActor(from.Name())
	return pid
}

func (x *actorSystem) spawn(ctx context.Context, name string, actor Actor, parent *PID, opts ...SpawnOption) (*PID, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	var addr *address.Address
	if parent != nil {
		addr = address.NewWithParent(name, parent.Address())
	} else {
		addr = address.New(name, x.name, x.host, x.port)
	}
	if err := addr.Validate(); err != nil {
		return nil, err
	}

	// reserve the name while PreStart runs
	x.mu.Lock()
	if _, ok := x.actors[name]; ok {
		x.mu.Unlock()
		return nil, gerrors.NewErrActorAlreadyExists(name)
	}
	x.actors[name] = nil
	x.mu.Unlock()

	pid, err := newPID(ctx, x, addr, actor, parent, newSpawnConfig(opts...))

	x.mu.Lock()
	if err != nil {
		delete(x.actors, name)
	} else {
		x.actors[name] = pid
	}
	x.mu.Unlock()
	return pid, err
}

func (x *actorSystem) unregister(pid *PID) {
	x.mu.Lock()
	if current, ok := x.actors[pid.Name()]; ok && current == pid {
		delete(x.actors, pid.Name())
	}
	x.mu.Unlock()
}
