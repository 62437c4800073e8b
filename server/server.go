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

// Package server assembles the quiz service: logger, store, actor system,
// remoting and the domain actors.
package server

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/config"
	"github.com/tochemey/quizakt/deadclient"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/remote"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
	"github.com/tochemey/quizakt/store/bolt"
	"github.com/tochemey/quizakt/store/memory"
	"github.com/tochemey/quizakt/store/postgres"
	"github.com/tochemey/quizakt/store/redis"
	"github.com/tochemey/quizakt/stores"
	"github.com/tochemey/quizakt/telemetry"
)

// Server runs the quiz service
type Server struct {
	cfg       *config.Config
	logger    log.Logger
	store     store.Store
	telemetry *telemetry.Telemetry

	mu       sync.Mutex
	system   actor.ActorSystem
	actors   *stores.Actors
	remoting *remote.NATS
}

// New creates a Server. Nothing runs until Start is called.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt.Apply(s)
	}
	if s.logger == nil {
		s.logger = log.NewZap(cfg.LogLevel(), os.Stdout)
	}
	if s.telemetry == nil {
		s.telemetry = telemetry.New()
	}
	return s
}

// Registry returns the messages the service exchanges with client systems
func Registry() *remote.Registry {
	return remote.NewRegistry(append(stateful.Messages(), stores.Messages()...)...)
}

// Start opens the store, starts the actor system and spawns the domain actors
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system != nil {
		return gerrors.ErrActorSystemAlreadyStarted
	}

	st, err := s.openStore(ctx)
	if err != nil {
		return err
	}

	system, err := actor.NewActorSystem(s.cfg.System.Name, s.systemOptions()...)
	if err != nil {
		return multierr.Append(err, st.Close(ctx))
	}
	if err := system.Start(ctx); err != nil {
		return multierr.Append(err, st.Close(ctx))
	}

	actors, err := stores.Spawn(ctx, system, st,
		stores.WithAskTimeout(s.cfg.Actors.AskTimeout),
		stores.WithCacheIdle(s.cfg.Actors.CacheIdle),
		stores.WithReapInterval(s.cfg.Actors.ReapInterval),
		stores.WithTelemetry(s.telemetry))
	if err != nil {
		return multierr.Combine(err, system.Stop(ctx), st.Close(ctx))
	}

	s.store, s.system, s.actors = st, system, actors
	s.logger.Infof("quiz service %s started with the %s store", system.Name(), s.cfg.Store.Backend)
	return nil
}

// Stop stops the actors, then the remoting and the store
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.system == nil {
		return nil
	}

	err := multierr.Combine(s.system.Stop(ctx), s.store.Close(ctx))
	s.logger.Infof("quiz service %s stopped", s.system.Name())
	s.system, s.actors, s.remoting, s.store = nil, nil, nil, nil
	if zap, ok := s.logger.(*log.Zap); ok {
		err = multierr.Append(err, zap.Flush())
	}
	return err
}

// System returns the running actor system
func (s *Server) System() actor.ActorSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.system
}

// Actors returns the running domain actors
func (s *Server) Actors() *stores.Actors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actors
}

// Store returns the store the actors persist to
func (s *Server) Store() store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

func (s *Server) systemOptions() []actor.Option {
	tracker := deadclient.New(
		deadclient.WithLogger(s.logger),
		deadclient.WithRetention(2*s.cfg.Actors.ReapInterval))

	options := []actor.Option{
		actor.WithLogger(s.logger),
		actor.WithHost(s.cfg.System.Host, s.cfg.System.Port),
		actor.WithDeadClientTracker(tracker),
		actor.WithShutdownTimeout(s.cfg.System.ShutdownTimeout),
	}

	if s.cfg.Remoting.URL != "" {
		remotingOptions := []remote.Option{
			remote.WithLogger(s.logger),
			remote.WithRegistry(Registry()),
			remote.WithTellTimeout(s.cfg.Remoting.TellTimeout),
		}
		if s.cfg.Remoting.Compression {
			remotingOptions = append(remotingOptions, remote.WithCompression())
		}
		s.remoting = remote.New(s.cfg.Remoting.URL, remotingOptions...)
		options = append(options, actor.WithRemoting(s.remoting))
	}
	return options
}

// openStore opens the configured backend unless a store was given
func (s *Server) openStore(ctx context.Context) (store.Store, error) {
	if s.store != nil {
		return s.store, nil
	}

	var (
		st  store.Store
		err error
	)
	switch s.cfg.Store.Backend {
	case config.MemoryBackend:
		st = memory.New()
	case config.BoltBackend:
		st, err = bolt.Open(s.cfg.Store.Bolt.Path)
	case config.PostgresBackend:
		st, err = postgres.Open(ctx, s.cfg.Store.Postgres)
	case config.RedisBackend:
		st, err = redis.Open(ctx, s.cfg.Store.Redis)
	default:
		err = fmt.Errorf("store backend %q is unknown", s.cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open the %s store: %w", s.cfg.Store.Backend, err)
	}

	if s.cfg.Store.Retries > 0 {
		st = store.WithRetries(st,
			store.WithMaxRetries(s.cfg.Store.Retries),
			store.WithRetryLogger(s.logger))
	}
	return st, nil
}
