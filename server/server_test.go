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

package server

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/config"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/remote"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store/memory"
	"github.com/tochemey/quizakt/stores"
	"github.com/tochemey/quizakt/testkit"
)

const askTimeout = 3 * time.Second

func testConfig() *config.Config {
	return &config.Config{
		System: config.System{Name: "server", Host: "127.0.0.1", Port: 7777, ShutdownTimeout: 5 * time.Second},
		Log:    config.Log{Level: "debug"},
		Store:  config.Store{Backend: config.MemoryBackend},
		Remoting: config.Remoting{
			TellTimeout: time.Second,
		},
		Actors: config.Actors{CacheIdle: time.Hour, ReapInterval: time.Minute, AskTimeout: askTimeout},
	}
}

func startServer(ctx context.Context, t *testing.T, cfg *config.Config, opts ...Option) *Server {
	t.Helper()
	server := New(cfg, append([]Option{WithLogger(log.DiscardLogger)}, opts...)...)
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() { _ = server.Stop(context.Background()) })
	return server
}

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: dynaport.Get(1)[0],
	})
	require.NoError(t, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}
	t.Cleanup(serv.Shutdown)
	return serv
}

func TestServer(t *testing.T) {
	ctx := context.Background()

	t.Run("With the memory backend", func(t *testing.T) {
		server := startServer(ctx, t, testConfig())

		actors := server.Actors()
		require.NotNil(t, actors)
		for _, name := range []string{stores.QuizzesName, stores.UsersName, stores.SessionsName, stores.FingerprintsName} {
			pid, err := server.System().LocalActor(name)
			require.NoError(t, err)
			assert.True(t, pid.IsRunning())
		}

		reply, err := actor.Ask(ctx, actors.Users, &stores.CreateUser{User: document.Document{"uid": "u1", "name": "Ada", "role": "TEACHER"}}, askTimeout)
		require.NoError(t, err)
		assert.Equal(t, &stateful.Created{UID: "u1"}, reply)

		assert.ErrorIs(t, server.Start(ctx), gerrors.ErrActorSystemAlreadyStarted)

		require.NoError(t, server.Stop(ctx))
		assert.Nil(t, server.System())
		assert.NoError(t, server.Stop(ctx))
	})
	t.Run("With a given store", func(t *testing.T) {
		st := memory.New()
		server := startServer(ctx, t, testConfig(), WithStore(st))
		assert.Same(t, st, server.Store())
	})
	t.Run("With the bolt backend surviving a restart", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Backend = config.BoltBackend
		cfg.Store.Bolt.Path = filepath.Join(t.TempDir(), "quizakt.db")
		cfg.Store.Retries = 2

		server := New(cfg, WithLogger(log.DiscardLogger))
		require.NoError(t, server.Start(ctx))
		_, err := actor.Ask(ctx, server.Actors().Users, &stores.CreateUser{User: document.Document{"uid": "u1", "name": "Ada", "role": "STUDENT"}}, askTimeout)
		require.NoError(t, err)
		require.NoError(t, server.Stop(ctx))

		restarted := startServer(ctx, t, cfg)
		reply, err := actor.Ask(ctx, restarted.Actors().Users, &stores.GetUser{UID: "u1"}, askTimeout)
		require.NoError(t, err)
		assert.Equal(t, "Ada", reply.(*stores.Snapshot).Entity["name"])
	})
	t.Run("With an unknown backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Backend = "cassandra"
		server := New(cfg, WithLogger(log.DiscardLogger))
		require.Error(t, server.Start(ctx))
		assert.Nil(t, server.System())
	})
	t.Run("With a client reaching the domain actors over NATS", func(t *testing.T) {
		serv := startNatsServer(t)
		url := fmt.Sprintf("nats://%s", serv.Addr().String())

		cfg := testConfig()
		cfg.Remoting.URL = url
		cfg.Remoting.Compression = true
		server := startServer(ctx, t, cfg)
		actors := server.Actors()

		_, err := actor.Ask(ctx, actors.Sessions, &stores.StoreSession{Session: document.Document{
			"uid":    "t1",
			"client": "client-1",
			"role":   "TEACHER",
		}}, askTimeout)
		require.NoError(t, err)

		client := testkit.NewSystem(ctx, t, "client-1", nil, actor.WithRemoting(remote.New(url,
			remote.WithLogger(log.DiscardLogger),
			remote.WithRegistry(Registry()),
			remote.WithCompression())))
		probe := testkit.NewProbe(ctx, t, client, "inbox")
		quizzes := actors.Quizzes.Address()

		reply, err := client.AskAddress(ctx, probe.Address(), quizzes, &stores.CreateQuiz{Quiz: document.Document{"title": "Go basics"}}, askTimeout)
		require.NoError(t, err)
		created, ok := reply.(*stateful.Created)
		require.True(t, ok)

		reply, err = client.AskAddress(ctx, probe.Address(), quizzes, &stateful.SubscribeTo{UID: created.UID}, askTimeout)
		require.NoError(t, err)
		assert.IsType(t, new(stateful.Ack), reply)

		_, err = client.AskAddress(ctx, probe.Address(), quizzes, &stores.UpdateQuiz{Changes: document.Document{"uid": created.UID, "title": "Go in depth"}}, askTimeout)
		require.NoError(t, err)

		updated := testkit.ExpectMessageOf[*stateful.Updated](probe)
		assert.Equal(t, "Go in depth", updated.Entity["title"])
		assert.Equal(t, []any{"t1"}, updated.Entity["teachers"])

		// an unknown client resolves to an anonymous student
		stranger := testkit.NewSystem(ctx, t, "client-2", nil, actor.WithRemoting(remote.New(url,
			remote.WithLogger(log.DiscardLogger),
			remote.WithRegistry(Registry()))))
		_, err = stranger.AskAddress(ctx, testkit.NewProbe(ctx, t, stranger, "inbox").Address(), quizzes,
			&stores.CreateQuiz{Quiz: document.Document{"title": "Rust"}}, askTimeout)
		assert.ErrorIs(t, err, gerrors.ErrNotAllowed)
	})
}
