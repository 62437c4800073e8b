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

package remote

import (
	"context"
	"fmt"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/testkit"
)

type greet struct {
	Name string `json:"name"`
}

type greeting struct {
	Text string `json:"text"`
}

type reject struct{}

// greeter answers greet and rejects reject with a typed error
type greeter struct{}

func (greeter) PreStart(*actor.Context) error { return nil }
func (greeter) PostStop(*actor.Context) error { return nil }
func (greeter) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *greet:
		ctx.Response(&greeting{Text: "hello " + msg.Name + " from " + ctx.SenderAddress().System()})
	case *reject:
		ctx.Err(gerrors.NewAuthorizationError("reject", "STUDENT"))
	default:
		ctx.Unhandled()
	}
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

func newRemoting(serv *natsserver.Server, opts ...Option) *NATS {
	options := []Option{
		WithLogger(log.DiscardLogger),
		WithRegistry(NewRegistry(new(greet), new(greeting), new(reject))),
		WithTellTimeout(time.Second),
	}
	options = append(options, opts...)
	return New(fmt.Sprintf("nats://%s", serv.Addr().String()), options...)
}

func TestNATS(t *testing.T) {
	ctx := context.Background()

	for _, compressed := range []bool{false, true} {
		t.Run(fmt.Sprintf("With compression=%v", compressed), func(t *testing.T) {
			serv := startNatsServer(t)

			var opts []Option
			if compressed {
				opts = append(opts, WithCompression())
			}

			server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv, opts...)))
			client := testkit.NewSystem(ctx, t, "client-1", nil, actor.WithRemoting(newRemoting(serv)))

			pid, err := server.Spawn(ctx, "greeter", greeter{})
			require.NoError(t, err)

			probe := testkit.NewProbe(ctx, t, client, "inbox")

			reply, err := client.AskAddress(ctx, probe.Address(), pid.Address(), &greet{Name: "ada"}, 2*time.Second)
			require.NoError(t, err)
			assert.Equal(t, &greeting{Text: "hello ada from client-1"}, reply)
		})
	}

	t.Run("With a Tell reaching the remote actor", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))
		client := testkit.NewSystem(ctx, t, "client-1", nil, actor.WithRemoting(newRemoting(serv)))

		probe := testkit.NewProbe(ctx, t, client, "inbox")
		notifier := address.New("notifier", server.Name(), "127.0.0.1", 0)
		require.NoError(t, server.Deliver(ctx, notifier, probe.Address(), &greeting{Text: "pushed"}))

		probe.ExpectMessage(&greeting{Text: "pushed"})
	})
	t.Run("With a typed error crossing the wire", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))
		client := testkit.NewSystem(ctx, t, "client-1", nil, actor.WithRemoting(newRemoting(serv)))

		pid, err := server.Spawn(ctx, "greeter", greeter{})
		require.NoError(t, err)

		probe := testkit.NewProbe(ctx, t, client, "inbox")
		_, err = client.AskAddress(ctx, probe.Address(), pid.Address(), new(reject), 2*time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrNotAllowed)
	})
	t.Run("With senders posing as the receiving system rejected", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))
		remoting := newRemoting(serv)
		testkit.NewSystem(ctx, t, "client-1", nil, actor.WithRemoting(remoting))

		pid, err := server.Spawn(ctx, "greeter", greeter{})
		require.NoError(t, err)

		for _, from := range []*address.Address{
			address.NoSender(),
			address.New("inbox", server.Name(), "127.0.0.1", 0),
		} {
			_, err = remoting.Ask(ctx, from, pid.Address(), &greet{Name: "ada"}, 2*time.Second)
			assert.ErrorIs(t, err, gerrors.ErrInvalidRemoteMessage)
			assert.ErrorIs(t, remoting.Tell(ctx, from, pid.Address(), &greet{Name: "ada"}), gerrors.ErrInvalidRemoteMessage)
		}

		reply, err := remoting.Ask(ctx, address.New("inbox", "client-1", "127.0.0.1", 0), pid.Address(), &greet{Name: "ada"}, 2*time.Second)
		require.NoError(t, err)
		assert.Equal(t, &greeting{Text: "hello ada from client-1"}, reply)
	})
	t.Run("With an unreachable client reported to the tracker", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))

		gone := address.New("inbox", "client-9", "127.0.0.1", 0)
		err := server.Deliver(ctx, address.NoSender(), gone, &greeting{Text: "anyone?"})
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrRemoteSendFailure)
		assert.True(t, server.DeadClients().IsClosed(gone))
	})
	t.Run("With a closed announcement", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))
		gateway := newRemoting(serv)
		client := testkit.NewSystem(ctx, t, "client-2", nil, actor.WithRemoting(gateway))

		closed := address.New("inbox", client.Name(), "127.0.0.1", 0)
		require.NoError(t, gateway.AnnounceClosed(closed))

		require.Eventually(t, func() bool {
			return server.DeadClients().IsClosed(closed)
		}, 2*time.Second, 10*time.Millisecond)
		assert.False(t, client.DeadClients().IsClosed(closed))
	})
	t.Run("With an unregistered message", func(t *testing.T) {
		serv := startNatsServer(t)
		server := testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(newRemoting(serv)))

		to := address.New("inbox", "client-1", "127.0.0.1", 0)
		err := server.Deliver(ctx, address.NoSender(), to, struct{}{})
		assert.ErrorIs(t, err, gerrors.ErrRemoteSendFailure)
	})
	t.Run("With an ask timing out", func(t *testing.T) {
		serv := startNatsServer(t)
		remoting := newRemoting(serv)
		testkit.NewSystem(ctx, t, "server", nil, actor.WithRemoting(remoting))

		// nobody answers on this subject before the deadline
		sub, err := remoting.conn.Subscribe(systemSubject("silent")+".>", func(*nats.Msg) {})
		require.NoError(t, err)
		defer func() { _ = sub.Unsubscribe() }()

		to := address.New("inbox", "silent", "127.0.0.1", 0)
		_, err = remoting.Ask(ctx, address.NoSender(), to, &greet{Name: "x"}, 100*time.Millisecond)
		assert.ErrorIs(t, err, gerrors.ErrRequestTimeout)
	})
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(new(greet))

	name, payload, err := registry.Encode(&greet{Name: "ada"})
	require.NoError(t, err)
	assert.Equal(t, "github.com/tochemey/quizakt/remote.greet", name)

	decoded, err := registry.Decode(name, payload)
	require.NoError(t, err)
	assert.Equal(t, &greet{Name: "ada"}, decoded)

	_, _, err = registry.Encode(&greeting{})
	assert.Error(t, err)
	_, err = registry.Decode("unknown", nil)
	assert.Error(t, err)
}
