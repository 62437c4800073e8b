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

// Package remote carries actor messages between actor systems over NATS.
//
// Every actor system subscribes to quizakt.<system>.> and receives the
// messages addressed to its actors. A Tell is a request acknowledged by the
// receiving system so that an unreachable client is detected immediately and
// reported to the dead-client tracker. Client gateways announce closed
// connections on quizakt.clients.closed.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
)

const (
	subjectPrefix = "quizakt"
	// ClosedSubject is where closed client connections are announced
	ClosedSubject = subjectPrefix + ".clients.closed"
	// DefaultTellTimeout bounds how long a Tell waits for its acknowledgement
	DefaultTellTimeout = 2 * time.Second
)

// NATS implements actor.Remoting on a NATS connection
type NATS struct {
	url         string
	compression bool
	tellTimeout time.Duration
	registry    *Registry
	logger      log.Logger

	mu            sync.Mutex
	conn          *nats.Conn
	codec         *codec
	system        actor.ActorSystem
	subscriptions []*nats.Subscription
	started       *atomic.Bool
}

var _ actor.Remoting = (*NATS)(nil)

// New creates a NATS remoting for the server at url, e.g. nats://127.0.0.1:4222
func New(url string, opts ...Option) *NATS {
	remoting := &NATS{
		url:         url,
		tellTimeout: DefaultTellTimeout,
		registry:    NewRegistry(),
		logger:      log.DefaultLogger,
		started:     atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt.Apply(remoting)
	}
	return remoting
}

// Registry returns the message registry
func (r *NATS) Registry() *Registry {
	return r.registry
}

// Start connects to NATS and serves the inbound traffic of system
func (r *NATS) Start(_ context.Context, system actor.ActorSystem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started.Load() {
		return nil
	}

	codec, err := newCodec(r.compression)
	if err != nil {
		return err
	}

	opts := nats.GetDefaultOptions()
	opts.Url = r.url
	opts.Name = system.Name()
	opts.ReconnectWait = 2 * time.Second
	opts.MaxReconnect = -1

	var connection *nats.Conn
	retrier := retry.NewRetrier(5, 100*time.Millisecond, opts.ReconnectWait)
	if err := retrier.Run(func() error {
		var err error
		connection, err = opts.Connect()
		return err
	}); err != nil {
		codec.close()
		return fmt.Errorf("remote: connect to %s: %w", r.url, err)
	}

	r.conn = connection
	r.codec = codec
	r.system = system

	inbound, err := connection.Subscribe(systemSubject(system.Name())+".>", r.handle)
	if err != nil {
		r.closeLocked()
		return fmt.Errorf("remote: subscribe: %w", err)
	}

	closed, err := connection.Subscribe(ClosedSubject, r.handleClosed)
	if err != nil {
		r.closeLocked()
		return fmt.Errorf("remote: subscribe: %w", err)
	}

	r.subscriptions = []*nats.Subscription{inbound, closed}
	if err := connection.Flush(); err != nil {
		r.closeLocked()
		return fmt.Errorf("remote: flush: %w", err)
	}

	r.started.Store(true)
	r.logger.Infof("remoting of %s connected to %s", system.Name(), connection.ConnectedUrl())
	return nil
}

// Stop drains the subscriptions and closes the connection
func (r *NATS) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started.CompareAndSwap(true, false) {
		return nil
	}

	var err error
	for _, subscription := range r.subscriptions {
		if subscription != nil && subscription.IsValid() {
			if e := subscription.Unsubscribe(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}
	r.closeLocked()
	return err
}

// Tell delivers message to the actor at address to and waits for the
// receiving system to acknowledge it
func (r *NATS) Tell(ctx context.Context, from, to *address.Address, message any) error {
	reply, err := r.request(ctx, from, to, message, false, r.tellTimeout)
	if err != nil {
		return err
	}
	return reply.err()
}

// Ask delivers message to the remote actor and waits for its reply
func (r *NATS) Ask(ctx context.Context, from, to *address.Address, message any, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return nil, gerrors.ErrInvalidTimeout
	}

	reply, err := r.request(ctx, from, to, message, true, timeout)
	if err != nil {
		return nil, err
	}
	if err := reply.err(); err != nil {
		return nil, err
	}
	if reply.Type == "" {
		return nil, nil
	}
	return r.registry.Decode(reply.Type, reply.Payload)
}

// AnnounceClosed tells every connected system that the client system owning
// addr has closed its connection
func (r *NATS) AnnounceClosed(addr *address.Address) error {
	if !r.started.Load() {
		return errNotStarted
	}
	text, err := addr.MarshalText()
	if err != nil {
		return err
	}
	return r.conn.Publish(ClosedSubject, text)
}

func (r *NATS) request(ctx context.Context, from, to *address.Address, message any, ask bool, timeout time.Duration) (*response, error) {
	if !r.started.Load() {
		return nil, gerrors.NewErrRemoteSendFailure(errNotStarted)
	}

	name, payload, err := r.registry.Encode(message)
	if err != nil {
		return nil, gerrors.NewErrRemoteSendFailure(err)
	}

	sender, _ := from.MarshalText()
	env := &envelope{
		From:    string(sender),
		To:      to.String(),
		Type:    name,
		Payload: payload,
		Ask:     ask,
	}
	if ask {
		env.TimeoutMs = timeout.Milliseconds()
	}

	msg, err := r.codec.frame(actorSubject(to), env)
	if err != nil {
		return nil, gerrors.NewErrRemoteSendFailure(err)
	}

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	answer, err := r.conn.RequestMsgWithContext(rctx, msg)
	if err != nil {
		switch {
		case ask && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout)):
			return nil, gerrors.NewTimeoutError(to.String())
		default:
			return nil, gerrors.NewErrRemoteSendFailure(err)
		}
	}

	reply := new(response)
	if err := r.codec.unframe(answer, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// handle serves a message addressed to an actor of this system. Tells are
// handed over in arrival order on the subscription goroutine; asks run on
// their own goroutine so a slow actor does not hold the subscription.
func (r *NATS) handle(msg *nats.Msg) {
	env := new(envelope)
	if err := r.codec.unframe(msg, env); err != nil {
		r.logger.Warnf("dropping invalid remote message on %s: %v", msg.Subject, err)
		r.respond(msg, nil, err)
		return
	}

	// a remote sender must name a system other than this one, otherwise it
	// would be taken for an internal caller
	if env.From == "" {
		r.respond(msg, nil, gerrors.NewErrInvalidRemoteMessage(errors.New("sender is required")))
		return
	}
	from, err := address.Parse(env.From)
	if err != nil {
		r.respond(msg, nil, gerrors.NewErrInvalidRemoteMessage(err))
		return
	}
	if from.IsNoSender() || from.System() == r.system.Name() {
		r.logger.Warnf("rejecting remote message on %s claiming sender %s", msg.Subject, env.From)
		r.respond(msg, nil, gerrors.NewErrInvalidRemoteMessage(fmt.Errorf("sender %s is not a remote system", env.From)))
		return
	}

	to, err := address.Parse(env.To)
	if err != nil {
		r.respond(msg, nil, gerrors.NewErrInvalidRemoteMessage(err))
		return
	}

	message, err := r.registry.Decode(env.Type, env.Payload)
	if err != nil {
		r.respond(msg, nil, gerrors.NewErrInvalidRemoteMessage(err))
		return
	}

	pid, err := r.system.LocalActor(to.Name())
	if err != nil {
		r.respond(msg, nil, err)
		return
	}

	if !env.Ask {
		r.respond(msg, nil, actor.Tell(context.Background(), pid, message, actor.WithSender(from)))
		return
	}

	timeout := time.Duration(env.TimeoutMs) * time.Millisecond
	go func() {
		reply, err := actor.Ask(context.Background(), pid, message, timeout, actor.WithSender(from))
		r.respond(msg, reply, err)
	}()
}

func (r *NATS) handleClosed(msg *nats.Msg) {
	addr := new(address.Address)
	if err := addr.UnmarshalText(msg.Data); err != nil || addr.IsNoSender() {
		r.logger.Warnf("dropping invalid closed announcement: %q", string(msg.Data))
		return
	}
	if addr.System() == r.system.Name() {
		return
	}
	r.system.DeadClients().ReportClosed(addr)
}

func (r *NATS) respond(msg *nats.Msg, reply any, err error) {
	if msg.Reply == "" {
		return
	}

	answer := new(response)
	switch {
	case err != nil:
		answer.Kind = gerrors.KindOf(err)
		answer.Error = err.Error()
	case reply != nil:
		name, payload, encodeErr := r.registry.Encode(reply)
		if encodeErr != nil {
			answer.Kind = gerrors.KindInternal
			answer.Error = encodeErr.Error()
			break
		}
		answer.Type = name
		answer.Payload = payload
	}

	framed, err := r.codec.frame(msg.Reply, answer)
	if err != nil {
		r.logger.Errorf("failed to encode remote reply: %v", err)
		return
	}
	if err := msg.RespondMsg(framed); err != nil {
		r.logger.Warnf("failed to send remote reply: %v", err)
	}
}

func (r *NATS) closeLocked() {
	if r.conn != nil {
		r.conn.Close()
		r.conn = nil
	}
	if r.codec != nil {
		r.codec.close()
		r.codec = nil
	}
	r.subscriptions = nil
}

func systemSubject(system string) string {
	return subjectPrefix + "." + system
}

func actorSubject(to *address.Address) string {
	return systemSubject(to.System()) + "." + to.Name()
}
