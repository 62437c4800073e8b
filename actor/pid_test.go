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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/address"
	gerrors "github.com/tochemey/quizakt/errors"
)

func TestPID(t *testing.T) {
	ctx := context.Background()

	t.Run("With PostStart first", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		_, err := system.Spawn(ctx, "tester", actor)
		require.NoError(t, err)

		select {
		case <-actor.started:
		case <-time.After(time.Second):
			t.Fatal("PostStart not received")
		}
	})
	t.Run("With Ask", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		reply, err := Ask(ctx, pid, &ping{Value: 1}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, &pong{Value: 2}, reply)
	})
	t.Run("With Ask returning the replied error", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		_, err = Ask(ctx, pid, new(fail), time.Second)
		require.EqualError(t, err, "failed")
	})
	t.Run("With Ask timeout", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		_, err = Ask(ctx, pid, &slow{Duration: 200 * time.Millisecond}, 20*time.Millisecond)
		require.ErrorIs(t, err, gerrors.ErrRequestTimeout)

		// the actor is not interrupted and keeps serving
		reply, err := Ask(ctx, pid, &ping{Value: 10}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, &pong{Value: 11}, reply)
	})
	t.Run("With invalid timeout", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		_, err = Ask(ctx, pid, &ping{}, 0)
		require.ErrorIs(t, err, gerrors.ErrInvalidTimeout)
	})
	t.Run("With nil message", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)
		require.ErrorIs(t, Tell(ctx, pid, nil), gerrors.ErrInvalidMessage)
	})
	t.Run("With unknown message", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		_, err = Ask(ctx, pid, "hello", time.Second)
		require.ErrorIs(t, err, gerrors.ErrUnknownMessage)
	})
	t.Run("With panic recovery", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester())
		require.NoError(t, err)

		_, err = Ask(ctx, pid, new(boom), time.Second)
		require.ErrorIs(t, err, gerrors.ErrInternal)
		assert.True(t, pid.IsRunning())

		reply, err := Ask(ctx, pid, &ping{Value: 1}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, &pong{Value: 2}, reply)
	})
	t.Run("With Tell and sender", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		pid, err := system.Spawn(ctx, "tester", actor)
		require.NoError(t, err)

		client := address.New("subscriber", "client-1", "10.0.0.1", 0)
		require.NoError(t, Tell(ctx, pid, new(record), WithSender(client)))
		require.Eventually(t, func() bool { return actor.count() == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, client.Equals(actor.lastSender()))
	})
	t.Run("With Tell from an actor", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		sender, err := system.Spawn(ctx, "sender", newTester())
		require.NoError(t, err)
		receiver, err := system.Spawn(ctx, "receiver", actor)
		require.NoError(t, err)

		require.NoError(t, sender.Tell(ctx, receiver, new(record)))
		require.Eventually(t, func() bool { return actor.count() == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, sender.Address().Equals(actor.lastSender()))
	})
	t.Run("With Forward answering the original asker", func(t *testing.T) {
		system := newTestSystem(t, "test")
		front, err := system.Spawn(ctx, "front", newTester())
		require.NoError(t, err)
		back, err := system.Spawn(ctx, "back", newTester())
		require.NoError(t, err)

		reply, err := Ask(ctx, front, &forwardTo{To: back, Message: &ping{Value: 41}}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, &pong{Value: 42}, reply)
	})
	t.Run("With Forward keeping the sender", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		front, err := system.Spawn(ctx, "front", newTester())
		require.NoError(t, err)
		back, err := system.Spawn(ctx, "back", actor)
		require.NoError(t, err)

		client := address.New("subscriber", "client-1", "10.0.0.1", 0)
		require.NoError(t, Tell(ctx, front, &forwardTo{To: back, Message: new(record)}, WithSender(client)))
		require.Eventually(t, func() bool { return actor.count() == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, client.Equals(actor.lastSender()))
	})
	t.Run("With PreStart failure", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		actor.preStart = func() error { return errors.New("cannot start") }

		_, err := system.Spawn(ctx, "tester", actor, WithInitMaxRetries(2), WithInitTimeout(100*time.Millisecond))
		require.ErrorIs(t, err, gerrors.ErrInitFailure)
		_, err = system.LocalActor("tester")
		require.ErrorIs(t, err, gerrors.ErrActorNotFound)
	})
	t.Run("With PreStart retried", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		attempts := 0
		actor.preStart = func() error {
			attempts++
			if attempts < 2 {
				return errors.New("not yet")
			}
			return nil
		}

		pid, err := system.Spawn(ctx, "tester", actor, WithInitMaxRetries(3))
		require.NoError(t, err)
		assert.True(t, pid.IsRunning())
	})
	t.Run("With Shutdown", func(t *testing.T) {
		system := newTestSystem(t, "test")
		actor := newTester()
		pid, err := system.Spawn(ctx, "tester", actor)
		require.NoError(t, err)

		require.NoError(t, pid.Shutdown(ctx))
		assert.False(t, pid.IsRunning())
		<-actor.stopped

		require.ErrorIs(t, Tell(ctx, pid, new(record)), gerrors.ErrDead)
		_, err = system.LocalActor("tester")
		require.ErrorIs(t, err, gerrors.ErrActorNotFound)

		// a second shutdown is a no-op
		require.NoError(t, pid.Shutdown(ctx))
	})
	t.Run("With children", func(t *testing.T) {
		system := newTestSystem(t, "test")
		parent, err := system.Spawn(ctx, "parent", newTester())
		require.NoError(t, err)

		reply, err := Ask(ctx, parent, &spawnChild{Name: "child"}, time.Second)
		require.NoError(t, err)
		child := reply.(*PID)
		assert.Equal(t, "quizakt://test@127.0.0.1:0/parent/child", child.Address().String())
		assert.Len(t, parent.Children(), 1)

		found, err := parent.Child("child")
		require.NoError(t, err)
		assert.Equal(t, child, found)

		require.NoError(t, parent.Shutdown(ctx))
		assert.False(t, child.IsRunning())
		assert.Empty(t, system.Actors())
	})
	t.Run("With bounded mailbox", func(t *testing.T) {
		system := newTestSystem(t, "test")
		pid, err := system.Spawn(ctx, "tester", newTester(), WithMailbox(NewBoundedMailbox(8)))
		require.NoError(t, err)

		reply, err := Ask(ctx, pid, &ping{Value: 1}, time.Second)
		require.NoError(t, err)
		assert.Equal(t, &pong{Value: 2}, reply)
	})
}

func TestBoundedMailbox(t *testing.T) {
	mailbox := NewBoundedMailbox(2)
	assert.True(t, mailbox.IsEmpty())

	require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: 1}))
	require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: 2}))
	require.ErrorIs(t, mailbox.Enqueue(&ReceiveContext{message: 3}), gerrors.ErrMailboxFull)
	assert.EqualValues(t, 2, mailbox.Len())

	assert.Equal(t, 1, mailbox.Dequeue().Message())
	assert.Equal(t, 2, mailbox.Dequeue().Message())
	assert.Nil(t, mailbox.Dequeue())

	mailbox.Dispose()
	require.ErrorIs(t, mailbox.Enqueue(&ReceiveContext{message: 4}), gerrors.ErrMailboxDisposed)
}

func TestUnboundedMailbox(t *testing.T) {
	mailbox := NewUnboundedMailbox()
	for i := range 3 {
		require.NoError(t, mailbox.Enqueue(&ReceiveContext{message: i}))
	}
	assert.EqualValues(t, 3, mailbox.Len())
	assert.Equal(t, 0, mailbox.Dequeue().Message())

	mailbox.Dispose()
	assert.True(t, mailbox.IsEmpty())
	assert.Nil(t, mailbox.Dequeue())
}
