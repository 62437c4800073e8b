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

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/testkit"
)

type whoAmI struct{}

// resolving replies with the identity of the sender of every whoAmI
type resolving struct {
	resolver *Resolver
}

func (x *resolving) PreStart(*actor.Context) error { return nil }
func (x *resolving) PostStop(*actor.Context) error { return nil }
func (x *resolving) Receive(ctx *actor.ReceiveContext) {
	if _, ok := ctx.Message().(*whoAmI); ok {
		identity := x.resolver.Resolve(ctx)
		ctx.Response(&identity)
	}
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	system := testkit.NewSystem(ctx, t, "server", nil)

	sessions := map[string]Identity{
		"client-1": {Role: Teacher, UserID: "t1"},
		"client-2": {Role: Role("BOGUS"), UserID: "x"},
	}
	lookup := func(_ *actor.ReceiveContext, client string) (Identity, bool, error) {
		if client == "client-3" {
			return Identity{}, false, errors.New("sessions unavailable")
		}
		identity, ok := sessions[client]
		return identity, ok, nil
	}

	pid, err := system.Spawn(ctx, "whoami", &resolving{resolver: NewResolver(lookup, nil)})
	require.NoError(t, err)

	resolve := func(sender *address.Address) Identity {
		reply, err := actor.Ask(ctx, pid, new(whoAmI), time.Second, actor.WithSender(sender))
		require.NoError(t, err)
		return *reply.(*Identity)
	}
	client := func(system string) *address.Address {
		return address.New("inbox", system, "127.0.0.1", 0)
	}

	t.Run("With no sender", func(t *testing.T) {
		assert.Equal(t, SystemIdentity, resolve(address.NoSender()))
	})
	t.Run("With a sender of the same system", func(t *testing.T) {
		assert.Equal(t, SystemIdentity, resolve(address.New("other", "server", "127.0.0.1", 0)))
	})
	t.Run("With a client holding a session", func(t *testing.T) {
		assert.Equal(t, Identity{Role: Teacher, UserID: "t1"}, resolve(client("client-1")))
	})
	t.Run("With a session carrying an unknown role", func(t *testing.T) {
		assert.Equal(t, Anonymous, resolve(client("client-2")))
	})
	t.Run("With a failing lookup", func(t *testing.T) {
		assert.Equal(t, Anonymous, resolve(client("client-3")))
	})
	t.Run("With a client without session", func(t *testing.T) {
		identity := resolve(client("client-4"))
		assert.Equal(t, Student, identity.Role)
		assert.Empty(t, identity.UserID)
	})
}

func TestRole(t *testing.T) {
	role, err := ParseRole(" teacher ")
	require.NoError(t, err)
	assert.Equal(t, Teacher, role)

	_, err = ParseRole("guest")
	assert.Error(t, err)

	assert.True(t, Admin.Privileged())
	assert.False(t, Teacher.Privileged())
	assert.True(t, Teacher.Staff())
	assert.False(t, Student.Staff())
	assert.True(t, Identity{UserID: "u1"}.Is("u1"))
	assert.False(t, Anonymous.Is(""))
}
