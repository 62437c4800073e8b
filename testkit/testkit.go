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

// Package testkit provides helpers to test actors: a probe recording the
// messages it receives and an in-process remoting to wire several actor
// systems together.
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/log"
)

// NewSystem creates and starts an actor system stopped at the end of the test.
// Systems sharing a Loopback can reach one another.
func NewSystem(ctx context.Context, t *testing.T, name string, loopback *Loopback, opts ...actor.Option) actor.ActorSystem {
	t.Helper()

	options := []actor.Option{
		actor.WithLogger(log.DiscardLogger),
		actor.WithShutdownTimeout(5 * time.Second),
	}
	if loopback != nil {
		options = append(options, actor.WithRemoting(loopback))
	}
	options = append(options, opts...)

	system, err := actor.NewActorSystem(name, options...)
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))

	t.Cleanup(func() {
		if system.Running() {
			_ = system.Stop(context.Background())
		}
	})
	return system
}
