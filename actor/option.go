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
	"time"

	"github.com/tochemey/quizakt/deadclient"
	"github.com/tochemey/quizakt/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(sys *actorSystem)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*actorSystem)

// Apply applies the option
func (f OptionFunc) Apply(sys *actorSystem) {
	f(sys)
}

// WithLogger sets the actor system custom log
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(sys *actorSystem) {
		sys.logger = logger
	})
}

// WithHost sets the host and port advertised in the addresses of local actors
func WithHost(host string, port int) Option {
	return OptionFunc(func(sys *actorSystem) {
		sys.host = host
		sys.port = port
	})
}

// WithRemoting enables delivery to actors living in other actor systems
func WithRemoting(remoting Remoting) Option {
	return OptionFunc(func(sys *actorSystem) {
		sys.remoting = remoting
	})
}

// WithDeadClientTracker sets the tracker failed remote deliveries are reported to
func WithDeadClientTracker(tracker *deadclient.Tracker) Option {
	return OptionFunc(func(sys *actorSystem) {
		sys.deadClients = tracker
	})
}

// WithShutdownTimeout sets the time allowed for actors to stop
func WithShutdownTimeout(timeout time.Duration) Option {
	return OptionFunc(func(sys *actorSystem) {
		sys.shutdownTimeout = timeout
	})
}
