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
	"time"

	"github.com/tochemey/quizakt/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(remoting *NATS)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(remoting *NATS)

// Apply applies the option
func (f OptionFunc) Apply(remoting *NATS) {
	f(remoting)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(remoting *NATS) {
		remoting.logger = logger
	})
}

// WithCompression compresses every payload with zstd
func WithCompression() Option {
	return OptionFunc(func(remoting *NATS) {
		remoting.compression = true
	})
}

// WithTellTimeout sets how long a Tell waits for the receiving system to
// acknowledge the message
func WithTellTimeout(timeout time.Duration) Option {
	return OptionFunc(func(remoting *NATS) {
		remoting.tellTimeout = timeout
	})
}

// WithRegistry sets the registry of message types that may cross the wire
func WithRegistry(registry *Registry) Option {
	return OptionFunc(func(remoting *NATS) {
		remoting.registry = registry
	})
}
