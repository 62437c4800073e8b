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

package stores

import (
	"time"

	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/telemetry"
)

// DefaultAskTimeout bounds every request an actor sends to another one
const DefaultAskTimeout = 5 * time.Second

type config struct {
	askTimeout   time.Duration
	cacheIdle    time.Duration
	reapInterval time.Duration
	telemetry    *telemetry.Telemetry
	clock        func() time.Time
	logger       log.Logger
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		askTimeout:   DefaultAskTimeout,
		cacheIdle:    stateful.DefaultCacheIdle,
		reapInterval: stateful.DefaultReapInterval,
		clock:        time.Now,
		logger:       log.DiscardLogger,
	}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return cfg
}

// baseOptions returns the stateful options shared by every domain actor
func (c *config) baseOptions() []stateful.Option {
	options := []stateful.Option{
		stateful.WithCacheIdle(c.cacheIdle),
		stateful.WithReapInterval(c.reapInterval),
		stateful.WithClock(c.clock),
	}
	if c.telemetry != nil {
		options = append(options, stateful.WithTelemetry(c.telemetry))
	}
	return options
}

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(cfg *config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(cfg *config)

// Apply applies the option
func (f OptionFunc) Apply(cfg *config) {
	f(cfg)
}

// WithAskTimeout sets the timeout of the requests between actors
func WithAskTimeout(timeout time.Duration) Option {
	return OptionFunc(func(cfg *config) {
		cfg.askTimeout = timeout
	})
}

// WithCacheIdle sets the idle threshold of the caches and subscriptions
func WithCacheIdle(idle time.Duration) Option {
	return OptionFunc(func(cfg *config) {
		cfg.cacheIdle = idle
	})
}

// WithReapInterval sets how often subscribers of closed clients are dropped
func WithReapInterval(interval time.Duration) Option {
	return OptionFunc(func(cfg *config) {
		cfg.reapInterval = interval
	})
}

// WithTelemetry records the store metrics of every actor
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return OptionFunc(func(cfg *config) {
		cfg.telemetry = tel
	})
}

// WithClock sets the clock used for timestamps and idle sweeps
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(cfg *config) {
		cfg.clock = clock
	})
}
