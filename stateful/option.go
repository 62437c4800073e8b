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

package stateful

import (
	"context"
	"time"

	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	"github.com/tochemey/quizakt/telemetry"
)

const (
	// DefaultCacheIdle is how long an untouched entity stays in memory. The
	// cleanup runs on the same period.
	DefaultCacheIdle = 2 * time.Hour
	// DefaultReapInterval is how often subscribers of closed clients are dropped
	DefaultReapInterval = time.Minute
)

// ViewFunc returns the view of doc the given identity may see
type ViewFunc func(doc document.Document, identity auth.Identity) document.Document

// ReadAuthorizer returns an AuthorizationError when identity may not read doc
type ReadAuthorizer func(identity auth.Identity, doc document.Document) error

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(base *Base)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(base *Base)

// Apply applies the option
func (f OptionFunc) Apply(base *Base) {
	f(base)
}

// WithCacheIdle sets the idle threshold, and cleanup period, of the cache
// and of the subscriptions
func WithCacheIdle(idle time.Duration) Option {
	return OptionFunc(func(base *Base) {
		base.cacheIdle = idle
	})
}

// WithReapInterval sets how often subscribers of closed clients are dropped
func WithReapInterval(interval time.Duration) Option {
	return OptionFunc(func(base *Base) {
		base.reapInterval = interval
	})
}

// WithResolver sets the role resolver
func WithResolver(resolver *auth.Resolver) Option {
	return OptionFunc(func(base *Base) {
		base.resolver = resolver
	})
}

// WithView sets the function stripping the fields an identity may not see.
// Stripping happens before the projection of a collection subscription.
func WithView(view ViewFunc) Option {
	return OptionFunc(func(base *Base) {
		base.view = view
	})
}

// WithReadAuthorizer sets the read authorization of Get and SubscribeTo
func WithReadAuthorizer(authorizer ReadAuthorizer) Option {
	return OptionFunc(func(base *Base) {
		base.canRead = authorizer
	})
}

// WithOnCached sets the hook called when an entity enters the cache
func WithOnCached(hook func(ctx context.Context, doc document.Document)) Option {
	return OptionFunc(func(base *Base) {
		base.cache.OnCached(hook)
	})
}

// WithOnEvicted sets the hook called when an entity leaves the cache
func WithOnEvicted(hook func(ctx context.Context, uid string)) Option {
	return OptionFunc(func(base *Base) {
		base.cache.OnEvicted(hook)
	})
}

// WithTelemetry sets the telemetry used to record the store metrics
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return OptionFunc(func(base *Base) {
		base.telemetry = tel
	})
}

// WithClock sets the clock of the cache and of the registry
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(base *Base) {
		base.clock = clock
		base.cache.clock = clock
		base.registry.clock = clock
	})
}
