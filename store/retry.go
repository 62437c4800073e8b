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

package store

import (
	"context"
	"errors"
	"time"

	"github.com/flowchartsman/retry"

	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
)

const (
	// DefaultRetries is how many attempts a retrying store makes
	DefaultRetries = 3
	// DefaultRetryDelay is the initial backoff of a retrying store
	DefaultRetryDelay = 10 * time.Millisecond
	// DefaultRetryMaxDelay caps the backoff of a retrying store
	DefaultRetryMaxDelay = 500 * time.Millisecond
)

// RetryOption configures a retrying store
type RetryOption func(*retrying)

// WithMaxRetries sets the number of attempts
func WithMaxRetries(attempts int) RetryOption {
	return func(r *retrying) {
		r.attempts = attempts
	}
}

// WithRetryDelays sets the initial and maximum backoff
func WithRetryDelays(initial, maximum time.Duration) RetryOption {
	return func(r *retrying) {
		r.initialDelay = initial
		r.maxDelay = maximum
	}
}

// WithRetryLogger sets the logger used to report retried failures
func WithRetryLogger(logger log.Logger) RetryOption {
	return func(r *retrying) {
		r.logger = logger
	}
}

type retrying struct {
	underlying   Store
	attempts     int
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       log.Logger
}

var _ Store = (*retrying)(nil)

// WithRetries decorates a store so that failed operations are retried with
// exponential backoff. Every operation is idempotent so a retry after a
// partial failure is safe. An upsert that neither inserted nor matched and a
// cancelled context or a closed store are not retried.
func WithRetries(underlying Store, opts ...RetryOption) Store {
	r := &retrying{
		underlying:   underlying,
		attempts:     DefaultRetries,
		initialDelay: DefaultRetryDelay,
		maxDelay:     DefaultRetryMaxDelay,
		logger:       log.DiscardLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retrying) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	retrier := retry.NewRetrier(r.attempts, r.initialDelay, r.maxDelay)
	var (
		attempt  int
		terminal error
	)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gerrors.ErrUpsertNoop),
			errors.Is(err, ErrClosed),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			terminal = err
			return nil
		default:
			r.logger.Warnf("store %s failed (attempt %d/%d): %v", op, attempt, r.attempts, err)
			return err
		}
	})
	if terminal != nil {
		return terminal
	}
	return err
}

func (r *retrying) Upsert(ctx context.Context, collection, uid string, doc document.Document) (UpsertResult, error) {
	var result UpsertResult
	err := r.run(ctx, "upsert", func(ctx context.Context) error {
		var err error
		result, err = r.underlying.Upsert(ctx, collection, uid, doc)
		return err
	})
	return result, err
}

func (r *retrying) FindOne(ctx context.Context, collection string, filter document.Filter) (document.Document, bool, error) {
	var (
		doc   document.Document
		found bool
	)
	err := r.run(ctx, "findOne", func(ctx context.Context) error {
		var err error
		doc, found, err = r.underlying.FindOne(ctx, collection, filter)
		return err
	})
	return doc, found, err
}

func (r *retrying) Find(ctx context.Context, collection string, filter document.Filter) ([]document.Document, error) {
	var docs []document.Document
	err := r.run(ctx, "find", func(ctx context.Context) error {
		var err error
		docs, err = r.underlying.Find(ctx, collection, filter)
		return err
	})
	return docs, err
}

func (r *retrying) DeleteOne(ctx context.Context, collection, uid string) error {
	return r.run(ctx, "deleteOne", func(ctx context.Context) error {
		return r.underlying.DeleteOne(ctx, collection, uid)
	})
}

func (r *retrying) DeleteMany(ctx context.Context, collection string, filter document.Filter) (int64, error) {
	var count int64
	err := r.run(ctx, "deleteMany", func(ctx context.Context) error {
		var err error
		count, err = r.underlying.DeleteMany(ctx, collection, filter)
		return err
	})
	return count, err
}

func (r *retrying) Close(ctx context.Context) error {
	return r.underlying.Close(ctx)
}
