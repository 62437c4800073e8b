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

package errorschain

import (
	"errors"

	"go.uber.org/multierr"
)

// Chain collects errors in insertion order
type Chain struct {
	returnFirst bool
	errs        []error
}

// ChainOption configures a Chain at creation time.
type ChainOption func(*Chain)

// New creates a new error chain
func New(opts ...ChainOption) *Chain {
	chain := &Chain{errs: make([]error, 0)}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// AddError adds an error to the chain. Nil errors are ignored by Error.
func (c *Chain) AddError(err error) *Chain {
	c.errs = append(c.errs, err)
	return c
}

// AddAssertion records message as an error when condition does not hold
func (c *Chain) AddAssertion(condition bool, message string) *Chain {
	if !condition {
		c.errs = append(c.errs, errors.New(message))
	}
	return c
}

// Error returns the first error or all errors combined, depending on the chain mode
func (c *Chain) Error() error {
	var err error
	for _, v := range c.errs {
		if v == nil {
			continue
		}
		if c.returnFirst {
			return v
		}
		err = multierr.Append(err, v)
	}
	return err
}

// ReturnFirst makes the chain stop at the first error.
func ReturnFirst() ChainOption {
	return func(c *Chain) { c.returnFirst = true }
}

// ReturnAll makes the chain combine every error.
func ReturnAll() ChainOption {
	return func(c *Chain) { c.returnFirst = false }
}
