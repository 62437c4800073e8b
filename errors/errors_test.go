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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("With InternalError", func(t *testing.T) {
		cause := errors.New("something went wrong")
		err := NewInternalError(cause)
		require.EqualError(t, err, "internal error: something went wrong")
		assert.ErrorIs(t, err, ErrInternal)
		assert.ErrorIs(t, err, cause)
	})
	t.Run("With PanicError", func(t *testing.T) {
		cause := errors.New("boom")
		err := NewPanicError(cause)
		require.EqualError(t, err, "panic: boom")
		assert.ErrorIs(t, err, cause)
	})
	t.Run("With ValidationError", func(t *testing.T) {
		err := NewValidationError("invalid quiz", map[string]string{"title": "required", "state": "oneof"})
		require.EqualError(t, err, "validation failed: invalid quiz (state: oneof; title: required)")
		assert.ErrorIs(t, fmt.Errorf("create: %w", err), ErrValidation)
		assert.NotErrorIs(t, err, ErrNotAllowed)
	})
	t.Run("With AuthorizationError", func(t *testing.T) {
		err := NewAuthorizationError("update comment", "STUDENT")
		require.EqualError(t, err, "operation not allowed: update comment (role=STUDENT)")
		assert.ErrorIs(t, err, ErrNotAllowed)
	})
	t.Run("With NotFoundError", func(t *testing.T) {
		err := NewNotFoundError("comments", "c1")
		require.EqualError(t, err, "not found: comments/c1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("With StorageError", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewStorageError("upsert", cause)
		require.EqualError(t, err, "storage failure: upsert: connection refused")
		assert.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, cause)
	})
	t.Run("With TimeoutError", func(t *testing.T) {
		err := NewTimeoutError("sessions")
		assert.ErrorIs(t, err, ErrRequestTimeout)
	})
	t.Run("With UnknownMessageError", func(t *testing.T) {
		err := NewUnknownMessageError(struct{}{})
		assert.ErrorIs(t, err, ErrUnknownMessage)
		assert.Equal(t, "unknown message: struct {}", err.Error())
	})
	t.Run("With wrapped sentinels", func(t *testing.T) {
		assert.ErrorIs(t, NewErrActorNotFound("quizzes"), ErrActorNotFound)
		assert.ErrorIs(t, NewErrActorAlreadyExists("quizzes"), ErrActorAlreadyExists)
		assert.ErrorIs(t, NewErrInitFailure(errors.New("x")), ErrInitFailure)
		assert.ErrorIs(t, NewErrRemoteSendFailure(errors.New("x")), ErrRemoteSendFailure)
	})
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "comment not found", UserMessage(NewNotFoundError("comments", "c1")))
	assert.Equal(t, "statistic not found", UserMessage(NewNotFoundError("statistics", "s1")))
	assert.Equal(t, "operation not allowed", UserMessage(NewAuthorizationError("update", "STUDENT")))
	assert.Equal(t, "title is required", UserMessage(NewValidationError("title is required", nil)))
	assert.Equal(t, NoServerConnection, UserMessage(NewStorageError("find", errors.New("down"))))
	assert.Equal(t, NoServerConnection, UserMessage(NewTimeoutError("sessions")))
	assert.Equal(t, NoServerConnection, UserMessage(errors.New("anything")))
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
		is   error
	}{
		{NewValidationError("bad", nil), KindValidation, ErrValidation},
		{NewAuthorizationError("update", "STUDENT"), KindNotAllowed, ErrNotAllowed},
		{NewNotFoundError("quizzes", "q1"), KindNotFound, ErrNotFound},
		{NewStorageError("upsert", errors.New("x")), KindStorage, ErrStorage},
		{NewTimeoutError("x"), KindTimeout, ErrRequestTimeout},
		{NewUnknownMessageError(1), KindUnknownMessage, ErrUnknownMessage},
		{NewErrInvalidRemoteMessage(errors.New("x")), KindInvalidRemote, ErrInvalidRemoteMessage},
		{errors.New("x"), KindInternal, ErrInternal},
	}

	for _, c := range cases {
		require.Equal(t, c.kind, KindOf(c.err))
		rebuilt := FromKind(c.kind, c.err.Error())
		assert.ErrorIs(t, rebuilt, c.is)
		assert.Equal(t, c.kind, KindOf(rebuilt))
	}
}
