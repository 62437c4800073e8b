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

import "errors"

// Kind names an error class so that it can cross a process boundary.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotAllowed     Kind = "not_allowed"
	KindNotFound       Kind = "not_found"
	KindStorage        Kind = "storage"
	KindTimeout        Kind = "timeout"
	KindUnknownMessage Kind = "unknown_message"
	KindInvalidRemote  Kind = "invalid_remote"
	KindInternal       Kind = "internal"
)

// KindOf returns the Kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotAllowed):
		return KindNotAllowed
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorage):
		return KindStorage
	case errors.Is(err, ErrRequestTimeout):
		return KindTimeout
	case errors.Is(err, ErrUnknownMessage):
		return KindUnknownMessage
	case errors.Is(err, ErrInvalidRemoteMessage):
		return KindInvalidRemote
	default:
		return KindInternal
	}
}

// FromKind rebuilds a typed error received from a remote system.
// The original message is kept as the reason or wrapped cause.
func FromKind(kind Kind, message string) error {
	switch kind {
	case KindValidation:
		return NewValidationError(message, nil)
	case KindNotAllowed:
		return NewAuthorizationError(message, "")
	case KindNotFound:
		return &remoteError{sentinel: ErrNotFound, message: message}
	case KindStorage:
		return NewStorageError("remote", errors.New(message))
	case KindTimeout:
		return NewTimeoutError(message)
	case KindUnknownMessage:
		return &UnknownMessageError{Type: message}
	case KindInvalidRemote:
		return &remoteError{sentinel: ErrInvalidRemoteMessage, message: message}
	default:
		return NewInternalError(errors.New(message))
	}
}

type remoteError struct {
	sentinel error
	message  string
}

func (e *remoteError) Error() string        { return e.message }
func (e *remoteError) Is(target error) bool { return target == e.sentinel }
