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
	"sort"
	"strings"
)

var (
	// ErrInvalidActorSystemName is returned when the actor system name contains invalid characters.
	ErrInvalidActorSystemName = errors.New("invalid ActorSystem name, must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")

	// ErrNameRequired is returned when an actor system name is required but not provided.
	ErrNameRequired = errors.New("actor system is required")

	// ErrDead indicates that the actor is no longer alive or has been terminated.
	ErrDead = errors.New("actor is not alive")

	// ErrRequestTimeout indicates that an Ask message timed out while waiting for a response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrInvalidTimeout is returned when an Ask is attempted with a non-positive timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrRemotingDisabled is returned when remote messaging is attempted but remoting is not enabled.
	ErrRemotingDisabled = errors.New("remoting is not enabled")

	// ErrRemoteSendFailure is returned when sending a remote message fails.
	ErrRemoteSendFailure = errors.New("remote send failed")

	// ErrInvalidRemoteMessage is returned when an inbound remote payload cannot be decoded.
	ErrInvalidRemoteMessage = errors.New("invalid remote message")

	// ErrActorNotFound indicates that the specified actor could not be found in the system.
	ErrActorNotFound = errors.New("actor not found")

	// ErrActorAlreadyExists is returned when spawning an actor under a name already in use.
	ErrActorAlreadyExists = errors.New("actor already exists")

	// ErrInitFailure is returned when an actor PreStart hook fails.
	ErrInitFailure = errors.New("preStart failed")

	// ErrActorSystemNotStarted is returned when the actor system is used before Start.
	ErrActorSystemNotStarted = errors.New("actor system is not running")

	// ErrActorSystemAlreadyStarted is returned when Start is called twice.
	ErrActorSystemAlreadyStarted = errors.New("actor system has already started")

	// ErrSchedulerNotStarted is returned when a message is scheduled before the scheduler runs.
	ErrSchedulerNotStarted = errors.New("scheduler has not started")

	// ErrScheduledReferenceNotFound is returned when cancelling an unknown schedule.
	ErrScheduledReferenceNotFound = errors.New("scheduled reference not found")

	// ErrInvalidMessage is returned when a nil message is sent.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrMailboxFull is returned when a bounded mailbox cannot accept more messages.
	ErrMailboxFull = errors.New("mailbox is full")

	// ErrMailboxDisposed is returned when a message is enqueued into a disposed mailbox.
	ErrMailboxDisposed = errors.New("mailbox has been disposed")

	// ErrInvalidAddress is returned when an address string cannot be parsed.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrValidation is the sentinel matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotAllowed is the sentinel matched by every AuthorizationError.
	ErrNotAllowed = errors.New("operation not allowed")

	// ErrNotFound is the sentinel matched by every NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrStorage is the sentinel matched by every StorageError.
	ErrStorage = errors.New("storage failure")

	// ErrUnknownMessage is the sentinel matched by every UnknownMessageError.
	ErrUnknownMessage = errors.New("unknown message")

	// ErrInternal is the sentinel matched by every InternalError.
	ErrInternal = errors.New("internal error")

	// ErrUpsertNoop is returned by a store when an upsert neither inserted nor matched a document.
	ErrUpsertNoop = errors.New("upsert neither inserted nor matched a document")
)

// NewErrActorNotFound formats an ErrActorNotFound with the given actor name.
func NewErrActorNotFound(name string) error {
	return fmt.Errorf("(actor=%s) %w", name, ErrActorNotFound)
}

// NewErrActorAlreadyExists formats an ErrActorAlreadyExists for the given actor name.
func NewErrActorAlreadyExists(name string) error {
	return fmt.Errorf("actor=(%s) %w", name, ErrActorAlreadyExists)
}

// NewErrInitFailure wraps a base error with ErrInitFailure to indicate a startup failure.
func NewErrInitFailure(err error) error {
	return errors.Join(ErrInitFailure, err)
}

// NewErrRemoteSendFailure wraps an error into an ErrRemoteSendFailure.
func NewErrRemoteSendFailure(err error) error {
	return errors.Join(ErrRemoteSendFailure, err)
}

// NewErrInvalidRemoteMessage wraps a decoding error with ErrInvalidRemoteMessage.
func NewErrInvalidRemoteMessage(err error) error {
	return errors.Join(ErrInvalidRemoteMessage, err)
}

// ValidationError is returned when a payload fails schema checks.
// Fields maps the offending field name to a human readable reason.
type ValidationError struct {
	Fields map[string]string
	Reason string
}

var _ error = (*ValidationError)(nil)

// NewValidationError creates a ValidationError
func NewValidationError(reason string, fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

// Error implements the standard error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return fmt.Sprintf("%s: %s (%s)", ErrValidation.Error(), e.Reason, strings.Join(parts, "; "))
}

// Is reports whether target is ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AuthorizationError is returned when the caller lacks permission for an operation.
type AuthorizationError struct {
	Operation string
	Role      string
}

var _ error = (*AuthorizationError)(nil)

// NewAuthorizationError creates an AuthorizationError
func NewAuthorizationError(operation, role string) *AuthorizationError {
	return &AuthorizationError{Operation: operation, Role: role}
}

// Error implements the standard error interface
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s (role=%s)", ErrNotAllowed.Error(), e.Operation, e.Role)
}

// Is reports whether target is ErrNotAllowed
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrNotAllowed
}

// NotFoundError is returned when an id has no corresponding entity.
type NotFoundError struct {
	Collection string
	UID        string
}

var _ error = (*NotFoundError)(nil)

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(collection, uid string) *NotFoundError {
	return &NotFoundError{Collection: collection, UID: uid}
}

// Error implements the standard error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s/%s", ErrNotFound.Error(), e.Collection, e.UID)
}

// Is reports whether target is ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a failure of the persistent store.
type StorageError struct {
	Op  string
	err error
}

var _ error = (*StorageError)(nil)

// NewStorageError creates a StorageError for the given store operation
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, err: err}
}

// Error implements the standard error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.Op, e.err)
}

// Is reports whether target is ErrStorage
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.err
}

// TimeoutError is returned when an Ask does not receive a reply in time.
type TimeoutError struct {
	Target string
}

var _ error = (*TimeoutError)(nil)

// NewTimeoutError creates a TimeoutError for the given target actor
func NewTimeoutError(target string) *TimeoutError {
	return &TimeoutError{Target: target}
}

// Error implements the standard error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRequestTimeout.Error(), e.Target)
}

// Is reports whether target is ErrRequestTimeout
func (e *TimeoutError) Is(target error) bool {
	return target == ErrRequestTimeout
}

// UnknownMessageError is returned when an actor receives a message it does not handle.
type UnknownMessageError struct {
	Type string
}

var _ error = (*UnknownMessageError)(nil)

// NewUnknownMessageError creates an UnknownMessageError for the given message
func NewUnknownMessageError(message any) *UnknownMessageError {
	return &UnknownMessageError{Type: fmt.Sprintf("%T", message)}
}

// Error implements the standard error interface
func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownMessage.Error(), e.Type)
}

// Is reports whether target is ErrUnknownMessage
func (e *UnknownMessageError) Is(target error) bool {
	return target == ErrUnknownMessage
}

// InternalError defines an unexpected failure inside message handling
type InternalError struct {
	err error
}

var _ error = (*InternalError)(nil)

// NewInternalError returns an instance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{err: err}
}

// Error implements the standard error interface
func (i *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInternal.Error(), i.err)
}

// Is reports whether target is ErrInternal
func (i *InternalError) Is(target error) bool {
	return target == ErrInternal
}

func (i *InternalError) Unwrap() error {
	return i.err
}

// PanicError defines the panic error
// wrapping the underlying error
type PanicError struct {
	err error
}

var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
