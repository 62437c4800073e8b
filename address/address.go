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

// Package address identifies actors inside and across quizakt actor systems.
//
// The canonical textual representation of an Address is:
//
//	quizakt://<system>@<host>:<port>/<name>
//
// and, for a child actor:
//
//	quizakt://<system>@<host>:<port>/<parent>/<name>
//
// Every client connection runs its own system, so the system component of a
// sender address is what binds an incoming request to a session.
package address

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	gerrors "github.com/tochemey/quizakt/errors"
)

const scheme = "quizakt"

var (
	// ErrInvalidParent is returned when the parent address is invalid.
	ErrInvalidParent = errors.New("parent address is invalid")

	// ErrInvalidName is returned when the given address name and its parent name are the same.
	ErrInvalidName = errors.New("child name and parent name must be different")

	// ErrInvalidActorSystem is returned when the given address actor system and its parent actor system are different.
	ErrInvalidActorSystem = errors.New("child and parent actor systems must be the same")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_.]*$`)

// zeroAddress means that there is no sender
var zeroAddress = &Address{}

// Address represents the location of an actor.
// An Address is immutable once created.
type Address struct {
	host   string
	port   int
	name   string
	system string
	parent *Address
}

// New creates a new Address. Inputs are not validated; call Validate.
func New(name, system string, host string, port int) *Address {
	return &Address{
		host:   host,
		port:   port,
		name:   name,
		system: system,
	}
}

// NewWithParent creates a child Address in the same system as parent.
func NewWithParent(name string, parent *Address) *Address {
	addr := New(name, parent.System(), parent.Host(), parent.Port())
	addr.parent = parent
	return addr
}

// NoSender returns a sentinel Address that represents the absence of a sender.
func NoSender() *Address {
	return zeroAddress
}

// Parent returns the parent Address or nil
func (x *Address) Parent() *Address {
	if x == nil {
		return nil
	}
	return x.parent
}

// Name returns the actor name component of the Address.
func (x *Address) Name() string {
	if x == nil {
		return ""
	}
	return x.name
}

// Host returns the host component of the Address.
func (x *Address) Host() string {
	if x == nil {
		return ""
	}
	return x.host
}

// Port returns the port component of the Address.
func (x *Address) Port() int {
	if x == nil {
		return 0
	}
	return x.port
}

// System returns the actor system name component of the Address.
func (x *Address) System() string {
	if x == nil {
		return ""
	}
	return x.system
}

// IsNoSender reports whether the address is empty or the NoSender sentinel.
func (x *Address) IsNoSender() bool {
	return x == nil || x.Equals(NoSender())
}

// String returns the canonical textual form of the Address.
func (x *Address) String() string {
	if x == nil {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(scheme)
	builder.WriteString("://")
	builder.WriteString(x.system)
	builder.WriteByte('@')
	builder.WriteString(x.HostPort())
	builder.WriteByte('/')
	if parent := x.Parent(); !parent.IsNoSender() {
		builder.WriteString(parent.Name())
		builder.WriteByte('/')
	}
	builder.WriteString(x.name)
	return builder.String()
}

// HostPort returns the "host:port" portion of the Address.
func (x *Address) HostPort() string {
	return x.Host() + ":" + strconv.Itoa(x.Port())
}

// Equals reports whether x and y name the same actor.
func (x *Address) Equals(y *Address) bool {
	if x == nil || y == nil {
		return false
	}
	return x.Name() == y.Name() &&
		x.System() == y.System() &&
		x.Host() == y.Host() &&
		x.Port() == y.Port()
}

// Validate checks whether the Address is well-formed. NoSender is valid.
func (x *Address) Validate() error {
	if x.IsNoSender() {
		return nil
	}

	var err error
	switch {
	case strings.TrimSpace(x.system) == "":
		err = errors.New("the [system] is required")
	case strings.TrimSpace(x.name) == "":
		err = errors.New("the [name] is required")
	case len(x.name) > 255:
		err = errors.New("actor name is too long. Maximum length is 255")
	case !namePattern.MatchString(x.system), !namePattern.MatchString(x.name):
		err = errors.New("must contain only word characters (i.e. [a-zA-Z0-9] plus non-leading '-' or '_')")
	case x.host == "" || x.port < 0 || x.port > 65535:
		err = errors.New("invalid host address")
	}
	if err != nil {
		return errors.Join(gerrors.ErrInvalidAddress, err)
	}

	if parent := x.Parent(); !parent.IsNoSender() {
		if perr := parent.Validate(); perr != nil {
			return errors.Join(ErrInvalidParent, perr)
		}
		if !strings.EqualFold(parent.System(), x.System()) {
			return ErrInvalidActorSystem
		}
		if parent.Name() == x.Name() {
			return ErrInvalidName
		}
	}
	return nil
}

// MarshalText encodes the address in its canonical form. NoSender encodes as empty text.
func (x *Address) MarshalText() ([]byte, error) {
	if x.IsNoSender() {
		return []byte{}, nil
	}
	return []byte(x.String()), nil
}

// UnmarshalText decodes an address produced by MarshalText.
func (x *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*x = Address{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*x = *parsed
	return nil
}

// Parse parses a canonical address string into an Address.
// No semantic validation is performed; call Validate on the result.
func Parse(addr string) (*Address, error) {
	invalid := func(reason string) error {
		return errors.Join(gerrors.ErrInvalidAddress, errors.New(reason))
	}

	if addr == "" {
		return nil, invalid("address is required")
	}

	schemePart, rest, ok := strings.Cut(addr, "://")
	if !ok {
		return nil, invalid("address format is invalid")
	}
	if schemePart != scheme {
		return nil, invalid("address protocol is not supported")
	}

	system, rest, ok := strings.Cut(rest, "@")
	if !ok || strings.Contains(rest, "@") {
		return nil, invalid("address format is invalid")
	}

	hostPort, path, ok := strings.Cut(rest, "/")
	if !ok || path == "" || strings.HasPrefix(path, "/") {
		return nil, invalid("address format is invalid")
	}

	host, portStr, ok := strings.Cut(hostPort, ":")
	if !ok || strings.Contains(portStr, ":") {
		return nil, invalid("address format is invalid")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Join(gerrors.ErrInvalidAddress, err)
	}

	parentName, name, nested := strings.Cut(path, "/")
	if !nested {
		return New(path, system, host, port), nil
	}
	if strings.Contains(name, "/") {
		return nil, invalid("address format is invalid")
	}
	return NewWithParent(name, New(parentName, system, host, port)), nil
}
