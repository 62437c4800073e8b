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
	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// users is the user directory
type users struct {
	*stateful.Base
}

var _ actor.Actor = (*users)(nil)

func newUsers(st store.Store, cfg *config) *users {
	x := new(users)
	x.Base = stateful.NewBase(model.Users, st, append(cfg.baseOptions(),
		stateful.WithResolver(resolver(cfg)),
		stateful.WithView(x.view),
		stateful.WithReadAuthorizer(x.readable))...)
	return x
}

func (x *users) Receive(rctx *actor.ReceiveContext) {
	if x.Handle(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *CreateUser:
		x.create(rctx, msg)
	case *UpdateUser:
		x.update(rctx, msg)
	case *GetUser:
		identity := x.Identity(rctx)
		if !identity.Role.Staff() && !identity.Is(msg.UID) {
			x.Deny(rctx, "read user", identity)
			return
		}
		doc, err := x.Read(rctx, identity, msg.UID)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetUsers:
		identity := x.Identity(rctx)
		if !identity.Role.Staff() {
			x.Deny(rctx, "list users", identity)
			return
		}
		x.Stream(rctx, msg.Filter, identity)
	default:
		rctx.Unhandled()
	}
}

func (x *users) readable(identity auth.Identity, user document.Document) error {
	if identity.Role.Staff() || identity.Is(user.UID()) {
		return nil
	}
	return deny("read user", identity)
}

// view keeps the contact details for the user and the staff
func (x *users) view(user document.Document, identity auth.Identity) document.Document {
	if identity.Role.Staff() || identity.Is(user.UID()) {
		return user
	}
	return user.Without("email", "fingerprint")
}

func (x *users) create(rctx *actor.ReceiveContext, msg *CreateUser) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() {
		x.Deny(rctx, "create user", identity)
		return
	}

	stored, err := create[model.User](rctx, x.Base, model.Restrict(msg.User, model.AllowedFields(model.Users, identity, false)))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(&stateful.Created{UID: stored.UID()})
}

// update lets a user change its own name and email. Only ADMIN and SYSTEM
// change roles and activation.
func (x *users) update(rctx *actor.ReceiveContext, msg *UpdateUser) {
	identity := x.Identity(rctx)
	if err := requireUID(msg.Changes); err != nil {
		x.Fail(rctx, err)
		return
	}

	isSelf := identity.Is(msg.Changes.UID())
	if !isSelf && !identity.Role.Privileged() {
		x.Deny(rctx, "update user", identity)
		return
	}

	current, err := x.Get(rctx, msg.Changes.UID())
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	stored, err := update[model.User](rctx, x.Base, current, msg.Changes, model.AllowedFields(model.Users, identity, isSelf))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}
