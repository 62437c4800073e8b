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
	"context"
	"errors"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// sessions is the session directory. A session is keyed by the uid of its
// user and binds that user to one client system. Both directions of the
// binding are indexed for the sessions in memory.
type sessions struct {
	*stateful.Base
	clients map[string]string // client system -> user uid
	users   map[string]string // user uid -> client system
}

var _ actor.Actor = (*sessions)(nil)

func newSessions(st store.Store, cfg *config) *sessions {
	x := &sessions{
		clients: make(map[string]string),
		users:   make(map[string]string),
	}
	x.Base = stateful.NewBase(model.Sessions, st, append(cfg.baseOptions(),
		stateful.WithResolver(auth.NewResolver(x.lookup, cfg.logger)),
		stateful.WithView(x.view),
		stateful.WithReadAuthorizer(x.readable),
		stateful.WithOnCached(x.index),
		stateful.WithOnEvicted(x.unindex))...)
	return x
}

func (x *sessions) Receive(rctx *actor.ReceiveContext) {
	if x.Handle(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *StoreSession:
		x.store(rctx, msg)
	case *RemoveSession:
		x.remove(rctx, msg)
	case *GetSessionForUserID:
		identity := x.Identity(rctx)
		if !identity.Role.Privileged() && !identity.Is(msg.UserID) {
			x.Deny(rctx, "read session", identity)
			return
		}
		x.respond(rctx, identity, msg.UserID)
	case *GetSessionForClient:
		identity := x.Identity(rctx)
		if !identity.Role.Privileged() {
			x.Deny(rctx, "read session", identity)
			return
		}
		uid, err := x.userOf(rctx, msg.Client)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		x.respond(rctx, identity, uid)
	default:
		rctx.Unhandled()
	}
}

func (x *sessions) readable(identity auth.Identity, session document.Document) error {
	if identity.Role.Privileged() || identity.Is(session.UID()) {
		return nil
	}
	return deny("read session", identity)
}

// view hides the tokens from everybody but the server
func (x *sessions) view(session document.Document, identity auth.Identity) document.Document {
	if identity.Role.Privileged() {
		return session
	}
	return session.Without("accessToken", "refreshToken")
}

// lookup resolves the senders of the session directory itself
func (x *sessions) lookup(rctx *actor.ReceiveContext, client string) (auth.Identity, bool, error) {
	uid, err := x.userOf(rctx, client)
	if errors.Is(err, gerrors.ErrNotFound) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}

	session, err := x.valid(rctx, uid)
	switch {
	case errors.Is(err, gerrors.ErrNotFound):
		return auth.Identity{}, false, nil
	case err != nil:
		return auth.Identity{}, false, err
	}
	return auth.Identity{Role: auth.Role(session.String("role")), UserID: uid}, true, nil
}

func (x *sessions) index(_ context.Context, session document.Document) {
	x.bind(session.UID(), session.String("client"))
}

func (x *sessions) unindex(_ context.Context, uid string) {
	x.unbind(uid)
}

func (x *sessions) bind(uid, client string) {
	x.unbind(uid)
	if client == "" {
		return
	}
	if previous, ok := x.clients[client]; ok && previous != uid {
		delete(x.users, previous)
	}
	x.clients[client] = uid
	x.users[uid] = client
}

func (x *sessions) unbind(uid string) {
	if client, ok := x.users[uid]; ok {
		if x.clients[client] == uid {
			delete(x.clients, client)
		}
		delete(x.users, uid)
	}
}

// userOf returns the user bound to client, looking in the store when the
// session is not in memory
func (x *sessions) userOf(rctx *actor.ReceiveContext, client string) (string, error) {
	if err := required("client", client); err != nil {
		return "", err
	}
	if uid, ok := x.clients[client]; ok {
		return uid, nil
	}

	found, err := x.Store().Find(rctx.Context(), x.Collection(), document.Filter{"client": client})
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", gerrors.NewNotFoundError(x.Collection(), client)
	}
	return found[0].UID(), nil
}

// valid returns the session of uid. An expired session is deleted and
// reported as not found.
func (x *sessions) valid(rctx *actor.ReceiveContext, uid string) (document.Document, error) {
	doc, err := x.Get(rctx, uid)
	if err != nil {
		return nil, err
	}

	session, err := model.Decode[model.Session](doc)
	if err != nil {
		return nil, err
	}
	if !session.Expired(x.Now()) {
		return doc, nil
	}

	x.Logger().Debugf("%s: session of %s expired at %s", x.Collection(), uid, session.Expires)
	if err := x.Delete(rctx, uid); err != nil {
		return nil, err
	}
	return nil, gerrors.NewNotFoundError(x.Collection(), uid)
}

func (x *sessions) respond(rctx *actor.ReceiveContext, identity auth.Identity, uid string) {
	doc, err := x.valid(rctx, uid)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, doc, identity))
}

// store replaces the session of a user. The client the user was bound to
// before no longer resolves to it, and a session of another user bound to
// the same client is removed.
func (x *sessions) store(rctx *actor.ReceiveContext, msg *StoreSession) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() {
		x.Deny(rctx, "store session", identity)
		return
	}

	payload, err := msg.Session.Normalize()
	if err != nil {
		x.Fail(rctx, gerrors.NewValidationError(err.Error(), nil))
		return
	}
	if err := requireUID(payload); err != nil {
		x.Fail(rctx, err)
		return
	}
	uid, client := payload.UID(), payload.String("client")
	if err := required("client", client); err != nil {
		x.Fail(rctx, err)
		return
	}
	if token := payload.String("accessToken"); token != "" && !payload.Has("expires") {
		expires, err := model.TokenExpiry(token)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		payload["expires"] = model.Timestamp(expires)
	}

	if other, err := x.userOf(rctx, client); err == nil && other != uid {
		if err := x.Delete(rctx, other); err != nil && !errors.Is(err, gerrors.ErrNotFound) {
			x.Fail(rctx, err)
			return
		}
		x.unbind(other)
		x.Logger().Infof("%s: client %s moved from %s to %s", x.Collection(), client, other, uid)
	}

	current, err := getOrNew(rctx, x.Base, uid, func() document.Document {
		return document.Document{document.UIDField: uid}
	})
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	replaced := document.Merge(current.Without("accessToken", "refreshToken", "expires"), payload)
	replaced[document.UpdatedField] = model.Timestamp(x.Now())
	stored, err := save[model.Session](rctx, x.Base, replaced)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	x.bind(uid, client)
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *sessions) remove(rctx *actor.ReceiveContext, msg *RemoveSession) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() && !identity.Is(msg.UserID) {
		x.Deny(rctx, "remove session", identity)
		return
	}
	if err := required("userId", msg.UserID); err != nil {
		x.Fail(rctx, err)
		return
	}
	if _, err := x.Get(rctx, msg.UserID); err != nil {
		x.Fail(rctx, err)
		return
	}
	if err := x.Delete(rctx, msg.UserID); err != nil {
		x.Fail(rctx, err)
		return
	}
	x.unbind(msg.UserID)
	rctx.Response(new(stateful.Ack))
}
