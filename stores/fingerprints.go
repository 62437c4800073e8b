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
	"errors"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// fingerprints tracks the devices anonymous participants use. The uid of a
// fingerprint is the hash of the device characteristics.
type fingerprints struct {
	*stateful.Base
	cfg *config
}

var _ actor.Actor = (*fingerprints)(nil)

func newFingerprints(st store.Store, cfg *config) *fingerprints {
	x := &fingerprints{cfg: cfg}
	x.Base = stateful.NewBase(model.Fingerprints, st, append(cfg.baseOptions(),
		stateful.WithResolver(resolver(cfg)),
		stateful.WithReadAuthorizer(x.readable))...)
	return x
}

func (x *fingerprints) Receive(rctx *actor.ReceiveContext) {
	if x.Handle(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *UseFingerprint:
		x.use(rctx, msg)
	case *BlockFingerprint:
		x.block(rctx, msg.Hash, true)
	case *UnblockFingerprint:
		x.block(rctx, msg.Hash, false)
	case *GetFingerprint:
		identity := x.Identity(rctx)
		// denied before the lookup so that a missing hash reads the same
		if !identity.Role.Staff() {
			x.Deny(rctx, "read fingerprint", identity)
			return
		}
		doc, err := x.Read(rctx, identity, msg.Hash)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetFingerprints:
		identity := x.Identity(rctx)
		if !identity.Role.Staff() {
			x.Deny(rctx, "list fingerprints", identity)
			return
		}
		x.Stream(rctx, msg.Filter, identity)
	default:
		rctx.Unhandled()
	}
}

func (x *fingerprints) readable(identity auth.Identity, _ document.Document) error {
	if identity.Role.Staff() {
		return nil
	}
	return deny("read fingerprint", identity)
}

// use counts one more use of the device. Blocked devices are refused.
func (x *fingerprints) use(rctx *actor.ReceiveContext, msg *UseFingerprint) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() {
		x.Deny(rctx, "use fingerprint", identity)
		return
	}

	hash := msg.Hash
	if hash == "" {
		if len(msg.Characteristics) == 0 {
			x.Fail(rctx, gerrors.NewValidationError("hash or characteristics are required", map[string]string{"hash": "required"}))
			return
		}
		hash = model.FingerprintHash(msg.Characteristics...)
	}

	current, err := getOrNew(rctx, x.Base, hash, func() document.Document {
		return document.Document{document.UIDField: hash, "count": 0, "blocked": false}
	})
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if blocked, _ := current["blocked"].(bool); blocked {
		x.Deny(rctx, "use blocked fingerprint", identity)
		return
	}

	now := model.Timestamp(x.Now())
	changes := document.Document{
		"count":               count(current["count"]) + 1,
		"lastSeen":            now,
		document.UpdatedField: now,
	}
	if msg.User != "" {
		changes["user"] = msg.User
	}
	if msg.Quiz != "" {
		changes["quiz"] = msg.Quiz
	}

	stored, err := save[model.Fingerprint](rctx, x.Base, document.Merge(current, changes))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}

// block sets the blocked flag. Blocking also deactivates the user of the
// device; unblocking leaves the user as it is.
func (x *fingerprints) block(rctx *actor.ReceiveContext, hash string, blocked bool) {
	identity := x.Identity(rctx)
	if !identity.Role.Staff() {
		x.Deny(rctx, "block fingerprint", identity)
		return
	}

	current, err := x.Get(rctx, hash)
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	if user := current.String("user"); blocked && user != "" {
		switch err := x.deactivate(rctx, user); {
		case errors.Is(err, gerrors.ErrNotFound):
			x.Logger().Warnf("%s: user %s of blocked fingerprint %s is unknown", x.Collection(), user, hash)
		case err != nil:
			x.Fail(rctx, err)
			return
		}
	}

	stored, err := save[model.Fingerprint](rctx, x.Base, document.Merge(current, document.Document{
		"blocked":             blocked,
		document.UpdatedField: model.Timestamp(x.Now()),
	}))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *fingerprints) deactivate(rctx *actor.ReceiveContext, user string) error {
	users, err := rctx.ActorSystem().LocalActor(UsersName)
	if err != nil {
		return err
	}
	_, err = rctx.Ask(users, &UpdateUser{Changes: document.Document{document.UIDField: user, "active": false}}, x.cfg.askTimeout)
	return err
}
