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

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
)

// create stamps doc, validates it as a T, stores it and notifies the
// subscribers. A caller supplied uid must not be taken yet.
func create[T any](rctx *actor.ReceiveContext, base *stateful.Base, doc document.Document) (document.Document, error) {
	if uid := doc.UID(); uid != "" {
		_, err := base.Get(rctx, uid)
		switch {
		case err == nil:
			return nil, gerrors.NewValidationError("uid is already taken", map[string]string{document.UIDField: "taken"})
		case !errors.Is(err, gerrors.ErrNotFound):
			return nil, err
		}
	}
	return save[T](rctx, base, model.Stamp(doc, base.Now()))
}

// update applies the allowed part of changes to current, validates the
// result as a T, stores it and notifies the subscribers
func update[T any](rctx *actor.ReceiveContext, base *stateful.Base, current, changes document.Document, allowed mapset.Set[string]) (document.Document, error) {
	if rejected := model.Rejected(changes, allowed); len(rejected) > 0 {
		base.Logger().Debugf("%s: ignoring %v in the changes of %s", base.Collection(), rejected, current.UID())
	}

	merged := document.Merge(current, model.Restrict(changes, allowed))
	merged[document.UpdatedField] = model.Timestamp(base.Now())
	return save[T](rctx, base, merged)
}

func save[T any](rctx *actor.ReceiveContext, base *stateful.Base, doc document.Document) (document.Document, error) {
	entity, err := model.Decode[T](doc)
	if err != nil {
		return nil, err
	}
	normalized, err := model.Encode(entity)
	if err != nil {
		return nil, err
	}

	stored, err := base.Put(rctx, normalized)
	if err != nil {
		return nil, err
	}
	base.NotifyUpdated(rctx, stored)
	return stored, nil
}

// getOrNew returns the entity with the given uid, or fresh when there is none
func getOrNew(rctx *actor.ReceiveContext, base *stateful.Base, uid string, fresh func() document.Document) (document.Document, error) {
	doc, err := base.Get(rctx, uid)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, gerrors.ErrNotFound):
		return model.Stamp(fresh(), base.Now()), nil
	default:
		return nil, err
	}
}

func snapshot(base *stateful.Base, doc document.Document, identity auth.Identity) *Snapshot {
	return &Snapshot{Collection: base.Collection(), Entity: base.View(doc, identity)}
}

func requireUID(changes document.Document) error {
	if changes.UID() == "" {
		return gerrors.NewValidationError("uid is required", map[string]string{document.UIDField: "required"})
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return gerrors.NewValidationError(field+" is required", map[string]string{field: "required"})
	}
	return nil
}

// listed reports whether userID is one of the values of the array field
func listed(doc document.Document, field, userID string) bool {
	if userID == "" {
		return false
	}
	items, _ := doc[field].([]any)
	for _, item := range items {
		if item == userID {
			return true
		}
	}
	return false
}

// manages reports whether identity may change the quiz and its questions
func manages(quiz document.Document, identity auth.Identity) bool {
	return identity.Role.Privileged() || (identity.Role.Staff() && listed(quiz, "teachers", identity.UserID))
}

// participates reports whether identity takes part in the quiz
func participates(quiz document.Document, identity auth.Identity) bool {
	return manages(quiz, identity) ||
		listed(quiz, "teachers", identity.UserID) ||
		listed(quiz, "students", identity.UserID)
}

// author returns the caller as the author of doc. Actors of the server
// carry no user and keep the author they were given.
func author(identity auth.Identity, doc document.Document) string {
	if identity.UserID == "" {
		return doc.String("author")
	}
	return identity.UserID
}

func deny(operation string, identity auth.Identity) error {
	return gerrors.NewAuthorizationError(operation, identity.Role.String())
}

// count reads a tally of a normalized document
func count(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
