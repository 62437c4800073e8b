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
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// comments owns the comments of one quiz
type comments struct {
	*quizScope
}

var _ actor.Actor = (*comments)(nil)

func newComments(quiz document.Document, st store.Store, cfg *config) *comments {
	return &comments{quizScope: newQuizScope(model.Comments, quiz, st, cfg)}
}

func (x *comments) Receive(rctx *actor.ReceiveContext) {
	if x.handleScope(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *AddComment:
		x.add(rctx, msg)
	case *UpdateComment:
		x.update(rctx, msg)
	case *RemoveComment:
		x.remove(rctx, msg)
	case *GetComment:
		identity := x.Identity(rctx)
		doc, err := x.own(rctx, identity, msg.UID)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetComments:
		x.list(rctx, nil)
	default:
		rctx.Unhandled()
	}
}

func (x *comments) add(rctx *actor.ReceiveContext, msg *AddComment) {
	identity := x.Identity(rctx)
	if !x.participates(identity) {
		x.Deny(rctx, "add comment", identity)
		return
	}
	if x.archived() {
		x.Fail(rctx, gerrors.NewValidationError("the quiz is archived", nil))
		return
	}

	doc := document.Merge(msg.Comment, document.Document{
		"quiz":     x.quizUID(),
		"author":   author(identity, msg.Comment),
		"answered": false,
	})
	stored, err := create[model.Comment](rctx, x.Base, doc)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(&stateful.Created{UID: stored.UID()})
}

// update lets the author change the text and the teachers of the quiz
// change the text and mark the comment answered
func (x *comments) update(rctx *actor.ReceiveContext, msg *UpdateComment) {
	identity := x.Identity(rctx)
	current, err := x.own(rctx, identity, msg.Changes.UID())
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	isAuthor := identity.Is(current.String("author"))
	if !isAuthor && !x.manages(identity) {
		x.Deny(rctx, "update comment", identity)
		return
	}

	stored, err := update[model.Comment](rctx, x.Base, current, msg.Changes, model.AllowedFields(model.Comments, identity, isAuthor))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *comments) remove(rctx *actor.ReceiveContext, msg *RemoveComment) {
	identity := x.Identity(rctx)
	current, err := x.own(rctx, identity, msg.UID)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if !identity.Is(current.String("author")) && !x.manages(identity) {
		x.Deny(rctx, "remove comment", identity)
		return
	}
	if err := x.Delete(rctx, msg.UID); err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(new(stateful.Ack))
}
