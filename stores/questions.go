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
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// questions owns the questions of one quiz
type questions struct {
	*quizScope
}

var _ actor.Actor = (*questions)(nil)

func newQuestions(quiz document.Document, st store.Store, cfg *config) *questions {
	x := new(questions)
	x.quizScope = newQuizScope(model.Questions, quiz, st, cfg, stateful.WithView(x.view))
	return x
}

func (x *questions) Receive(rctx *actor.ReceiveContext) {
	if x.handleScope(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *AddQuestion:
		x.add(rctx, msg)
	case *UpdateQuestion:
		x.update(rctx, msg)
	case *RemoveQuestion:
		x.remove(rctx, msg)
	case *GetQuestion:
		identity := x.Identity(rctx)
		doc, err := x.own(rctx, identity, msg.UID)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetQuestions:
		x.list(rctx, nil)
	default:
		rctx.Unhandled()
	}
}

// view hides the right answers from students until the quiz is stopped
func (x *questions) view(doc document.Document, identity auth.Identity) document.Document {
	if x.manages(identity) || x.state() == model.Stopped {
		return doc
	}
	return doc.Without("correct")
}

// editable returns an error once the questions are frozen
func (x *questions) editable(identity auth.Identity, operation string) error {
	if !x.manages(identity) {
		return deny(operation, identity)
	}
	if x.archived() || x.state() != model.Editing {
		return gerrors.NewValidationError("questions can only change while the quiz is edited", map[string]string{"state": string(x.state())})
	}
	return nil
}

func (x *questions) add(rctx *actor.ReceiveContext, msg *AddQuestion) {
	identity := x.Identity(rctx)
	if err := x.editable(identity, "add question"); err != nil {
		x.Fail(rctx, err)
		return
	}

	doc := document.Merge(msg.Question, document.Document{
		"quiz":   x.quizUID(),
		"author": author(identity, msg.Question),
	})
	stored, err := create[model.Question](rctx, x.Base, doc)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(&stateful.Created{UID: stored.UID()})
}

func (x *questions) update(rctx *actor.ReceiveContext, msg *UpdateQuestion) {
	identity := x.Identity(rctx)
	if err := x.editable(identity, "update question"); err != nil {
		x.Fail(rctx, err)
		return
	}

	current, err := x.own(rctx, identity, msg.Changes.UID())
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	stored, err := update[model.Question](rctx, x.Base, current, msg.Changes, model.AllowedFields(model.Questions, identity, false))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *questions) remove(rctx *actor.ReceiveContext, msg *RemoveQuestion) {
	identity := x.Identity(rctx)
	if err := x.editable(identity, "remove question"); err != nil {
		x.Fail(rctx, err)
		return
	}
	if _, err := x.own(rctx, identity, msg.UID); err != nil {
		x.Fail(rctx, err)
		return
	}
	if err := x.Delete(rctx, msg.UID); err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(new(stateful.Ack))
}
