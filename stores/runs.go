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

// runs owns the answers the students gave to one quiz
type runs struct {
	*quizScope
}

var _ actor.Actor = (*runs)(nil)

func newRuns(quiz document.Document, st store.Store, cfg *config) *runs {
	x := new(runs)
	x.quizScope = newQuizScope(model.QuizRuns, quiz, st, cfg, stateful.WithReadAuthorizer(x.readable))
	return x
}

func (x *runs) Receive(rctx *actor.ReceiveContext) {
	if x.handleScope(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *AnswerQuestion:
		x.answer(rctx, msg)
	case *GetRun:
		identity := x.Identity(rctx)
		doc, err := x.own(rctx, identity, msg.UID)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetRuns:
		identity := x.Identity(rctx)
		var filter document.Filter
		if !x.manages(identity) {
			filter = document.Filter{"student": identity.UserID}
		}
		x.list(rctx, filter)
	default:
		rctx.Unhandled()
	}
}

// readable lets the teachers of the quiz read every run and a student read
// its own
func (x *runs) readable(identity auth.Identity, doc document.Document) error {
	if x.manages(identity) || (x.participates(identity) && identity.Is(doc.String("student"))) {
		return nil
	}
	return deny("read run", identity)
}

func (x *runs) answer(rctx *actor.ReceiveContext, msg *AnswerQuestion) {
	identity := x.Identity(rctx)
	if identity.UserID == "" || !x.participates(identity) {
		x.Deny(rctx, "answer question", identity)
		return
	}
	if x.archived() || x.state() != model.Started {
		x.Fail(rctx, gerrors.NewValidationError("the quiz is not started", map[string]string{"state": string(x.state())}))
		return
	}
	if err := required("question", msg.Question); err != nil {
		x.Fail(rctx, err)
		return
	}
	if err := required("answer", msg.Answer); err != nil {
		x.Fail(rctx, err)
		return
	}

	uid := model.RunUID(x.quizUID(), identity.UserID)
	current, err := getOrNew(rctx, x.Base, uid, func() document.Document {
		return document.Document{
			document.UIDField: uid,
			"quiz":            x.quizUID(),
			"student":         identity.UserID,
			"answers":         map[string]any{},
		}
	})
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	answers, _ := current["answers"].(map[string]any)
	previous, answered := answers[msg.Question].(string)
	if answered && previous == msg.Answer {
		rctx.Response(snapshot(x.Base, current, identity))
		return
	}

	merged := document.Merge(current, document.Document{
		"answers": document.Merge(document.Document(answers), document.Document{msg.Question: msg.Answer}),
	})
	merged[document.UpdatedField] = model.Timestamp(x.Now())
	stored, err := save[model.QuizRun](rctx, x.Base, merged)
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	if statistics, err := sibling(rctx, model.Statistics, x.quizUID()); err != nil {
		x.Logger().Warnf("%s: no statistics for quiz %s: %v", x.Collection(), x.quizUID(), err)
	} else {
		rctx.Tell(statistics, &RecordAnswer{
			Quiz:     x.quizUID(),
			Question: msg.Question,
			Previous: previous,
			Answer:   msg.Answer,
		})
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}
