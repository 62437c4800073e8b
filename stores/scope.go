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

// quizScope is embedded by the actors owning one collection of one quiz.
// They are children of the quiz directory and keep the latest snapshot of
// the quiz it sends them.
type quizScope struct {
	*stateful.Base
	quiz document.Document
	cfg  *config
}

// newQuizScope builds the scope of quiz. Only the participants of the quiz
// may read unless opts carry another read authorizer.
func newQuizScope(collection string, quiz document.Document, st store.Store, cfg *config, opts ...stateful.Option) *quizScope {
	x := &quizScope{quiz: quiz.Clone(), cfg: cfg}
	options := append(cfg.baseOptions(),
		stateful.WithResolver(resolver(cfg)),
		stateful.WithReadAuthorizer(x.canRead))
	x.Base = stateful.NewBase(collection, st, append(options, opts...)...)
	return x
}

func (x *quizScope) quizUID() string {
	return x.quiz.UID()
}

func (x *quizScope) state() model.QuizState {
	return model.QuizState(x.quiz.String("state"))
}

func (x *quizScope) archived() bool {
	return x.quiz.Has(document.ArchivedField)
}

func (x *quizScope) manages(identity auth.Identity) bool {
	return manages(x.quiz, identity)
}

func (x *quizScope) participates(identity auth.Identity) bool {
	return participates(x.quiz, identity)
}

// canRead lets the participants of the quiz read its entities
func (x *quizScope) canRead(identity auth.Identity, _ document.Document) error {
	if !x.participates(identity) {
		return deny("read "+x.Collection(), identity)
	}
	return nil
}

// own returns the entity with the given uid when it belongs to the quiz
func (x *quizScope) own(rctx *actor.ReceiveContext, identity auth.Identity, uid string) (document.Document, error) {
	if err := required(document.UIDField, uid); err != nil {
		return nil, err
	}
	doc, err := x.Read(rctx, identity, uid)
	if err != nil {
		return nil, err
	}
	if doc.String("quiz") != x.quizUID() {
		return nil, gerrors.NewNotFoundError(x.Collection(), uid)
	}
	return doc, nil
}

// list streams the entities of the quiz matching filter
func (x *quizScope) list(rctx *actor.ReceiveContext, filter document.Filter) {
	identity := x.Identity(rctx)
	if !x.participates(identity) {
		x.Deny(rctx, "list "+x.Collection(), identity)
		return
	}
	scoped := document.Filter{"quiz": x.quizUID()}
	for key, value := range filter {
		scoped[key] = value
	}
	x.Stream(rctx, scoped, identity)
}

// handleScope serves the generic messages and those every quiz scoped
// actor understands
func (x *quizScope) handleScope(rctx *actor.ReceiveContext) bool {
	if x.Handle(rctx) {
		return true
	}

	switch msg := rctx.Message().(type) {
	case *QuizChanged:
		if !x.Identity(rctx).Role.Privileged() {
			x.Deny(rctx, "change quiz", x.Identity(rctx))
			return true
		}
		x.quiz = msg.Quiz.Clone()
		rctx.Response(new(stateful.Ack))
	case *ClearQuizData:
		identity := x.Identity(rctx)
		if !identity.Role.Privileged() {
			x.Deny(rctx, "clear "+x.Collection(), identity)
			return true
		}
		cleared, err := x.Clear(rctx, document.Filter{"quiz": x.quizUID()})
		if err != nil {
			x.Fail(rctx, err)
			return true
		}
		if cleared > 0 {
			x.Logger().Infof("%s: cleared %d entities of quiz %s", x.Collection(), cleared, x.quizUID())
		}
		rctx.Response(&stateful.Streamed{Count: cleared})
	default:
		return false
	}
	return true
}
