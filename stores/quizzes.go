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

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/stateful"
	"github.com/tochemey/quizakt/store"
)

// scopes lists the collections owned by the children of a loaded quiz
var scopes = []string{model.Questions, model.Comments, model.QuizRuns, model.Statistics}

// quizzes is the quiz directory. Every quiz it loads gets one child per
// scope, stopped again when the quiz leaves the cache.
type quizzes struct {
	*stateful.Base
	st  store.Store
	cfg *config
}

var _ actor.Actor = (*quizzes)(nil)

func newQuizzes(st store.Store, cfg *config) *quizzes {
	x := &quizzes{st: st, cfg: cfg}
	x.Base = stateful.NewBase(model.Quizzes, st, append(cfg.baseOptions(),
		stateful.WithResolver(resolver(cfg)),
		stateful.WithReadAuthorizer(x.readable),
		stateful.WithOnCached(x.spawnChildren),
		stateful.WithOnEvicted(x.stopChildren))...)
	return x
}

func (x *quizzes) Receive(rctx *actor.ReceiveContext) {
	if x.Handle(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *CreateQuiz:
		x.create(rctx, msg)
	case *UpdateQuiz:
		x.update(rctx, msg)
	case *GetQuiz:
		identity := x.Identity(rctx)
		doc, err := x.Read(rctx, identity, msg.UID)
		if err != nil {
			x.Fail(rctx, err)
			return
		}
		rctx.Response(snapshot(x.Base, doc, identity))
	case *GetQuizzes:
		x.Stream(rctx, document.Filter{document.ArchivedField: nil}, x.Identity(rctx))
	case *JoinQuiz:
		x.join(rctx, msg)
	case *ArchiveQuiz:
		x.archive(rctx, msg)
	case *DeleteQuiz:
		x.delete(rctx, msg)
	case *WatchQuiz:
		x.watch(rctx, msg.Quiz, msg.Scope, &stateful.SubscribeToCollection{Fields: msg.Fields})
	case *UnwatchQuiz:
		x.watch(rctx, msg.Quiz, msg.Scope, new(stateful.UnsubscribeFromCollection))
	case QuizScoped:
		x.route(rctx, msg)
	default:
		rctx.Unhandled()
	}
}

// readable lets the staff browse every quiz and the students read the
// quizzes they take
func (x *quizzes) readable(identity auth.Identity, quiz document.Document) error {
	if identity.Role.Staff() || participates(quiz, identity) {
		return nil
	}
	return deny("read quiz", identity)
}

func (x *quizzes) spawnChildren(ctx context.Context, quiz document.Document) {
	for _, scope := range scopes {
		name := childName(scope, quiz.UID())
		if _, err := x.Self().SpawnChild(ctx, name, x.newChild(scope, quiz)); err != nil {
			x.Logger().Errorf("%s: failed to spawn %s: %v", x.Collection(), name, err)
		}
	}
}

func (x *quizzes) stopChildren(ctx context.Context, uid string) {
	for _, scope := range scopes {
		child, err := x.Self().Child(childName(scope, uid))
		if err != nil {
			continue
		}
		if err := child.Shutdown(ctx); err != nil {
			x.Logger().Warnf("%s: failed to stop %s: %v", x.Collection(), child.Name(), err)
		}
	}
}

func (x *quizzes) newChild(scope string, quiz document.Document) actor.Actor {
	switch scope {
	case model.Questions:
		return newQuestions(quiz, x.st, x.cfg)
	case model.Comments:
		return newComments(quiz, x.st, x.cfg)
	case model.QuizRuns:
		return newRuns(quiz, x.st, x.cfg)
	default:
		return newStatistics(quiz, x.st, x.cfg)
	}
}

// child returns the running child owning scope for the quiz
func (x *quizzes) child(quiz, scope string) (*actor.PID, error) {
	for _, known := range scopes {
		if known == scope {
			return x.Self().Child(childName(scope, quiz))
		}
	}
	return nil, gerrors.NewValidationError("unknown scope", map[string]string{"scope": scope})
}

// changed gives the children the latest snapshot of the quiz
func (x *quizzes) changed(rctx *actor.ReceiveContext, quiz document.Document) {
	for _, scope := range scopes {
		child, err := x.child(quiz.UID(), scope)
		if err != nil {
			x.Logger().Warnf("%s: %s of quiz %s is not running: %v", x.Collection(), scope, quiz.UID(), err)
			continue
		}
		rctx.Tell(child, &QuizChanged{Quiz: quiz})
	}
}

// clear deletes the entities of the given scopes belonging to the quiz
func (x *quizzes) clear(rctx *actor.ReceiveContext, quiz string, scopes ...string) error {
	for _, scope := range scopes {
		child, err := x.child(quiz, scope)
		if err != nil {
			return err
		}
		if _, err := rctx.Ask(child, &ClearQuizData{Quiz: quiz}, x.cfg.askTimeout); err != nil {
			return err
		}
	}
	return nil
}

func (x *quizzes) create(rctx *actor.ReceiveContext, msg *CreateQuiz) {
	identity := x.Identity(rctx)
	if !identity.Role.Staff() {
		x.Deny(rctx, "create quiz", identity)
		return
	}

	payload, err := msg.Quiz.Normalize()
	if err != nil {
		x.Fail(rctx, gerrors.NewValidationError(err.Error(), nil))
		return
	}

	doc := model.Restrict(payload, model.AllowedFields(model.Quizzes, identity, false))
	doc["state"] = string(model.Editing)
	if identity.UserID != "" && !listed(doc, "teachers", identity.UserID) {
		teachers, _ := doc["teachers"].([]any)
		doc["teachers"] = append(teachers, identity.UserID)
	}

	stored, err := create[model.Quiz](rctx, x.Base, doc)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(&stateful.Created{UID: stored.UID()})
}

// update applies the changes of a teacher of the quiz. Moving the quiz back
// to EDITING deletes its runs and statistics first.
func (x *quizzes) update(rctx *actor.ReceiveContext, msg *UpdateQuiz) {
	identity := x.Identity(rctx)
	if err := requireUID(msg.Changes); err != nil {
		x.Fail(rctx, err)
		return
	}

	current, err := x.Get(rctx, msg.Changes.UID())
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if !manages(current, identity) {
		x.Deny(rctx, "update quiz", identity)
		return
	}
	if current.Has(document.ArchivedField) {
		x.Fail(rctx, gerrors.NewValidationError("the quiz is archived", nil))
		return
	}

	from := model.QuizState(current.String("state"))
	to := from
	if state, ok := msg.Changes["state"].(string); ok {
		to = model.QuizState(state)
	}
	if err := model.Transition(from, to); err != nil {
		x.Fail(rctx, err)
		return
	}
	if model.ClearsResults(from, to) {
		if err := x.clear(rctx, current.UID(), model.QuizRuns, model.Statistics); err != nil {
			x.Fail(rctx, err)
			return
		}
		x.Logger().Infof("%s: quiz %s went back to %s, results cleared", x.Collection(), current.UID(), to)
	}

	stored, err := update[model.Quiz](rctx, x.Base, current, msg.Changes, model.AllowedFields(model.Quizzes, identity, false))
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	x.changed(rctx, stored)
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *quizzes) join(rctx *actor.ReceiveContext, msg *JoinQuiz) {
	identity := x.Identity(rctx)
	if identity.UserID == "" {
		x.Deny(rctx, "join quiz", identity)
		return
	}

	current, err := x.Get(rctx, msg.UID)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if current.Has(document.ArchivedField) {
		x.Fail(rctx, gerrors.NewValidationError("the quiz is archived", nil))
		return
	}
	if participates(current, identity) {
		rctx.Response(snapshot(x.Base, current, identity))
		return
	}

	students, _ := current["students"].([]any)
	joined := document.Merge(current, document.Document{
		"students":           append(students, identity.UserID),
		document.UpdatedField: model.Timestamp(x.Now()),
	})
	stored, err := save[model.Quiz](rctx, x.Base, joined)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	x.changed(rctx, stored)
	rctx.Response(snapshot(x.Base, stored, identity))
}

func (x *quizzes) archive(rctx *actor.ReceiveContext, msg *ArchiveQuiz) {
	identity := x.Identity(rctx)
	current, err := x.Get(rctx, msg.UID)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if !manages(current, identity) {
		x.Deny(rctx, "archive quiz", identity)
		return
	}
	if current.Has(document.ArchivedField) {
		rctx.Response(snapshot(x.Base, current, identity))
		return
	}

	now := model.Timestamp(x.Now())
	archived := document.Merge(current, document.Document{
		document.ArchivedField: now,
		document.UpdatedField:  now,
	})
	stored, err := save[model.Quiz](rctx, x.Base, archived)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	x.changed(rctx, stored)
	rctx.Response(snapshot(x.Base, stored, identity))
}

// delete removes the quiz with everything that belongs to it
func (x *quizzes) delete(rctx *actor.ReceiveContext, msg *DeleteQuiz) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() {
		x.Deny(rctx, "delete quiz", identity)
		return
	}

	current, err := x.Get(rctx, msg.UID)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if err := x.clear(rctx, current.UID(), scopes...); err != nil {
		x.Fail(rctx, err)
		return
	}
	if err := x.Delete(rctx, current.UID()); err != nil {
		x.Fail(rctx, err)
		return
	}
	x.Logger().Infof("%s: quiz %s deleted", x.Collection(), current.UID())
	rctx.Response(new(stateful.Ack))
}

// watch forwards a collection subscription to the child owning scope
func (x *quizzes) watch(rctx *actor.ReceiveContext, uid, scope string, subscription any) {
	identity := x.Identity(rctx)
	quiz, err := x.Get(rctx, uid)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	if !participates(quiz, identity) {
		x.Deny(rctx, "watch "+scope, identity)
		return
	}

	child, err := x.child(quiz.UID(), scope)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.ForwardMessage(child, subscription)
}

// route loads the quiz, which brings its children up, and forwards the
// message to the child owning its collection
func (x *quizzes) route(rctx *actor.ReceiveContext, msg QuizScoped) {
	if err := required("quiz", msg.QuizUID()); err != nil {
		x.Fail(rctx, err)
		return
	}
	quiz, err := x.Get(rctx, msg.QuizUID())
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	child, err := x.child(quiz.UID(), msg.Collection())
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Forward(child)
}
