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
	"github.com/tochemey/quizakt/model"
	"github.com/tochemey/quizakt/store"
)

// statistics tallies the answers given to the questions of one quiz
type statistics struct {
	*quizScope
}

var _ actor.Actor = (*statistics)(nil)

func newStatistics(quiz document.Document, st store.Store, cfg *config) *statistics {
	return &statistics{quizScope: newQuizScope(model.Statistics, quiz, st, cfg)}
}

func (x *statistics) Receive(rctx *actor.ReceiveContext) {
	if x.handleScope(rctx) {
		return
	}

	switch msg := rctx.Message().(type) {
	case *RecordAnswer:
		x.record(rctx, msg)
	case *GetStatistics:
		x.list(rctx, nil)
	default:
		rctx.Unhandled()
	}
}

// record moves one vote of the question from the previous answer, if any,
// to the new one. Only the runs of the quiz may record.
func (x *statistics) record(rctx *actor.ReceiveContext, msg *RecordAnswer) {
	identity := x.Identity(rctx)
	if !identity.Role.Privileged() {
		x.Deny(rctx, "record answer", identity)
		return
	}

	uid := model.StatisticUID(x.quizUID(), msg.Question)
	current, err := getOrNew(rctx, x.Base, uid, func() document.Document {
		return document.Document{
			document.UIDField: uid,
			"quiz":            x.quizUID(),
			"question":        msg.Question,
			"tallies":         map[string]any{},
			"answered":        0,
		}
	})
	if err != nil {
		x.Fail(rctx, err)
		return
	}

	tallies := document.Document{}
	if stored, ok := current["tallies"].(map[string]any); ok {
		tallies = document.Document(stored).Clone()
	}
	answered := count(current["answered"])

	if msg.Previous != "" {
		if left := count(tallies[msg.Previous]) - 1; left > 0 {
			tallies[msg.Previous] = left
		} else {
			delete(tallies, msg.Previous)
		}
	} else {
		answered++
	}
	tallies[msg.Answer] = count(tallies[msg.Answer]) + 1

	changed := document.Merge(current, document.Document{"answered": answered})
	changed["tallies"] = tallies
	changed[document.UpdatedField] = model.Timestamp(x.Now())
	stored, err := save[model.Statistic](rctx, x.Base, changed)
	if err != nil {
		x.Fail(rctx, err)
		return
	}
	rctx.Response(snapshot(x.Base, stored, identity))
}
