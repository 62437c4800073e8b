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

package model

import (
	"fmt"

	gerrors "github.com/tochemey/quizakt/errors"
)

// QuizState is the lifecycle state of a quiz
type QuizState string

const (
	// Editing lets teachers change the questions. Entering it clears the
	// runs and the statistics of the quiz.
	Editing QuizState = "EDITING"
	// Started freezes the questions and lets students answer
	Started QuizState = "STARTED"
	// Stopped freezes the answers and keeps the results for review
	Stopped QuizState = "STOPPED"
)

var transitions = map[QuizState][]QuizState{
	Editing: {Started},
	Started: {Stopped, Editing},
	Stopped: {Editing, Started},
}

// Valid reports whether s is a known state
func (s QuizState) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the state name
func (s QuizState) String() string {
	return string(s)
}

// Transition returns nil when a quiz may move from one state to the other.
// Staying in the same state is always allowed.
func Transition(from, to QuizState) error {
	if !to.Valid() {
		return gerrors.NewValidationError(fmt.Sprintf("unknown quiz state %q", to), map[string]string{"state": "unknown"})
	}
	if from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return gerrors.NewValidationError(fmt.Sprintf("a quiz cannot go from %s to %s", from, to), map[string]string{"state": "transition"})
}

// ClearsResults reports whether moving to the state discards the runs and
// the statistics of the quiz
func ClearsResults(from, to QuizState) bool {
	return to == Editing && from != Editing
}
