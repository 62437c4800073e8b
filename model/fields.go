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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
)

// Collections
const (
	Quizzes      = "quizzes"
	Questions    = "questions"
	Comments     = "comments"
	QuizRuns     = "quizruns"
	Statistics   = "statistics"
	Users        = "users"
	Sessions     = "sessions"
	Fingerprints = "fingerprints"
)

func fields(names ...string) mapset.Set[string] {
	return mapset.NewThreadUnsafeSet(names...)
}

var (
	quizFields     = fields("title", "description", "teachers", "students", "state")
	questionFields = fields("text", "type", "options", "correct", "points", "order")
	userSelfFields = fields("name", "email")
	userAllFields  = fields("name", "email", "role", "active", "temporary", "fingerprint")
	none           = fields()
)

// AllowedFields returns the fields of an entity of collection the identity
// may change. isSelf is true when the identity owns the entity: the author
// of a comment or the user itself.
func AllowedFields(collection string, identity auth.Identity, isSelf bool) mapset.Set[string] {
	privileged := identity.Role.Privileged()
	staff := identity.Role.Staff()

	switch collection {
	case Quizzes:
		if staff {
			return quizFields
		}
	case Questions:
		if staff {
			return questionFields
		}
	case Comments:
		switch {
		case staff:
			return fields("text", "answered")
		case isSelf:
			return fields("text")
		}
	case Users:
		switch {
		case privileged:
			return userAllFields
		case isSelf:
			return userSelfFields
		}
	case Sessions, Fingerprints, QuizRuns, Statistics:
		// changed through dedicated messages only
	}
	return none
}

// Restrict returns the part of delta whose fields are allowed. The uid is
// always kept and the timestamps are never taken from a caller.
func Restrict(delta document.Document, allowed mapset.Set[string]) document.Document {
	restricted := make(document.Document, len(delta))
	for key, value := range delta {
		if key == document.UIDField || allowed.Contains(key) {
			restricted[key] = value
		}
	}
	return restricted
}

// Rejected returns the sorted fields of delta that are not allowed
func Rejected(delta document.Document, allowed mapset.Set[string]) []string {
	var rejected []string
	for _, key := range delta.Keys() {
		if key != document.UIDField && !allowed.Contains(key) {
			rejected = append(rejected, key)
		}
	}
	return rejected
}
