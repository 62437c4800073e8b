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
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
)

func TestValidate(t *testing.T) {
	t.Run("With a valid quiz", func(t *testing.T) {
		quiz := &Quiz{
			Entity:   Entity{UID: "q1"},
			Title:    "Go",
			Teachers: []string{"t1"},
			State:    Editing,
		}
		assert.NoError(t, Validate(quiz))
	})
	t.Run("With failures keyed by json name", func(t *testing.T) {
		err := Validate(&Quiz{Entity: Entity{UID: "q1"}, Title: "  ", State: "PAUSED"})
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrValidation)

		var validation *gerrors.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "title cannot be blank", validation.Fields["title"])
		assert.Equal(t, "state is not a known quiz state", validation.Fields["state"])
		assert.Contains(t, validation.Fields, "teachers")
	})
	t.Run("With options required for choices only", func(t *testing.T) {
		question := &Question{Entity: Entity{UID: "x"}, Quiz: "q1", Text: "Why?", Type: FreeText}
		assert.NoError(t, Validate(question))

		question.Type = SingleChoice
		assert.ErrorIs(t, Validate(question), gerrors.ErrValidation)

		question.Options = []string{"yes", "no"}
		assert.NoError(t, Validate(question))
	})
	t.Run("With an unknown role", func(t *testing.T) {
		user := &User{Entity: Entity{UID: "u1"}, Name: "Ada", Role: "ROOT"}
		var validation *gerrors.ValidationError
		require.ErrorAs(t, Validate(user), &validation)
		assert.Equal(t, "role is not a known role", validation.Fields["role"])
	})
	t.Run("With a decoded document", func(t *testing.T) {
		doc := Stamp(document.Document{"title": "Go", "teachers": []any{"t1"}, "state": "EDITING"}, time.Now())
		quiz, err := Decode[Quiz](doc)
		require.NoError(t, err)
		assert.Equal(t, doc.UID(), quiz.UID)
		assert.False(t, quiz.Created.IsZero())

		_, err = Decode[Quiz](document.Document{"uid": "q1", "teachers": "t1"})
		assert.ErrorIs(t, err, gerrors.ErrValidation)
	})
	t.Run("With an encoded entity", func(t *testing.T) {
		doc, err := Encode(&Comment{Entity: Entity{UID: "c1"}, Quiz: "q1", Author: "s1", Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "c1", doc.UID())
		assert.Equal(t, false, doc["answered"])
		assert.NotContains(t, doc, "archived")

		_, err = Encode(&Comment{Entity: Entity{UID: "c1"}})
		assert.ErrorIs(t, err, gerrors.ErrValidation)
	})
}

func TestStamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	doc := Stamp(document.Document{"title": "Go"}, now)
	assert.NotEmpty(t, doc.UID())
	assert.Equal(t, "2024-05-01T10:00:00Z", doc[document.CreatedField])
	assert.Equal(t, "2024-05-01T10:00:00Z", doc[document.UpdatedField])

	kept := Stamp(document.Document{"uid": "q1", "created": "2020-01-01T00:00:00Z"}, now)
	assert.Equal(t, "q1", kept.UID())
	assert.Equal(t, "2020-01-01T00:00:00Z", kept[document.CreatedField])
}

func TestTransition(t *testing.T) {
	cases := []struct {
		from, to QuizState
		allowed  bool
	}{
		{Editing, Started, true},
		{Editing, Stopped, false},
		{Started, Stopped, true},
		{Started, Editing, true},
		{Stopped, Editing, true},
		{Stopped, Started, true},
		{Started, Started, true},
		{Editing, "PAUSED", false},
	}
	for _, c := range cases {
		err := Transition(c.from, c.to)
		if c.allowed {
			assert.NoError(t, err, "%s -> %s", c.from, c.to)
			continue
		}
		assert.ErrorIs(t, err, gerrors.ErrValidation, "%s -> %s", c.from, c.to)
	}

	assert.True(t, ClearsResults(Started, Editing))
	assert.True(t, ClearsResults(Stopped, Editing))
	assert.False(t, ClearsResults(Editing, Editing))
	assert.False(t, ClearsResults(Started, Stopped))
}

func TestAllowedFields(t *testing.T) {
	student := auth.Identity{Role: auth.Student, UserID: "s1"}
	teacher := auth.Identity{Role: auth.Teacher, UserID: "t1"}
	admin := auth.Identity{Role: auth.Admin, UserID: "a1"}

	t.Run("With comments", func(t *testing.T) {
		assert.True(t, AllowedFields(Comments, student, true).Contains("text"))
		assert.False(t, AllowedFields(Comments, student, true).Contains("answered"))
		assert.Zero(t, AllowedFields(Comments, student, false).Cardinality())
		assert.True(t, AllowedFields(Comments, teacher, false).Contains("answered"))
	})
	t.Run("With users", func(t *testing.T) {
		self := AllowedFields(Users, student, true)
		assert.True(t, self.Contains("name"))
		assert.False(t, self.Contains("role"))
		assert.False(t, self.Contains("active"))
		assert.Zero(t, AllowedFields(Users, teacher, false).Cardinality())
		assert.True(t, AllowedFields(Users, admin, false).Contains("role"))
		assert.True(t, AllowedFields(Users, auth.SystemIdentity, false).Contains("active"))
	})
	t.Run("With quizzes", func(t *testing.T) {
		assert.Zero(t, AllowedFields(Quizzes, student, false).Cardinality())
		assert.True(t, AllowedFields(Quizzes, teacher, false).Contains("state"))
	})
	t.Run("With a restricted delta", func(t *testing.T) {
		delta := document.Document{"uid": "u1", "name": "Ada", "role": "ADMIN", "updated": "x"}
		allowed := AllowedFields(Users, student, true)
		assert.Equal(t, document.Document{"uid": "u1", "name": "Ada"}, Restrict(delta, allowed))
		assert.Equal(t, []string{"role", "updated"}, Rejected(delta, allowed))
	})
}

func TestIDs(t *testing.T) {
	assert.NotEqual(t, NewUID(), NewUID())
	assert.Equal(t, StatisticUID("q1", "x1"), StatisticUID("q1", "x1"))
	assert.NotEqual(t, StatisticUID("q1", "x1"), StatisticUID("q1", "x2"))
	assert.NotEqual(t, RunUID("q1", "s1"), StatisticUID("q1", "s1"))

	hash := FingerprintHash("Mozilla/5.0", "10.0.0.1")
	assert.Len(t, hash, 32)
	assert.Equal(t, hash, FingerprintHash("Mozilla/5.0", "10.0.0.1"))
	assert.NotEqual(t, hash, FingerprintHash("Mozilla/5.0", "10.0.0.2"))
}

func TestTokenExpiry(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	actual, err := TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, expires.Equal(actual))

	_, err = TokenExpiry("not-a-token")
	assert.ErrorIs(t, err, gerrors.ErrValidation)

	unbounded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = TokenExpiry(unbounded)
	assert.ErrorIs(t, err, gerrors.ErrValidation)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, Session{}.Expired(now))
	assert.True(t, Session{Expires: now}.Expired(now))
	assert.False(t, Session{Expires: now.Add(time.Second)}.Expired(now))
}
