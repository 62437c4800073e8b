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

// Package model defines the persisted entities, their validation and the
// rules deciding which fields a caller may change.
package model

import (
	"time"

	"github.com/tochemey/quizakt/document"
)

// Entity holds the fields shared by every persisted document
type Entity struct {
	UID      string     `json:"uid" validate:"required"`
	Created  time.Time  `json:"created"`
	Updated  time.Time  `json:"updated"`
	Archived *time.Time `json:"archived,omitempty"`
}

// IsArchived reports whether the entity was archived
func (e Entity) IsArchived() bool {
	return e.Archived != nil
}

// Quiz is authored by its teachers and taken by its students
type Quiz struct {
	Entity
	Title       string    `json:"title" validate:"notblank,max=200"`
	Description string    `json:"description,omitempty" validate:"max=5000"`
	Teachers    []string  `json:"teachers" validate:"min=1,dive,notblank"`
	Students    []string  `json:"students"`
	State       QuizState `json:"state" validate:"quizstate"`
}

// Question belongs to a quiz. Correct holds the indices of the right options.
type Question struct {
	Entity
	Quiz    string       `json:"quiz" validate:"required"`
	Author  string       `json:"author"`
	Text    string       `json:"text" validate:"notblank"`
	Type    QuestionType `json:"type" validate:"oneof=SINGLE MULTIPLE TEXT"`
	Options []string     `json:"options" validate:"required_unless=Type TEXT,dive,notblank"`
	Correct []int        `json:"correct"`
	Points  int          `json:"points" validate:"min=0"`
	Order   int          `json:"order" validate:"min=0"`
}

// Comment is written on a quiz by any participant
type Comment struct {
	Entity
	Quiz     string `json:"quiz" validate:"required"`
	Author   string `json:"author" validate:"required"`
	Text     string `json:"text" validate:"notblank,max=2000"`
	Answered bool   `json:"answered"`
}

// QuizRun holds the answers of one student to one quiz, keyed by question uid
type QuizRun struct {
	Entity
	Quiz    string            `json:"quiz" validate:"required"`
	Student string            `json:"student" validate:"required"`
	Answers map[string]string `json:"answers"`
}

// Statistic tallies the answers given to one question
type Statistic struct {
	Entity
	Quiz     string         `json:"quiz" validate:"required"`
	Question string         `json:"question" validate:"required"`
	Tallies  map[string]int `json:"tallies"`
	Answered int            `json:"answered" validate:"min=0"`
}

// User is a registered or temporary account
type User struct {
	Entity
	Name        string `json:"name" validate:"notblank,max=200"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Role        string `json:"role" validate:"role"`
	Active      bool   `json:"active"`
	Temporary   bool   `json:"temporary"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Session binds a user, keyed by its uid, to the client system it is
// connected from
type Session struct {
	Entity
	Client       string    `json:"client" validate:"required"`
	Role         string    `json:"role" validate:"role"`
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Expires      time.Time `json:"expires"`
	Temporary    bool      `json:"temporary"`
}

// Expired reports whether the session is no longer valid at now
func (s Session) Expired(now time.Time) bool {
	return !s.Expires.IsZero() && !now.Before(s.Expires)
}

// Fingerprint correlates the anonymous participations of one device. Its
// uid is the hash of the device characteristics.
type Fingerprint struct {
	Entity
	Count    int       `json:"count" validate:"min=0"`
	LastSeen time.Time `json:"lastSeen"`
	Blocked  bool      `json:"blocked"`
	User     string    `json:"user,omitempty"`
	Quiz     string    `json:"quiz,omitempty"`
}

// QuestionType is the kind of answer a question expects
type QuestionType string

const (
	SingleChoice   QuestionType = "SINGLE"
	MultipleChoice QuestionType = "MULTIPLE"
	FreeText       QuestionType = "TEXT"
)

// Decode reads the entity from doc and validates it
func Decode[T any](doc document.Document) (*T, error) {
	entity := new(T)
	if err := doc.Decode(entity); err != nil {
		return nil, invalidPayload(err)
	}
	if err := Validate(entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Encode returns the document of a validated entity
func Encode(entity any) (document.Document, error) {
	if err := Validate(entity); err != nil {
		return nil, err
	}
	doc, err := document.From(entity)
	if err != nil {
		return nil, invalidPayload(err)
	}
	return doc, nil
}

// Stamp sets the uid, when missing, and the timestamps of a new document
func Stamp(doc document.Document, now time.Time) document.Document {
	stamped := doc.Clone()
	if stamped == nil {
		stamped = document.Document{}
	}
	if stamped.UID() == "" {
		stamped[document.UIDField] = NewUID()
	}
	if !stamped.Has(document.CreatedField) {
		stamped[document.CreatedField] = Timestamp(now)
	}
	stamped[document.UpdatedField] = Timestamp(now)
	return stamped
}

// Timestamp formats t the way documents store time
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
