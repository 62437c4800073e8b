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
	"github.com/tochemey/quizakt/document"
	"github.com/tochemey/quizakt/model"
)

// QuizScoped is implemented by the messages the quiz directory forwards to
// the actor owning one collection of one quiz
type QuizScoped interface {
	// QuizUID returns the quiz the message is about
	QuizUID() string
	// Collection returns the collection of the actor handling the message
	Collection() string
}

// Snapshot answers a request returning one entity, as the caller may see it
type Snapshot struct {
	Collection string            `json:"collection"`
	Entity     document.Document `json:"entity"`
}

// CreateQuiz creates a quiz in the EDITING state
type CreateQuiz struct {
	Quiz document.Document `json:"quiz"`
}

// UpdateQuiz changes a quiz. Changes carries the uid; a new state drives
// the quiz state machine.
type UpdateQuiz struct {
	Changes document.Document `json:"changes"`
}

// GetQuiz returns one quiz
type GetQuiz struct {
	UID string `json:"uid"`
}

// GetQuizzes streams the quizzes the caller may see, archived ones excluded
type GetQuizzes struct{}

// JoinQuiz adds the caller to the students of a quiz
type JoinQuiz struct {
	UID string `json:"uid"`
}

// ArchiveQuiz hides a quiz from listings without deleting it
type ArchiveQuiz struct {
	UID string `json:"uid"`
}

// DeleteQuiz deletes a quiz with its questions, comments, runs and statistics
type DeleteQuiz struct {
	UID string `json:"uid"`
}

// WatchQuiz subscribes the sender to one collection of a quiz
type WatchQuiz struct {
	Quiz   string   `json:"quiz"`
	Scope  string   `json:"scope"`
	Fields []string `json:"fields,omitempty"`
}

// UnwatchQuiz cancels a WatchQuiz
type UnwatchQuiz struct {
	Quiz  string `json:"quiz"`
	Scope string `json:"scope"`
}

// AddQuestion adds a question to a quiz being edited
type AddQuestion struct {
	Quiz     string            `json:"quiz"`
	Question document.Document `json:"question"`
}

// UpdateQuestion changes a question of a quiz being edited
type UpdateQuestion struct {
	Quiz    string            `json:"quiz"`
	Changes document.Document `json:"changes"`
}

// RemoveQuestion removes a question of a quiz being edited
type RemoveQuestion struct {
	Quiz string `json:"quiz"`
	UID  string `json:"uid"`
}

// GetQuestion returns one question
type GetQuestion struct {
	Quiz string `json:"quiz"`
	UID  string `json:"uid"`
}

// GetQuestions streams the questions of a quiz
type GetQuestions struct {
	Quiz string `json:"quiz"`
}

// AddComment comments a quiz
type AddComment struct {
	Quiz    string            `json:"quiz"`
	Comment document.Document `json:"comment"`
}

// UpdateComment changes a comment
type UpdateComment struct {
	Quiz    string            `json:"quiz"`
	Changes document.Document `json:"changes"`
}

// RemoveComment removes a comment
type RemoveComment struct {
	Quiz string `json:"quiz"`
	UID  string `json:"uid"`
}

// GetComment returns one comment
type GetComment struct {
	Quiz string `json:"quiz"`
	UID  string `json:"uid"`
}

// GetComments streams the comments of a quiz
type GetComments struct {
	Quiz string `json:"quiz"`
}

// AnswerQuestion records the answer of the caller to a question of a
// started quiz
type AnswerQuestion struct {
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GetRun returns one run
type GetRun struct {
	Quiz string `json:"quiz"`
	UID  string `json:"uid"`
}

// GetRuns streams the runs of a quiz. Students only get their own.
type GetRuns struct {
	Quiz string `json:"quiz"`
}

// RecordAnswer moves the tally of a question from Previous, if any, to Answer
type RecordAnswer struct {
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Previous string `json:"previous,omitempty"`
	Answer   string `json:"answer"`
}

// GetStatistics streams the statistics of a quiz
type GetStatistics struct {
	Quiz string `json:"quiz"`
}

// QuizChanged gives the actors of a quiz its latest snapshot
type QuizChanged struct {
	Quiz document.Document `json:"quiz"`
}

// ClearQuizData deletes every entity of the receiving collection that
// belongs to the quiz
type ClearQuizData struct {
	Quiz string `json:"quiz"`
}

// CreateUser creates a user
type CreateUser struct {
	User document.Document `json:"user"`
}

// UpdateUser changes a user. Changes carries the uid.
type UpdateUser struct {
	Changes document.Document `json:"changes"`
}

// GetUser returns one user
type GetUser struct {
	UID string `json:"uid"`
}

// GetUsers streams the users matching Filter
type GetUsers struct {
	Filter document.Filter `json:"filter,omitempty"`
}

// StoreSession stores the session of a user, replacing the previous one
type StoreSession struct {
	Session document.Document `json:"session"`
}

// RemoveSession removes the session of a user
type RemoveSession struct {
	UserID string `json:"userId"`
}

// GetSessionForUserID returns the valid session of a user
type GetSessionForUserID struct {
	UserID string `json:"userId"`
}

// GetSessionForClient returns the valid session bound to a client system
type GetSessionForClient struct {
	Client string `json:"client"`
}

// UseFingerprint records one more use of a device. Hash is computed from
// Characteristics when empty.
type UseFingerprint struct {
	Hash            string   `json:"hash,omitempty"`
	Characteristics []string `json:"characteristics,omitempty"`
	User            string   `json:"user,omitempty"`
	Quiz            string   `json:"quiz,omitempty"`
}

// BlockFingerprint blocks a device and deactivates its user
type BlockFingerprint struct {
	Hash string `json:"hash"`
}

// UnblockFingerprint lifts a block
type UnblockFingerprint struct {
	Hash string `json:"hash"`
}

// GetFingerprint returns one fingerprint
type GetFingerprint struct {
	Hash string `json:"hash"`
}

// GetFingerprints streams the fingerprints matching Filter
type GetFingerprints struct {
	Filter document.Filter `json:"filter,omitempty"`
}

func (x *AddQuestion) QuizUID() string    { return x.Quiz }
func (x *AddQuestion) Collection() string { return model.Questions }

func (x *UpdateQuestion) QuizUID() string    { return x.Quiz }
func (x *UpdateQuestion) Collection() string { return model.Questions }

func (x *RemoveQuestion) QuizUID() string    { return x.Quiz }
func (x *RemoveQuestion) Collection() string { return model.Questions }

func (x *GetQuestion) QuizUID() string    { return x.Quiz }
func (x *GetQuestion) Collection() string { return model.Questions }

func (x *GetQuestions) QuizUID() string    { return x.Quiz }
func (x *GetQuestions) Collection() string { return model.Questions }

func (x *AddComment) QuizUID() string    { return x.Quiz }
func (x *AddComment) Collection() string { return model.Comments }

func (x *UpdateComment) QuizUID() string    { return x.Quiz }
func (x *UpdateComment) Collection() string { return model.Comments }

func (x *RemoveComment) QuizUID() string    { return x.Quiz }
func (x *RemoveComment) Collection() string { return model.Comments }

func (x *GetComment) QuizUID() string    { return x.Quiz }
func (x *GetComment) Collection() string { return model.Comments }

func (x *GetComments) QuizUID() string    { return x.Quiz }
func (x *GetComments) Collection() string { return model.Comments }

func (x *AnswerQuestion) QuizUID() string    { return x.Quiz }
func (x *AnswerQuestion) Collection() string { return model.QuizRuns }

func (x *GetRun) QuizUID() string    { return x.Quiz }
func (x *GetRun) Collection() string { return model.QuizRuns }

func (x *GetRuns) QuizUID() string    { return x.Quiz }
func (x *GetRuns) Collection() string { return model.QuizRuns }

func (x *GetStatistics) QuizUID() string    { return x.Quiz }
func (x *GetStatistics) Collection() string { return model.Statistics }

// Messages returns an instance of every message of this package, ready to
// be registered for remoting
func Messages() []any {
	return []any{
		new(Snapshot),
		new(CreateQuiz), new(UpdateQuiz), new(GetQuiz), new(GetQuizzes),
		new(JoinQuiz), new(ArchiveQuiz), new(DeleteQuiz),
		new(WatchQuiz), new(UnwatchQuiz),
		new(AddQuestion), new(UpdateQuestion), new(RemoveQuestion), new(GetQuestion), new(GetQuestions),
		new(AddComment), new(UpdateComment), new(RemoveComment), new(GetComment), new(GetComments),
		new(AnswerQuestion), new(GetRun), new(GetRuns),
		new(GetStatistics),
		new(CreateUser), new(UpdateUser), new(GetUser), new(GetUsers),
		new(StoreSession), new(RemoveSession), new(GetSessionForUserID), new(GetSessionForClient),
		new(UseFingerprint), new(BlockFingerprint), new(UnblockFingerprint),
		new(GetFingerprint), new(GetFingerprints),
	}
}
