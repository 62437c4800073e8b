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

// Package stores implements the domain actors of quizakt. Each owns one
// collection: the quiz directory, which also spawns the actors owning the
// questions, comments, runs and statistics of every loaded quiz, and the
// user, session and fingerprint directories.
package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
)

// Names of the top-level domain actors
const (
	QuizzesName      = "quizzes"
	UsersName        = "users"
	SessionsName     = "sessions"
	FingerprintsName = "fingerprints"
)

// Actors references the running top-level domain actors
type Actors struct {
	Quizzes      *actor.PID
	Users        *actor.PID
	Sessions     *actor.PID
	Fingerprints *actor.PID
}

// Spawn starts the domain actors in system on top of st. The session
// directory starts first since every other actor resolves roles through it.
func Spawn(ctx context.Context, system actor.ActorSystem, st store.Store, opts ...Option) (*Actors, error) {
	cfg := newConfig(opts...)
	cfg.logger = system.Logger()
	actors := new(Actors)

	var err error
	if actors.Sessions, err = system.Spawn(ctx, SessionsName, newSessions(st, cfg)); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", SessionsName, err)
	}
	if actors.Users, err = system.Spawn(ctx, UsersName, newUsers(st, cfg)); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", UsersName, err)
	}
	if actors.Fingerprints, err = system.Spawn(ctx, FingerprintsName, newFingerprints(st, cfg)); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", FingerprintsName, err)
	}
	if actors.Quizzes, err = system.Spawn(ctx, QuizzesName, newQuizzes(st, cfg)); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", QuizzesName, err)
	}
	return actors, nil
}

// childName returns the name of the actor owning collection for quiz
func childName(collection, quiz string) string {
	return collection + "-" + quiz
}

// sessionLookup resolves a client system through the session directory
func sessionLookup(cfg *config) auth.SessionLookup {
	return func(rctx *actor.ReceiveContext, client string) (auth.Identity, bool, error) {
		sessions, err := rctx.ActorSystem().LocalActor(SessionsName)
		if err != nil {
			return auth.Identity{}, false, err
		}

		reply, err := rctx.Ask(sessions, &GetSessionForClient{Client: client}, cfg.askTimeout)
		switch {
		case errors.Is(err, gerrors.ErrNotFound):
			return auth.Identity{}, false, nil
		case err != nil:
			return auth.Identity{}, false, err
		}

		snapshot, ok := reply.(*Snapshot)
		if !ok {
			return auth.Identity{}, false, fmt.Errorf("unexpected session reply %T", reply)
		}
		return auth.Identity{Role: auth.Role(snapshot.Entity.String("role")), UserID: snapshot.Entity.UID()}, true, nil
	}
}

// resolver returns the role resolver of the actors other than the session
// directory
func resolver(cfg *config) *auth.Resolver {
	return auth.NewResolver(sessionLookup(cfg), cfg.logger)
}

// sibling returns the running actor owning collection for quiz
func sibling(rctx *actor.ReceiveContext, collection, quiz string) (*actor.PID, error) {
	return rctx.ActorSystem().LocalActor(childName(collection, quiz))
}
