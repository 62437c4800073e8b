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

// Package auth resolves the role of the party behind every incoming message.
package auth

import (
	"fmt"
	"strings"
)

// Role is an access role
type Role string

const (
	// System is granted to calls originating inside the server actor system
	System Role = "SYSTEM"
	// Admin administers the platform
	Admin Role = "ADMIN"
	// Teacher authors and runs quizzes
	Teacher Role = "TEACHER"
	// Student takes quizzes
	Student Role = "STUDENT"
)

// SystemUserID is the user id attached to the SYSTEM role
const SystemUserID = "SYSTEM"

// Roles lists every role from most to least privileged
var Roles = []Role{System, Admin, Teacher, Student}

// ParseRole parses a role name, case-insensitively
func ParseRole(text string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(text)))
	if !role.Valid() {
		return "", fmt.Errorf("invalid role %q", text)
	}
	return role, nil
}

// Valid reports whether the role is known
func (r Role) Valid() bool {
	switch r {
	case System, Admin, Teacher, Student:
		return true
	default:
		return false
	}
}

// Privileged reports whether the role is SYSTEM or ADMIN
func (r Role) Privileged() bool {
	return r == System || r == Admin
}

// Staff reports whether the role is SYSTEM, ADMIN or TEACHER
func (r Role) Staff() bool {
	return r.Privileged() || r == Teacher
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// Identity is the resolved caller of a message
type Identity struct {
	Role   Role
	UserID string
}

// SystemIdentity is the identity of internal calls
var SystemIdentity = Identity{Role: System, UserID: SystemUserID}

// Anonymous is the minimal-privilege identity used when no session resolves
var Anonymous = Identity{Role: Student}

// Is reports whether the identity belongs to userID
func (i Identity) Is(userID string) bool {
	return userID != "" && i.UserID == userID
}
