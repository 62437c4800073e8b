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
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// namespace of the deterministic uids
var namespace = uuid.MustParse("6c1f5a4e-6f0e-4f63-9a52-4e7f2b0b8d11")

// NewUID returns a random uid
func NewUID() string {
	return uuid.NewString()
}

// StatisticUID returns the uid of the tallies of a question
func StatisticUID(quiz, question string) string {
	return uuid.NewSHA1(namespace, []byte(quiz+"/"+question)).String()
}

// RunUID returns the uid of the run of a student in a quiz
func RunUID(quiz, student string) string {
	return uuid.NewSHA1(namespace, []byte("run/"+quiz+"/"+student)).String()
}

// FingerprintHash hashes the characteristics of a client device
func FingerprintHash(characteristics ...string) string {
	sum := xxh3.HashString128(strings.Join(characteristics, "\x00")).Bytes()
	return hex.EncodeToString(sum[:])
}
