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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZapLogger(t *testing.T) {
	t.Run("With Debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		require.NoError(t, logger.Flush())

		msg, lvl := extractEntry(t, buffer.Bytes())
		assert.Equal(t, "test debug", msg)
		assert.Equal(t, DebugLevel.String(), lvl)
	})
	t.Run("With Info level drops debug entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debug("hidden")
		assert.Empty(t, buffer.String())

		logger.Infof("cache %s loaded", "quizzes")
		msg, lvl := extractEntry(t, buffer.Bytes())
		assert.Equal(t, "cache quizzes loaded", msg)
		assert.Equal(t, InfoLevel.String(), lvl)
	})
	t.Run("With Warning level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		require.Equal(t, WarningLevel, logger.LogLevel())
		logger.Info("hidden")
		assert.Empty(t, buffer.String())

		logger.Warn("subscriber unreachable")
		msg, lvl := extractEntry(t, buffer.Bytes())
		assert.Equal(t, "subscriber unreachable", msg)
		assert.Equal(t, "WARN", lvl)
	})
	t.Run("With Error level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)
		logger.Errorf("failed to load %d entities", 3)
		msg, lvl := extractEntry(t, buffer.Bytes())
		assert.Equal(t, "failed to load 3 entities", msg)
		assert.Equal(t, ErrorLevel.String(), lvl)
	})
	t.Run("With Panic level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(PanicLevel, buffer)
		assert.Panics(t, func() { logger.Panic("boom") })
		assert.Panics(t, func() { logger.Panicf("boom %d", 2) })
	})
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		logger := NewZap(Level(42), new(bytes.Buffer))
		assert.Equal(t, DebugLevel, logger.LogLevel())
	})
}

func TestLogWith(t *testing.T) {
	t.Run("With adds structured fields to output", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("actor", "quizzes", "collection", "quizzes").Info("started")

		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &m))
		assert.Contains(t, m, "actor")
		assert.Contains(t, m, "collection")
	})
	t.Run("With returns same logger when keyValues empty", func(t *testing.T) {
		logger := NewZap(InfoLevel, new(bytes.Buffer))
		assert.Equal(t, Logger(logger), logger.With())
	})
	t.Run("With odd keyValues uses _ for orphan", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("a", 1, "orphan").Info("msg")

		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &m))
		assert.Contains(t, m, "a")
		assert.Contains(t, m, "_")
	})
	t.Run("With skips non-string keys", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With(42, "ignored", "k", "v").Info("msg")

		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &m))
		assert.Contains(t, m, "k")
		assert.NotContains(t, m, "42")
	})
	t.Run("DiscardLogger.With returns DiscardLogger", func(t *testing.T) {
		assert.Equal(t, DiscardLogger, DiscardLogger.With("actor", "test"))
		assert.NoError(t, DiscardLogger.Flush())
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, WarningLevel, ParseLevel("warn"))
	assert.Equal(t, WarningLevel, ParseLevel("Warning"))
	assert.Equal(t, ErrorLevel, ParseLevel(" ERROR "))
	assert.Equal(t, InvalidLevel, ParseLevel("verbose"))
	assert.Equal(t, "INVALID", InvalidLevel.String())
}

func extractEntry(t *testing.T, bytes []byte) (string, string) {
	t.Helper()
	var entry struct {
		Msg   string `json:"msg"`
		Level string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(bytes, &entry))
	return entry.Msg, strings.ToUpper(entry.Level)
}
