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

package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"

	gerrors "github.com/tochemey/quizakt/errors"
)

const (
	contentEncodingHeader = "Content-Encoding"
	zstdEncoding          = "zstd"
)

// envelope is what travels on the wire for Tell and Ask
type envelope struct {
	From      string          `json:"from,omitempty"`
	To        string          `json:"to"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Ask       bool            `json:"ask,omitempty"`
	TimeoutMs int64           `json:"timeoutMs,omitempty"`
}

// response acknowledges a Tell or carries the reply of an Ask
type response struct {
	Type    string          `json:"type,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Kind    gerrors.Kind    `json:"kind,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (r *response) err() error {
	if r.Kind == "" {
		return nil
	}
	return gerrors.FromKind(r.Kind, r.Error)
}

// codec frames envelopes and responses as NATS messages, compressing the
// body with zstd when enabled. Decoding honors the header of the message so
// that peers with a different setting still understand each other.
type codec struct {
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func newCodec(compress bool) (*codec, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("remote: zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderLowmem(true),
		zstd.WithDecoderMaxMemory(64<<20))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("remote: zstd decoder: %w", err)
	}
	return &codec{compress: compress, encoder: encoder, decoder: decoder}, nil
}

func (c *codec) frame(subject string, value any) (*nats.Msg, error) {
	body, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	msg := nats.NewMsg(subject)
	if c.compress {
		msg.Header.Set(contentEncodingHeader, zstdEncoding)
		body = c.encoder.EncodeAll(body, nil)
	}
	msg.Data = body
	return msg, nil
}

func (c *codec) unframe(msg *nats.Msg, out any) error {
	body := msg.Data
	if msg.Header != nil && msg.Header.Get(contentEncodingHeader) == zstdEncoding {
		decoded, err := c.decoder.DecodeAll(body, nil)
		if err != nil {
			return gerrors.NewErrInvalidRemoteMessage(err)
		}
		body = decoded
	}
	if err := json.Unmarshal(body, out); err != nil {
		return gerrors.NewErrInvalidRemoteMessage(err)
	}
	return nil
}

func (c *codec) close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

var errNotStarted = errors.New("remote: not started")
