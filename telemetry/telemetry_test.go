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

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestTelemetry(t *testing.T) {
	t.Run("With the global provider", func(t *testing.T) {
		tel := New()
		require.NotNil(t, tel)
		assert.Equal(t, otel.GetMeterProvider(), tel.MeterProvider)
		assert.NotNil(t, tel.Meter)
	})
	t.Run("With a given provider", func(t *testing.T) {
		provider := noop.NewMeterProvider()
		tel := New(WithMeterProvider(provider))
		assert.Equal(t, provider, tel.MeterProvider)
	})
}

func TestStoreMetrics(t *testing.T) {
	metrics, err := NewStoreMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, metrics.CacheHits)
	assert.NotNil(t, metrics.CacheSize)
	assert.NotNil(t, metrics.Subscribers)
	assert.NotNil(t, metrics.AuthorizationDenied)
}
