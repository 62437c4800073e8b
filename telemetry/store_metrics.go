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
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const (
	cacheHitCounterName          = "quizakt_cache_hits"
	cacheMissCounterName         = "quizakt_cache_misses"
	cacheEvictionCounterName     = "quizakt_cache_evictions"
	cacheSizeGaugeName           = "quizakt_cache_size"
	subscribersGaugeName         = "quizakt_subscribers"
	notificationCounterName      = "quizakt_notifications"
	reapedSubscriberCounterName  = "quizakt_reaped_subscribers"
	storageFailureCounterName    = "quizakt_storage_failures"
	authorizationDenyCounterName = "quizakt_authorization_denied"
)

// StoreMetrics defines the instruments of a stateful domain actor. Every
// measurement carries the collection as attribute.
type StoreMetrics struct {
	CacheHits           metric.Int64Counter
	CacheMisses         metric.Int64Counter
	CacheEvictions      metric.Int64Counter
	CacheSize           metric.Int64ObservableGauge
	Subscribers         metric.Int64ObservableGauge
	Notifications       metric.Int64Counter
	ReapedSubscribers   metric.Int64Counter
	StorageFailures     metric.Int64Counter
	AuthorizationDenied metric.Int64Counter
}

// NewStoreMetrics creates the instruments on the given meter
func NewStoreMetrics(meter metric.Meter) (*StoreMetrics, error) {
	metrics := new(StoreMetrics)
	var err error

	if metrics.CacheHits, err = meter.Int64Counter(
		cacheHitCounterName,
		metric.WithDescription("The total number of entity reads served from memory"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits instrument, %v", err)
	}
	if metrics.CacheMisses, err = meter.Int64Counter(
		cacheMissCounterName,
		metric.WithDescription("The total number of entity reads loaded from the store"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses instrument, %v", err)
	}
	if metrics.CacheEvictions, err = meter.Int64Counter(
		cacheEvictionCounterName,
		metric.WithDescription("The total number of idle entities evicted from memory"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache evictions instrument, %v", err)
	}
	if metrics.CacheSize, err = meter.Int64ObservableGauge(
		cacheSizeGaugeName,
		metric.WithDescription("The number of entities held in memory"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache size instrument, %v", err)
	}
	if metrics.Subscribers, err = meter.Int64ObservableGauge(
		subscribersGaugeName,
		metric.WithDescription("The number of distinct subscribers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create subscribers instrument, %v", err)
	}
	if metrics.Notifications, err = meter.Int64Counter(
		notificationCounterName,
		metric.WithDescription("The total number of notifications sent to subscribers"),
	); err != nil {
		return nil, fmt.Errorf("failed to create notifications instrument, %v", err)
	}
	if metrics.ReapedSubscribers, err = meter.Int64Counter(
		reapedSubscriberCounterName,
		metric.WithDescription("The total number of subscribers removed by idle sweeps and dead client reaps"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reaped subscribers instrument, %v", err)
	}
	if metrics.StorageFailures, err = meter.Int64Counter(
		storageFailureCounterName,
		metric.WithDescription("The total number of failed store operations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create storage failures instrument, %v", err)
	}
	if metrics.AuthorizationDenied, err = meter.Int64Counter(
		authorizationDenyCounterName,
		metric.WithDescription("The total number of requests rejected by authorization"),
	); err != nil {
		return nil, fmt.Errorf("failed to create authorization denied instrument, %v", err)
	}
	return metrics, nil
}
