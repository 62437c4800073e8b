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

// Package stateful is the framework every domain actor is built on: an
// entity cache reading through to the store, a registry of per-entity and
// per-collection subscribers, role resolution of every caller and the
// fan-out of Updated and Deleted notifications.
//
// A domain actor embeds a *Base, forwards its lifecycle hooks to it and lets
// Handle serve the generic messages before dispatching its own.
package stateful

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/address"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/log"
	"github.com/tochemey/quizakt/store"
	"github.com/tochemey/quizakt/telemetry"
)

// Base carries the state shared by every domain actor. It is owned by one
// actor and only used from its Receive.
type Base struct {
	collection   string
	store        store.Store
	cache        *Cache
	registry     *Registry
	resolver     *auth.Resolver
	view         ViewFunc
	canRead      ReadAuthorizer
	cacheIdle    time.Duration
	reapInterval time.Duration
	clock        func() time.Time

	telemetry    *telemetry.Telemetry
	metrics      *telemetry.StoreMetrics
	registration metric.Registration
	attributes   metric.MeasurementOption
	cacheSize    *atomic.Int64
	subscribers  *atomic.Int64

	self      *actor.PID
	logger    log.Logger
	schedules []string
}

// NewBase creates the Base of an actor owning collection
func NewBase(collection string, st store.Store, opts ...Option) *Base {
	base := &Base{
		collection:   collection,
		store:        st,
		cache:        NewCache(collection, st),
		registry:     NewRegistry(),
		view:         func(doc document.Document, _ auth.Identity) document.Document { return doc },
		canRead:      func(auth.Identity, document.Document) error { return nil },
		cacheIdle:    DefaultCacheIdle,
		reapInterval: DefaultReapInterval,
		clock:        time.Now,
		attributes:   metric.WithAttributes(attribute.String("collection", collection)),
		cacheSize:    atomic.NewInt64(0),
		subscribers:  atomic.NewInt64(0),
		logger:       log.DiscardLogger,
	}

	for _, opt := range opts {
		opt.Apply(base)
	}

	if base.resolver == nil {
		base.resolver = auth.NewResolver(nil, nil)
	}
	return base
}

// Collection returns the collection owned by the actor
func (b *Base) Collection() string {
	return b.collection
}

// Cache returns the entity cache
func (b *Base) Cache() *Cache {
	return b.cache
}

// Registry returns the subscription registry
func (b *Base) Registry() *Registry {
	return b.registry
}

// Store returns the persistent store
func (b *Base) Store() store.Store {
	return b.store
}

// Self returns the PID of the actor once started
func (b *Base) Self() *actor.PID {
	return b.self
}

// Logger returns the actor logger
func (b *Base) Logger() log.Logger {
	return b.logger
}

// Now returns the current time of the actor clock
func (b *Base) Now() time.Time {
	return b.clock()
}

// PreStart must be called from the PreStart of the embedding actor
func (b *Base) PreStart(ctx *actor.Context) error {
	b.self = ctx.Self()
	b.logger = ctx.Logger()

	if b.telemetry == nil {
		return nil
	}

	metrics, err := telemetry.NewStoreMetrics(b.telemetry.Meter)
	if err != nil {
		return err
	}
	b.metrics = metrics

	registration, err := b.telemetry.Meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(metrics.CacheSize, b.cacheSize.Load(), b.observeAttributes())
		observer.ObserveInt64(metrics.Subscribers, b.subscribers.Load(), b.observeAttributes())
		return nil
	}, metrics.CacheSize, metrics.Subscribers)
	if err != nil {
		return err
	}
	b.registration = registration
	return nil
}

// PostStop must be called from the PostStop of the embedding actor. It
// cancels the periodic sweeps.
func (b *Base) PostStop(ctx *actor.Context) error {
	var err error
	for _, reference := range b.schedules {
		if e := ctx.ActorSystem().CancelSchedule(reference); e != nil && !errors.Is(e, gerrors.ErrScheduledReferenceNotFound) {
			err = errors.Join(err, e)
		}
	}
	b.schedules = nil

	if b.registration != nil {
		err = errors.Join(err, b.registration.Unregister())
		b.registration = nil
	}
	return err
}

// Handle serves the messages common to every domain actor and reports
// whether the message was one of them
func (b *Base) Handle(rctx *actor.ReceiveContext) bool {
	switch msg := rctx.Message().(type) {
	case *actor.PostStart:
		b.schedule(rctx)
	case *SubscribeTo:
		b.subscribeTo(rctx, msg)
	case *UnsubscribeFrom:
		b.registry.UnsubscribeFromEntity(msg.UID, rctx.SenderAddress())
		rctx.Response(new(Ack))
	case *SubscribeToCollection:
		b.subscribeToCollection(rctx, msg)
	case *UnsubscribeFromCollection:
		b.registry.UnsubscribeFromCollection(rctx.SenderAddress())
		rctx.Response(new(Ack))
	case *ClientClosed:
		b.clientClosed(rctx, msg)
	case *CleanupCache:
		b.cleanup(rctx)
	case *ReapDeadClients:
		b.reap(rctx)
	default:
		return false
	}
	b.refresh()
	return true
}

// Identity resolves the caller of the current message
func (b *Base) Identity(rctx *actor.ReceiveContext) auth.Identity {
	return b.resolver.Resolve(rctx)
}

// Get returns the entity with the given uid through the cache
func (b *Base) Get(rctx *actor.ReceiveContext, uid string) (document.Document, error) {
	hits, misses := b.cache.Stats()
	doc, err := b.cache.Get(rctx.Context(), uid)
	b.countAccess(rctx.Context(), hits, misses)
	b.refresh()
	if err != nil {
		b.storageFailure(rctx.Context(), err)
		return nil, err
	}
	return doc, nil
}

// Read returns the entity once identity is allowed to see it
func (b *Base) Read(rctx *actor.ReceiveContext, identity auth.Identity, uid string) (document.Document, error) {
	doc, err := b.Get(rctx, uid)
	if err != nil {
		return nil, err
	}
	if err := b.canRead(identity, doc); err != nil {
		b.denied(rctx.Context())
		return nil, err
	}
	return doc, nil
}

// View returns the view of doc the identity may see
func (b *Base) View(doc document.Document, identity auth.Identity) document.Document {
	return b.view(doc.Clone(), identity)
}

// Put persists doc and caches it. Nothing changes in memory when the store
// rejects the write.
func (b *Base) Put(rctx *actor.ReceiveContext, doc document.Document) (document.Document, error) {
	stored, err := b.cache.Put(rctx.Context(), doc)
	b.refresh()
	if err != nil {
		b.storageFailure(rctx.Context(), err)
		return nil, err
	}
	return stored, nil
}

// Delete removes the entity from the store and the cache, notifies the
// subscribers with Deleted and drops the subscriptions to it
func (b *Base) Delete(rctx *actor.ReceiveContext, uid string) error {
	doc, ok := b.cache.Peek(uid)
	if !ok {
		found, exists, err := b.store.FindOne(rctx.Context(), b.collection, document.ByUID(uid))
		if err != nil {
			b.storageFailure(rctx.Context(), err)
			return err
		}
		if !exists {
			found = document.Document{document.UIDField: uid}
		}
		doc = found
	}

	if err := b.cache.Remove(rctx.Context(), uid); err != nil {
		b.storageFailure(rctx.Context(), err)
		return err
	}
	b.NotifyDeleted(rctx, doc)
	b.refresh()
	return nil
}

// Clear deletes every entity matching filter from the store and the cache
// and notifies their subscribers. It returns the number of deleted entities.
func (b *Base) Clear(rctx *actor.ReceiveContext, filter document.Filter) (int, error) {
	docs, err := b.store.Find(rctx.Context(), b.collection, filter)
	if err != nil {
		b.storageFailure(rctx.Context(), err)
		return 0, err
	}

	if _, err := b.store.DeleteMany(rctx.Context(), b.collection, filter); err != nil {
		b.storageFailure(rctx.Context(), err)
		return 0, err
	}

	for _, doc := range docs {
		b.cache.Forget(rctx.Context(), doc.UID())
		b.NotifyDeleted(rctx, doc)
	}
	b.refresh()
	return len(docs), nil
}

// Stream queries the store directly and sends every match identity may read
// to the sender as an Updated notification. The Ask, if any, is answered
// with Streamed.
func (b *Base) Stream(rctx *actor.ReceiveContext, filter document.Filter, identity auth.Identity) {
	docs, err := b.store.Find(rctx.Context(), b.collection, filter)
	if err != nil {
		b.storageFailure(rctx.Context(), err)
		b.Fail(rctx, err)
		return
	}

	sender := rctx.SenderAddress()
	count := 0
	for _, doc := range docs {
		if b.canRead(identity, doc) != nil {
			continue
		}
		count++
		if !sender.IsNoSender() {
			b.deliver(rctx, sender, &Updated{Collection: b.collection, Entity: b.View(doc, identity)})
		}
	}
	rctx.Response(&Streamed{Count: count})
}

// NotifyUpdated sends the view of doc to the collection subscribers allowed
// to read it, then to the subscribers of the entity. Collection views are
// stripped for the subscriber identity before being projected to its fields.
func (b *Base) NotifyUpdated(rctx *actor.ReceiveContext, doc document.Document) {
	for _, subscriber := range b.registry.CollectionSubscribers() {
		if b.canRead(subscriber.Identity, doc) != nil {
			continue
		}
		view := b.View(doc, subscriber.Identity).Project(subscriber.Subscription.Fields)
		b.deliver(rctx, subscriber.Address, &Updated{Collection: b.collection, Entity: view})
	}
	for _, subscriber := range b.registry.EntitySubscribers(doc.UID()) {
		b.deliver(rctx, subscriber.Address, &Updated{Collection: b.collection, Entity: b.View(doc, subscriber.Identity)})
	}
}

// NotifyDeleted sends Deleted to the collection subscribers allowed to read
// doc and to the subscribers of the entity, then drops the subscriptions to
// the entity
func (b *Base) NotifyDeleted(rctx *actor.ReceiveContext, doc document.Document) {
	uid := doc.UID()
	deleted := &Deleted{Collection: b.collection, UID: uid}
	for _, subscriber := range b.registry.CollectionSubscribers() {
		if b.canRead(subscriber.Identity, doc) != nil {
			continue
		}
		b.deliver(rctx, subscriber.Address, deleted)
	}
	for _, subscriber := range b.registry.EntitySubscribers(uid) {
		b.deliver(rctx, subscriber.Address, deleted)
	}
	b.registry.DropEntity(uid)
}

// Fail answers the current message with err and logs it by severity
func (b *Base) Fail(rctx *actor.ReceiveContext, err error) {
	switch {
	case errors.Is(err, gerrors.ErrStorage):
		b.logger.Errorf("%s: %T failed: %v", b.collection, rctx.Message(), err)
	case errors.Is(err, gerrors.ErrValidation),
		errors.Is(err, gerrors.ErrNotAllowed),
		errors.Is(err, gerrors.ErrNotFound):
		b.logger.Debugf("%s: %T rejected: %v", b.collection, rctx.Message(), err)
	default:
		b.logger.Warnf("%s: %T failed: %v", b.collection, rctx.Message(), err)
	}
	rctx.Err(err)
}

// Deny answers the current message with an AuthorizationError
func (b *Base) Deny(rctx *actor.ReceiveContext, operation string, identity auth.Identity) {
	b.denied(rctx.Context())
	b.Fail(rctx, gerrors.NewAuthorizationError(operation, identity.Role.String()))
}

func (b *Base) subscribeTo(rctx *actor.ReceiveContext, msg *SubscribeTo) {
	subscriber := rctx.SenderAddress()
	if subscriber.IsNoSender() {
		b.Fail(rctx, gerrors.NewValidationError("subscriber address is required", nil))
		return
	}

	identity := b.Identity(rctx)
	if _, err := b.Read(rctx, identity, msg.UID); err != nil {
		b.Fail(rctx, err)
		return
	}

	b.registry.SubscribeToEntity(msg.UID, subscriber, identity)
	rctx.Response(new(Ack))
}

func (b *Base) subscribeToCollection(rctx *actor.ReceiveContext, msg *SubscribeToCollection) {
	subscriber := rctx.SenderAddress()
	if subscriber.IsNoSender() {
		b.Fail(rctx, gerrors.NewValidationError("subscriber address is required", nil))
		return
	}

	b.registry.SubscribeToCollection(subscriber, msg.Fields, b.Identity(rctx))
	rctx.Response(new(Ack))
}

// clientClosed drops the subscriptions of a closed client. A client may only
// report addresses of its own system; the server may report any.
func (b *Base) clientClosed(rctx *actor.ReceiveContext, msg *ClientClosed) {
	closed := msg.Address
	if closed.IsNoSender() {
		closed = rctx.SenderAddress()
	}
	if closed.IsNoSender() {
		b.Fail(rctx, gerrors.NewValidationError("client address is required", nil))
		return
	}

	identity := b.Identity(rctx)
	if identity.Role != auth.System && closed.System() != rctx.SenderAddress().System() {
		b.Deny(rctx, "close client "+closed.System(), identity)
		return
	}

	removed := b.registry.ReapDead([]*address.Address{closed})
	if closed.System() != rctx.ActorSystem().Name() {
		rctx.ActorSystem().DeadClients().ReportClosed(closed)
	}
	b.countReaped(rctx.Context(), len(removed))
	rctx.Response(new(Ack))
}

func (b *Base) cleanup(rctx *actor.ReceiveContext) {
	evicted := b.cache.Sweep(rctx.Context(), b.cacheIdle)
	swept := b.registry.SweepIdle(b.cacheIdle)
	if len(evicted) > 0 || len(swept) > 0 {
		b.logger.Debugf("%s: evicted %d entities and %d idle subscribers", b.collection, len(evicted), len(swept))
	}
	if b.metrics != nil && len(evicted) > 0 {
		b.metrics.CacheEvictions.Add(rctx.Context(), int64(len(evicted)), b.attributes)
	}
	b.countReaped(rctx.Context(), len(swept))
	rctx.Response(new(Ack))
}

func (b *Base) reap(rctx *actor.ReceiveContext) {
	reaped := b.registry.ReapDead(rctx.ActorSystem().DeadClients().ListClosed())
	if len(reaped) > 0 {
		b.logger.Debugf("%s: reaped %d subscribers of closed clients", b.collection, len(reaped))
	}
	b.countReaped(rctx.Context(), len(reaped))
	rctx.Response(new(Ack))
}

func (b *Base) schedule(rctx *actor.ReceiveContext) {
	system := rctx.ActorSystem()
	for message, interval := range map[any]time.Duration{
		new(CleanupCache):    b.cacheIdle,
		new(ReapDeadClients): b.reapInterval,
	} {
		if interval <= 0 {
			continue
		}
		reference, err := system.Schedule(rctx.Context(), message, rctx.Self(), interval)
		if err != nil {
			b.logger.Warnf("%s: failed to schedule %T: %v", b.collection, message, err)
			continue
		}
		b.schedules = append(b.schedules, reference)
	}
}

// deliver sends a notification. A subscriber that cannot be reached is
// dropped at once.
func (b *Base) deliver(rctx *actor.ReceiveContext, to *address.Address, message any) {
	if err := rctx.Deliver(to, message); err != nil {
		b.logger.Debugf("%s: dropping unreachable subscriber %s: %v", b.collection, to, err)
		b.registry.Remove(to)
		b.countReaped(rctx.Context(), 1)
		return
	}
	b.registry.Touch(to)
	if b.metrics != nil {
		b.metrics.Notifications.Add(rctx.Context(), 1, b.attributes)
	}
}

func (b *Base) refresh() {
	b.cacheSize.Store(int64(b.cache.Len()))
	b.subscribers.Store(int64(b.registry.Len()))
}

func (b *Base) countAccess(ctx context.Context, hits, misses int64) {
	if b.metrics == nil {
		return
	}
	afterHits, afterMisses := b.cache.Stats()
	if delta := afterHits - hits; delta > 0 {
		b.metrics.CacheHits.Add(ctx, delta, b.attributes)
	}
	if delta := afterMisses - misses; delta > 0 {
		b.metrics.CacheMisses.Add(ctx, delta, b.attributes)
	}
}

func (b *Base) countReaped(ctx context.Context, count int) {
	if b.metrics != nil && count > 0 {
		b.metrics.ReapedSubscribers.Add(ctx, int64(count), b.attributes)
	}
}

func (b *Base) storageFailure(ctx context.Context, err error) {
	if b.metrics != nil && errors.Is(err, gerrors.ErrStorage) {
		b.metrics.StorageFailures.Add(ctx, 1, b.attributes)
	}
}

func (b *Base) denied(ctx context.Context) {
	if b.metrics != nil {
		b.metrics.AuthorizationDenied.Add(ctx, 1, b.attributes)
	}
}

func (b *Base) observeAttributes() metric.ObserveOption {
	return metric.WithAttributes(attribute.String("collection", b.collection))
}
