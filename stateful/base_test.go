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

package stateful

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tochemey/quizakt/actor"
	"github.com/tochemey/quizakt/auth"
	"github.com/tochemey/quizakt/document"
	gerrors "github.com/tochemey/quizakt/errors"
	"github.com/tochemey/quizakt/store"
	"github.com/tochemey/quizakt/store/memory"
	"github.com/tochemey/quizakt/telemetry"
	"github.com/tochemey/quizakt/testkit"
)

const askTimeout = 3 * time.Second

type putNote struct {
	Note document.Document
}

type deleteNote struct {
	UID string
}

type getNote struct {
	UID string
}

type listNotes struct {
	Filter document.Filter
}

type clearNotes struct {
	Filter document.Filter
}

type inspect struct{}

type inspection struct {
	Subscribers int
	Cached      []string
}

// notes is the smallest actor built on Base
type notes struct {
	*Base
}

func (x *notes) PreStart(ctx *actor.Context) error { return x.Base.PreStart(ctx) }
func (x *notes) PostStop(ctx *actor.Context) error { return x.Base.PostStop(ctx) }

func (x *notes) Receive(ctx *actor.ReceiveContext) {
	if x.Handle(ctx) {
		return
	}

	switch msg := ctx.Message().(type) {
	case *putNote:
		doc, err := x.Put(ctx, msg.Note)
		if err != nil {
			x.Fail(ctx, err)
			return
		}
		x.NotifyUpdated(ctx, doc)
		ctx.Response(&Created{UID: doc.UID()})
	case *deleteNote:
		if err := x.Delete(ctx, msg.UID); err != nil {
			x.Fail(ctx, err)
			return
		}
		ctx.Response(new(Ack))
	case *getNote:
		identity := x.Identity(ctx)
		doc, err := x.Read(ctx, identity, msg.UID)
		if err != nil {
			x.Fail(ctx, err)
			return
		}
		ctx.Response(&Updated{Collection: x.Collection(), Entity: x.View(doc, identity)})
	case *listNotes:
		x.Stream(ctx, msg.Filter, x.Identity(ctx))
	case *clearNotes:
		count, err := x.Clear(ctx, msg.Filter)
		if err != nil {
			x.Fail(ctx, err)
			return
		}
		ctx.Response(&Streamed{Count: count})
	case *inspect:
		ctx.Response(&inspection{Subscribers: x.Registry().Len(), Cached: x.Cache().UIDs()})
	default:
		ctx.Unhandled()
	}
}

var sessions = map[string]auth.Identity{
	"teachers": {Role: auth.Teacher, UserID: "t1"},
	"students": {Role: auth.Student, UserID: "s1"},
}

func stripSecret(doc document.Document, identity auth.Identity) document.Document {
	if identity.Role.Staff() {
		return doc
	}
	return doc.Without("secret")
}

func privateToStaff(identity auth.Identity, doc document.Document) error {
	if private, _ := doc["private"].(bool); private && !identity.Role.Staff() {
		return gerrors.NewAuthorizationError("read note", identity.Role.String())
	}
	return nil
}

type notesTest struct {
	ctx      context.Context
	loopback *testkit.Loopback
	server   actor.ActorSystem
	store    store.Store
	pid      *actor.PID
}

func newNotesTest(t *testing.T, opts ...Option) *notesTest {
	t.Helper()
	ctx := context.Background()
	loopback := testkit.NewLoopback()
	server := testkit.NewSystem(ctx, t, "server", loopback)

	lookup := func(_ *actor.ReceiveContext, client string) (auth.Identity, bool, error) {
		identity, ok := sessions[client]
		return identity, ok, nil
	}

	st := memory.New()
	options := append([]Option{
		WithResolver(auth.NewResolver(lookup, nil)),
		WithView(stripSecret),
		WithReadAuthorizer(privateToStaff),
	}, opts...)

	pid, err := server.Spawn(ctx, "notes", &notes{Base: NewBase("notes", st, options...)})
	require.NoError(t, err)

	return &notesTest{ctx: ctx, loopback: loopback, server: server, store: st, pid: pid}
}

func (x *notesTest) client(t *testing.T, system string) *testkit.Probe {
	t.Helper()
	return testkit.NewProbe(x.ctx, t, testkit.NewSystem(x.ctx, t, system, x.loopback), "inbox")
}

func (x *notesTest) put(t *testing.T, note document.Document) {
	t.Helper()
	reply, err := actor.Ask(x.ctx, x.pid, &putNote{Note: note}, askTimeout)
	require.NoError(t, err)
	assert.Equal(t, &Created{UID: note.UID()}, reply)
}

func (x *notesTest) inspect(t *testing.T) *inspection {
	t.Helper()
	reply, err := actor.Ask(x.ctx, x.pid, new(inspect), askTimeout)
	require.NoError(t, err)
	return reply.(*inspection)
}

func TestBase(t *testing.T) {
	t.Run("With views stripped then projected for every subscriber", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")

		fields := []string{"title", "secret"}
		for _, probe := range []*testkit.Probe{teacher, student} {
			reply, err := probe.Ask(test.pid, &SubscribeToCollection{Fields: fields})
			require.NoError(t, err)
			assert.IsType(t, new(Ack), reply)
		}

		test.put(t, document.Document{"uid": "n1", "title": "v1", "secret": "s", "body": "b"})
		teacher.ExpectMessage(&Updated{Collection: "notes", Entity: document.Document{"uid": "n1", "title": "v1", "secret": "s"}})
		student.ExpectMessage(&Updated{Collection: "notes", Entity: document.Document{"uid": "n1", "title": "v1"}})

		ack, err := student.Ask(test.pid, &SubscribeTo{UID: "n1"})
		require.NoError(t, err)
		assert.IsType(t, new(Ack), ack)

		test.put(t, document.Document{"uid": "n1", "title": "v2", "secret": "s", "body": "b"})
		teacher.ExpectMessage(&Updated{Collection: "notes", Entity: document.Document{"uid": "n1", "title": "v2", "secret": "s"}})
		student.ExpectMessage(&Updated{Collection: "notes", Entity: document.Document{"uid": "n1", "title": "v2"}})

		full := testkit.ExpectMessageOf[*Updated](student)
		assert.Equal(t, "v2", full.Entity["title"])
		assert.Equal(t, "b", full.Entity["body"])
		assert.True(t, full.Entity.Has(document.UpdatedField))
		assert.NotContains(t, full.Entity, "secret")

		teacher.ExpectNoMessage()
		student.ExpectNoMessage()
	})
	t.Run("With subscriptions checked against read permissions", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		test.put(t, document.Document{"uid": "n2", "private": true})

		_, err := student.Ask(test.pid, &SubscribeTo{UID: "n2"})
		assert.ErrorIs(t, err, gerrors.ErrNotAllowed)

		_, err = teacher.Ask(test.pid, &SubscribeTo{UID: "n2"})
		assert.NoError(t, err)

		_, err = teacher.Ask(test.pid, &SubscribeTo{UID: "missing"})
		assert.ErrorIs(t, err, gerrors.ErrNotFound)

		_, err = actor.Ask(test.ctx, test.pid, &SubscribeTo{UID: "n2"}, askTimeout)
		assert.ErrorIs(t, err, gerrors.ErrValidation)

		assert.Equal(t, 1, test.inspect(t).Subscribers)
	})
	t.Run("With an unknown client seen as an anonymous student", func(t *testing.T) {
		test := newNotesTest(t)
		stranger := test.client(t, "strangers")
		test.put(t, document.Document{"uid": "n1", "secret": "s"})

		reply, err := stranger.Ask(test.pid, &getNote{UID: "n1"})
		require.NoError(t, err)
		assert.NotContains(t, reply.(*Updated).Entity, "secret")

		reply, err = actor.Ask(test.ctx, test.pid, &getNote{UID: "n1"}, askTimeout)
		require.NoError(t, err)
		assert.Equal(t, "s", reply.(*Updated).Entity["secret"])
	})
	t.Run("With an unreachable subscriber dropped on delivery", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		for _, probe := range []*testkit.Probe{teacher, student} {
			_, err := probe.Ask(test.pid, new(SubscribeToCollection))
			require.NoError(t, err)
		}

		test.loopback.Disconnect("teachers")
		test.put(t, document.Document{"uid": "n1"})

		testkit.ExpectMessageOf[*Updated](student)
		assert.Equal(t, 1, test.inspect(t).Subscribers)
		assert.Error(t, test.server.DeadClients().LastError(teacher.Address()))
	})
	t.Run("With a closed client dropped immediately", func(t *testing.T) {
		test := newNotesTest(t)
		student := test.client(t, "students")
		test.put(t, document.Document{"uid": "n1"})
		_, err := student.Ask(test.pid, &SubscribeTo{UID: "n1"})
		require.NoError(t, err)
		_, err = student.Ask(test.pid, new(SubscribeToCollection))
		require.NoError(t, err)

		require.NoError(t, actor.Tell(test.ctx, test.pid, &ClientClosed{Address: student.Address()}))
		assert.Zero(t, test.inspect(t).Subscribers)
		assert.True(t, test.server.DeadClients().IsClosed(student.Address()))

		test.put(t, document.Document{"uid": "n1", "title": "after"})
		student.ExpectNoMessage()
	})
	t.Run("With a client closing only its own addresses", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		_, err := teacher.Ask(test.pid, new(SubscribeToCollection))
		require.NoError(t, err)

		_, err = student.Ask(test.pid, &ClientClosed{Address: teacher.Address()})
		assert.ErrorIs(t, err, gerrors.ErrNotAllowed)
		assert.Equal(t, 1, test.inspect(t).Subscribers)
		assert.Empty(t, test.server.DeadClients().ListClosed())

		test.put(t, document.Document{"uid": "n1"})
		testkit.ExpectMessageOf[*Updated](teacher)

		reply, err := teacher.Ask(test.pid, &ClientClosed{Address: teacher.Address()})
		require.NoError(t, err)
		assert.IsType(t, new(Ack), reply)
		assert.Zero(t, test.inspect(t).Subscribers)
	})
	t.Run("With collection notifications checked against read permissions", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		for _, probe := range []*testkit.Probe{teacher, student} {
			_, err := probe.Ask(test.pid, new(SubscribeToCollection))
			require.NoError(t, err)
		}

		test.put(t, document.Document{"uid": "n1", "private": true})
		testkit.ExpectMessageOf[*Updated](teacher)
		student.ExpectNoMessage()

		_, err := actor.Ask(test.ctx, test.pid, &deleteNote{UID: "n1"}, askTimeout)
		require.NoError(t, err)
		teacher.ExpectMessage(&Deleted{Collection: "notes", UID: "n1"})
		student.ExpectNoMessage()

		test.put(t, document.Document{"uid": "n2", "title": "public"})
		assert.Equal(t, "n2", testkit.ExpectMessageOf[*Updated](student).Entity.UID())
	})
	t.Run("With the subscribers of closed clients reaped", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		for _, probe := range []*testkit.Probe{teacher, student} {
			_, err := probe.Ask(test.pid, new(SubscribeToCollection))
			require.NoError(t, err)
		}

		test.server.DeadClients().ReportClosed(student.Address())
		reply, err := actor.Ask(test.ctx, test.pid, new(ReapDeadClients), askTimeout)
		require.NoError(t, err)
		assert.IsType(t, new(Ack), reply)
		assert.Equal(t, 1, test.inspect(t).Subscribers)
	})
	t.Run("With idle entities and subscribers cleaned up", func(t *testing.T) {
		clk := newClock()
		test := newNotesTest(t, WithClock(clk.Now), WithCacheIdle(time.Hour))
		teacher := test.client(t, "teachers")
		test.put(t, document.Document{"uid": "n1"})
		_, err := teacher.Ask(test.pid, &SubscribeTo{UID: "n1"})
		require.NoError(t, err)

		state := test.inspect(t)
		assert.Equal(t, []string{"n1"}, state.Cached)
		assert.Equal(t, 1, state.Subscribers)

		clk.Advance(2 * time.Hour)
		_, err = actor.Ask(test.ctx, test.pid, new(CleanupCache), askTimeout)
		require.NoError(t, err)

		state = test.inspect(t)
		assert.Empty(t, state.Cached)
		assert.Zero(t, state.Subscribers)

		// the entity is still in the store
		_, err = actor.Ask(test.ctx, test.pid, &getNote{UID: "n1"}, askTimeout)
		require.NoError(t, err)
	})
	t.Run("With a deletion notified to every subscriber", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		student := test.client(t, "students")
		test.put(t, document.Document{"uid": "n1"})

		_, err := teacher.Ask(test.pid, new(SubscribeToCollection))
		require.NoError(t, err)
		_, err = student.Ask(test.pid, &SubscribeTo{UID: "n1"})
		require.NoError(t, err)

		_, err = actor.Ask(test.ctx, test.pid, &deleteNote{UID: "n1"}, askTimeout)
		require.NoError(t, err)

		deleted := &Deleted{Collection: "notes", UID: "n1"}
		teacher.ExpectMessage(deleted)
		student.ExpectMessage(deleted)
		assert.Equal(t, 1, test.inspect(t).Subscribers)

		_, err = actor.Ask(test.ctx, test.pid, &getNote{UID: "n1"}, askTimeout)
		assert.ErrorIs(t, err, gerrors.ErrNotFound)
	})
	t.Run("With a query streamed to the sender", func(t *testing.T) {
		test := newNotesTest(t)
		student := test.client(t, "students")
		test.put(t, document.Document{"uid": "n1", "topic": "go", "secret": "s"})
		test.put(t, document.Document{"uid": "n2", "topic": "go", "private": true})
		test.put(t, document.Document{"uid": "n4", "topic": "rust"})
		_, err := test.store.Upsert(test.ctx, "notes", "n3", document.Document{"uid": "n3", "topic": "go"})
		require.NoError(t, err)

		reply, err := student.Ask(test.pid, &listNotes{Filter: document.Filter{"topic": "go"}})
		require.NoError(t, err)
		assert.Equal(t, &Streamed{Count: 2}, reply)

		first := testkit.ExpectMessageOf[*Updated](student)
		assert.Equal(t, "n1", first.Entity.UID())
		assert.NotContains(t, first.Entity, "secret")
		second := testkit.ExpectMessageOf[*Updated](student)
		assert.Equal(t, "n3", second.Entity.UID())
		student.ExpectNoMessage()

		// the query does not load the cache
		assert.Equal(t, []string{"n1", "n2", "n4"}, test.inspect(t).Cached)
	})
	t.Run("With entities cleared by filter", func(t *testing.T) {
		test := newNotesTest(t)
		teacher := test.client(t, "teachers")
		test.put(t, document.Document{"uid": "n1", "topic": "go"})
		test.put(t, document.Document{"uid": "n2", "topic": "go"})
		test.put(t, document.Document{"uid": "n3", "topic": "rust"})
		_, err := teacher.Ask(test.pid, new(SubscribeToCollection))
		require.NoError(t, err)

		reply, err := actor.Ask(test.ctx, test.pid, &clearNotes{Filter: document.Filter{"topic": "go"}}, askTimeout)
		require.NoError(t, err)
		assert.Equal(t, &Streamed{Count: 2}, reply)

		teacher.ExpectMessage(&Deleted{Collection: "notes", UID: "n1"})
		teacher.ExpectMessage(&Deleted{Collection: "notes", UID: "n2"})
		teacher.ExpectNoMessage()
		assert.Equal(t, []string{"n3"}, test.inspect(t).Cached)

		docs, err := test.store.Find(test.ctx, "notes", nil)
		require.NoError(t, err)
		require.Len(t, docs, 1)
	})
	t.Run("With an unknown message", func(t *testing.T) {
		test := newNotesTest(t)
		_, err := actor.Ask(test.ctx, test.pid, struct{}{}, askTimeout)
		assert.ErrorIs(t, err, gerrors.ErrUnknownMessage)
	})
	t.Run("With store metrics", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

		test := newNotesTest(t, WithTelemetry(telemetry.New(telemetry.WithMeterProvider(provider))))
		teacher := test.client(t, "teachers")
		_, err := teacher.Ask(test.pid, new(SubscribeToCollection))
		require.NoError(t, err)

		test.put(t, document.Document{"uid": "n1"})
		testkit.ExpectMessageOf[*Updated](teacher)
		_, err = actor.Ask(test.ctx, test.pid, &getNote{UID: "n1"}, askTimeout)
		require.NoError(t, err)
		_, err = actor.Ask(test.ctx, test.pid, &getNote{UID: "missing"}, askTimeout)
		require.Error(t, err)

		var collected metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(test.ctx, &collected))

		assert.EqualValues(t, 1, gaugeValue(t, collected, "quizakt_cache_size"))
		assert.EqualValues(t, 1, gaugeValue(t, collected, "quizakt_subscribers"))
		assert.EqualValues(t, 1, sumValue(t, collected, "quizakt_notifications"))
		assert.EqualValues(t, 1, sumValue(t, collected, "quizakt_cache_hits"))
		assert.EqualValues(t, 1, sumValue(t, collected, "quizakt_cache_misses"))
	})
	t.Run("With the schedules cancelled on stop", func(t *testing.T) {
		test := newNotesTest(t, WithCacheIdle(time.Minute), WithReapInterval(time.Minute))
		require.NoError(t, test.server.Kill(test.ctx, "notes"))
		assert.False(t, test.pid.IsRunning())
	})
}

func findMetric(t *testing.T, collected metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, scope := range collected.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	require.Failf(t, "metric not found", "%s", name)
	return metricdata.Metrics{}
}

func gaugeValue(t *testing.T, collected metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	gauge, ok := findMetric(t, collected, name).Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func sumValue(t *testing.T, collected metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	sum, ok := findMetric(t, collected, name).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, point := range sum.DataPoints {
		total += point.Value
	}
	return total
}
