package julsdk_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"julclient/internal/julfake"
	julsdk "julclient/sdk/go"
)

const waitTimeout = 5 * time.Second

// syncBuffer is a log sink shared between the test and the reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func collect() (func(julsdk.JulEvent), <-chan julsdk.JulEvent) {
	ch := make(chan julsdk.JulEvent, 16)
	return func(e julsdk.JulEvent) { ch <- e }, ch
}

func next(t *testing.T, ch <-chan julsdk.JulEvent) julsdk.JulEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for event")
	}
	return julsdk.JulEvent{}
}

func waitDone(t *testing.T, sub *julsdk.Subscription) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(waitTimeout):
		t.Fatal("subscription did not stop")
	}
}

func TestSubscribeSkipsMalformedFrames(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	logs := &syncBuffer{}
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL},
		julsdk.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))

	handler, events := collect()
	sub, err := client.SubscribeEvents(context.Background(), "demo", handler, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	defer sub.Close()

	first := srv.Publish("demo", julsdk.JulEvent{Type: julsdk.EventRefUpdated})
	srv.PublishRaw("demo", "data: {not json\n\n")
	second := srv.Publish("demo", julsdk.JulEvent{Type: julsdk.EventCIFinished})

	got1 := next(t, events)
	got2 := next(t, events)
	assert.Equal(t, first.EventID, got1.EventID)
	assert.Equal(t, julsdk.EventRefUpdated, got1.Type)
	assert.Equal(t, "demo", got1.Repo)
	assert.Equal(t, second.EventID, got2.EventID)
	assert.Equal(t, julsdk.EventCIFinished, got2.Type)

	select {
	case e := <-events:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Contains(t, logs.String(), "failed to parse jul event")
	assert.Equal(t, 1, srv.Subscribers("demo"))
	assert.NoError(t, sub.Err())
}

func TestSubscribeIgnoresReadyAndComments(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	handler, events := collect()
	sub, err := client.SubscribeEvents(context.Background(), "demo", handler, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	defer sub.Close()

	srv.PublishRaw("demo", ": ping\n\nevent: ready\ndata: 2026-01-01T00:00:00Z\n\n")
	evt := srv.Publish("demo", julsdk.JulEvent{Type: julsdk.EventSuggestionCreated})

	got := next(t, events)
	assert.Equal(t, evt.EventID, got.EventID)
}

func TestSubscribeBackfillsIDAndType(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	handler, events := collect()
	sub, err := client.SubscribeEvents(context.Background(), "demo", handler, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	defer sub.Close()

	srv.PublishRaw("demo", "id: ev-9\nevent: promote.applied\ndata: {\"ref\":\"refs/heads/main\"}\n\n")

	got := next(t, events)
	assert.Equal(t, "ev-9", got.EventID)
	assert.Equal(t, julsdk.EventPromoteApplied, got.Type)
	require.NotNil(t, got.Ref)
	assert.Equal(t, "refs/heads/main", *got.Ref)
}

func TestSubscribeSendsTokenAndSince(t *testing.T) {
	srv := newFake(t, julfake.Config{Token: "tok"})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL, Token: "tok"})

	past := srv.Publish("demo", julsdk.JulEvent{
		Type:      julsdk.EventCheckpointCreated,
		CreatedAt: "2026-03-01T10:00:00Z",
	})
	srv.Publish("demo", julsdk.JulEvent{
		Type:      julsdk.EventCheckpointCreated,
		CreatedAt: "2026-02-01T10:00:00Z",
	})

	handler, events := collect()
	sub, err := client.SubscribeEvents(context.Background(), "demo", handler,
		julsdk.SubscribeOptions{Since: "2026-02-15T00:00:00Z"})
	require.NoError(t, err)
	defer sub.Close()

	got := next(t, events)
	assert.Equal(t, past.EventID, got.EventID)

	last, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Bearer tok", last.Header.Get("Authorization"))
	assert.Equal(t, "text/event-stream", last.Header.Get("Accept"))
	assert.Equal(t, "since=2026-02-15T00%3A00%3A00Z", last.RawQuery)
}

func TestSubscribeOpenFailure(t *testing.T) {
	srv := newFake(t, julfake.Config{Token: "tok"})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	sub, err := client.SubscribeEvents(context.Background(), "demo", func(julsdk.JulEvent) {}, julsdk.SubscribeOptions{})
	require.Error(t, err)
	assert.Nil(t, sub)
	apiErr, ok := julsdk.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, 0, srv.Subscribers("demo"))
}

func TestCloseFromHandler(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	var (
		sub   *julsdk.Subscription
		ready = make(chan struct{})
		mu    sync.Mutex
		count int
	)
	handler := func(julsdk.JulEvent) {
		<-ready
		mu.Lock()
		count++
		mu.Unlock()
		sub.Close()
		sub.Close()
	}
	var err error
	sub, err = client.SubscribeEvents(context.Background(), "demo", handler, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	close(ready)

	srv.PublishRaw("demo",
		"id: a\nevent: ref.updated\ndata: {}\n\nid: b\nevent: ref.updated\ndata: {}\n\n")
	waitDone(t, sub)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
	assert.NoError(t, sub.Err())
}

func TestContextCancelStopsSubscription(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := client.SubscribeEvents(ctx, "demo", func(julsdk.JulEvent) {}, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	cancel()
	waitDone(t, sub)
	sub.Close()
}

func TestServerEndIsClean(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	sub, err := client.SubscribeEvents(context.Background(), "demo", func(julsdk.JulEvent) {}, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	srv.EndStreams()
	waitDone(t, sub)
	assert.NoError(t, sub.Err())
}

func TestDroppedConnectionSurfacesError(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	logs := &syncBuffer{}
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL},
		julsdk.WithLogger(slog.New(slog.NewTextHandler(logs, nil))))

	sub, err := client.SubscribeEvents(context.Background(), "demo", func(julsdk.JulEvent) {}, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	srv.DropConnections()
	waitDone(t, sub)

	assert.Error(t, sub.Err())
	assert.True(t, strings.Contains(logs.String(), "jul event stream error"))
}

func TestSubscriptionsAreIndependent(t *testing.T) {
	srv := newFake(t, julfake.Config{})
	client := julsdk.New(julsdk.Config{BaseURL: srv.URL})

	h1, ev1 := collect()
	h2, ev2 := collect()
	s1, err := client.SubscribeEvents(context.Background(), "demo", h1, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	s2, err := client.SubscribeEvents(context.Background(), "demo", h2, julsdk.SubscribeOptions{})
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 2, srv.Subscribers("demo"))

	evt := srv.Publish("demo", julsdk.JulEvent{Type: julsdk.EventCIStarted})
	assert.Equal(t, evt.EventID, next(t, ev1).EventID)
	assert.Equal(t, evt.EventID, next(t, ev2).EventID)

	s1.Close()
	waitDone(t, s1)
	evt2 := srv.Publish("demo", julsdk.JulEvent{Type: julsdk.EventCIFinished})
	assert.Equal(t, evt2.EventID, next(t, ev2).EventID)
}
