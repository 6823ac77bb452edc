package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartwarga-dev/warga-store/internal/relay"
)

func startTestDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil, zerolog.Nop())
	go hub.Run()

	h := &Handler{Hub: hub, Log: zerolog.Nop()}
	r := gin.New()
	h.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

type received struct {
	collection string
	value      json.RawMessage
}

func subscribe(t *testing.T, ts *httptest.Server) (*relay.Relay, chan received) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := relay.Dial(ctx, ts.URL, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	updates := make(chan received, 8)
	r.OnRemoteUpdate(func(collection string, value json.RawMessage) {
		updates <- received{collection: collection, value: value}
	})
	return r, updates
}

func TestHub_BroadcastsToOtherClients(t *testing.T) {
	ts := startTestDaemon(t)

	publisher, publisherUpdates := subscribe(t, ts)
	_, subscriberUpdates := subscribe(t, ts)

	// Give the hub a moment to register both clients.
	time.Sleep(100 * time.Millisecond)

	value := json.RawMessage(`[{"nik":"3201010101010001","name":"Siti"}]`)
	require.NoError(t, publisher.Publish("residents", value))

	select {
	case got := <-subscriberUpdates:
		assert.Equal(t, "residents", got.collection)
		assert.JSONEq(t, string(value), string(got.value))
	case <-time.After(3 * time.Second):
		t.Fatal("subscriber never received the broadcast")
	}

	// The publisher must not receive its own message back.
	select {
	case got := <-publisherUpdates:
		t.Fatalf("publisher received its own publish: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestHub_SnapshotServesLatestValue(t *testing.T) {
	ts := startTestDaemon(t)

	publisher, _ := subscribe(t, ts)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, publisher.Publish("residents", json.RawMessage(`[]`)))
	require.NoError(t, publisher.Publish("residents", json.RawMessage(`[{"nik":"3201010101010002","name":"Budi"}]`)))

	// The snapshot holds only the latest value, no history.
	var state map[string]json.RawMessage
	require.Eventually(t, func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		var err error
		state, err = publisher.Snapshot(ctx)
		if err != nil || len(state) == 0 {
			return false
		}
		var list []map[string]any
		if json.Unmarshal(state["residents"], &list) != nil {
			return false
		}
		return len(list) == 1
	}, 3*time.Second, 50*time.Millisecond)

	assert.JSONEq(t, `[{"nik":"3201010101010002","name":"Budi"}]`, string(state["residents"]))
}

func TestHub_LateJoinerGetsNoReplay(t *testing.T) {
	ts := startTestDaemon(t)

	publisher, _ := subscribe(t, ts)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, publisher.Publish("rt_config", json.RawMessage(`{"rtName":"Pak RT Budiman"}`)))
	time.Sleep(200 * time.Millisecond)

	// A client that connects after the publish receives nothing over the
	// socket; history comes only from the snapshot fetch.
	_, lateUpdates := subscribe(t, ts)
	select {
	case got := <-lateUpdates:
		t.Fatalf("late joiner received replayed message: %+v", got)
	case <-time.After(300 * time.Millisecond):
	}
}
