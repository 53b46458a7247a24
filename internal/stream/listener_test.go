package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingKicker struct {
	kicks  atomic.Int32
	silent atomic.Bool
}

func (k *countingKicker) Kick(silent bool) {
	k.silent.Store(silent)
	k.kicks.Add(1)
}

func (k *countingKicker) wait(t *testing.T, n int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if k.kicks.Load() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d kicks, got %d", n, k.kicks.Load())
}

// wsServer upgrades every request and writes the given payloads.
func wsServer(t *testing.T, payloads ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold the connection open for a while.
		time.Sleep(time.Second)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListener_RefreshKicksTargetsSilently(t *testing.T) {
	srv := wsServer(t, `{"type":"refresh"}`)
	kicker := &countingKicker{}

	l := New(wsURL(srv), 50*time.Millisecond, logrus.New(), kicker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	kicker.wait(t, 1)
	assert.True(t, kicker.silent.Load())
}

func TestListener_IgnoresMalformedAndUnknownFrames(t *testing.T) {
	srv := wsServer(t, `not json at all`, `{"type":"notification"}`, `{"type":"refresh"}`)
	kicker := &countingKicker{}

	l := New(wsURL(srv), 50*time.Millisecond, logrus.New(), kicker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	// Only the refresh frame kicks; the garbage before it does not kill
	// the connection.
	kicker.wait(t, 1)
	assert.Equal(t, int32(1), kicker.kicks.Load())
}

func TestListener_OnFrameHookSeesEveryFrame(t *testing.T) {
	srv := wsServer(t, `{"type":"notification","data":{"n":1}}`, `{"type":"refresh"}`)
	kicker := &countingKicker{}

	l := New(wsURL(srv), 50*time.Millisecond, logrus.New(), kicker)
	var frames atomic.Int32
	l.OnFrame(func(f Frame) {
		frames.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	kicker.wait(t, 1)
	assert.GreaterOrEqual(t, frames.Load(), int32(2))
}

func TestListener_ReconnectsAfterDrop(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	var connections atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connections.Add(1)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"refresh"}`)))
		// Drop immediately to force a reconnect.
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	kicker := &countingKicker{}
	l := New(wsURL(srv), 30*time.Millisecond, logrus.New(), kicker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	kicker.wait(t, 2)
	assert.GreaterOrEqual(t, connections.Load(), int32(2))
}

func TestListener_StopsWhenContextEnds(t *testing.T) {
	srv := wsServer(t)
	kicker := &countingKicker{}

	l := New(wsURL(srv), 30*time.Millisecond, logrus.New(), kicker)
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(100 * time.Millisecond)

	before := kicker.kicks.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, kicker.kicks.Load())
}
