// Package stream subscribes to the backend's refresh channel. Instead of
// waiting for the next polling tick, a pushed "refresh" event kicks the
// attached synchronizers immediately.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/quickserve/quickserve-go/internal/goroutine"
)

// Kicker is anything that can be nudged into a silent refresh;
// *poll.Syncer satisfies it.
type Kicker interface {
	Kick(silent bool)
}

// Frame is the wire shape of one event: the type names the event, data
// carries the payload.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Listener keeps a websocket open against the refresh endpoint,
// reconnecting with a fixed backoff after every drop.
type Listener struct {
	url        string
	retryDelay time.Duration
	log        logrus.FieldLogger
	recovery   *goroutine.RecoveryHandler

	targets []Kicker
	onFrame func(Frame)
}

// New builds a listener for the given ws URL. Every attached kicker is
// refreshed silently when a "refresh" event arrives.
func New(url string, retryDelay time.Duration, log logrus.FieldLogger, targets ...Kicker) *Listener {
	if retryDelay <= 0 {
		retryDelay = 3 * time.Second
	}
	return &Listener{
		url:        url,
		retryDelay: retryDelay,
		log:        log.WithField("component", "stream"),
		recovery:   goroutine.NewRecoveryHandler(log),
		targets:    targets,
	}
}

// OnFrame installs an extra hook receiving every decoded frame.
func (l *Listener) OnFrame(fn func(Frame)) {
	l.onFrame = fn
}

// Start runs the connect loop on a goroutine until the context ends.
func (l *Listener) Start(ctx context.Context) {
	l.recovery.SafeGoWithContext(ctx, l.run)
}

func (l *Listener) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if err := l.listenOnce(ctx); err != nil && ctx.Err() == nil {
			l.log.WithError(err).Debug("connection dropped, retrying")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retryDelay):
		}
	}
}

// listenOnce dials and reads frames until the connection fails or the
// context ends.
func (l *Listener) listenOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller goes away.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	l.log.Info("refresh stream connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			// Malformed frames are ignored, the stream stays up.
			continue
		}

		if frame.Type == "refresh" {
			for _, t := range l.targets {
				t.Kick(true)
			}
		}
		if l.onFrame != nil {
			l.onFrame(frame)
		}
	}
}
