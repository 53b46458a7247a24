// Package geo pushes live provider positions to the backend while the
// provider is online. Two states: idle and broadcasting. The final
// zero-coordinate offline update on the way back to idle is what tells the
// backend the provider is no longer live.
package geo

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/quickserve/quickserve-go/internal/goroutine"
	"github.com/quickserve/quickserve-go/internal/models"
	"github.com/quickserve/quickserve-go/internal/pkg/apperror"
)

// PositionSource is the continuous watch primitive of the device. Watch
// delivers fixes until the context ends.
type PositionSource interface {
	Watch(ctx context.Context) (<-chan models.Position, error)
}

// Sender posts location updates; *api.Client satisfies it.
type Sender interface {
	PostLocation(ctx context.Context, in models.LocationUpdate) error
}

const throttleKey = "provider-location"

// Broadcaster forwards watch positions to the backend, rate-limited and
// filtered by a minimum-move threshold so a stationary device does not
// hammer the network.
type Broadcaster struct {
	source PositionSource
	sender Sender
	log    logrus.FieldLogger

	throttle *limiter.Limiter
	minMoveM float64

	recovery *goroutine.RecoveryHandler

	mu           sync.Mutex
	broadcasting bool
	cancel       context.CancelFunc
	done         chan struct{}
	lastSent     *models.Position
}

// New builds a broadcaster. minInterval caps the update rate; minMoveM is
// the distance (meters) below which a fix is dropped.
func New(source PositionSource, sender Sender, minInterval time.Duration, minMoveM float64, log logrus.FieldLogger) *Broadcaster {
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	rate := limiter.Rate{Period: minInterval, Limit: 1}

	return &Broadcaster{
		source:   source,
		sender:   sender,
		log:      log.WithField("component", "geo"),
		throttle: limiter.New(memory.NewStore(), rate),
		minMoveM: minMoveM,
		recovery: goroutine.NewRecoveryHandler(log),
	}
}

// Broadcasting reports the current state.
func (b *Broadcaster) Broadcasting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broadcasting
}

// Start moves idle → broadcasting. Callers gate this on the provider being
// online with approved KYC; the broadcaster itself only handles positions.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.broadcasting {
		b.mu.Unlock()
		return apperror.New(apperror.ErrCodeConflict, "already broadcasting")
	}

	watchCtx, cancel := context.WithCancel(ctx)
	positions, err := b.source.Watch(watchCtx)
	if err != nil {
		cancel()
		b.mu.Unlock()
		return apperror.Wrap(err, apperror.ErrCodeTransport, "cannot watch device position")
	}

	b.broadcasting = true
	b.cancel = cancel
	b.done = make(chan struct{})
	b.lastSent = nil
	done := b.done
	b.mu.Unlock()

	b.recovery.SafeGo(func() {
		defer close(done)
		for {
			select {
			case <-watchCtx.Done():
				return
			case pos, ok := <-positions:
				if !ok {
					return
				}
				b.forward(watchCtx, pos)
			}
		}
	})
	return nil
}

// Stop moves broadcasting → idle and emits exactly one final offline
// update with zeroed coordinates. Safe to call when already idle.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if !b.broadcasting {
		b.mu.Unlock()
		return
	}
	b.broadcasting = false
	cancel := b.cancel
	done := b.done
	b.mu.Unlock()

	cancel()
	<-done

	// The watch context is gone; the farewell gets its own deadline.
	ctx, cancelSend := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSend()

	offline := models.LocationUpdate{Latitude: 0, Longitude: 0, IsOnline: false}
	if err := b.sender.PostLocation(ctx, offline); err != nil {
		b.log.WithError(err).Warn("final offline update failed")
	}
}

// forward applies throttle and distance threshold, then posts the fix.
// Send failures are logged and dropped; the next fix tries again.
func (b *Broadcaster) forward(ctx context.Context, pos models.Position) {
	b.mu.Lock()
	last := b.lastSent
	b.mu.Unlock()

	if last != nil && distanceMeters(*last, pos) < b.minMoveM {
		return
	}

	lctx, err := b.throttle.Get(ctx, throttleKey)
	if err != nil {
		b.log.WithError(err).Warn("throttle check failed")
		return
	}
	if lctx.Reached {
		return
	}

	update := models.LocationUpdate{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		IsOnline:  true,
	}
	if err := b.sender.PostLocation(ctx, update); err != nil {
		b.log.WithError(err).Warn("location update failed")
		return
	}

	b.mu.Lock()
	p := pos
	b.lastSent = &p
	b.mu.Unlock()
}

// distanceMeters is the haversine distance between two fixes.
func distanceMeters(a, b models.Position) float64 {
	const earthRadiusM = 6371000.0

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
