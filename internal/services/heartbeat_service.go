package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

type livenessStore interface {
	MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// HeartbeatService demotes stale zones to offline. It is the only actor
// that transitions a zone into offline; zones that never reported are
// never touched.
type HeartbeatService struct {
	sensors          livenessStore
	offlineThreshold time.Duration
}

func NewHeartbeatService(sensors livenessStore, offlineThreshold time.Duration) *HeartbeatService {
	return &HeartbeatService{
		sensors:          sensors,
		offlineThreshold: offlineThreshold,
	}
}

// Sweep runs one pass: every active/error zone whose last reading is
// older than the threshold goes offline, committed as one batch.
func (s *HeartbeatService) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.offlineThreshold)
	marked, err := s.sensors.MarkStaleOffline(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(marked) > 0 {
		log.Printf("[heartbeat] marked %d sensor(s) offline: %v", len(marked), marked)
	}
	return nil
}

// Job wraps Sweep for the worker pool. Errors are reported but never
// propagate as fatal; the scheduler keeps its period regardless.
func (s *HeartbeatService) Job() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Sweep(ctx); err != nil {
			log.Printf("[heartbeat] sweep failed: %v", err)
		}
		return nil
	}
}
