package redis

import (
	"context"
	"encoding/json"
	"time"

	"ethics-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const snapshotKey = "quiz:session:snapshot"

// SnapshotMirror writes session snapshots to Redis on a best-effort basis.
// The in-process session stays authoritative; the mirrored key gives
// dashboards and sibling processes a read-only view with a liveness TTL.
type SnapshotMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotMirror(client *redis.Client, ttl time.Duration) *SnapshotMirror {
	return &SnapshotMirror{client: client, ttl: ttl}
}

// Store marshals and writes one snapshot under the mirror key.
func (m *SnapshotMirror) Store(ctx context.Context, snap domain.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, snapshotKey, data, m.ttl).Err()
}

// Load reads the mirrored snapshot back, if present.
func (m *SnapshotMirror) Load(ctx context.Context) (domain.SessionSnapshot, bool, error) {
	data, err := m.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return domain.SessionSnapshot{}, false, nil
	}
	if err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.SessionSnapshot{}, false, err
	}
	return snap, true, nil
}

// Watch mirrors every snapshot from the channel until it closes. Write
// failures are swallowed: the mirror must never take the session down.
func (m *SnapshotMirror) Watch(updates <-chan domain.SessionSnapshot) {
	for snap := range updates {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = m.Store(ctx, snap)
		cancel()
	}
}
