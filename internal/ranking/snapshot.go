package ranking

import (
	"context"
	"errors"
	"time"
)

// SnapshotVersion tags the persisted snapshot format.
const SnapshotVersion = "1.0"

// Metadata describes how a snapshot was produced.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
	Description string    `json:"description"`
}

// Snapshot is the immutable result of one full ranking pass. It is
// superseded, never mutated, by the next pass, so readers may share it
// freely.
type Snapshot struct {
	LastUpdate   time.Time    `json:"lastUpdate"`
	TotalCareers int          `json:"totalCareers"`
	TopCareers   []CareerStat `json:"topCareers"`
	AllCareers   []CareerStat `json:"allCareers"`
	Metadata     Metadata     `json:"metadata"`
}

// ErrNoSnapshot is returned by stores when nothing has been persisted, or
// when the persisted value is unreadable (corruption is treated as absence
// so it triggers a fresh computation instead of crashing).
var ErrNoSnapshot = errors.New("no ranking snapshot stored")

// Store persists the most recent snapshot.
type Store interface {
	Get(ctx context.Context) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
	Clear(ctx context.Context) error
	Close() error
}
