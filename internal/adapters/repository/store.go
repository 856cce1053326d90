// Package repository defines the distance cache interface and its backends.
//
// The cache holds distance-matrix results keyed by (volunteer, event) so
// that repeated matching passes do not hammer the external distance
// service. Entries expire: addresses change and routes change, 24 hours is
// plenty.
package repository

import (
	"context"
	"time"

	"github.com/volunteerops/volmatch/internal/domain/model"
)

// DefaultTTL is how long a cached distance stays valid.
const DefaultTTL = 24 * time.Hour

// Store provides read/write access to cached distance results.
type Store interface {
	// Get returns the cached distance for a volunteer/event pair.
	// Expired entries behave as misses. The returned info has Cached set.
	Get(ctx context.Context, userID, eventID string) (model.DistanceInfo, bool, error)

	// Put stores a freshly computed distance for a volunteer/event pair.
	Put(ctx context.Context, userID, eventID string, info model.DistanceInfo) error

	// Delete drops a cached entry, forcing recomputation on next use.
	Delete(ctx context.Context, userID, eventID string) error

	// Count returns the number of live entries. Backends that cannot count
	// cheaply may return a best-effort value.
	Count(ctx context.Context) int
}

// cacheKey joins the pair the way the backing stores key their entries.
func cacheKey(userID, eventID string) string {
	return userID + ":" + eventID
}
