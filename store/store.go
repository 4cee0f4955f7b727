// Package store persists the catalog, rating log, tier snapshot, freshness
// status, and run artifacts on the local filesystem.
//
// The core algorithms depend only on the ContextStore interface; git or
// network synchronization of the underlying files is someone else's job.
// Layout under the store root:
//
//	catalog.json        routable model catalog
//	ratings.ndjson      append-only rating log, one event per line
//	tier_snapshot.json  learned tier snapshot, fully replaced on recompute
//	freshness.json      catalog freshness status
//	budget.json         persisted ledger state (written by the CLI)
//	artifacts/<session>/<task>/<name>
package store

import (
	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/rating"
)

// ArtifactRef locates one written artifact.
type ArtifactRef struct {
	SessionID string `json:"sessionId"`
	TaskID    string `json:"taskId"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

// ContextStore is the narrow interface the core reads and writes through.
type ContextStore interface {
	// ReadCatalog loads the catalog, falling back to the built-in default
	// when no catalog file exists.
	ReadCatalog() (catalog.Catalog, error)

	// WriteCatalog replaces the catalog file.
	WriteCatalog(c catalog.Catalog) error

	// AppendRating appends one event to the rating log. The log is never
	// rewritten in place.
	AppendRating(e rating.Event) error

	// ListRatings returns the full rating history in append order.
	ListRatings() ([]rating.Event, error)

	// ReadTierSnapshot returns the current snapshot, or (nil, nil) when
	// none has been written yet.
	ReadTierSnapshot() (*catalog.TierSnapshot, error)

	// WriteTierSnapshot fully replaces the snapshot file.
	WriteTierSnapshot(s *catalog.TierSnapshot) error

	// ReadFreshness returns the catalog freshness record; a missing file
	// yields an unknown-status record.
	ReadFreshness() (catalog.Freshness, error)

	// WriteFreshness replaces the freshness record.
	WriteFreshness(f catalog.Freshness) error

	// ReadBudget returns the persisted ledger state, or ok=false when
	// none has been written.
	ReadBudget() (budget.State, bool, error)

	// WriteBudget persists the ledger state.
	WriteBudget(s budget.State) error

	// WriteArtifact stores one artifact under a session/task-scoped path
	// and returns where it landed.
	WriteArtifact(sessionID, taskID, name string, data []byte) (ArtifactRef, error)
}
