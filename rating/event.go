// Package rating maintains the peer-rating history and recomputes the
// learned quality-tier snapshot from it.
//
// Rating events are write-once: they are appended to a newline-delimited
// JSON log and never mutated or deleted in normal operation. The learner
// consumes the full history on each recompute and fully replaces the
// previous tier snapshot.
package rating

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MethodPeer marks a rating produced by one model judging another's output.
const MethodPeer = "peer"

// Event is one append-only peer rating record.
type Event struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SessionID     string    `json:"sessionId"`
	FromKey       string    `json:"fromKey"`
	ToModelKey    string    `json:"toModelKey"`
	ToTaskID      string    `json:"toTaskId,omitempty"`
	Rating        int       `json:"rating"`
	Rationale     string    `json:"rationale,omitempty"`
	Method        string    `json:"method"`
	CostAtTimeUSD float64   `json:"costAtTimeUsd,omitempty"`
	LatencyAtMs   int64     `json:"latencyAtTimeMs,omitempty"`
}

// NewEvent creates a rating event with a fresh ID and timestamp.
func NewEvent(sessionID, fromKey, toModelKey string, score int) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		FromKey:    fromKey,
		ToModelKey: toModelKey,
		Rating:     score,
		Method:     MethodPeer,
	}
}

// Validate rejects events that would poison the learner.
func (e Event) Validate() error {
	if e.ToModelKey == "" {
		return fmt.Errorf("rating event missing toModelKey")
	}
	if e.Rating < 1 || e.Rating > 5 {
		return fmt.Errorf("rating %d out of range 1..5", e.Rating)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("rating event missing timestamp")
	}
	return nil
}
