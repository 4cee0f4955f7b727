package catalog

import "time"

// FreshnessStatus labels how current the catalog's model list is believed
// to be.
type FreshnessStatus string

// Freshness statuses.
const (
	StatusFresh   FreshnessStatus = "fresh"
	StatusStale   FreshnessStatus = "stale"
	StatusUnknown FreshnessStatus = "unknown"
)

// Freshness records when the catalog was last verified against provider
// model listings and which model keys are considered critical for
// frontier-required task categories. The router narrows to the critical
// set only when the status is fresh and every critical key is present;
// staleness never fails a route.
type Freshness struct {
	LastVerifiedAt *time.Time      `json:"lastVerifiedAt,omitempty"`
	TTLHours       int             `json:"ttlHours"`
	Status         FreshnessStatus `json:"status"`
	CriticalKeys   []string        `json:"criticalKeys"`
	CriticalOk     bool            `json:"criticalOk"`
	Notes          string          `json:"notes,omitempty"`
}

// CurrentStatus recomputes the status from the verification timestamp and
// TTL. A missing timestamp is unknown; an expired TTL is stale.
func (f Freshness) CurrentStatus(now time.Time) FreshnessStatus {
	if f.LastVerifiedAt == nil {
		return StatusUnknown
	}
	ttl := time.Duration(f.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now.Sub(*f.LastVerifiedAt) > ttl {
		return StatusStale
	}
	return StatusFresh
}

// Verify marks the freshness record as verified now and rechecks that every
// critical key exists in the catalog.
func (f Freshness) Verify(c Catalog, now time.Time) Freshness {
	f.LastVerifiedAt = &now
	f.Status = StatusFresh
	f.CriticalOk = true
	for _, key := range f.CriticalKeys {
		if _, ok := c.Get(key); !ok {
			f.CriticalOk = false
			break
		}
	}
	return f
}
