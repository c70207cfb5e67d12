package domain

import "time"

// PurgeMode distinguishes selective file purges from zone-wide purges.
type PurgeMode string

const (
	// PurgeModeSelective purges an explicit list of URLs.
	PurgeModeSelective PurgeMode = "selective"
	// PurgeModeEverything purges the whole zone.
	PurgeModeEverything PurgeMode = "everything"
)

// PurgeResult describes the outcome of a single purge request (one chunk).
// Callers aggregate a sequence of these with CombinePurgeResults.
type PurgeResult struct {
	OK        bool
	Status    int
	RayIDs    []string
	LatencyMs int64
	Attempts  int
	Mode      PurgeMode
	Err       error
}

// CombinePurgeResults folds per-chunk results into a single outcome:
// OK is the conjunction, ray IDs concatenate in order, latency and
// attempt counts sum. The first error encountered is carried through.
func CombinePurgeResults(results []PurgeResult) PurgeResult {
	combined := PurgeResult{OK: true, Status: 200, Mode: PurgeModeSelective}
	for _, r := range results {
		if !r.OK {
			combined.OK = false
			combined.Status = r.Status
			if combined.Err == nil {
				combined.Err = r.Err
			}
		}
		combined.RayIDs = append(combined.RayIDs, r.RayIDs...)
		combined.LatencyMs += r.LatencyMs
		combined.Attempts += r.Attempts
		combined.Mode = r.Mode
	}
	return combined
}

// PurgeBatch is the most recently submitted set of URLs to invalidate,
// retained in process memory for one-click replay. A restart loses it.
type PurgeBatch struct {
	URLs      []string
	CreatedAt time.Time
}
