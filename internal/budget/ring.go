// Package budget - ring.go holds the in-memory trailing-hour spend window.
//
// DESIGN: A slice ordered by timestamp, pruned on every use. Records are
// created provisionally at decision time with the estimated cost and corrected
// once the real cost is known, so the hourly check always sees the most
// accurate picture available. The ring is rebuilt from the audit log on
// process start, which is how budget enforcement survives restarts.
package budget

import "time"

// window is the trailing spend window used for hourly-budget checks.
const window = time.Hour

// SpendRecord is one cost-relevant decision in the trailing window.
type SpendRecord struct {
	Timestamp   time.Time
	Path        string
	CostUSD     float64
	Accepted    bool
	provisional bool
}

type spendRing struct {
	records []SpendRecord
}

// prune drops records older than the trailing window. Caller holds the lock.
func (r *spendRing) prune(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(r.records) && !r.records[i].Timestamp.After(cutoff) {
		i++
	}
	if i > 0 {
		r.records = append(r.records[:0:0], r.records[i:]...)
	}
}

// acceptedSum totals accepted spend within the window ending at now.
func (r *spendRing) acceptedSum(now time.Time) float64 {
	cutoff := now.Add(-window)
	var sum float64
	for _, rec := range r.records {
		if rec.Accepted && rec.Timestamp.After(cutoff) && !rec.Timestamp.After(now) {
			sum += rec.CostUSD
		}
	}
	return sum
}

func (r *spendRing) append(rec SpendRecord) {
	r.records = append(r.records, rec)
}

// finalize corrects the most recent provisional record for path.
// Returns false if none exists.
func (r *spendRing) finalize(path string, actual float64) bool {
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].provisional && r.records[i].Path == path {
			r.records[i].CostUSD = actual
			r.records[i].provisional = false
			return true
		}
	}
	return false
}
