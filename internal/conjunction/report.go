package conjunction

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// Band is the radial shell an orbit occupies.
type Band struct {
	PeriapsisKm float64
	ApoapsisKm  float64
}

// Overlaps reports whether two shells come within thresholdKm of each
// other. Pairs that fail this test can never meet and need no propagation.
func Overlaps(a, b Band, thresholdKm float64) bool {
	return a.PeriapsisKm-thresholdKm <= b.ApoapsisKm && b.PeriapsisKm-thresholdKm <= a.ApoapsisKm
}

// Report collects the close approaches found by one screening run.
type Report struct {
	ID          uuid.UUID
	Start, End  timesys.Epoch
	ThresholdKm float64
	Approaches  []CloseApproach
}

// NewReport starts an empty report for a screening window.
func NewReport(start, end timesys.Epoch, thresholdKm float64) *Report {
	return &Report{
		ID:          uuid.New(),
		Start:       start,
		End:         end,
		ThresholdKm: thresholdKm,
	}
}

// Add appends an approach.
func (r *Report) Add(ca CloseApproach) {
	r.Approaches = append(r.Approaches, ca)
}

// Count is the number of approaches.
func (r *Report) Count() int { return len(r.Approaches) }

// Sort orders approaches by epoch, then by primary and secondary id.
func (r *Report) Sort() {
	slices.SortFunc(r.Approaches, func(a, b CloseApproach) int {
		if c := cmp.Compare(a.Epoch.DS50, b.Epoch.DS50); c != 0 {
			return c
		}
		if c := cmp.Compare(a.PrimaryID, b.PrimaryID); c != 0 {
			return c
		}
		return cmp.Compare(a.SecondaryID, b.SecondaryID)
	})
}

// Closest returns the approach with the smallest distance.
func (r *Report) Closest() (CloseApproach, bool) {
	if len(r.Approaches) == 0 {
		return CloseApproach{}, false
	}
	return slices.MinFunc(r.Approaches, func(a, b CloseApproach) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	}), true
}
