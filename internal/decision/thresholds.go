// Package decision maps an identity score pair to an admission outcome.
// This is pure domain logic - no I/O, no side effects. Thresholds arrive as
// configuration so tournaments can tune strictness without code changes.
package decision

import "fmt"

// Outcome is the result of evaluating one score pair.
type Outcome string

const (
	Approved   Outcome = "APPROVED"
	Denied     Outcome = "DENIED"
	Borderline Outcome = "BORDERLINE"
)

// Band holds the two cutoffs for one score dimension. Scores at or above
// ApproveFloor auto-approve that dimension; scores in [RejectFloor,
// ApproveFloor) are borderline; anything below RejectFloor is a hard reject.
type Band struct {
	ApproveFloor float64
	RejectFloor  float64
}

func (b Band) approves(score float64) bool   { return score >= b.ApproveFloor }
func (b Band) borderline(score float64) bool { return score >= b.RejectFloor && score < b.ApproveFloor }

// Thresholds carries one band per score dimension.
type Thresholds struct {
	Face     Band
	Liveness Band
}

// Validate rejects threshold configurations that would make Decide
// unsatisfiable or non-monotonic.
func (t Thresholds) Validate() error {
	for name, b := range map[string]Band{"face": t.Face, "liveness": t.Liveness} {
		if b.ApproveFloor < 0 || b.ApproveFloor > 100 || b.RejectFloor < 0 || b.RejectFloor > 100 {
			return fmt.Errorf("%s thresholds must be within 0-100", name)
		}
		if b.RejectFloor > b.ApproveFloor {
			return fmt.Errorf("%s reject floor %v exceeds approve floor %v", name, b.RejectFloor, b.ApproveFloor)
		}
	}
	return nil
}

// Decide applies the rule chain to a score pair:
//  1. Hard reject: either dimension below its reject floor is DENIED outright,
//     with no review path.
//  2. Borderline: either dimension inside its borderline band sends the pair
//     to manual review, even if the other dimension is comfortably above its
//     approve floor. Borderline is the union of the per-dimension conditions.
//  3. Otherwise both dimensions clear their approve floors: APPROVED.
//
// Increasing either score never moves the result toward DENIED.
func (t Thresholds) Decide(faceMatch, liveness float64) Outcome {
	if faceMatch < t.Face.RejectFloor || liveness < t.Liveness.RejectFloor {
		return Denied
	}
	if t.Face.borderline(faceMatch) || t.Liveness.borderline(liveness) {
		return Borderline
	}
	return Approved
}
