package face

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Policy holds the distance thresholds of the matcher. All values are raw
// Euclidean embedding distances.
type Policy struct {
	// MatchThreshold is the generic "same person" distance.
	MatchThreshold float64
	// AuthThreshold is the stricter distance a candidate must reach to be
	// considered at authentication.
	AuthThreshold float64
	// DuplicateThreshold is the distance under which a new registration is
	// considered a resubmission of an enrolled face.
	DuplicateThreshold float64
	// AmbiguityMargin is the minimum gap between the best and second best
	// candidate for an authentication to be accepted.
	AmbiguityMargin float64
}

func DefaultPolicy() Policy {
	return Policy{
		MatchThreshold:     0.6,
		AuthThreshold:      0.5,
		DuplicateThreshold: 0.42,
		AmbiguityMargin:    0.08,
	}
}

// RejectReason tells why an authentication was refused.
type RejectReason string

const (
	RejectNotRecognized RejectReason = "not_recognized"
	RejectAmbiguous     RejectReason = "ambiguous"
)

// AuthDecision is the outcome of Matcher.Authenticate.
type AuthDecision struct {
	Accepted   bool
	UserID     uuid.UUID
	Confidence float64
	// Distance is the best candidate distance, +Inf without candidates.
	Distance float64
	// SecondDistance is the runner-up distance, +Inf when there is none.
	SecondDistance float64
	Reason         RejectReason
}

// Err maps a rejected decision to its domain error, nil when accepted.
func (d AuthDecision) Err() error {
	switch {
	case d.Accepted:
		return nil
	case d.Reason == RejectAmbiguous:
		return domain.ErrAmbiguousMatch
	default:
		return domain.ErrNotRecognized
	}
}

// Matcher compares embeddings against enrolled profiles. It keeps no state
// besides its policy and is safe for concurrent use.
type Matcher struct {
	policy Policy
}

func NewMatcher(policy Policy) *Matcher {
	return &Matcher{policy: policy}
}

func (m *Matcher) Policy() Policy {
	return m.policy
}

// Distance is the Euclidean distance between two embeddings. Embeddings of
// different dimension never match.
func Distance(a, b domain.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	return floats.Distance(a, b, 2)
}

// DistanceToProfile is the smallest distance between query and any embedding
// of the profile, +Inf for an empty profile.
func DistanceToProfile(query domain.Embedding, profile domain.FaceProfile) float64 {
	best := math.Inf(1)
	for _, e := range profile.Embeddings {
		if d := Distance(query, e); d < best {
			best = d
		}
	}
	return best
}

// Matches reports whether the profile matches under the generic threshold.
func (m *Matcher) Matches(query domain.Embedding, profile domain.FaceProfile) bool {
	return DistanceToProfile(query, profile) <= m.policy.MatchThreshold
}

// IsDuplicate reports whether query is close enough to any enrolled profile to
// be the same face submitted again.
func (m *Matcher) IsDuplicate(query domain.Embedding, profiles []domain.FaceProfile) bool {
	for _, p := range profiles {
		if DistanceToProfile(query, p) <= m.policy.DuplicateThreshold {
			return true
		}
	}
	return false
}

type candidate struct {
	userID   uuid.UUID
	distance float64
}

// Authenticate picks the enrolled user closest to query. It rejects when no
// profile is within the authentication threshold, and when the two closest
// candidates are less than the ambiguity margin apart.
func (m *Matcher) Authenticate(query domain.Embedding, profiles []domain.FaceProfile) AuthDecision {
	candidates := make([]candidate, 0, len(profiles))
	for _, p := range profiles {
		d := DistanceToProfile(query, p)
		if d <= m.policy.AuthThreshold {
			candidates = append(candidates, candidate{userID: p.UserID, distance: d})
		}
	}

	if len(candidates) == 0 {
		return AuthDecision{
			Reason:         RejectNotRecognized,
			Distance:       math.Inf(1),
			SecondDistance: math.Inf(1),
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	best := candidates[0]
	second := math.Inf(1)
	if len(candidates) > 1 {
		second = candidates[1].distance
	}

	if second-best.distance < m.policy.AmbiguityMargin {
		return AuthDecision{
			Reason:         RejectAmbiguous,
			Distance:       best.distance,
			SecondDistance: second,
		}
	}

	return AuthDecision{
		Accepted:       true,
		UserID:         best.userID,
		Confidence:     math.Max(0, math.Min(1, 1-best.distance)),
		Distance:       best.distance,
		SecondDistance: second,
	}
}
