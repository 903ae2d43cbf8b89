package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VotingCategory is the stored scoring-algorithm family tag.
type VotingCategory string

const (
	CategoryRanked     VotingCategory = "ranked"
	CategoryApproval   VotingCategory = "approval"
	CategoryRating     VotingCategory = "rating"
	CategoryWeighted   VotingCategory = "weighted"
	CategoryCumulative VotingCategory = "cumulative"
)

// Scheme is a closed variant over voting categories. Each implementation
// carries only the settings its category uses, so casting code switches over
// concrete types instead of comparing category strings.
type Scheme interface {
	Category() VotingCategory
}

// RankedScheme scores ballots by finishing place. Weighted is set for the
// "weighted" category, which shares the ranked path but exists as a distinct
// admin-facing label.
type RankedScheme struct {
	Places   []PlaceConfig
	Weighted bool
}

// ApprovalScheme gives every selected entry PointsPerVote. MaxSelections 0
// means uncapped. Cumulative allows the same entry to be selected repeatedly,
// stacking points onto the single per-entry vote row.
type ApprovalScheme struct {
	PointsPerVote decimal.Decimal
	MaxSelections int
	Cumulative    bool
}

// RatingScheme records a per-entry score inside [Min, Max].
type RatingScheme struct {
	Min float64
	Max float64
}

func (RankedScheme) Category() VotingCategory { return CategoryRanked }
func (s ApprovalScheme) Category() VotingCategory {
	if s.Cumulative {
		return CategoryCumulative
	}
	return CategoryApproval
}
func (RatingScheme) Category() VotingCategory { return CategoryRating }

// PointsForPlace returns the configured points for a finishing place, or
// false when the place is not configured.
func (s RankedScheme) PointsForPlace(place int) (decimal.Decimal, bool) {
	for _, pc := range s.Places {
		if pc.Place == place {
			return pc.Points, true
		}
	}
	return decimal.Zero, false
}

// Scheme materializes the stored category string into its settings variant.
// An unrecognized category is an admin-configuration defect, reported as
// ErrUnknownVotingCategory so callers can log it apart from voter mistakes.
func (vt VotingType) Scheme() (Scheme, error) {
	switch vt.Category {
	case CategoryRanked, CategoryWeighted:
		return RankedScheme{Places: vt.Places, Weighted: vt.Category == CategoryWeighted}, nil
	case CategoryApproval, CategoryCumulative:
		points := vt.PointsPerVote
		if points.IsZero() {
			points = decimal.NewFromInt(1)
		}
		return ApprovalScheme{
			PointsPerVote: points,
			MaxSelections: vt.MaxSelections,
			Cumulative:    vt.Category == CategoryCumulative,
		}, nil
	case CategoryRating:
		min, max := vt.MinRating, vt.MaxRating
		if min == 0 && max == 0 {
			max = 10
		}
		return RatingScheme{Min: min, Max: max}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVotingCategory, vt.Category)
	}
}
