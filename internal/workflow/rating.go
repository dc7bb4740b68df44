package workflow

import (
	"fmt"
	"strings"

	"github.com/aastu-platform/facility-reports/internal/domain"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

// MinFeedbackLength is the minimum comment length required for low ratings.
const MinFeedbackLength = 20

// RatingInput carries the reporter's post-completion verdict.
type RatingInput struct {
	Rating          int
	Feedback        string
	MarkStillBroken bool
}

// ValidateRating checks a rating value and its feedback comment. Ratings of
// 3 or below require a comment of at least minFeedback characters; 4–5 make
// the comment optional.
func ValidateRating(rating int, feedback string, minFeedback int) error {
	if rating < 0 || rating > 5 {
		return apperrors.NewValidationError("rating must be between 0 and 5", map[string]any{"rating": rating})
	}
	if rating <= 3 {
		trimmed := strings.TrimSpace(feedback)
		if len(trimmed) < minFeedback {
			return apperrors.NewValidationError(
				fmt.Sprintf("ratings of 3 or below require feedback of at least %d characters", minFeedback),
				map[string]any{"rating": rating, "min_length": minFeedback},
			)
		}
	}
	return nil
}

// RatingDestination computes the post-rating state: very low ratings reopen
// the report, middling ratings send it back to review, and satisfied ratings
// close it unless the reporter flags the fix as still broken.
func RatingDestination(rating int, markStillBroken bool) domain.ReportStatus {
	switch {
	case rating <= 1:
		return domain.StatusReopened
	case rating <= 3:
		return domain.StatusUnderReview
	case markStillBroken:
		return domain.StatusReopened
	default:
		return domain.StatusClosed
	}
}
