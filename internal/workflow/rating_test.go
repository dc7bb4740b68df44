package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aastu-platform/facility-reports/internal/domain"
	apperrors "github.com/aastu-platform/facility-reports/pkg/errorutil"
)

func TestValidateRatingRange(t *testing.T) {
	assert.Error(t, ValidateRating(-1, "", MinFeedbackLength))
	assert.Error(t, ValidateRating(6, "", MinFeedbackLength))
	assert.NoError(t, ValidateRating(5, "", MinFeedbackLength))
}

func TestValidateRatingLowRequiresFeedback(t *testing.T) {
	longEnough := "the fan is still rattling loudly at night"

	for rating := 0; rating <= 3; rating++ {
		err := ValidateRating(rating, "", MinFeedbackLength)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "rating %d without feedback", rating)

		err = ValidateRating(rating, "too short", MinFeedbackLength)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed), "rating %d with short feedback", rating)

		assert.NoError(t, ValidateRating(rating, longEnough, MinFeedbackLength))
	}

	for rating := 4; rating <= 5; rating++ {
		assert.NoError(t, ValidateRating(rating, "", MinFeedbackLength), "rating %d without feedback", rating)
	}
}

func TestRatingDestination(t *testing.T) {
	assert.Equal(t, domain.StatusReopened, RatingDestination(0, false))
	assert.Equal(t, domain.StatusReopened, RatingDestination(1, false))
	assert.Equal(t, domain.StatusUnderReview, RatingDestination(2, false))
	assert.Equal(t, domain.StatusUnderReview, RatingDestination(3, false))
	assert.Equal(t, domain.StatusClosed, RatingDestination(4, false))
	assert.Equal(t, domain.StatusClosed, RatingDestination(5, false))
	assert.Equal(t, domain.StatusReopened, RatingDestination(4, true))
	assert.Equal(t, domain.StatusReopened, RatingDestination(5, true))
}
