package duplicate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aastu-platform/facility-reports/internal/domain"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func strptr(s string) *string { return &s }

func openReport(id string, age time.Duration) domain.Report {
	return domain.Report{
		ID:         id,
		TicketCode: "AASTU-ELEC-20250310-" + id,
		Category:   domain.CategoryElectrical,
		Block:      strptr("57"),
		Equipment:  "ceiling fan",
		Problem:    "fan not spinning and smells burnt",
		Status:     domain.StatusSubmitted,
		CreatedAt:  now.Add(-age),
	}
}

func sameBlockSubmission() Submission {
	return Submission{
		Category:  domain.CategoryElectrical,
		Block:     strptr("57"),
		Equipment: "ceiling fan",
		Problem:   "fan not spinning and smells burnt",
	}
}

func TestFindDuplicatesNearIdenticalText(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	matches := detector.FindDuplicates(sameBlockSubmission(), []domain.Report{openReport("1", time.Hour)}, now)
	require.Len(t, matches, 1)
	assert.GreaterOrEqual(t, matches[0].Score, DefaultSimilarityThreshold)
	assert.LessOrEqual(t, matches[0].Score, 1.0)
	assert.Equal(t, "1", matches[0].ReportID)
}

func TestFindDuplicatesFiltersWindowAndStatus(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	stale := openReport("stale", 15*24*time.Hour)
	closed := openReport("closed", time.Hour)
	closed.Status = domain.StatusClosed
	rejected := openReport("rejected", time.Hour)
	rejected.Status = domain.StatusRejected

	matches := detector.FindDuplicates(sameBlockSubmission(), []domain.Report{stale, closed, rejected}, now)
	assert.Empty(t, matches)
}

func TestFindDuplicatesFiltersCategoryAndBlock(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	otherCategory := openReport("cat", time.Hour)
	otherCategory.Category = domain.CategoryMechanical

	otherBlock := openReport("blk", time.Hour)
	otherBlock.Block = strptr("12")

	matches := detector.FindDuplicates(sameBlockSubmission(), []domain.Report{otherCategory, otherBlock}, now)
	assert.Empty(t, matches)
}

func TestFindDuplicatesGeneralLocation(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	candidate := openReport("gen", time.Hour)
	candidate.Block = nil
	candidate.LocationDetail = strptr("Main library, ground floor!")

	submission := sameBlockSubmission()
	submission.Block = nil
	submission.LocationDetail = strptr("main LIBRARY ground floor")

	matches := detector.FindDuplicates(submission, []domain.Report{candidate}, now)
	require.Len(t, matches, 1)

	submission.LocationDetail = strptr("cafeteria kitchen")
	matches = detector.FindDuplicates(submission, []domain.Report{candidate}, now)
	assert.Empty(t, matches)
}

func TestFindDuplicatesCapsCandidates(t *testing.T) {
	detector := NewDetector(Config{SimilarityThreshold: 0.1, TimeWindowDays: 14, MaxCandidatesChecked: 3})

	candidates := make([]domain.Report, 0, 8)
	for i := 0; i < 8; i++ {
		candidates = append(candidates, openReport(fmt.Sprintf("%d", i), time.Duration(i)*time.Hour))
	}
	matches := detector.FindDuplicates(sameBlockSubmission(), candidates, now)
	assert.Len(t, matches, 3)
	// the cap keeps the most recent candidates
	for _, m := range matches {
		assert.Contains(t, []string{"0", "1", "2"}, m.ReportID)
	}
}

func TestFindDuplicatesSortsByScore(t *testing.T) {
	detector := NewDetector(Config{SimilarityThreshold: 0.2, TimeWindowDays: 14, MaxCandidatesChecked: 10})

	exact := openReport("exact", 2*time.Hour)
	close := openReport("close", time.Hour)
	close.Problem = "fan not spinning, burnt smell in the room"

	matches := detector.FindDuplicates(sameBlockSubmission(), []domain.Report{close, exact}, now)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].ReportID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestFindDuplicatesEmptyTextIsSafe(t *testing.T) {
	detector := NewDetector(DefaultConfig())

	submission := Submission{Category: domain.CategoryElectrical, Block: strptr("57")}
	empty := openReport("empty", time.Hour)
	empty.Equipment = ""
	empty.Problem = ""

	// both sides empty normalize identically and score 1.0; must not panic
	matches := detector.FindDuplicates(submission, []domain.Report{empty}, now)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Score, 0.0)
		assert.LessOrEqual(t, m.Score, 1.0)
	}

	// empty submission against populated candidates scores 0
	matches = detector.FindDuplicates(submission, []domain.Report{openReport("full", time.Hour)}, now)
	assert.Empty(t, matches)
}

func TestGenerateWarningMessage(t *testing.T) {
	assert.Equal(t, "", GenerateWarningMessage(nil))

	single := []Candidate{{TicketCode: "AASTU-ELEC-20250310-0001", Status: domain.StatusUnderReview}}
	msg := GenerateWarningMessage(single)
	assert.Contains(t, msg, "AASTU-ELEC-20250310-0001")
	assert.Contains(t, msg, "under review")

	many := []Candidate{
		{TicketCode: "AASTU-ELEC-20250310-0001"},
		{TicketCode: "AASTU-ELEC-20250310-0002"},
		{TicketCode: "AASTU-ELEC-20250310-0003"},
	}
	msg = GenerateWarningMessage(many)
	assert.Contains(t, msg, "3 similar reports")
	assert.NotContains(t, msg, "AASTU-ELEC-20250310-0002")
}
