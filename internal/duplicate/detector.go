// Package duplicate flags new submissions that likely describe an issue
// already reported. Detection is purely advisory; the caller decides whether
// to surface the warning and submissions always proceed.
package duplicate

import (
	"fmt"
	"sort"
	"time"

	"github.com/aastu-platform/facility-reports/internal/domain"
	"github.com/aastu-platform/facility-reports/internal/similarity"
)

// Default detection knobs.
const (
	DefaultSimilarityThreshold  = 0.8
	DefaultTimeWindowDays       = 14
	DefaultMaxCandidatesChecked = 10
)

// Config tunes the detection heuristic.
type Config struct {
	SimilarityThreshold  float64
	TimeWindowDays       int
	MaxCandidatesChecked int
}

// DefaultConfig returns the documented default knobs.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold:  DefaultSimilarityThreshold,
		TimeWindowDays:       DefaultTimeWindowDays,
		MaxCandidatesChecked: DefaultMaxCandidatesChecked,
	}
}

// Submission carries the fields of a new report relevant to detection.
type Submission struct {
	Category       domain.Category
	Block          *string
	LocationDetail *string
	Equipment      string
	Problem        string
}

// Candidate pairs an existing open report with its similarity score.
// Candidates live only for the duration of one detection call.
type Candidate struct {
	ReportID   string
	TicketCode string
	Status     domain.ReportStatus
	Score      float64
	CreatedAt  time.Time
}

// Detector ranks candidate reports against a new submission.
type Detector struct {
	cfg Config
}

// NewDetector builds a detector, falling back to defaults for zero values.
func NewDetector(cfg Config) *Detector {
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.TimeWindowDays <= 0 {
		cfg.TimeWindowDays = DefaultTimeWindowDays
	}
	if cfg.MaxCandidatesChecked <= 0 {
		cfg.MaxCandidatesChecked = DefaultMaxCandidatesChecked
	}
	return &Detector{cfg: cfg}
}

// TimeWindowDays exposes the configured scan window so callers can bound
// their candidate queries to it.
func (d *Detector) TimeWindowDays() int {
	return d.cfg.TimeWindowDays
}

// FindDuplicates filters candidates to recent open reports in the same
// category and location, caps the set at the most recent
// MaxCandidatesChecked, scores each against the submission text and returns
// those at or above the threshold sorted by descending score.
func (d *Detector) FindDuplicates(submission Submission, candidates []domain.Report, now time.Time) []Candidate {
	cutoff := now.AddDate(0, 0, -d.cfg.TimeWindowDays)

	eligible := make([]domain.Report, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Status == domain.StatusClosed || candidate.Status == domain.StatusRejected {
			continue
		}
		if candidate.CreatedAt.Before(cutoff) {
			continue
		}
		if candidate.Category != submission.Category {
			continue
		}
		if !locationsOverlap(submission, &candidate) {
			continue
		}
		eligible = append(eligible, candidate)
	}

	// most recent first, then cap to bound scoring cost
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.After(eligible[j].CreatedAt)
	})
	if len(eligible) > d.cfg.MaxCandidatesChecked {
		eligible = eligible[:d.cfg.MaxCandidatesChecked]
	}

	newText := submission.Equipment + " " + submission.Problem
	matches := make([]Candidate, 0, len(eligible))
	for _, candidate := range eligible {
		score := similarity.Combined(newText, candidate.Equipment+" "+candidate.Problem)
		if score >= d.cfg.SimilarityThreshold {
			matches = append(matches, Candidate{
				ReportID:   candidate.ID,
				TicketCode: candidate.TicketCode,
				Status:     candidate.Status,
				Score:      score,
				CreatedAt:  candidate.CreatedAt,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// GenerateWarningMessage renders a human-readable duplicate summary. A single
// match names its ticket code and status; several matches only state the count.
func GenerateWarningMessage(duplicates []Candidate) string {
	switch len(duplicates) {
	case 0:
		return ""
	case 1:
		d := duplicates[0]
		return fmt.Sprintf("A similar report %s is already %s. Your submission may be a duplicate.",
			d.TicketCode, statusPhrase(d.Status))
	default:
		return fmt.Sprintf("%d similar reports are already open for this area. Your submission may be a duplicate.",
			len(duplicates))
	}
}

func locationsOverlap(submission Submission, candidate *domain.Report) bool {
	if submission.Block != nil && candidate.Block != nil {
		return *submission.Block == *candidate.Block
	}
	if submission.LocationDetail != nil && candidate.LocationDetail != nil {
		return similarity.Normalize(*submission.LocationDetail) == similarity.Normalize(*candidate.LocationDetail)
	}
	// mixed specific/general locations cannot be compared; keep the candidate
	return true
}

func statusPhrase(status domain.ReportStatus) string {
	switch status {
	case domain.StatusSubmitted:
		return "submitted"
	case domain.StatusUnderReview:
		return "under review"
	case domain.StatusApproved:
		return "approved"
	case domain.StatusAssigned:
		return "assigned"
	case domain.StatusInProgress:
		return "in progress"
	case domain.StatusCompleted:
		return "completed"
	case domain.StatusReopened:
		return "reopened"
	default:
		return "open"
	}
}
