package grading

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
)

// SubjectRow is one subject's raw entry in a result submission.
type SubjectRow struct {
	Subject string
	CA1     string
	CA2     string
	Exam    string
}

// Compute derives the row's result fields.
func (r SubjectRow) Compute() RowResult {
	return ComputeRow(r.CA1, r.CA2, r.Exam)
}

// Violation names a broken submission rule and the subject it applies to.
type Violation struct {
	Subject string
	Field   string
	Rule    string
	Message string
}

// Submission rules.
const (
	RuleScoreRange       = "score_range"
	RuleDuplicateSubject = "duplicate_subject"
	RuleEmptySubmission  = "empty_submission"
)

// ValidateSubmission enforces the pre-submission rules: every component score
// must be a number in [0,100], subjects must be pairwise distinct, and at
// least one fully-scored row must exist. Runs before any network call; an
// empty result means the submission may proceed.
func ValidateSubmission(rows []SubjectRow) []Violation {
	var violations []Violation

	seen := make(map[string]bool, len(rows))
	fullyScored := 0

	for _, row := range rows {
		subject := strings.TrimSpace(row.Subject)

		fields := []struct {
			name string
			raw  string
		}{
			{"ca1", row.CA1},
			{"ca2", row.CA2},
			{"exam", row.Exam},
		}
		for _, field := range fields {
			if isEmpty(field.raw) {
				continue
			}
			value, err := strconv.ParseFloat(strings.TrimSpace(field.raw), 64)
			if err != nil || value < 0 || value > 100 {
				violations = append(violations, Violation{
					Subject: subject,
					Field:   field.name,
					Rule:    RuleScoreRange,
					Message: fmt.Sprintf("%s: %s score %q must be a number between 0 and 100", subject, field.name, field.raw),
				})
			}
		}

		if subject != "" {
			key := strings.ToLower(subject)
			if seen[key] {
				violations = append(violations, Violation{
					Subject: subject,
					Rule:    RuleDuplicateSubject,
					Message: fmt.Sprintf("subject %q appears more than once", subject),
				})
			}
			seen[key] = true
		}

		if !isEmpty(row.CA1) && !isEmpty(row.CA2) && !isEmpty(row.Exam) {
			fullyScored++
		}
	}

	if fullyScored == 0 {
		violations = append(violations, Violation{
			Rule:    RuleEmptySubmission,
			Message: "at least one subject must have all three scores filled in",
		})
	}

	return violations
}

// SubmissionError folds violations into a single classified error, or nil
// when the submission is valid.
func SubmissionError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	messages := make([]string, 0, len(violations))
	for _, violation := range violations {
		messages = append(messages, violation.Message)
	}
	return apperrors.Clone(apperrors.ErrValidation, strings.Join(messages, "; "))
}
