package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Component weights of the final score.
const (
	WeightCA1  = 0.20
	WeightCA2  = 0.20
	WeightExam = 0.60
)

// Status is the pass/fail verdict attached to a computed row.
type Status string

const (
	StatusPass  Status = "Pass"
	StatusFail  Status = "Fail"
	StatusEmpty Status = ""
)

// RowResult carries the derived fields of one subject row. All three fields
// are empty when any component score is missing; no partial grading.
type RowResult struct {
	Total  string
	Grade  string
	Status Status
}

type gradeBand struct {
	min   float64
	grade string
}

// Bands are evaluated highest first; anything below the last threshold is F.
var gradeBands = []gradeBand{
	{90, "A+"},
	{85, "A"},
	{80, "B+"},
	{75, "B"},
	{70, "C+"},
	{65, "C"},
	{60, "D+"},
	{55, "D"},
}

// ComputeRow derives total, grade and status from the three raw component
// scores. Inputs are the raw field values: empty means unset, non-numeric
// text counts as zero. Pure; no side effects.
func ComputeRow(ca1, ca2, exam string) RowResult {
	if isEmpty(ca1) || isEmpty(ca2) || isEmpty(exam) {
		return RowResult{}
	}

	total := toScore(ca1)*WeightCA1 + toScore(ca2)*WeightCA2 + toScore(exam)*WeightExam
	rounded := math.Round(total*100) / 100

	grade := "F"
	for _, band := range gradeBands {
		if rounded >= band.min {
			grade = band.grade
			break
		}
	}

	status := StatusPass
	if grade == "F" {
		status = StatusFail
	}

	return RowResult{
		Total:  fmt.Sprintf("%.2f", rounded),
		Grade:  grade,
		Status: status,
	}
}

// OverallAverage is the arithmetic mean of the non-empty row totals, one
// decimal place. Empty when no row has a total.
func OverallAverage(results []RowResult) string {
	sum := 0.0
	count := 0
	for _, result := range results {
		if result.Total == "" {
			continue
		}
		value, err := strconv.ParseFloat(result.Total, 64)
		if err != nil {
			continue
		}
		sum += value
		count++
	}
	if count == 0 {
		return ""
	}
	average := math.Round(sum/float64(count)*10) / 10
	return fmt.Sprintf("%.1f", average)
}

func isEmpty(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

func toScore(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return value
}
