package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRowWeightedSum(t *testing.T) {
	result := ComputeRow("80", "90", "70")
	assert.Equal(t, "76.00", result.Total)
	assert.Equal(t, "B", result.Grade)
	assert.Equal(t, StatusPass, result.Status)
}

func TestComputeRowIsPure(t *testing.T) {
	first := ComputeRow("55.5", "60", "71.25")
	second := ComputeRow("55.5", "60", "71.25")
	assert.Equal(t, first, second)
}

func TestComputeRowGradeBoundaries(t *testing.T) {
	cases := []struct {
		name   string
		score  string
		grade  string
		status Status
	}{
		{"exactly 90 is A+", "90", "A+", StatusPass},
		{"89.99 is A", "89.99", "A", StatusPass},
		{"exactly 85 is A", "85", "A", StatusPass},
		{"exactly 80 is B+", "80", "B+", StatusPass},
		{"exactly 75 is B", "75", "B", StatusPass},
		{"exactly 70 is C+", "70", "C+", StatusPass},
		{"exactly 65 is C", "65", "C", StatusPass},
		{"exactly 60 is D+", "60", "D+", StatusPass},
		{"exactly 55 is D", "55", "D", StatusPass},
		{"54.99 is F", "54.99", "F", StatusFail},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Equal component scores make the weighted total equal the score.
			result := ComputeRow(tc.score, tc.score, tc.score)
			assert.Equal(t, tc.grade, result.Grade)
			assert.Equal(t, tc.status, result.Status)
		})
	}
}

func TestComputeRowEmptyInputShortCircuits(t *testing.T) {
	cases := [][3]string{
		{"", "90", "70"},
		{"80", "", "70"},
		{"80", "90", ""},
		{"", "", ""},
		{"  ", "90", "70"},
	}
	for _, tc := range cases {
		result := ComputeRow(tc[0], tc[1], tc[2])
		assert.Equal(t, RowResult{}, result)
	}
}

func TestComputeRowNonNumericCountsAsZero(t *testing.T) {
	result := ComputeRow("abc", "90", "70")
	// 0*0.2 + 90*0.2 + 70*0.6 = 60.00
	assert.Equal(t, "60.00", result.Total)
	assert.Equal(t, "D+", result.Grade)
	assert.Equal(t, StatusPass, result.Status)
}

func TestComputeRowRoundsToTwoDecimals(t *testing.T) {
	// 33.33*0.2 + 33.33*0.2 + 33.34*0.6 = 33.336 -> 33.34
	result := ComputeRow("33.33", "33.33", "33.34")
	assert.Equal(t, "33.34", result.Total)
}

func TestOverallAverage(t *testing.T) {
	results := []RowResult{
		{Total: "76.00"},
		{Total: "89.50"},
		{},
		{Total: "60.25"},
	}
	// (76.00 + 89.50 + 60.25) / 3 = 75.25 -> 75.3 at one decimal place
	assert.Equal(t, "75.3", OverallAverage(results))
}

func TestOverallAverageEmptyWhenNoTotals(t *testing.T) {
	assert.Equal(t, "", OverallAverage(nil))
	assert.Equal(t, "", OverallAverage([]RowResult{{}, {}}))
}
