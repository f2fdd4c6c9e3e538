package grading

import "github.com/noah-isme/sma-dash-client/pkg/export"

// Result sheet column names.
const (
	colSubject = "Subject"
	colCA1     = "CA1 (20%)"
	colCA2     = "CA2 (20%)"
	colExam    = "Exam (60%)"
	colTotal   = "Total"
	colGrade   = "Grade"
	colStatus  = "Status"
)

// Sheet turns subject rows into an exportable result sheet. Derived fields
// are recomputed here, never taken from the input, and the footer carries
// the overall average across fully-scored rows.
func Sheet(rows []SubjectRow) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{colSubject, colCA1, colCA2, colExam, colTotal, colGrade, colStatus},
	}

	results := make([]RowResult, 0, len(rows))
	for _, row := range rows {
		result := row.Compute()
		results = append(results, result)
		dataset.Rows = append(dataset.Rows, map[string]string{
			colSubject: row.Subject,
			colCA1:     row.CA1,
			colCA2:     row.CA2,
			colExam:    row.Exam,
			colTotal:   result.Total,
			colGrade:   result.Grade,
			colStatus:  string(result.Status),
		})
	}

	if average := OverallAverage(results); average != "" {
		dataset.Footer = []string{"Overall average", "", "", "", average, "", ""}
	}

	return dataset
}
