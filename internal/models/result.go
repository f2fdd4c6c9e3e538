package models

// ResultEntry is one subject's scores within a result submission.
// Component scores are percentages; derived fields travel with the entry so
// the server stores exactly what the client displayed.
type ResultEntry struct {
	Subject    string `json:"subject" validate:"required"`
	CA1Score   string `json:"ca1_score" validate:"required"`
	CA2Score   string `json:"ca2_score" validate:"required"`
	ExamScore  string `json:"exam_score" validate:"required"`
	TotalScore string `json:"total_score"`
	Grade      string `json:"grade"`
	Status     string `json:"status"`
}

// SubmitResultsRequest creates one result record for a student and term.
// The entries are submitted atomically; the server accepts all or none.
type SubmitResultsRequest struct {
	StudentID string        `json:"student_id" validate:"required"`
	ClassID   string        `json:"class_id,omitempty"`
	Term      string        `json:"term" validate:"required"`
	Session   string        `json:"session,omitempty"`
	Results   []ResultEntry `json:"results" validate:"required,min=1,dive"`
}
