package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-dash-client/internal/grading"
	"github.com/noah-isme/sma-dash-client/internal/models"
	apperrors "github.com/noah-isme/sma-dash-client/pkg/errors"
	"github.com/noah-isme/sma-dash-client/pkg/export"
	"github.com/noah-isme/sma-dash-client/pkg/storage"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Compute, validate, export or submit result sheets",
	}
	cmd.AddCommand(newResultsCheckCmd(), newResultsExportCmd(), newResultsSubmitCmd())
	return cmd
}

func newResultsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Compute grades for a score sheet and report rule violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readScoreSheet(args[0])
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "SUBJECT\tCA1\tCA2\tEXAM\tTOTAL\tGRADE\tSTATUS")
			results := make([]grading.RowResult, 0, len(rows))
			for _, row := range rows {
				result := row.Compute()
				results = append(results, result)
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					row.Subject, row.CA1, row.CA2, row.Exam, result.Total, result.Grade, result.Status)
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			if average := grading.OverallAverage(results); average != "" {
				fmt.Printf("\nOverall average: %s\n", average)
			}

			violations := grading.ValidateSubmission(rows)
			if len(violations) > 0 {
				fmt.Println("\nThis sheet cannot be submitted:")
				for _, violation := range violations {
					fmt.Println("  -", violation.Message)
				}
				return apperrors.Clone(apperrors.ErrValidation, "score sheet has rule violations")
			}
			return nil
		},
	}
}

func newResultsExportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Render a score sheet to CSV or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := readScoreSheet(args[0])
			if err != nil {
				return err
			}
			dataset := grading.Sheet(rows)

			var rendered []byte
			switch format {
			case "csv":
				rendered, err = export.NewCSVExporter().Render(dataset)
			case "pdf":
				rendered, err = export.NewPDFExporter().Render(dataset, "Result Sheet")
			default:
				return apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
			}
			if err != nil {
				return err
			}

			if out == "" {
				base := strings.TrimSuffix(args[0], ".csv")
				out = fmt.Sprintf("%s-results.%s", base, format)
			}
			dir, err := storage.NewExportDir(a.cfg.Export.Dir)
			if err != nil {
				return err
			}
			path, err := dir.Save(out, rendered)
			if err != nil {
				return err
			}
			fmt.Println("Exported", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or pdf")
	cmd.Flags().StringVar(&out, "out", "", "output file name (defaults next to the input)")

	return cmd
}

func newResultsSubmitCmd() *cobra.Command {
	var studentID, classID, term, schoolYear string

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a validated score sheet as one result record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := readScoreSheet(args[0])
			if err != nil {
				return err
			}

			// Validation runs before any network call.
			if err := grading.SubmissionError(grading.ValidateSubmission(rows)); err != nil {
				return err
			}

			a.manager.Bootstrap(cmd.Context())
			snap := a.manager.Snapshot()
			if !snap.IsAuthenticated() {
				return apperrors.Clone(apperrors.ErrSessionRejected, "sign in before submitting results")
			}

			req := models.SubmitResultsRequest{
				StudentID: studentID,
				ClassID:   classID,
				Term:      term,
				Session:   schoolYear,
			}
			for _, row := range rows {
				result := row.Compute()
				req.Results = append(req.Results, models.ResultEntry{
					Subject:    row.Subject,
					CA1Score:   row.CA1,
					CA2Score:   row.CA2,
					ExamScore:  row.Exam,
					TotalScore: result.Total,
					Grade:      result.Grade,
					Status:     string(result.Status),
				})
			}
			if err := a.validate.Struct(req); err != nil {
				return apperrors.Wrap(err, apperrors.ErrValidation.Kind, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid submission payload")
			}

			if err := a.client.SubmitResults(cmd.Context(), snap.Token, req); err != nil {
				return err
			}
			fmt.Printf("Submitted %d subject results for student %s\n", len(req.Results), studentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&studentID, "student", "", "student ID")
	cmd.Flags().StringVar(&classID, "class", "", "class ID")
	cmd.Flags().StringVar(&term, "term", "", "term name, e.g. 'First Term'")
	cmd.Flags().StringVar(&schoolYear, "session", "", "school year, e.g. 2025/2026")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("term")

	return cmd
}

// readScoreSheet parses an input CSV with a subject,ca1,ca2,exam header.
// Column order is free; extra columns are ignored.
func readScoreSheet(path string) ([]grading.SubjectRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score sheet: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse score sheet: %w", err)
	}
	if len(records) < 2 {
		return nil, apperrors.Clone(apperrors.ErrValidation, "score sheet needs a header row and at least one subject row")
	}

	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"subject", "ca1", "ca2", "exam"} {
		if _, ok := index[required]; !ok {
			return nil, apperrors.Clone(apperrors.ErrValidation, fmt.Sprintf("score sheet is missing the %q column", required))
		}
	}

	pick := func(record []string, column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]grading.SubjectRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, grading.SubjectRow{
			Subject: pick(record, "subject"),
			CA1:     pick(record, "ca1"),
			CA2:     pick(record, "ca2"),
			Exam:    pick(record, "exam"),
		})
	}
	return rows, nil
}
