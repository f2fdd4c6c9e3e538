package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderWithFooter(t *testing.T) {
	data := Dataset{
		Headers: []string{"Subject", "Total", "Grade"},
		Rows: []map[string]string{
			{"Subject": "Mathematics", "Total": "76.00", "Grade": "B"},
			{"Subject": "English", "Total": "82.40", "Grade": "B+"},
		},
		Footer: []string{"Overall average", "79.2"},
	}

	rendered, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t,
		"Subject,Total,Grade\nMathematics,76.00,B\nEnglish,82.40,B+\nOverall average,79.2,\n",
		string(rendered))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFRenderProducesDocument(t *testing.T) {
	data := Dataset{
		Headers: []string{"Subject", "Total"},
		Rows:    []map[string]string{{"Subject": "Mathematics", "Total": "76.00"}},
		Footer:  []string{"Overall average", "76.0"},
	}

	rendered, err := NewPDFExporter().Render(data, "Result Sheet")
	require.NoError(t, err)
	assert.True(t, len(rendered) > 0)
	assert.Equal(t, "%PDF", string(rendered[:4]))
}
