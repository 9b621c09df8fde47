package sam

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatOpportunityList(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "No opportunities found", f.FormatOpportunityList(nil, FormatOptions{}))

	results := []Record{
		{
			"_id":                "b1c2d3",
			"title":              "Runway Reconstruction",
			"solicitationNumber": "W912-24-R-0001",
			"publishDate":        "2024-01-15T10:00:00.000-0500",
			"isActive":           true,
		},
		{
			"_id":      "e4f5a6",
			"title":    "Bridge Repair",
			"isActive": false,
		},
	}

	out := f.FormatOpportunityList(results, FormatOptions{ShowDetails: true})
	assert.Contains(t, out, "Opportunities (2):")
	assert.Contains(t, out, "├── Runway Reconstruction\n")
	assert.Contains(t, out, "│   Solicitation: W912-24-R-0001")
	assert.Contains(t, out, "Published: 2024-01-15")
	assert.Contains(t, out, "╰── Bridge Repair [INACTIVE]")
	assert.Contains(t, out, "    ID: e4f5a6")

	short := f.FormatOpportunityList(results[:1], FormatOptions{})
	assert.Contains(t, short, "Opportunity (1):")
	assert.NotContains(t, short, "Solicitation:")
}

func TestFormatAttachments(t *testing.T) {
	f := NewConsoleFormatter()

	assert.Equal(t, "", f.FormatAttachments(nil))
	assert.Equal(t, "Attachments: unavailable\n", f.FormatAttachments(&ResourcesResult{Err: errors.New("boom")}))
	assert.Equal(t, "Attachments: none\n", f.FormatAttachments(&ResourcesResult{}))

	out := f.FormatAttachments(&ResourcesResult{Attachments: []Record{
		{"name": "SOW.pdf", "resourceId": "r-1"},
		{"name": "Drawings.zip"},
	}})
	assert.Equal(t, "Attachments (2):\n├── SOW.pdf [r-1]\n╰── Drawings.zip\n", out)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024-01-15T10:00:00Z", time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"next tuesday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(ParseDate(tt.input)))
		})
	}

	parsed := ParseDate("2024-01-15T10:00:00.000-0500")
	assert.Equal(t, 15, parsed.UTC().Day())
	assert.Equal(t, 15, parsed.UTC().Hour())
}
