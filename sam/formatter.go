package sam

import (
	"fmt"
	"strings"
	"time"
)

// FormatOptions controls how much of each opportunity is printed
type FormatOptions struct {
	ShowDetails bool
}

// ConsoleFormatter provides console output formatting for sam.gov records
type ConsoleFormatter struct{}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{}
}

// FormatOpportunityList formats search results for console display
func (f *ConsoleFormatter) FormatOpportunityList(results []Record, options FormatOptions) string {
	if len(results) == 0 {
		return "No opportunities found"
	}

	var sb strings.Builder

	sb.WriteString("\nOpportunit")
	if len(results) != 1 {
		sb.WriteString("ies")
	} else {
		sb.WriteString("y")
	}
	fmt.Fprintf(&sb, " (%d):\n\n", len(results))

	for i, result := range results {
		isLast := i == len(results)-1
		f.formatOpportunity(&sb, result, isLast, options)

		if !isLast {
			sb.WriteString("│\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatAttachments formats the attachment part of a details lookup
func (f *ConsoleFormatter) FormatAttachments(resources *ResourcesResult) string {
	if resources == nil {
		return ""
	}
	if !resources.OK() {
		return "Attachments: unavailable\n"
	}
	if len(resources.Attachments) == 0 {
		return "Attachments: none\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Attachments (%d):\n", len(resources.Attachments))

	for i, attachment := range resources.Attachments {
		prefix := "├"
		if i == len(resources.Attachments)-1 {
			prefix = "╰"
		}

		fmt.Fprintf(&sb, "%s── %s", prefix, displayName(attachment))
		if id := attachment.String("resourceId"); id != "" {
			fmt.Fprintf(&sb, " [%s]", id)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (f *ConsoleFormatter) formatOpportunity(sb *strings.Builder, result Record, isLast bool, options FormatOptions) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	fmt.Fprintf(sb, "%s── %s", prefix, displayName(result))
	if result.String("isActive") == "false" {
		sb.WriteString(" [INACTIVE]")
	}
	sb.WriteString("\n")

	indent := "│   "
	if isLast {
		indent = "    "
	}

	if id := result.String("_id"); id != "" {
		fmt.Fprintf(sb, "%sID: %s\n", indent, id)
	}

	if !options.ShowDetails {
		return
	}

	if number := result.String("solicitationNumber"); number != "" {
		fmt.Fprintf(sb, "%sSolicitation: %s\n", indent, number)
	}
	if kind := result.String("type.value"); kind != "" {
		fmt.Fprintf(sb, "%sType: %s\n", indent, kind)
	}
	if agency := result.String("organizationHierarchy.0.name"); agency != "" {
		fmt.Fprintf(sb, "%sAgency: %s\n", indent, agency)
	}

	var dateParts []string
	if published := ParseDate(result.String("publishDate")); !published.IsZero() {
		dateParts = append(dateParts, fmt.Sprintf("Published: %s", published.Format("2006-01-02")))
	}
	if due := ParseDate(result.String("responseDate")); !due.IsZero() {
		dateParts = append(dateParts, fmt.Sprintf("Response due: %s", due.Format("2006-01-02")))
	}
	if len(dateParts) > 0 {
		fmt.Fprintf(sb, "%s%s\n", indent, strings.Join(dateParts, " | "))
	}
}

func displayName(r Record) string {
	for _, key := range []string{"title", "name", "_id"} {
		if v := r.String(key); v != "" {
			return v
		}
	}
	return "(untitled)"
}

// ParseDate parses the timestamp layouts sam.gov uses. It returns the zero
// time for empty or unrecognised values.
func ParseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
