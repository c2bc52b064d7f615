package sync

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// Report is the outcome of a complete sync run.
type Report struct {
	RunID    string
	Outcomes []OutcomeReport
	Summary  Summary
}

func NewReport(runID string, outcomes []OutcomeReport) Report {
	return Report{
		RunID:    runID,
		Outcomes: outcomes,
		Summary:  Summarise(outcomes),
	}
}

// Format renders the report in the given format, text or csv.
func (r Report) Format(format string) (string, error) {
	switch format {
	case ReportFormatCSV:
		return r.FormatCSV()
	case ReportFormatText, "":
		return r.FormatText(), nil
	}
	return "", fmt.Errorf("unsupported report format %q", format)
}

func (r Report) FormatText() string {
	if len(r.Outcomes) == 0 {
		return "No contacts to sync\n"
	}

	var b strings.Builder
	rule := strings.Repeat("-", 60)
	fmt.Fprintf(&b, "Syncing %d contacts to HubSpot (run %s)\n", len(r.Outcomes), r.RunID)
	fmt.Fprintln(&b, rule)
	for _, o := range r.Outcomes {
		subject := o.Email
		if subject == "" {
			subject = fmt.Sprintf("record %d", o.Index)
		}
		line := fmt.Sprintf("[%s] %s", o.Status, subject)
		if o.ID != "" {
			line += fmt.Sprintf(" (id %s)", o.ID)
		}
		if o.Err != nil {
			line += ": " + o.Err.Error()
		}
		fmt.Fprintln(&b, line)
	}
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "Sync complete!")
	fmt.Fprintf(&b, "  Successfully processed: %d\n", r.Summary.Succeeded())
	fmt.Fprintf(&b, "  Created: %d\n", r.Summary.Created)
	fmt.Fprintf(&b, "  Updated: %d\n", r.Summary.Updated)
	fmt.Fprintf(&b, "  Errors: %d\n", r.Summary.Failed)
	fmt.Fprintf(&b, "  Total: %d\n", r.Summary.Total)
	return b.String()
}

func (r Report) FormatCSV() (string, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{fmt.Sprintf("# Run: %s", r.RunID)}); err != nil {
		return "", err
	}
	if err := writer.Write([]string{"index", "email", "status", "id", "error"}); err != nil {
		return "", err
	}
	for _, o := range r.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		record := []string{strconv.Itoa(o.Index), o.Email, string(o.Status), o.ID, errText}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
