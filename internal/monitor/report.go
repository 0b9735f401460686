package monitor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReportFormat represents the output format for reports
type ReportFormat string

const (
	ReportFormatText     ReportFormat = "text"
	ReportFormatJSON     ReportFormat = "json"
	ReportFormatMarkdown ReportFormat = "markdown"
)

// FormatReport formats a snapshot according to the specified format
func FormatReport(snap Snapshot, format ReportFormat) (string, error) {
	switch format {
	case ReportFormatJSON:
		return formatJSON(snap)
	case ReportFormatText, "":
		return formatText(snap), nil
	case ReportFormatMarkdown, "md":
		return formatMarkdown(snap), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(snap Snapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func dur(nanos int64) string {
	return time.Duration(nanos).Round(time.Microsecond).String()
}

func formatText(snap Snapshot) string {
	var sb strings.Builder

	calls, failed := snap.Totals()
	sb.WriteString("Backend Call Report\n")
	sb.WriteString("===================\n\n")
	sb.WriteString(fmt.Sprintf("Session: %s\n", snap.Uptime.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Calls: %d (%d failed)\n", calls, failed))

	if len(snap.Operations) == 0 {
		return sb.String()
	}

	sb.WriteString("\n")
	for _, op := range snap.Operations {
		sb.WriteString(fmt.Sprintf("  %-28s %3d calls  avg %-10s max %-10s errors %d\n",
			op.Operation, op.Count, dur(op.AvgTime), dur(op.MaxTime), op.ErrorCount))
	}
	return sb.String()
}

func formatMarkdown(snap Snapshot) string {
	var sb strings.Builder

	calls, failed := snap.Totals()
	sb.WriteString("# Backend Call Report\n\n")
	sb.WriteString(fmt.Sprintf("**Session:** %s  \n", snap.Uptime.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("**Calls:** %d (%d failed)\n\n", calls, failed))

	if len(snap.Operations) == 0 {
		return sb.String()
	}

	sb.WriteString("| Operation | Calls | Avg | Min | Max | Errors |\n")
	sb.WriteString("|-----------|-------|-----|-----|-----|--------|\n")
	for _, op := range snap.Operations {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %d |\n",
			op.Operation, op.Count, dur(op.AvgTime), dur(op.MinTime), dur(op.MaxTime), op.ErrorCount))
	}
	return sb.String()
}
