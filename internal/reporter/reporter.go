// Package reporter aggregates the outcomes of an import run into a single
// operator-facing report, rendered as console text or JSON.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"tutor-import-service/internal/models"
	"tutor-import-service/internal/parsers"
)

// State describes how the run ended.
type State string

const (
	// StateCompleted means every row was processed, successfully or not.
	StateCompleted State = "completed"
	// StateAborted means the batch stopped before reaching every row.
	StateAborted State = "aborted"
	// StateValidated means a dry run: rows were validated but not persisted.
	StateValidated State = "validated"
)

// Report is the aggregated result of one import run. Errors and Warnings
// are sorted by row number so the report reads in file order.
type Report struct {
	File        string    `json:"file"`
	State       State     `json:"state"`
	GeneratedAt time.Time `json:"generated_at"`

	TotalRecords int `json:"total_records"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`

	// PartialRows lists rows whose identity was created but where at least
	// one dependent record failed to save.
	PartialRows []int `json:"partial_rows,omitempty"`

	Errors   []models.RowMessage `json:"errors,omitempty"`
	Warnings []models.RowMessage `json:"warnings,omitempty"`

	// AbortReason is set when State is aborted.
	AbortReason string `json:"abort_reason,omitempty"`
}

// Builder accumulates run results into a Report.
type Builder struct {
	report Report

	// parseWarnings are kept separately so AddOutcomes can rebuild the
	// warning list without losing them.
	parseWarnings []models.RowMessage
}

// NewBuilder starts a report for the named upload.
func NewBuilder(file string) *Builder {
	return &Builder{report: Report{
		File:        file,
		State:       StateCompleted,
		GeneratedAt: time.Now().UTC(),
	}}
}

// AddParseStats folds parser-level warnings into the report. Parse warnings
// carry row 0 for header problems and data-section row numbers otherwise.
func (b *Builder) AddParseStats(stats *parsers.ParseStats) *Builder {
	if stats == nil {
		return b
	}
	b.parseWarnings = append(b.parseWarnings, stats.Warnings...)
	b.report.Warnings = append(b.report.Warnings, stats.Warnings...)
	return b
}

// AddValidation folds validated records into the report. Used alone for a
// dry run; when outcomes are added afterwards the per-row messages come
// from the outcomes instead, so validation rows with outcomes are skipped.
func (b *Builder) AddValidation(records []*models.ParsedRecord) *Builder {
	b.report.TotalRecords = len(records)
	for _, record := range records {
		for _, msg := range record.Errors {
			b.report.Errors = append(b.report.Errors, models.RowMessage{Row: record.RowNumber, Message: msg})
		}
		for _, msg := range record.Warnings {
			b.report.Warnings = append(b.report.Warnings, models.RowMessage{Row: record.RowNumber, Message: msg})
		}
		if record.IsValid() {
			b.report.SuccessCount++
		}
	}
	b.report.State = StateValidated
	return b
}

// AddOutcomes folds persistence outcomes into the report. Outcomes already
// carry each record's validation messages, so the error and warning lists
// are rebuilt from scratch (keeping parse warnings) rather than appended;
// otherwise every validation warning would be counted twice.
func (b *Builder) AddOutcomes(records []*models.ParsedRecord, outcomes []models.RowOutcome) *Builder {
	b.report.TotalRecords = len(records)
	b.report.SuccessCount = 0
	b.report.Errors = nil
	b.report.Warnings = append([]models.RowMessage(nil), b.parseWarnings...)

	for _, outcome := range outcomes {
		if outcome.Success {
			b.report.SuccessCount++
		}
		if outcome.Partial {
			b.report.PartialRows = append(b.report.PartialRows, outcome.Row)
		}
		b.report.Errors = append(b.report.Errors, outcome.Errors...)
		b.report.Warnings = append(b.report.Warnings, outcome.Warnings...)
	}

	b.report.State = StateCompleted
	return b
}

// MarkAborted records that the batch stopped early.
func (b *Builder) MarkAborted(reason string) *Builder {
	b.report.State = StateAborted
	b.report.AbortReason = reason
	return b
}

// Build finalizes the report: counters are derived from the message lists
// and both lists are sorted by row.
func (b *Builder) Build() *Report {
	report := b.report

	sort.SliceStable(report.Errors, func(i, j int) bool {
		return report.Errors[i].Row < report.Errors[j].Row
	})
	sort.SliceStable(report.Warnings, func(i, j int) bool {
		return report.Warnings[i].Row < report.Warnings[j].Row
	})
	sort.Ints(report.PartialRows)

	errorRows := make(map[int]bool)
	for _, e := range report.Errors {
		errorRows[e.Row] = true
	}
	report.ErrorCount = len(errorRows)
	report.WarningCount = len(report.Warnings)

	return &report
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, report *Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// WriteText renders the report for a terminal.
func WriteText(w io.Writer, report *Report) error {
	var b strings.Builder

	b.WriteString("Import Report\n")
	b.WriteString("=============\n")
	fmt.Fprintf(&b, "File:      %s\n", report.File)
	fmt.Fprintf(&b, "State:     %s\n", report.State)
	if report.AbortReason != "" {
		fmt.Fprintf(&b, "Reason:    %s\n", report.AbortReason)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "Records:   %d\n", report.TotalRecords)
	fmt.Fprintf(&b, "Succeeded: %d\n", report.SuccessCount)
	fmt.Fprintf(&b, "Failed:    %d\n", report.ErrorCount)
	fmt.Fprintf(&b, "Warnings:  %d\n", report.WarningCount)

	if len(report.PartialRows) > 0 {
		fmt.Fprintf(&b, "Partial:   rows %s (identity saved, some details missing)\n",
			joinRows(report.PartialRows))
	}

	if len(report.Errors) > 0 {
		b.WriteString("\nErrors\n------\n")
		for _, e := range report.Errors {
			fmt.Fprintf(&b, "  %s\n", e.String())
		}
	}

	if len(report.Warnings) > 0 {
		b.WriteString("\nWarnings\n--------\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning.String())
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		parts[i] = fmt.Sprintf("%d", row)
	}
	return strings.Join(parts, ", ")
}
