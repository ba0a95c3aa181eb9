// Package parsers turns uploaded tabular files into ordered sequences of
// header-keyed rows for the tutor import pipeline.
//
// Supported formats:
//   - CSV (UTF-8, header row required)
//   - XLSX/XLS (first sheet only, row 0 treated as headers)
//
// Failure policy: structural problems (unsupported extension, empty file,
// missing header row, quote-level CSV corruption) abort with a descriptive
// error. Row-level anomalies that can still be aligned against the header
// (ragged rows, duplicated headers) are recorded as warnings and parsing
// continues, so one malformed row never blocks an otherwise good upload.
package parsers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"tutor-import-service/internal/models"
	"tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// ParseStats holds statistics about a parsing operation. Headers preserves
// the cleaned header row in file order for downstream field mapping.
type ParseStats struct {
	TotalRows    int
	DataRows     int
	SkippedEmpty int
	Headers      []string
	Warnings     []models.RowMessage
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Warnings: make([]models.RowMessage, 0),
	}
}

// AddWarning records a non-blocking row-level anomaly
func (ps *ParseStats) AddWarning(row int, message string) {
	ps.Warnings = append(ps.Warnings, models.RowMessage{Row: row, Message: message})
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d rows (%d data, %d empty skipped), %d warnings",
		ps.TotalRows, ps.DataRows, ps.SkippedEmpty, len(ps.Warnings))
}

// TabularParser parses uploaded CSV and Excel files into UploadedRows.
type TabularParser struct {
	logger logger.Logger
}

// NewTabularParser creates a parser using the global logger.
func NewTabularParser() *TabularParser {
	return &TabularParser{
		logger: logger.GetGlobalLogger().WithComponent("tabular_parser"),
	}
}

// ParseFile parses the file at path, dispatching on its extension.
func (tp *TabularParser) ParseFile(path string) ([]models.UploadedRow, *ParseStats, error) {
	file, err := os.Open(path)
	if err != nil {
		tp.logger.WithError(err).WithField("file_path", path).Error("Failed to open upload")
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	return tp.Parse(file, filepath.Base(path))
}

// Parse parses an uploaded file from a reader. The declared file name is
// used only for extension dispatch and error reporting.
func (tp *TabularParser) Parse(r io.Reader, name string) ([]models.UploadedRow, *ParseStats, error) {
	ext := strings.ToLower(filepath.Ext(name))

	tp.logger.WithFields(logger.Fields{
		"file":      name,
		"extension": ext,
	}).Info("Parsing uploaded file")

	var rows []models.UploadedRow
	var stats *ParseStats
	var err error

	switch ext {
	case ".csv":
		rows, stats, err = tp.parseCSV(r, name)
	case ".xlsx", ".xls":
		rows, stats, err = tp.parseExcel(r, name)
	default:
		return nil, nil, errors.FileError(errors.CodeUnsupportedFormat, name, nil)
	}

	if err != nil {
		return nil, stats, err
	}

	// A header with zero data rows is a broken upload, not an empty success.
	if len(rows) == 0 {
		tp.logger.WithField("file", name).Error("Upload contains no data rows")
		return nil, stats, errors.ParseError(errors.CodeNoDataRows, name, 1, "", nil)
	}

	tp.logger.WithFields(logger.Fields{
		"file":      name,
		"data_rows": len(rows),
		"warnings":  len(stats.Warnings),
	}).Info("Upload parsed")

	return rows, stats, nil
}

// buildRows aligns raw cell rows against the header, producing UploadedRows.
// The header row must already be removed from raw. Short rows are padded
// with empty strings; overlong rows are truncated with a warning. Fully
// empty rows are skipped. Row numbers are 1-based over the data section.
func (tp *TabularParser) buildRows(headers []string, raw [][]string, stats *ParseStats) []models.UploadedRow {
	rows := make([]models.UploadedRow, 0, len(raw))
	rowNum := 0

	for _, record := range raw {
		stats.TotalRows++

		if isEmptyRecord(record) {
			stats.SkippedEmpty++
			continue
		}

		rowNum++
		if len(record) > len(headers) {
			stats.AddWarning(rowNum, fmt.Sprintf("row has %d cells but only %d headers; extra cells ignored",
				len(record), len(headers)))
		}

		values := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			var cell string
			if i < len(record) {
				cell = cleanCell(record[i])
			}
			values[header] = cell
		}

		rows = append(rows, models.UploadedRow{Number: rowNum, Values: values})
		stats.DataRows++
	}

	return rows
}

// cleanHeaders trims header cells and drops duplicates, keeping the first
// occurrence. Duplicate and blank headers are reported as warnings against
// the header row.
func (tp *TabularParser) cleanHeaders(raw []string, stats *ParseStats) []string {
	seen := make(map[string]bool, len(raw))
	headers := make([]string, len(raw))

	for i, h := range raw {
		header := cleanCell(h)
		if header == "" {
			stats.AddWarning(0, fmt.Sprintf("column %d has an empty header; values in it are ignored", i+1))
			continue
		}
		if seen[header] {
			stats.AddWarning(0, fmt.Sprintf("duplicate header '%s'; only the first occurrence is used", header))
			continue
		}
		seen[header] = true
		headers[i] = header
	}

	return headers
}

// cleanCell trims a cell and collapses embedded newlines to single spaces so
// multi-line spreadsheet cells do not leak line breaks downstream.
func cleanCell(s string) string {
	if strings.ContainsAny(s, "\r\n") {
		s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
		s = strings.Join(strings.Fields(s), " ")
	}
	return strings.TrimSpace(s)
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
