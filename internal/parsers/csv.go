package parsers

import (
	"encoding/csv"
	"io"

	"tutor-import-service/internal/models"
	"tutor-import-service/pkg/errors"
)

// parseCSV reads a header-keyed CSV upload. Quote and delimiter level
// corruption aborts the parse; ragged rows are tolerated and aligned
// against the header.
func (tp *TabularParser) parseCSV(r io.Reader, name string) ([]models.UploadedRow, *ParseStats, error) {
	stats := NewParseStats()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRecord, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			tp.logger.WithField("file", name).Error("CSV file is empty")
			return nil, stats, errors.ParseError(errors.CodeMissingHeader, name, 0, "", nil)
		}
		tp.logger.WithError(err).WithField("file", name).Error("Failed to read CSV header row")
		return nil, stats, errors.ParseError(errors.CodeInvalidFormat, name, 1, "unreadable header row", err)
	}

	headers := tp.cleanHeaders(headerRecord, stats)
	if !hasAnyHeader(headers) {
		return nil, stats, errors.ParseError(errors.CodeMissingHeader, name, 1, "", nil)
	}
	stats.Headers = headers

	var raw [][]string
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			// encoding/csv only fails on structural problems (bad quoting),
			// which means column alignment can no longer be trusted.
			tp.logger.WithError(err).WithField("line", line).Error("CSV structure error")
			return nil, stats, errors.ParseError(errors.CodeInvalidFormat, name, line, "malformed CSV record", err)
		}
		raw = append(raw, record)
	}

	rows := tp.buildRows(headers, raw, stats)
	return rows, stats, nil
}

func hasAnyHeader(headers []string) bool {
	for _, h := range headers {
		if h != "" {
			return true
		}
	}
	return false
}
