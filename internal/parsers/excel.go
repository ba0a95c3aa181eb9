package parsers

import (
	"io"

	"github.com/xuri/excelize/v2"

	"tutor-import-service/internal/models"
	"tutor-import-service/pkg/errors"
	"tutor-import-service/pkg/logger"
)

// parseExcel reads the first sheet of an XLSX workbook, treating row 0 as
// headers. Legacy binary .xls files that excelize cannot open fail with a
// file error suggesting re-saving as .xlsx.
func (tp *TabularParser) parseExcel(r io.Reader, name string) ([]models.UploadedRow, *ParseStats, error) {
	stats := NewParseStats()

	workbook, err := excelize.OpenReader(r)
	if err != nil {
		tp.logger.WithError(err).WithField("file", name).Error("Failed to open workbook")
		return nil, stats, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, stats, errors.ParseError(errors.CodeMissingHeader, name, 0, "workbook has no sheets", nil)
	}

	// Only the first sheet carries import data.
	sheet := sheets[0]
	allRows, err := workbook.GetRows(sheet)
	if err != nil {
		tp.logger.WithError(err).WithFields(logger.Fields{
			"file":  name,
			"sheet": sheet,
		}).Error("Failed to read sheet rows")
		return nil, stats, errors.FileError(errors.CodeFileCorrupted, name, err)
	}

	if len(allRows) == 0 {
		tp.logger.WithField("file", name).Error("Workbook sheet is empty")
		return nil, stats, errors.ParseError(errors.CodeMissingHeader, name, 0, "", nil)
	}

	headers := tp.cleanHeaders(allRows[0], stats)
	if !hasAnyHeader(headers) {
		return nil, stats, errors.ParseError(errors.CodeMissingHeader, name, 1, "", nil)
	}
	stats.Headers = headers

	rows := tp.buildRows(headers, allRows[1:], stats)
	return rows, stats, nil
}
