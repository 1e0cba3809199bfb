// Package importer provides CSV and Excel import of activity outlines.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/coursefactory/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Activities []model.Activity
	Errors     []string
	Warnings   []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Type  int
	Title int
	Span  int
	Row   int
	Col   int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"type":  {"type", "kind", "activity", "activity type", "block"},
	"title": {"title", "label", "name", "heading", "text", "caption"},
	"span":  {"span", "colspan", "col span", "width", "w", "columns", "cols"},
	"row":   {"row", "grid row"},
	"col":   {"col", "column", "grid col", "grid column"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Matching is case-insensitive against the known aliases for each role.
// It returns the mapping and true if a header was detected, or the
// positional mapping (type, title, span, row, col) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Type: -1, Title: -1, Span: -1, Row: -1, Col: -1}

	matched := 0
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		hit := false
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				hit = true
				switch role {
				case "type":
					if mapping.Type == -1 {
						mapping.Type = i
					}
				case "title":
					if mapping.Title == -1 {
						mapping.Title = i
					}
				case "span":
					if mapping.Span == -1 {
						mapping.Span = i
					}
				case "row":
					if mapping.Row == -1 {
						mapping.Row = i
					}
				case "col":
					if mapping.Col == -1 {
						mapping.Col = i
					}
				}
			}
		}
		if hit {
			matched++
		}
	}

	isHeader := matched > 0
	// "title" is both a header name and an activity type, so a row whose
	// only alias is a leading type name is data.
	if mapping.Type == -1 && matched == 1 {
		if _, known := model.ParseActivityType(strings.ToLower(getCell(row, 0))); known {
			isHeader = false
		}
	}

	if !isHeader {
		return ColumnMapping{Type: 0, Title: 1, Span: 2, Row: 3, Col: 4}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parsePositive parses a strictly positive integer cell.
func parsePositive(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseRow extracts an Activity from a row using the given column mapping.
// Returns the activity, any error message, and any warning messages.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.Activity, string, []string) {
	var warnings []string

	typeStr := getCell(row, mapping.Type)
	if typeStr == "" {
		return model.Activity{}, fmt.Sprintf("%s: Missing activity type", rowLabel), nil
	}
	t, ok := model.ParseActivityType(strings.ToLower(typeStr))
	if !ok {
		warnings = append(warnings, fmt.Sprintf("%s: Unknown activity type '%s', defaulting to content", rowLabel, typeStr))
	}
	a := model.NewActivity(t)

	if title := getCell(row, mapping.Title); title != "" {
		a.SetHeadline(title)
	}

	if spanStr := getCell(row, mapping.Span); spanStr != "" {
		span, ok := parsePositive(spanStr)
		if !ok {
			return model.Activity{}, fmt.Sprintf("%s: Invalid span '%s'", rowLabel, spanStr), nil
		}
		a.Layout.ColSpan = span
	}

	rowStr, colStr := getCell(row, mapping.Row), getCell(row, mapping.Col)
	switch {
	case rowStr == "" && colStr == "":
	case rowStr == "" || colStr == "":
		warnings = append(warnings, fmt.Sprintf("%s: Row and column must be given together, placing automatically", rowLabel))
	default:
		r, okR := parsePositive(rowStr)
		c, okC := parsePositive(colStr)
		if !okR || !okC {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid cell '%s,%s', placing automatically", rowLabel, rowStr, colStr))
			break
		}
		a.Layout.Row, a.Layout.Col = r, c
	}

	return a, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports an activity outline from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports an outline from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports an outline from the first sheet of an Excel (.xlsx)
// file and auto-detects the column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile dispatches on the file extension: .xlsx and .xlsm go through
// ImportExcel, everything else is read as CSV.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into an activity.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		if mapping.Type == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Type")
			return result
		}
	} else if _, known := model.ParseActivityType(strings.ToLower(getCell(rows[0], 0))); !known {
		// An unrecognised first row whose span cell is not numeric is a
		// header we could not map.
		if _, err := strconv.Atoi(getCell(rows[0], 2)); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		activity, errMsg, warnings := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Activities = append(result.Activities, activity)
	}

	return result
}
