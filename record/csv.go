package record

import (
	"fmt"
	"sort"
	"strings"
)

// ParseCSV parses CSV text into records. Quoted fields with `""` escapes are
// handled per RFC 4180. When hasHeader is true, the first row supplies
// field names; otherwise fields are named "col0", "col1", ....
func ParseCSV(text string, delim rune, hasHeader bool) ([]Record, error) {
	rows, err := parseCSVRows(text, delim)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var header []string
	dataRows := rows
	if hasHeader {
		header = rows[0]
		dataRows = rows[1:]
	} else {
		header = make([]string, len(rows[0]))
		for i := range header {
			header[i] = fmt.Sprintf("col%d", i)
		}
	}

	out := make([]Record, 0, len(dataRows))
	for _, row := range dataRows {
		rec := Record{}
		for i, v := range row {
			key := fmt.Sprintf("col%d", i)
			if i < len(header) {
				key = header[i]
			}
			rec[key] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseCSVRows(text string, delim rune) ([][]string, error) {
	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false
	runes := []rune(text)

	flushField := func() {
		row = append(row, field.String())
		field.Reset()
	}
	flushRow := func() {
		flushField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case inQuotes:
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteByte('"')
					i++
				} else {
					inQuotes = false
				}
			} else {
				field.WriteRune(ch)
			}
		case ch == '"':
			inQuotes = true
		case ch == delim:
			flushField()
		case ch == '\r':
			// ignore; \n (or EOF) ends the row
		case ch == '\n':
			flushRow()
		default:
			field.WriteRune(ch)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("record: unterminated quoted field in CSV input")
	}
	// Final row if the input didn't end with a newline.
	if field.Len() > 0 || len(row) > 0 {
		flushRow()
	}
	return rows, nil
}

// RecordsToCSV renders records as CSV text using the first record's keys
// (sorted) as the columns, escaping fields per RFC 4180.
func RecordsToCSV(records []Record, delim rune, includeHeader bool) string {
	if len(records) == 0 {
		return ""
	}
	cols := orderedKeys(records[0])

	var b strings.Builder
	if includeHeader {
		writeCSVRow(&b, cols, delim)
	}
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			v, _ := Get(rec, c)
			row[i] = fmt.Sprintf("%v", v)
		}
		writeCSVRow(&b, row, delim)
	}
	return b.String()
}

// orderedKeys returns a record's keys sorted ascending, so CSV columns
// and XML fields come out in the same order for byte-identical input.
func orderedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeCSVRow(b *strings.Builder, fields []string, delim rune) {
	for i, f := range fields {
		if i > 0 {
			b.WriteRune(delim)
		}
		b.WriteString(escapeCSVField(f, delim))
	}
	b.WriteString("\r\n")
}

func escapeCSVField(f string, delim rune) string {
	needsQuote := strings.ContainsAny(f, "\"\r\n") || strings.ContainsRune(f, delim)
	if !needsQuote {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
