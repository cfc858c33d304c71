package core

// csv.go implements the delimited-text tokenizer and its inverse, the
// cell escaper used by export.
//
// The stdlib encoding/csv reader is deliberately not used here: uploaded
// files routinely contain unterminated quotes, bare quotes mid-cell, and
// trailing blank lines, and the policy for all of those is "tolerate,
// never fail". encoding/csv returns parse errors for the first two and
// emits the blank rows we want dropped.

import "strings"

// ParseRows tokenizes raw CSV text into rows of cell strings.
//
// Cells are separated by commas. A cell wrapped in double quotes may
// contain embedded commas, newlines, and doubled quotes (""). A row whose
// cells are all blank is dropped, which tolerates trailing blank lines in
// uploaded files. Unterminated quotes consume to end of input; this never
// returns an error. Row 0 is the header row by convention of the caller.
func ParseRows(text string) [][]string {
	var (
		rows     [][]string
		row      []string
		cell     strings.Builder
		inQuotes bool
	)

	pushCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}

	pushRow := func() {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				rows = append(rows, row)
				break
			}
		}
		row = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]

		if ch == '"' {
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				cell.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}

		if !inQuotes && (ch == '\n' || ch == '\r') {
			pushCell()
			pushRow()
			if ch == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}

		if !inQuotes && ch == ',' {
			pushCell()
			continue
		}

		cell.WriteByte(ch)
	}

	if cell.Len() > 0 || len(row) > 0 {
		pushCell()
		pushRow()
	}

	return rows
}

// EscapeCell renders one cell for CSV output. A value containing a quote,
// comma, or newline is wrapped in quotes with internal quotes doubled.
// This is the exact inverse of ParseRows' quoting rules, so an exported
// file reimports cleanly.
func EscapeCell(value string) string {
	if strings.ContainsAny(value, "\",\n") {
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

// WriteRows renders rows as CSV text with \n line terminators.
func WriteRows(rows [][]string) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(EscapeCell(cell))
		}
	}
	return b.String()
}
