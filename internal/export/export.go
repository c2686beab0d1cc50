// Package export renders a brief's responses as spreadsheets.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"

	"github.com/brieflyhq/briefly/internal/models"
)

// Format is a supported export file type.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" (the default when empty) and "xlsx".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename builds the download name from the brief title.
func Filename(b *models.Brief, f Format) string {
	name := slug.Make(b.Title)
	if name == "" {
		name = "brief"
	}
	return name + "-responses." + string(f)
}

// Table is the wide layout shared by every format: one row per response and
// one column per question in brief order. Answers to removed questions get
// trailing columns headed by their id.
type Table struct {
	Header []string
	Rows   [][]string
}

// BuildTable lays out the responses of b.
func BuildTable(b *models.Brief, responses []models.Response) Table {
	known := make(map[string]bool, len(b.Questions))
	columns := make([]string, 0, len(b.Questions))
	header := []string{"submitted_at", "respondent_email"}
	for _, q := range b.Questions {
		known[q.ID] = true
		columns = append(columns, q.ID)
		title := strings.TrimSpace(q.Question)
		if title == "" {
			title = q.ID
		}
		header = append(header, title)
	}

	orphanSet := map[string]bool{}
	for _, r := range responses {
		for id := range r.Answers {
			if !known[id] {
				orphanSet[id] = true
			}
		}
	}
	orphans := make([]string, 0, len(orphanSet))
	for id := range orphanSet {
		orphans = append(orphans, id)
	}
	sort.Strings(orphans)
	columns = append(columns, orphans...)
	header = append(header, orphans...)

	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		row := make([]string, 0, len(header))
		email := ""
		if r.RespondentEmail != nil {
			email = *r.RespondentEmail
		}
		row = append(row, r.SubmittedAt.UTC().Format(time.RFC3339), email)
		for _, id := range columns {
			row = append(row, r.Answers[id].String())
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

// Render encodes the table in the requested format.
func (t Table) Render(f Format) ([]byte, error) {
	if f == XLSX {
		return t.XLSX()
	}
	return t.CSV()
}

// CSV renders the table as comma separated values. Cells a spreadsheet would
// evaluate as formulas are prefixed with a quote.
func (t Table) CSV() ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(csvRecord(t.Header)); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(csvRecord(row)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func csvRecord(cells []string) []string {
	out := make([]string, len(cells))
	for i, v := range cells {
		if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
			v = "'" + v
		}
		out[i] = v
	}
	return out
}

const sheetName = "Responses"

// XLSX renders the table as a single-sheet workbook with a bold header row.
func (t Table) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range append([][]string{t.Header}, t.Rows...) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(t.Header) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, err
		}
		last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
