package services

import (
	"encoding/csv"
	"io"
	"strings"

	pkgerrors "docgraph/pkg/errors"
)

// column captions accepted for each spreadsheet field, compared after
// normalizeHeader
var headerAliases = map[string]string{
	"title":           "title",
	"journalvenue":    "venue",
	"journal":         "venue",
	"venue":           "venue",
	"publicationyear": "year",
	"year":            "year",
	"authors":         "authors",
	"author":          "authors",
	"abstract":        "abstract",
	"keywords":        "keywords",
	"country":         "country",
}

// ParseSpreadsheet reads a CSV export of the catalog spreadsheet. The
// first record is the header; columns are recognized by caption, so
// ordering and extra columns don't matter. Rows without a title are
// dropped, not errors.
func ParseSpreadsheet(r io.Reader) ([]SpreadsheetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged exports happen
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.NewValidationError("spreadsheet is not valid CSV").WithCause(err)
	}
	if len(records) == 0 {
		return nil, pkgerrors.NewValidationError("spreadsheet is empty")
	}

	fields := make(map[string]int)
	for i, caption := range records[0] {
		if field, ok := headerAliases[normalizeHeader(caption)]; ok {
			if _, taken := fields[field]; !taken {
				fields[field] = i
			}
		}
	}
	if _, ok := fields["title"]; !ok {
		return nil, pkgerrors.NewValidationError("spreadsheet has no Title column")
	}

	rows := make([]SpreadsheetRow, 0, len(records)-1)
	for _, record := range records[1:] {
		cell := func(field string) string {
			idx, ok := fields[field]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		row := SpreadsheetRow{
			Title:    cell("title"),
			Venue:    cell("venue"),
			Year:     cell("year"),
			Authors:  cell("authors"),
			Abstract: cell("abstract"),
			Keywords: cell("keywords"),
			Country:  cell("country"),
		}
		if row.Title == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeHeader reduces a column caption to lowercase alphanumerics so
// "Journal/Venue", "journal venue" and "JournalVenue" all land on the
// same key
func normalizeHeader(caption string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(caption) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
