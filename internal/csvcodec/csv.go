// Package csvcodec converts markers to and from the CSV exchange format.
package csvcodec

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

// Header is the export column order.
var Header = []string{"Title", "Description", "Latitude", "Longitude", "Category"}

// Encode writes one fully quoted row per marker, in order, after the header.
func Encode(markers []model.Marker) string {
	var b strings.Builder
	writeRow(&b, Header)
	for _, m := range markers {
		b.WriteByte('\n')
		writeRow(&b, []string{
			m.Title,
			m.Description,
			strconv.FormatFloat(m.Lat, 'f', -1, 64),
			strconv.FormatFloat(m.Lng, 'f', -1, 64),
			string(m.Category.Effective()),
		})
	}
	return b.String()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

// Table is the raw split of a CSV text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parse splits text into records. Quoted fields may span lines, blank lines
// are dropped, and headers are trimmed of whitespace and surrounding quotes.
// Stray quotes in unquoted fields are kept as text.
func Parse(text string) Table {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			// io.EOF; lazy quotes and free field counts leave no parse errors
			break
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return Table{}
	}

	var t Table
	for _, h := range records[0] {
		t.Headers = append(t.Headers, strings.Trim(strings.TrimSpace(h), `"`))
	}
	t.Rows = records[1:]
	return t
}
