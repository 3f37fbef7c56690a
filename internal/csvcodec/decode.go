package csvcodec

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/mapnotes/internal/core/geo"
	"github.com/mohammed-shakir/mapnotes/internal/core/model"
)

var aliases = map[string][]string{
	"title":       {"title"},
	"description": {"description"},
	"latitude":    {"latitude", "lat"},
	"longitude":   {"longitude", "lon", "lng", "long"},
	"category":    {"category"},
}

// Record is a decoded data row. Title and Description are nil when the file
// has no such column.
type Record struct {
	Row         int
	Lat         float64
	Lng         float64
	Title       *string
	Description *string
	Category    model.Category
}

type Decoded struct {
	Records []Record
	Errors  []model.ImportRowError
}

type columns struct {
	title, description, lat, lng, category int
}

func locate(headers []string) (columns, bool) {
	find := func(name string) int {
		return slices.IndexFunc(headers, func(h string) bool {
			return slices.ContainsFunc(aliases[name], func(a string) bool {
				return strings.EqualFold(h, a)
			})
		})
	}
	c := columns{
		title:       find("title"),
		description: find("description"),
		lat:         find("latitude"),
		lng:         find("longitude"),
		category:    find("category"),
	}
	return c, c.lat >= 0 && c.lng >= 0
}

// Decode parses text and validates each data row independently. It fails
// only when the latitude or longitude column is missing. Row numbers count
// non-blank records with the header as row 1.
func Decode(text string) (Decoded, error) {
	t := Parse(text)
	cols, ok := locate(t.Headers)
	if !ok {
		return Decoded{}, model.ErrMissingRequiredColumns
	}

	var out Decoded
	for i, fields := range t.Rows {
		row := i + 2
		rec, reason := decodeRow(fields, cols)
		if reason != "" {
			out.Errors = append(out.Errors, model.ImportRowError{Row: row, Reason: reason})
			continue
		}
		rec.Row = row
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func decodeRow(fields []string, c columns) (Record, string) {
	latText := strings.TrimSpace(field(fields, c.lat))
	lngText := strings.TrimSpace(field(fields, c.lng))
	if latText == "" || lngText == "" {
		return Record{}, model.ReasonMissingCoordinates
	}
	lat, errLat := strconv.ParseFloat(latText, 64)
	lng, errLng := strconv.ParseFloat(lngText, 64)
	if errLat != nil || errLng != nil || geo.ValidateLatLng(lat, lng) != nil {
		return Record{}, model.ReasonInvalidLatLng
	}

	rec := Record{Lat: lat, Lng: lng, Category: model.CategoryGeneral}
	if c.title >= 0 {
		v := field(fields, c.title)
		rec.Title = &v
	}
	if c.description >= 0 {
		v := field(fields, c.description)
		rec.Description = &v
	}
	if c.category >= 0 {
		if cat, ok := model.ParseCategory(field(fields, c.category)); ok {
			rec.Category = cat
		}
	}
	return rec, ""
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
