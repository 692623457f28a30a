package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/atelier-console/backend"
)

const tablePageSize = 20

// Column is one displayed field of a backend record
type Column struct {
	Key   string
	Label string
}

// Row is a record flattened to the displayed columns
type Row struct {
	ID    string
	Cells []string
}

// Table is a filtered, paginated view of a collection
type Table struct {
	Columns  []Column
	Rows     []Row
	Query    string
	Total    int
	Page     int
	Pages    int
	PrevPage int
	NextPage int
}

// buildTable filters records on query (case-insensitive, any displayed column) and
// returns the requested page. Out-of-range pages are clamped.
func buildTable(records []backend.Record, columns []Column, query string, page int) Table {
	query = strings.TrimSpace(query)
	needle := strings.ToLower(query)

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		row := Row{ID: cellValue(record["id"]), Cells: make([]string, len(columns))}
		match := needle == ""
		for i, col := range columns {
			row.Cells[i] = cellValue(record[col.Key])
			if !match && strings.Contains(strings.ToLower(row.Cells[i]), needle) {
				match = true
			}
		}
		if match {
			rows = append(rows, row)
		}
	}

	pages := (len(rows) + tablePageSize - 1) / tablePageSize
	if pages == 0 {
		pages = 1
	}
	page = max(1, min(page, pages))

	start := (page - 1) * tablePageSize
	end := min(start+tablePageSize, len(rows))

	t := Table{
		Columns: columns,
		Rows:    rows[start:end],
		Query:   query,
		Total:   len(rows),
		Page:    page,
		Pages:   pages,
	}
	if page > 1 {
		t.PrevPage = page - 1
	}
	if page < pages {
		t.NextPage = page + 1
	}
	return t
}

func cellValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case map[string]any:
		// nested relations are shown by name when the backend expands them
		if name, ok := value["nom"]; ok {
			return cellValue(name)
		}
		return cellValue(value["id"])
	default:
		return fmt.Sprint(value)
	}
}

func parsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Tally is one bucket of an aggregate count
type Tally struct {
	Label string
	Count int
}

// tally counts records by the value of key, largest first
func tally(records []backend.Record, key string) []Tally {
	counts := map[string]int{}
	for _, record := range records {
		label := cellValue(record[key])
		if label == "" {
			label = "(none)"
		}
		counts[label]++
	}

	result := make([]Tally, 0, len(counts))
	for label, count := range counts {
		result = append(result, Tally{Label: label, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Label < result[j].Label
	})
	return result
}
