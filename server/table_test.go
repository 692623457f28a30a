package server

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/jrsteele09/atelier-console/backend"
	"github.com/stretchr/testify/require"
)

var stockColumns = []Column{
	{Key: "reference", Label: "Reference"},
	{Key: "element", Label: "Item"},
	{Key: "quantite", Label: "Quantity"},
}

func stockRecords(n int) []backend.Record {
	records := make([]backend.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, backend.Record{
			"id":        json.Number(fmt.Sprint(i)),
			"reference": fmt.Sprintf("R-%03d", i),
			"element":   fmt.Sprintf("Part %d", i),
			"quantite":  json.Number(fmt.Sprint(i * 2)),
		})
	}
	return records
}

func TestBuildTable_Paginates(t *testing.T) {
	records := stockRecords(45)

	first := buildTable(records, stockColumns, "", 1)
	require.Equal(t, 45, first.Total)
	require.Equal(t, 3, first.Pages)
	require.Len(t, first.Rows, tablePageSize)
	require.Equal(t, 0, first.PrevPage)
	require.Equal(t, 2, first.NextPage)
	require.Equal(t, []string{"R-001", "Part 1", "2"}, first.Rows[0].Cells)
	require.Equal(t, "1", first.Rows[0].ID)

	last := buildTable(records, stockColumns, "", 3)
	require.Len(t, last.Rows, 5)
	require.Equal(t, 2, last.PrevPage)
	require.Equal(t, 0, last.NextPage)

	clamped := buildTable(records, stockColumns, "", 99)
	require.Equal(t, 3, clamped.Page)
}

func TestBuildTable_Filters(t *testing.T) {
	records := stockRecords(45)

	got := buildTable(records, stockColumns, "  part 4 ", 1)
	require.Equal(t, "part 4", got.Query)
	// "Part 4" and "Part 40".."Part 45"
	require.Equal(t, 7, got.Total)
	require.Equal(t, 1, got.Pages)

	none := buildTable(records, stockColumns, "no such part", 1)
	require.Empty(t, none.Rows)
	require.Equal(t, 1, none.Pages)
	require.Equal(t, 1, none.Page)
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{json.Number("12"), "12"},
		{true, "true"},
		{map[string]any{"id": json.Number("3"), "nom": "Atelier A"}, "Atelier A"},
		{map[string]any{"id": json.Number("3")}, "3"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, cellValue(tt.in))
	}
}

func TestTally(t *testing.T) {
	records := []backend.Record{
		{"nature_panne": "Electrical"},
		{"nature_panne": "Mechanical"},
		{"nature_panne": "Electrical"},
		{},
	}
	require.Equal(t, []Tally{
		{Label: "Electrical", Count: 2},
		{Label: "(none)", Count: 1},
		{Label: "Mechanical", Count: 1},
	}, tally(records, "nature_panne"))
}

func TestParsePage(t *testing.T) {
	require.Equal(t, 1, parsePage(""))
	require.Equal(t, 1, parsePage("-3"))
	require.Equal(t, 1, parsePage("abc"))
	require.Equal(t, 4, parsePage("4"))
}
