package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestWriteWorkbook_RoundTrip(t *testing.T) {
	price := 1500.5
	stock := 12
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.xlsx")

	headers := []string{"sku_id", "visible", "motivo", "stock", "precio"}
	rows := [][]any{
		{"1", true, "", &stock, &price},
		{"2", false, "Sin imagenes", (*int)(nil), (*float64)(nil)},
	}
	require.NoError(t, WriteWorkbook(path, "Visibilidad", headers, rows))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Visibilidad", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	for i, h := range headers {
		assert.Equal(t, h, sheet.Rows[0].Cells[i].String())
	}

	first := sheet.Rows[1].Cells
	assert.Equal(t, "1", first[0].String())
	b, err := first[1].FormattedValue()
	require.NoError(t, err)
	assert.Equal(t, "TRUE", b)
	n, err := first[3].Int()
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	f, err := first[4].Float()
	require.NoError(t, err)
	assert.Equal(t, 1500.5, f)

	// Nil pointers leave their cells empty.
	second := sheet.Rows[2].Cells
	assert.Equal(t, "Sin imagenes", second[2].String())
	assert.Equal(t, "", second[3].String())
	assert.Equal(t, "", second[4].String())
}

func TestWriteWorkbook_EmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteWorkbook(path, "Export", []string{"a", "b"}, nil))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets[0].Rows, 1)
}
