// Package report writes result spreadsheets.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteWorkbook writes a single-sheet spreadsheet at path, creating parent
// directories as needed. Each row's values line up with headers; nil values
// leave the cell empty, and pointer values dereference to typed cells so a
// missing number is distinguishable from zero.
func WriteWorkbook(path, sheetName string, headers []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "report: mkdir %s", filepath.Dir(path))
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", sheetName)
	}

	hdr := sheet.AddRow()
	for _, h := range headers {
		hdr.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range r {
			setCell(row.AddCell(), v)
		}
	}

	return eris.Wrapf(file.Save(path), "report: save %s", path)
}

func setCell(c *xlsx.Cell, v any) {
	switch t := v.(type) {
	case nil:
	case string:
		c.SetString(t)
	case bool:
		c.SetBool(t)
	case int:
		c.SetInt(t)
	case int64:
		c.SetInt64(t)
	case float64:
		c.SetFloat(t)
	case *float64:
		if t != nil {
			c.SetFloat(*t)
		}
	case *int:
		if t != nil {
			c.SetInt(*t)
		}
	case *bool:
		if t != nil {
			c.SetBool(*t)
		}
	default:
		c.SetString(fmt.Sprint(t))
	}
}
