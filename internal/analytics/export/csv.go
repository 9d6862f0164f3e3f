package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV serialises the tables one after another, each introduced by its
// name and separated by a blank line.
func WriteCSV(w io.Writer, tables []Table) error {
	writer := csv.NewWriter(w)
	for i, t := range tables {
		if i > 0 {
			if err := writer.Write([]string{}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{t.Name}); err != nil {
			return err
		}
		if err := writer.Write(t.Header); err != nil {
			return err
		}
		for _, row := range t.Rows {
			record := make([]string, len(row))
			for j, cell := range row {
				record[j] = formatCell(cell)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatCell(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return formatFloat(value)
	case int:
		return strconv.Itoa(value)
	default:
		return fmt.Sprint(value)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
