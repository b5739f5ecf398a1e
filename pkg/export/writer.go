package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteTable streams a table as delimited text, one line per row with a
// header first. Cells are joined verbatim and never quoted or escaped,
// so the caller owns keeping the delimiter out of its data.
func WriteTable(w io.Writer, table *Table, delimiter string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(table.Columns, delimiter) + "\n"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, cells := range table.Rows {
		if _, err := bw.WriteString(strings.Join(cells, delimiter) + "\n"); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// WriteEntities streams entities as two-space indented JSON. HTML
// escaping is off so unit symbols like °C and m³ stay literal.
func WriteEntities(w io.Writer, entities []Entity) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entities); err != nil {
		return fmt.Errorf("failed to encode entities: %w", err)
	}
	return nil
}
