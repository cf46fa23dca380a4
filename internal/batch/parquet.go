package batch

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Row is one item suggestion group. Images without items, and failed
// uploads, produce a single row with an empty Item.
type Row struct {
	Image           string   `parquet:"image"`
	Status          string   `parquet:"status"`
	Error           string   `parquet:"error"`
	Position        int32    `parquet:"position"`
	Item            string   `parquet:"item"`
	Suggestions     []string `parquet:"suggestions,list"`
	ProminentColors []string `parquet:"prominent_colors,list"`
}

func Rows(results []Result) []Row {
	var rows []Row
	for _, r := range results {
		base := Row{Image: r.Image, Status: r.Status, Error: r.Error, Suggestions: []string{}, ProminentColors: []string{}}
		if r.Response == nil || len(r.Response.Items) == 0 {
			if r.Response != nil {
				base.ProminentColors = r.Response.ProminentColors
			}
			rows = append(rows, base)
			continue
		}
		for i, item := range r.Response.Items {
			row := base
			row.Position = int32(i)
			row.Item = item.Name
			row.Suggestions = item.Suggestions
			row.ProminentColors = r.Response.ProminentColors
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteParquet saves results as a flat Parquet table.
func WriteParquet(path string, results []Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Row](file)
	if _, err := writer.Write(Rows(results)); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}
