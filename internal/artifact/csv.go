package artifact

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVLoader converts CSV files into a pipe table.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*Artifact, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	return &Artifact{
		Name:   filename,
		Title:  stem(filename),
		Format: "csv",
		Text:   pipeTable(records),
	}, nil
}
