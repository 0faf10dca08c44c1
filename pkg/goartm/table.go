package goartm

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Table is a labeled matrix: Phi tables are tokens x topics, theta tables
// are topics x documents.
type Table struct {
	rowLabels []string
	colLabels []string
	data      *mat.Dense
}

func NewTable(rowLabels, colLabels []string, values [][]float64) (*Table, error) {
	if len(values) != len(rowLabels) {
		return nil, fmt.Errorf("table has %d rows but %d row labels", len(values), len(rowLabels))
	}
	flat := make([]float64, 0, len(rowLabels)*len(colLabels))
	for i, row := range values {
		if len(row) != len(colLabels) {
			return nil, fmt.Errorf("row %d has %d values but %d column labels", i, len(row), len(colLabels))
		}
		flat = append(flat, row...)
	}
	table := &Table{
		rowLabels: append([]string(nil), rowLabels...),
		colLabels: append([]string(nil), colLabels...),
	}
	if len(rowLabels) > 0 && len(colLabels) > 0 {
		table.data = mat.NewDense(len(rowLabels), len(colLabels), flat)
	}
	return table, nil
}

func (t *Table) RowLabels() []string {
	return append([]string(nil), t.rowLabels...)
}

func (t *Table) ColLabels() []string {
	return append([]string(nil), t.colLabels...)
}

func (t *Table) Dims() (rows, cols int) {
	return len(t.rowLabels), len(t.colLabels)
}

func (t *Table) At(i, j int) float64 {
	return t.data.At(i, j)
}

// Row returns the values of the row with the given label.
func (t *Table) Row(label string) ([]float64, bool) {
	for i, candidate := range t.rowLabels {
		if candidate == label {
			return mat.Row(nil, i, t.data), true
		}
	}
	return nil, false
}

// Matrix exposes the underlying dense matrix for numeric post-processing.
// Nil for tables with a zero dimension.
func (t *Table) Matrix() mat.Matrix {
	if t.data == nil {
		return nil
	}
	return t.data
}

// WriteCSV emits the table with a leading label column.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	header := append([]string{""}, t.colLabels...)
	if err := writer.Write(header); err != nil {
		return err
	}
	for i, label := range t.rowLabels {
		row := make([]string, 0, len(t.colLabels)+1)
		row = append(row, label)
		for j := range t.colLabels {
			row = append(row, strconv.FormatFloat(t.data.At(i, j), 'g', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
