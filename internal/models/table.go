package models

// Table is a rendered aggregation result: a header row and formatted
// cells. Undefined statistics are empty cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Series is a labeled numeric sequence for chart rendering.
type Series struct {
	Labels []string
	Values []float64
}
