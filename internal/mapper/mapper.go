// Package mapper converts between geographic coordinates and H3 cells.
package mapper

type Interface interface {
	CellForPoint(lat, lng float64, res int) (string, error)
	Neighborhood(cell string, k int) ([]string, error)
}
