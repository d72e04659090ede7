// Package board holds the fixed topology of the 21-cell pyramid.
package board

const (
	// Total is the number of cells on the pyramid.
	Total = 21
	// MaxNumber is the highest number a player can place.
	MaxNumber = 10
	// Rows is the number of triangular rows.
	Rows = 6
)

// RowSizes lists the number of cells per row, top to bottom.
var RowSizes = [Rows]int{1, 2, 3, 4, 5, 6}

var adjacency = [Total][]int{
	// row 1
	0: {1, 2},
	// row 2
	1: {0, 2, 3, 4}, 2: {0, 1, 4, 5},
	// row 3
	3: {1, 4, 6, 7}, 4: {1, 2, 3, 5, 7, 8}, 5: {2, 4, 8, 9},
	// row 4
	6: {3, 7, 10, 11}, 7: {3, 4, 6, 8, 11, 12}, 8: {4, 5, 7, 9, 12, 13}, 9: {5, 8, 13, 14},
	// row 5
	10: {6, 11, 15, 16}, 11: {6, 7, 10, 12, 16, 17}, 12: {7, 8, 11, 13, 17, 18},
	13: {8, 9, 12, 14, 18, 19}, 14: {9, 13, 19, 20},
	// row 6
	15: {10, 16}, 16: {10, 11, 15, 17}, 17: {11, 12, 16, 18},
	18: {12, 13, 17, 19}, 19: {13, 14, 18, 20}, 20: {14, 19},
}

var rowOf [Total]int

func init() {
	id := 0
	for r, n := range RowSizes {
		for i := 0; i < n; i++ {
			rowOf[id] = r + 1
			id++
		}
	}
}

// Row returns the one-based row of cell id. Panics when id is out of range.
func Row(id int) int { return rowOf[id] }

// Neighbors returns the ids adjacent to id in ascending order.
// The returned slice is shared and must not be modified.
func Neighbors(id int) []int { return adjacency[id] }

// RowRange returns the first id and one past the last id of row r (1..6).
func RowRange(r int) (first, end int) {
	for i := 0; i < r-1; i++ {
		first += RowSizes[i]
	}
	return first, first + RowSizes[r-1]
}

// Valid reports whether id names a cell.
func Valid(id int) bool { return id >= 0 && id < Total }
