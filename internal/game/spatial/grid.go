// Package spatial provides the broad-phase and ranking structures used by the
// simulation: a uniform grid for sphere queries and a skip list for the scoreboard.
//
// The grid stores integer slots (not pointers) so a world can rebuild it every
// time positions change without allocating.
package spatial

import (
	"math"
)

// SpatialGrid buckets slots into square cells on the horizontal plane.
// Height is ignored here; callers run the exact 3D distance check themselves.
//
// The grid covers [minX, minX+width) x [minY, minY+height). Points outside are
// clamped into the border cells, so they are still found, just less cheaply.
type SpatialGrid struct {
	minX, minY  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32 // row-major: cells[row*cols+col]
	scratch     []uint32
	count       int
}

// NewSpatialGrid creates a grid for the rectangle starting at (minX, minY).
// cellSize should be close to the most common query radius.
func NewSpatialGrid(minX, minY, width, height, cellSize float64, expected int) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 64
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := expected / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		minX:        minX,
		minY:        minY,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell and keeps the backing arrays.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert places slot at (x, y).
func (g *SpatialGrid) Insert(slot uint32, x, y float64) {
	col, row := g.cellOf(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], slot)
	g.count++
}

func (g *SpatialGrid) cellOf(x, y float64) (col, row int) {
	col = clampInt(int(math.Floor((x-g.minX)*g.invCellSize)), 0, g.cols-1)
	row = clampInt(int(math.Floor((y-g.minY)*g.invCellSize)), 0, g.rows-1)
	return col, row
}

// QueryRadius returns every slot whose cell overlaps the square around
// (cx, cy) with half-extent radius. Candidates may lie outside the radius.
//
// The returned slice is reused by the next call.
func (g *SpatialGrid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]
	if radius < 0 {
		return g.scratch
	}

	minCol, minRow := g.cellOf(cx-radius, cy-radius)
	maxCol, maxRow := g.cellOf(cx+radius, cy+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// Len is the number of inserted slots.
func (g *SpatialGrid) Len() int { return g.count }

// Dimensions returns the grid dimensions.
func (g *SpatialGrid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
