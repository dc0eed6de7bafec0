package sensitivity

import (
	"math"
	"sort"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
)

func (m Matrix) cellAt(i, j int) Cell {
	return Cell{
		Row:       i,
		Col:       j,
		Var1Value: m.Var1.Values[i],
		Var2Value: m.Var2.Values[j],
		Cashflow:  m.Cashflow[i][j],
	}
}

// extremes returns the cells with the highest and lowest cashflow. Ties go
// to the first cell in row-major order.
func extremes(m Matrix) (best, worst Cell) {
	best, worst = m.cellAt(0, 0), m.cellAt(0, 0)
	for i := range m.Cashflow {
		for j, cf := range m.Cashflow[i] {
			if cf > best.Cashflow {
				best = m.cellAt(i, j)
			}
			if cf < worst.Cashflow {
				worst = m.cellAt(i, j)
			}
		}
	}
	return best, worst
}

// breakEven scans every row and column for adjacent cells whose cashflow
// changes sign and reports the non-negative cell of each pair.
func breakEven(m Matrix) []Cell {
	seen := make(map[[2]int]bool)
	var cells []Cell
	mark := func(i, j int) {
		key := [2]int{i, j}
		if seen[key] {
			return
		}
		seen[key] = true
		cells = append(cells, m.cellAt(i, j))
	}
	check := func(i1, j1, i2, j2 int) {
		a, b := m.Cashflow[i1][j1], m.Cashflow[i2][j2]
		switch {
		case a < 0 && b >= 0:
			mark(i2, j2)
		case a >= 0 && b < 0:
			mark(i1, j1)
		}
	}

	rows := len(m.Cashflow)
	for i := 0; i < rows; i++ {
		for j := 0; j+1 < len(m.Cashflow[i]); j++ {
			check(i, j, i, j+1)
		}
	}
	for i := 0; i+1 < rows; i++ {
		for j := range m.Cashflow[i] {
			check(i, j, i+1, j)
		}
	}

	sort.Slice(cells, func(a, b int) bool {
		if cells[a].Row != cells[b].Row {
			return cells[a].Row < cells[b].Row
		}
		return cells[a].Col < cells[b].Col
	})
	return cells
}

// baseCell finds the cell whose axis values equal the base values.
func baseCell(m Matrix, x, y float64) *Cell {
	i, ok := indexOf(m.Var1.Values, x)
	if !ok {
		return nil
	}
	j, ok := indexOf(m.Var2.Values, y)
	if !ok {
		return nil
	}
	c := m.cellAt(i, j)
	return &c
}

func indexOf(values []float64, x float64) (int, bool) {
	for i, v := range values {
		if math.Abs(v-x) <= constants.RatioTolerance {
			return i, true
		}
	}
	return 0, false
}
