package sample

import "math"

// Cube is a hexagonal grid cell in cube coordinates; I+J+K is always 0.
type Cube struct {
	I int
	J int
	K int
}

// Ring walk directions, in the order each ring is traversed.
var directions = [6]Cube{
	{-1, 1, 0},
	{-1, 0, 1},
	{0, -1, 1},
	{1, -1, 0},
	{1, 0, -1},
	{0, 1, -1},
}

func (c Cube) Add(o Cube) Cube {
	return Cube{I: c.I + o.I, J: c.J + o.J, K: c.K + o.K}
}

// XY converts the cell to cartesian coordinates for cells unit apart.
func (c Cube) XY(unit float64) (float64, float64) {
	x := unit * float64(c.I-c.J) / 2
	y := -unit * float64(c.K) * math.Sqrt(3) / 2
	return x, y
}

// Spiral returns the centre cell followed by rings 1..rings around it. Each
// ring is entered with one step outward from the last cell of the previous
// ring and then walked once around, so consecutive loci are always
// neighbours.
func Spiral(rings int) []Cube {
	if rings < 0 {
		return nil
	}
	cells := make([]Cube, 0, 1+3*rings*(rings+1))
	cur := Cube{}
	cells = append(cells, cur)

	for k := 1; k <= rings; k++ {
		cur = cur.Add(directions[4])
		cells = append(cells, cur)
		for step := 0; step < k-1; step++ {
			cur = cur.Add(directions[5])
			cells = append(cells, cur)
		}
		for d := 0; d < 5; d++ {
			for step := 0; step < k; step++ {
				cur = cur.Add(directions[d])
				cells = append(cells, cur)
			}
		}
	}
	return cells
}
