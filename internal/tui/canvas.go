package tui

import "strings"

// canvas is a rune grid the sim view draws bodies onto, row 0 at the top.
type canvas struct {
	width, height int
	cells         []rune
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height, cells: make([]rune, width*height)}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for i := range c.cells {
		c.cells[i] = ' '
	}
}

func (c *canvas) set(x, y int, r rune) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y*c.width+x] = r
}

// line draws with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int, r rune) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, r)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.height; y++ {
		b.WriteString(string(c.cells[y*c.width : (y+1)*c.width]))
		if y < c.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders the tail of a series as a row of block runes.
func sparkline(samples []float64, width int) string {
	if len(samples) == 0 || width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	min, max := samples[0], samples[0]
	for _, v := range samples {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	var b strings.Builder
	for _, v := range samples {
		idx := 0
		if span > 0 {
			idx = int((v - min) / span * float64(len(sparkRunes)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkRunes) {
			idx = len(sparkRunes) - 1
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
