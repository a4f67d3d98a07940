package queue

import "fmt"

// Point2D is a pixel coordinate of a detected feature.
type Point2D struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Set overwrites both coordinates.
func (p *Point2D) Set(x, y int) {
	p.X = x
	p.Y = y
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Corners is a recyclable queue of corner locations.
type Corners struct {
	*Queue[Point2D]
}

// NewCorners creates a corner queue with maxInitial pre-allocated points.
// A negative maxInitial is treated as zero.
func NewCorners(maxInitial int) *Corners {
	q, err := New[Point2D](max(maxInitial, 0), nil)
	if err != nil {
		// unreachable: capacity is clamped above
		panic(err)
	}
	return &Corners{Queue: q}
}

// Add appends the corner (x, y), recycling the next slot's Point2D.
func (c *Corners) Add(x, y int) {
	c.Grow().Set(x, y)
}

// AddPoint appends a copy of p.
func (c *Corners) AddPoint(p Point2D) {
	c.Grow().Set(p.X, p.Y)
}
