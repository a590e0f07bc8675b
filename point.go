package mockup

// Point is a position in world or output space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// WorldToOutput maps an offset from the world centre, as carried by
// Layer.MoveX and Layer.MoveY, to output pixel coordinates.
func WorldToOutput(p Point) Point {
	return Point{
		X: OutputSize/2 + p.X*ScaleFactor,
		Y: OutputSize/2 + p.Y*ScaleFactor,
	}
}

// OutputToWorld is the inverse of WorldToOutput.
func OutputToWorld(p Point) Point {
	return Point{
		X: (p.X - OutputSize/2) / ScaleFactor,
		Y: (p.Y - OutputSize/2) / ScaleFactor,
	}
}

// Center returns the output pixel position of the layer's image centre.
func (l *Layer) Center() Point {
	return WorldToOutput(Pt(l.MoveX, l.MoveY))
}
