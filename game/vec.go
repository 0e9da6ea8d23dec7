package game

import "math"

// Vec is a 2D vector in world units.
type Vec struct {
	X, Y float64
}

// Polar builds a vector from an angle in radians and a magnitude.
func Polar(angle, mag float64) Vec {
	return Vec{X: math.Cos(angle) * mag, Y: math.Sin(angle) * mag}
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(s float64) Vec { return Vec{v.X * s, v.Y * s} }

func (v Vec) Mag() float64 { return math.Hypot(v.X, v.Y) }

// Dir is the angle of v in radians.
func (v Vec) Dir() float64 { return math.Atan2(v.Y, v.X) }

// Unit returns v scaled to length 1, or the zero vector.
func (v Vec) Unit() Vec {
	m := v.Mag()
	if m == 0 {
		return Vec{}
	}
	return Vec{v.X / m, v.Y / m}
}

func (v Vec) Dist(o Vec) float64 { return v.Sub(o).Mag() }
