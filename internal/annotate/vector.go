// internal/annotate/vector.go
package annotate

import "math"

// Vector2D represents a point or direction on the image plane.
type Vector2D struct {
	X, Y float64
}

// Add returns the vector sum of v and other.
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns the vector difference of v and other.
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul returns the vector v scaled by the scalar factor.
func (v Vector2D) Mul(scalar float64) Vector2D {
	return Vector2D{X: v.X * scalar, Y: v.Y * scalar}
}

// Mag calculates the magnitude (length) of the vector.
func (v Vector2D) Mag() float64 {
	// Use math.Hypot for numerical stability.
	return math.Hypot(v.X, v.Y)
}

// Dist calculates the Euclidean distance between v and other (treated as points).
func (v Vector2D) Dist(other Vector2D) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Angle returns the angle of the vector in radians, measured from the
// positive x axis with screen-space y (down is positive).
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Normalize returns the unit vector in v's direction. The zero vector has
// no direction and is returned unchanged.
func (v Vector2D) Normalize() Vector2D {
	mag := v.Mag()
	if mag == 0 {
		return Vector2D{}
	}
	return Vector2D{X: v.X / mag, Y: v.Y / mag}
}

// IsFinite reports whether both components are finite numbers. Non-finite
// vectors come from degenerate action arguments and must fault the draw
// call instead of corrupting the image.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
