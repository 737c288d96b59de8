package control

import "math"

// Point is a planar coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pose is the vehicle's global position, heading and speed.
type Pose struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Psi float64 `json:"psi"`
	V   float64 `json:"v"`
}

// ToVehicleFrame re-expresses global waypoints in the vehicle's own frame.
// The rotation uses the heading offset by -90 degrees so that the vehicle's
// forward direction lands on the local +x axis, which is the axis the
// reference polynomial is fitted along. The cte and epsi sign conventions
// downstream depend on this exact offset.
func ToVehicleFrame(pts []Point, pose Pose) []Point {
	cosT := math.Cos(pose.Psi - math.Pi/2)
	sinT := math.Sin(pose.Psi - math.Pi/2)

	out := make([]Point, len(pts))
	for i, p := range pts {
		dx := p.X - pose.X
		dy := p.Y - pose.Y
		out[i] = Point{
			X: -dx*sinT + dy*cosT,
			Y: -dx*cosT - dy*sinT,
		}
	}
	return out
}

// ToGlobalFrame maps a vehicle-frame point back to the global frame. The
// rotation is orthonormal, so the inverse is its transpose.
func ToGlobalFrame(p Point, pose Pose) Point {
	cosT := math.Cos(pose.Psi - math.Pi/2)
	sinT := math.Sin(pose.Psi - math.Pi/2)

	return Point{
		X: pose.X - p.X*sinT - p.Y*cosT,
		Y: pose.Y + p.X*cosT - p.Y*sinT,
	}
}
