package orientation

import "math"

// quat is a rotation quaternion (w + xi + yj + zk).
type quat struct {
	w, x, y, z float64
}

// fromEulerZYZ builds a unit quaternion from ZYZ Euler angles in radians:
// a rotation of alpha about z, then beta about y, then gamma about z.
func fromEulerZYZ(alpha, beta, gamma float64) quat {
	cb, sb := math.Cos(beta/2), math.Sin(beta/2)
	return quat{
		w: cb * math.Cos((alpha+gamma)/2),
		x: -sb * math.Sin((alpha-gamma)/2),
		y: sb * math.Cos((alpha-gamma)/2),
		z: cb * math.Sin((alpha+gamma)/2),
	}
}

// rotationVector converts q to its axis-angle rotation vector: a vector
// along the rotation axis whose norm is the rotation angle in radians.
func (q quat) rotationVector() (x, y, z float64) {
	vnorm := math.Sqrt(q.x*q.x + q.y*q.y + q.z*q.z)
	if vnorm == 0 {
		return 0, 0, 0
	}
	angle := 2 * math.Atan2(vnorm, q.w)
	return q.x / vnorm * angle, q.y / vnorm * angle, q.z / vnorm * angle
}
