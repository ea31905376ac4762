package pose

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Number of decimal digits poses are rounded to before they turn into matrices.
// Source descriptions are full of values like 1.5707963267 or 2.2e-17 written by exporters.
const DefaultPrecision = 6

// x, y, z, roll, pitch, yaw
type Pose [6]float64

var Zero Pose

func FromSlice(v []float64) Pose {
	var p Pose
	copy(p[:], v)
	return p
}

func (p Pose) XYZ() mgl64.Vec3 { return mgl64.Vec3{p[0], p[1], p[2]} }
func (p Pose) RPY() mgl64.Vec3 { return mgl64.Vec3{p[3], p[4], p[5]} }

func (p Pose) IsZero() bool { return p == Zero }

// Round rounds to the given number of decimals the same way a decimal
// round(x, n) does: the exact binary value is rounded, ties go to even.
func Round(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', digits, 64), 64)
	if err != nil {
		// FormatFloat output always parses back
		panic(err)
	}
	return r
}

func Rounded(p Pose, digits int) Pose {
	var r Pose
	for i, v := range p {
		r[i] = Round(v, digits)
	}
	return r
}

// Rotation matrix of euler angles applied in X, Y, Z order (Rz * Ry * Rx)
func EulerXYZToMat4(e mgl64.Vec3) mgl64.Mat4 {
	return mgl64.HomogRotate3DZ(e[2]).Mul4(mgl64.HomogRotate3DY(e[1])).Mul4(mgl64.HomogRotate3DX(e[0]))
}

// ToHomogeneous = translate(x,y,z) * rotateXYZ(roll,pitch,yaw)
func ToHomogeneous(p Pose) mgl64.Mat4 {
	return mgl64.Translate3D(p[0], p[1], p[2]).Mul4(EulerXYZToMat4(p.RPY()))
}

func Scale(s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Scale3D(s[0], s[1], s[2])
}

// EulerXYZ decomposes a rotation matrix into XYZ euler angles (radians).
// Columns are normalized first so a scaled matrix still yields its rotation.
// Out of the two valid solutions the one with the smaller sum of absolute
// angles is returned.
func EulerXYZ(m mgl64.Mat3) mgl64.Vec3 {
	var n mgl64.Mat3
	for c := 0; c < 3; c++ {
		col := m.Col(c)
		if l := col.Len(); l != 0 {
			col = col.Mul(1 / l)
		}
		n.SetCol(c, col)
	}

	cy := math.Hypot(n.At(0, 0), n.At(1, 0))

	var e1, e2 mgl64.Vec3
	if cy > 16*epsilon {
		e1[0] = math.Atan2(n.At(2, 1), n.At(2, 2))
		e1[1] = math.Atan2(-n.At(2, 0), cy)
		e1[2] = math.Atan2(n.At(1, 0), n.At(0, 0))

		e2[0] = math.Atan2(-n.At(2, 1), -n.At(2, 2))
		e2[1] = math.Atan2(-n.At(2, 0), -cy)
		e2[2] = math.Atan2(-n.At(1, 0), -n.At(0, 0))
	} else {
		// gimbal lock, yaw folded into roll
		e1[0] = math.Atan2(-n.At(1, 2), n.At(1, 1))
		e1[1] = math.Atan2(-n.At(2, 0), cy)
		e1[2] = 0
		e2 = e1
	}

	if absSum(e1) > absSum(e2) {
		return e2
	}
	return e1
}

const epsilon = 1.1920929e-07 // float32 machine epsilon

func absSum(v mgl64.Vec3) float64 {
	return math.Abs(v[0]) + math.Abs(v[1]) + math.Abs(v[2])
}

// Homo2Origin splits homogeneous matrix into translation and XYZ euler angles
func Homo2Origin(m mgl64.Mat4) (xyz mgl64.Vec3, euler mgl64.Vec3) {
	return m.Col(3).Vec3(), EulerXYZ(m.Mat3())
}

// Pose2Origin returns child transform expressed in parent frame:
// inverse(parent) * child, decomposed to translation and XYZ euler angles.
func Pose2Origin(parent, child mgl64.Mat4) (xyz mgl64.Vec3, euler mgl64.Vec3) {
	return Homo2Origin(parent.Inv().Mul4(child))
}

func Degrees(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{mgl64.RadToDeg(v[0]), mgl64.RadToDeg(v[1]), mgl64.RadToDeg(v[2])}
}

func Radians(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{mgl64.DegToRad(v[0]), mgl64.DegToRad(v[1]), mgl64.DegToRad(v[2])}
}

// RoundDegrees converts radians to whole degrees, ties to even
func RoundDegrees(euler mgl64.Vec3) mgl64.Vec3 {
	d := Degrees(euler)
	return mgl64.Vec3{math.RoundToEven(d[0]), math.RoundToEven(d[1]), math.RoundToEven(d[2])}
}

// FromMatrix is a convenience inverse of ToHomogeneous
func FromMatrix(m mgl64.Mat4) Pose {
	xyz, euler := Homo2Origin(m)
	return Pose{xyz[0], xyz[1], xyz[2], euler[0], euler[1], euler[2]}
}
