package arbor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const epsilon = 1e-4

func assertNear(t *testing.T, name string, got, want float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func near(a, b []float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > epsilon {
			return false
		}
	}
	return true
}

func assertVec2(t *testing.T, name string, got, want mgl32.Vec2) {
	t.Helper()
	if !near(got[:], want[:]) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMat3(t *testing.T, name string, got, want mgl32.Mat3) {
	t.Helper()
	if !near(got[:], want[:]) {
		t.Errorf("%s =\n%v\nwant\n%v", name, got, want)
	}
}

func assertMat4(t *testing.T, name string, got, want mgl32.Mat4) {
	t.Helper()
	if !near(got[:], want[:]) {
		t.Errorf("%s =\n%v\nwant\n%v", name, got, want)
	}
}

func TestTransform2DIdentity(t *testing.T) {
	got := Transform2D(mgl32.Vec2{}, 0, mgl32.Vec2{1, 1})
	assertMat3(t, "identity", got, mgl32.Ident3())
}

func TestTransform2DParts(t *testing.T) {
	tests := []struct {
		name        string
		translation mgl32.Vec2
		rotation    float32
		scaling     mgl32.Vec2
		want        mgl32.Mat3
	}{
		{"translation", mgl32.Vec2{10, 20}, 0, mgl32.Vec2{1, 1}, mgl32.Translate2D(10, 20)},
		{"scale", mgl32.Vec2{}, 0, mgl32.Vec2{2, 3}, mgl32.Scale2D(2, 3)},
		{"rot90", mgl32.Vec2{}, math.Pi / 2, mgl32.Vec2{1, 1}, mgl32.Mat3{0, 1, 0, -1, 0, 0, 0, 0, 1}},
		{
			"combined",
			mgl32.Vec2{5, -1}, math.Pi / 2, mgl32.Vec2{2, 4},
			mgl32.Translate2D(5, -1).Mul3(mgl32.HomogRotate2D(math.Pi / 2)).Mul3(mgl32.Scale2D(2, 4)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMat3(t, tt.name, Transform2D(tt.translation, tt.rotation, tt.scaling), tt.want)
		})
	}
}

func TestTransform2DOrder(t *testing.T) {
	// Scale first, then rotate, then translate: the unit X vector scaled by 2,
	// turned to +Y, then moved by (10, 0).
	m := Transform2D(mgl32.Vec2{10, 0}, math.Pi/2, mgl32.Vec2{2, 2})
	assertVec2(t, "point", TransformPoint2D(m, mgl32.Vec2{1, 0}), mgl32.Vec2{10, 2})
}

func TestTransform3D(t *testing.T) {
	rot := mgl32.QuatRotate(mgl32.DegToRad(35), mgl32.Vec3{0, 0, 1})
	got := Transform3D(mgl32.Vec3{1, 2, 3}, rot, mgl32.Vec3{2, 2, 2})
	want := mgl32.Translate3D(1, 2, 3).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(35))).
		Mul4(mgl32.Scale3D(2, 2, 2))
	assertMat4(t, "trs", got, want)

	assertMat4(t, "identity", Transform3D(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}), mgl32.Ident4())
}

func TestAffineRoundTrip(t *testing.T) {
	m := mgl32.Translate2D(3, 4).Mul3(mgl32.Scale2D(2, 5))
	a := AffineFromMat3(m)
	want := [6]float64{2, 0, 0, 5, 3, 4}
	if a != want {
		t.Errorf("AffineFromMat3 = %v, want %v", a, want)
	}
	assertMat3(t, "round trip", Mat3FromAffine(a), m)
}

func TestInverseTransformPoint2D(t *testing.T) {
	m := Transform2D(mgl32.Vec2{1, 0.5}, 0.7, mgl32.Vec2{2, 3})
	p := mgl32.Vec2{4, -6}
	world := TransformPoint2D(m, p)
	assertVec2(t, "round trip", InverseTransformPoint2D(m, world), p)
}

func TestInverseTransformPoint2DSingular(t *testing.T) {
	m := mgl32.Scale2D(0, 0)
	p := mgl32.Vec2{7, 8}
	assertVec2(t, "singular", InverseTransformPoint2D(m, p), p)
}
