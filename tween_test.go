package arbor

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

func tweenScene2D(t *testing.T) *Scene {
	t.Helper()
	s, err := NewScene(SceneConfig{},
		NewField(FieldParent, []uint8{0, 1}, []int8{-1, 0}),
		NewField(FieldTranslation, []uint8{0, 1}, []mgl32.Vec2{{0, 0}, {1, 0}}),
		NewField(FieldRotation, []uint8{1}, []float32{0}),
		NewField(FieldScaling, []uint8{0}, []mgl32.Vec2{{1, 1}}),
		NewMappingField(FieldMesh, []uint8{1}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTweenTranslation2DReachesTarget(t *testing.T) {
	s := tweenScene2D(t)
	g, err := TweenTranslation2D(s, 1, mgl32.Vec2{10, 20}, 1, ease.Linear)
	if err != nil {
		t.Fatal(err)
	}

	// Exact halves avoid float32 accumulation drift.
	g.Update(0.5)
	if g.Done {
		t.Fatal("Done after half the duration")
	}
	values, _ := FieldValues[mgl32.Vec2](s, 1)
	assertVec2(t, "halfway", values[1], mgl32.Vec2{5.5, 10})

	g.Update(0.5)
	if !g.Done {
		t.Fatal("expected Done after full duration")
	}
	assertVec2(t, "end", values[1], mgl32.Vec2{10, 20})

	got, err := FlattenHierarchy2D(s, FieldMesh, mgl32.Ident3())
	if err != nil {
		t.Fatal(err)
	}
	assertMat3(t, "flattened", got[0], mgl32.Translate2D(10, 20))
}

func TestTweenGroupDoneIsSticky(t *testing.T) {
	s := tweenScene2D(t)
	g, err := TweenScaling2D(s, 0, mgl32.Vec2{2, 3}, 0.5, ease.Linear)
	if err != nil {
		t.Fatal(err)
	}
	g.Update(1)
	values, _ := FieldValues[mgl32.Vec2](s, 3)
	assertVec2(t, "scaling", values[0], mgl32.Vec2{2, 3})

	values[0] = mgl32.Vec2{7, 7}
	g.Update(1)
	assertVec2(t, "after Done", values[0], mgl32.Vec2{7, 7})

	g.Reset()
	if g.Done {
		t.Error("Done after Reset")
	}
	assertVec2(t, "after Reset", values[0], mgl32.Vec2{1, 1})
}

func TestTweenRotation2D(t *testing.T) {
	s := tweenScene2D(t)
	g, err := TweenRotation2D(s, 1, mgl32.DegToRad(90), 2, ease.Linear)
	if err != nil {
		t.Fatal(err)
	}
	g.Update(1)
	g.Update(1)
	got, err := FlattenHierarchy2D(s, FieldMesh, mgl32.Ident3())
	if err != nil {
		t.Fatal(err)
	}
	assertMat3(t, "rotated", got[0], mgl32.Translate2D(1, 0).Mul3(mgl32.HomogRotate2D(mgl32.DegToRad(90))))
}

func TestTween3D(t *testing.T) {
	s, err := NewScene(SceneConfig{},
		NewField(FieldParent, []uint16{4}, []int16{-1}),
		NewField(FieldTranslation, []uint16{4}, []mgl32.Vec3{{1, 2, 3}}),
		NewField(FieldScaling, []uint16{4}, []mgl32.Vec3{{1, 1, 1}}),
	)
	if err != nil {
		t.Fatal(err)
	}
	move, err := TweenTranslation3D(s, 4, mgl32.Vec3{0, 0, -3}, 1, ease.Linear)
	if err != nil {
		t.Fatal(err)
	}
	grow, err := TweenScaling3D(s, 4, mgl32.Vec3{2, 2, 2}, 1, ease.Linear)
	if err != nil {
		t.Fatal(err)
	}
	move.Update(1)
	grow.Update(1)

	got, err := FlattenHierarchy3D(s, FieldParent, mgl32.Ident4())
	if err != nil {
		t.Fatal(err)
	}
	assertMat4(t, "tweened", got[0], mgl32.Translate3D(0, 0, -3).Mul4(mgl32.Scale3D(2, 2, 2)))
}

func TestTweenErrors(t *testing.T) {
	s := tweenScene2D(t)
	tests := []struct {
		name string
		make func() (*TweenGroup, error)
		want error
	}{
		{"unknown object", func() (*TweenGroup, error) {
			return TweenTranslation2D(s, 9, mgl32.Vec2{}, 1, ease.Linear)
		}, ErrFieldNotFound},
		{"object without field", func() (*TweenGroup, error) {
			return TweenRotation2D(s, 0, 1, 1, ease.Linear)
		}, ErrFieldNotFound},
		{"wrong dimensions", func() (*TweenGroup, error) {
			return TweenTranslation3D(s, 1, mgl32.Vec3{}, 1, ease.Linear)
		}, ErrFieldType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := tt.make()
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if g != nil {
				t.Error("got a tween group on error")
			}
		})
	}

	empty, err := NewScene(SceneConfig{}, NewField(FieldParent, []uint8{0}, []int8{-1}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := TweenScaling2D(empty, 0, mgl32.Vec2{}, 1, ease.Linear); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("missing field: err = %v", err)
	}
}
