package arbor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 float32 components of a scene field value
// simultaneously. Create one via the constructors (TweenTranslation2D,
// TweenRotation2D, ...) and call Update(dt) each frame; values are written
// into the scene in place, so the next flatten picks them up.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	fields [3]*float32
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// scene.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := range g.count {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// Reset rewinds all tweens to their start values.
func (g *TweenGroup) Reset() {
	for i := range g.count {
		g.tweens[i].Reset()
		*g.fields[i], _ = g.tweens[i].Set(0)
	}
	g.Done = false
}

func newTweenGroup(fields []*float32, to []float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: len(fields)}
	for i, f := range fields {
		g.tweens[i] = gween.New(*f, to[i], duration, fn)
		g.fields[i] = f
	}
	return g
}

// fieldValue returns the value of field name for object, the last entry if
// the object appears more than once.
func fieldValue[T any](s *Scene, op string, name FieldName, object uint64) (*T, error) {
	id, ok := s.FindField(name)
	if !ok {
		return nil, fmt.Errorf("arbor: %s: field %v: %w", op, name, ErrFieldNotFound)
	}
	entry, ok := s.FindFieldObject(id, object)
	if !ok {
		return nil, fmt.Errorf("arbor: %s: object %d has no %v: %w", op, object, name, ErrFieldNotFound)
	}
	values, err := FieldValues[T](s, id)
	if err != nil {
		return nil, fmt.Errorf("arbor: %s: %w", op, err)
	}
	return &values[entry], nil
}

// TweenTranslation2D animates the 2D translation of object to the given
// value over duration seconds.
func TweenTranslation2D(s *Scene, object uint64, to mgl32.Vec2, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	v, err := fieldValue[mgl32.Vec2](s, "TweenTranslation2D", FieldTranslation, object)
	if err != nil {
		return nil, err
	}
	return newTweenGroup([]*float32{&v[0], &v[1]}, to[:], duration, fn), nil
}

// TweenRotation2D animates the 2D rotation of object, in radians.
func TweenRotation2D(s *Scene, object uint64, to float32, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	v, err := fieldValue[float32](s, "TweenRotation2D", FieldRotation, object)
	if err != nil {
		return nil, err
	}
	return newTweenGroup([]*float32{v}, []float32{to}, duration, fn), nil
}

// TweenScaling2D animates the 2D scaling of object.
func TweenScaling2D(s *Scene, object uint64, to mgl32.Vec2, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	v, err := fieldValue[mgl32.Vec2](s, "TweenScaling2D", FieldScaling, object)
	if err != nil {
		return nil, err
	}
	return newTweenGroup([]*float32{&v[0], &v[1]}, to[:], duration, fn), nil
}

// TweenTranslation3D animates the 3D translation of object.
func TweenTranslation3D(s *Scene, object uint64, to mgl32.Vec3, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	v, err := fieldValue[mgl32.Vec3](s, "TweenTranslation3D", FieldTranslation, object)
	if err != nil {
		return nil, err
	}
	return newTweenGroup([]*float32{&v[0], &v[1], &v[2]}, to[:], duration, fn), nil
}

// TweenScaling3D animates the 3D scaling of object.
func TweenScaling3D(s *Scene, object uint64, to mgl32.Vec3, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	v, err := fieldValue[mgl32.Vec3](s, "TweenScaling3D", FieldScaling, object)
	if err != nil {
		return nil, err
	}
	return newTweenGroup([]*float32{&v[0], &v[1], &v[2]}, to[:], duration, fn), nil
}
