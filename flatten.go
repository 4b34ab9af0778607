package arbor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Scenes with a mapping bound up to this size, or up to twice their entry
// count, resolve handles by direct indexing. Other scenes go through a hash
// index.
const denseArenaLimit = 256

type visitState uint8

const (
	unvisited visitState = iota
	visiting
	resolved
)

// flatNode is one object in the flattening arena.
type flatNode[M any] struct {
	handle   uint64
	parent   int // arena slot, -1 for roots
	local    M
	absolute M
	state    visitState
}

// arena holds every object touched by a flattening pass in a flat slice.
// Absolute transforms are memoized per slot.
type arena[M any] struct {
	nodes    []flatNode[M]
	index    map[uint64]int // nil when handles index nodes directly
	identity M
}

func newArena[M any](bound uint64, entries int, identity M) *arena[M] {
	a := &arena[M]{identity: identity}
	if bound <= denseArenaLimit || bound <= 2*uint64(entries) {
		a.nodes = make([]flatNode[M], bound)
		for i := range a.nodes {
			a.nodes[i] = flatNode[M]{handle: uint64(i), parent: -1, local: identity}
		}
		return a
	}
	a.index = make(map[uint64]int, entries)
	return a
}

// slot returns the arena slot of handle h, creating a root node with an
// identity transform on first use.
func (a *arena[M]) slot(h uint64) int {
	if a.index == nil {
		return int(h)
	}
	if i, ok := a.index[h]; ok {
		return i
	}
	i := len(a.nodes)
	a.nodes = append(a.nodes, flatNode[M]{handle: h, parent: -1, local: a.identity})
	a.index[h] = i
	return i
}

// resolve computes the absolute transform of slot start and of every
// ancestor not resolved yet. The walk uses an explicit stack so chain depth
// is bounded only by memory. The stack is returned for reuse.
func (a *arena[M]) resolve(start int, mul func(M, M) M, stack []int) ([]int, int, error) {
	if a.nodes[start].state == resolved {
		return stack, 0, nil
	}
	depth := 0
	stack = append(stack[:0], start)
	for len(stack) > 0 {
		depth = max(depth, len(stack))
		i := stack[len(stack)-1]
		n := &a.nodes[i]
		if n.parent < 0 {
			n.absolute = n.local
			n.state = resolved
			stack = stack[:len(stack)-1]
			continue
		}
		p := &a.nodes[n.parent]
		switch p.state {
		case resolved:
			n.absolute = mul(p.absolute, n.local)
			n.state = resolved
			stack = stack[:len(stack)-1]
		case visiting:
			return stack, depth, fmt.Errorf("object %d: %w", p.handle, ErrHierarchyCycle)
		default:
			n.state = visiting
			stack = append(stack, n.parent)
		}
	}
	return stack, depth, nil
}

// hierarchyOps binds the flattener to one matrix dimension.
type hierarchyOps[M any] struct {
	op       string
	is       func(*Scene) bool
	identity M
	mul      func(M, M) M
	locals   func(*Scene, *arena[M]) error
}

var hierarchy2D = hierarchyOps[mgl32.Mat3]{
	op:       "FlattenHierarchy2D",
	is:       (*Scene).Is2D,
	identity: mgl32.Ident3(),
	mul:      mgl32.Mat3.Mul3,
	locals:   loadLocals2D,
}

var hierarchy3D = hierarchyOps[mgl32.Mat4]{
	op:       "FlattenHierarchy3D",
	is:       (*Scene).Is3D,
	identity: mgl32.Ident4(),
	mul:      mgl32.Mat4.Mul4,
	locals:   loadLocals3D,
}

// FlattenHierarchy2D returns the absolute transformation of every entry of
// the named field, in field order:
//
//	out[i] = global × local(root) × … × local(parent) × local(object)
//
// Objects without a parent entry are roots. Objects without a transformation
// are identity. Pass mgl32.Ident3() when no global transform is needed.
func FlattenHierarchy2D(s *Scene, name FieldName, global mgl32.Mat3) ([]mgl32.Mat3, error) {
	id, err := findTarget(s, hierarchy2D.op, name)
	if err != nil {
		return nil, err
	}
	return flatten(s, hierarchy2D, id, nil, false, global)
}

// FlattenHierarchy2DByID is FlattenHierarchy2D with the target given as a
// field ID.
func FlattenHierarchy2DByID(s *Scene, id int, global mgl32.Mat3) ([]mgl32.Mat3, error) {
	return flatten(s, hierarchy2D, id, nil, false, global)
}

// FlattenHierarchy2DInto is FlattenHierarchy2D writing into out, which must
// have exactly one element per entry of the target field. Nothing is written
// on failure.
func FlattenHierarchy2DInto(s *Scene, name FieldName, out []mgl32.Mat3, global mgl32.Mat3) error {
	id, err := findTarget(s, hierarchy2D.op, name)
	if err != nil {
		return err
	}
	_, err = flatten(s, hierarchy2D, id, out, true, global)
	return err
}

// FlattenHierarchy2DByIDInto is FlattenHierarchy2DInto with the target given
// as a field ID.
func FlattenHierarchy2DByIDInto(s *Scene, id int, out []mgl32.Mat3, global mgl32.Mat3) error {
	_, err := flatten(s, hierarchy2D, id, out, true, global)
	return err
}

// FlattenHierarchy3D is the 3D counterpart of FlattenHierarchy2D.
func FlattenHierarchy3D(s *Scene, name FieldName, global mgl32.Mat4) ([]mgl32.Mat4, error) {
	id, err := findTarget(s, hierarchy3D.op, name)
	if err != nil {
		return nil, err
	}
	return flatten(s, hierarchy3D, id, nil, false, global)
}

// FlattenHierarchy3DByID is the 3D counterpart of FlattenHierarchy2DByID.
func FlattenHierarchy3DByID(s *Scene, id int, global mgl32.Mat4) ([]mgl32.Mat4, error) {
	return flatten(s, hierarchy3D, id, nil, false, global)
}

// FlattenHierarchy3DInto is the 3D counterpart of FlattenHierarchy2DInto.
func FlattenHierarchy3DInto(s *Scene, name FieldName, out []mgl32.Mat4, global mgl32.Mat4) error {
	id, err := findTarget(s, hierarchy3D.op, name)
	if err != nil {
		return err
	}
	_, err = flatten(s, hierarchy3D, id, out, true, global)
	return err
}

// FlattenHierarchy3DByIDInto is the 3D counterpart of
// FlattenHierarchy2DByIDInto.
func FlattenHierarchy3DByIDInto(s *Scene, id int, out []mgl32.Mat4, global mgl32.Mat4) error {
	_, err := flatten(s, hierarchy3D, id, out, true, global)
	return err
}

func findTarget(s *Scene, op string, name FieldName) (int, error) {
	id, ok := s.FindField(name)
	if !ok {
		return -1, fmt.Errorf("arbor: %s: field %v not found: %w", op, name, ErrFieldNotFound)
	}
	return id, nil
}

func flatten[M any](s *Scene, ops hierarchyOps[M], id int, out []M, into bool, global M) ([]M, error) {
	if id < 0 || id >= s.FieldCount() {
		return nil, fmt.Errorf("arbor: %s: index %d out of range for %d fields: %w", ops.op, id, s.FieldCount(), ErrFieldNotFound)
	}
	if !ops.is(s) {
		return nil, fmt.Errorf("arbor: %s: the scene is not %s: %w", ops.op, ops.op[len(ops.op)-2:], ErrDimensionMismatch)
	}
	parentID, ok := s.FindField(FieldParent)
	if !ok {
		return nil, fmt.Errorf("arbor: %s: the scene has no hierarchy: %w", ops.op, ErrMissingHierarchy)
	}
	size := s.FieldSize(id)
	if into && len(out) != size {
		return nil, fmt.Errorf("arbor: %s: expected %d but got %d: %w", ops.op, size, len(out), ErrSizeMismatch)
	}

	parents, ok := signedValues(s.fields[parentID].values)
	if !ok {
		return nil, fmt.Errorf("arbor: %s: parent field holds %v values: %w", ops.op, s.FieldType(parentID), ErrFieldType)
	}
	bound := s.MappingBound()
	a := newArena(bound, s.FieldSize(parentID)+size, ops.identity)
	for i, h := range s.Mapping(parentID) {
		p := parents[i]
		parent := -1
		if p >= 0 && uint64(p) < bound {
			parent = a.slot(uint64(p))
		}
		j := a.slot(h)
		a.nodes[j].parent = parent
	}
	if err := ops.locals(s, a); err != nil {
		return nil, fmt.Errorf("arbor: %s: %w", ops.op, err)
	}

	mapping := s.Mapping(id)
	slots := make([]int, len(mapping))
	var stack []int
	var deepest int
	for i, h := range mapping {
		slots[i] = a.slot(h)
		var depth int
		var err error
		stack, depth, err = a.resolve(slots[i], ops.mul, stack)
		if err != nil {
			return nil, fmt.Errorf("arbor: %s: %w", ops.op, err)
		}
		deepest = max(deepest, depth)
	}
	debugCheckChainDepth(ops.op, deepest)

	if !into {
		out = make([]M, size)
	}
	for i, slot := range slots {
		out[i] = ops.mul(global, a.nodes[slot].absolute)
	}
	return out, nil
}

// trsParts holds the last translation, rotation and scaling entry of one
// object.
type trsParts[V, R any] struct {
	translation V
	rotation    R
	scaling     V
}

// loadTRS collects translation, rotation and scaling entries per object.
// one is the identity scaling and noRotation the identity rotation.
func loadTRS[V, R any](s *Scene, one V, noRotation R) (map[uint64]*trsParts[V, R], error) {
	parts := make(map[uint64]*trsParts[V, R])
	get := func(h uint64) *trsParts[V, R] {
		p, ok := parts[h]
		if !ok {
			p = &trsParts[V, R]{rotation: noRotation, scaling: one}
			parts[h] = p
		}
		return p
	}
	if id, ok := s.FindField(FieldTranslation); ok {
		values, err := FieldValues[V](s, id)
		if err != nil {
			return nil, err
		}
		for i, h := range s.Mapping(id) {
			get(h).translation = values[i]
		}
	}
	if id, ok := s.FindField(FieldRotation); ok {
		values, err := FieldValues[R](s, id)
		if err != nil {
			return nil, err
		}
		for i, h := range s.Mapping(id) {
			get(h).rotation = values[i]
		}
	}
	if id, ok := s.FindField(FieldScaling); ok {
		values, err := FieldValues[V](s, id)
		if err != nil {
			return nil, err
		}
		for i, h := range s.Mapping(id) {
			get(h).scaling = values[i]
		}
	}
	return parts, nil
}

// loadLocals2D fills local transforms from TRS fields, then lets entries of
// the Transformation field override them.
func loadLocals2D(s *Scene, a *arena[mgl32.Mat3]) error {
	parts, err := loadTRS[mgl32.Vec2, float32](s, mgl32.Vec2{1, 1}, 0)
	if err != nil {
		return err
	}
	for h, p := range parts {
		i := a.slot(h)
		a.nodes[i].local = Transform2D(p.translation, p.rotation, p.scaling)
	}
	return loadTransformations(s, a)
}

func loadLocals3D(s *Scene, a *arena[mgl32.Mat4]) error {
	parts, err := loadTRS[mgl32.Vec3, mgl32.Quat](s, mgl32.Vec3{1, 1, 1}, mgl32.QuatIdent())
	if err != nil {
		return err
	}
	for h, p := range parts {
		i := a.slot(h)
		a.nodes[i].local = Transform3D(p.translation, p.rotation, p.scaling)
	}
	return loadTransformations(s, a)
}

func loadTransformations[M any](s *Scene, a *arena[M]) error {
	id, ok := s.FindField(FieldTransformation)
	if !ok {
		return nil
	}
	values, err := FieldValues[M](s, id)
	if err != nil {
		return err
	}
	for i, h := range s.Mapping(id) {
		j := a.slot(h)
		a.nodes[j].local = values[i]
	}
	return nil
}
