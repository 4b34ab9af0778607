package ecs

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/filter"
)

// ParentData links an entity to its parent. Entities without a Parent
// component, or whose parent is no longer valid, are roots.
type ParentData struct {
	Entity donburi.Entity
}

// Transform2DData is the local 2D transform of an entity.
type Transform2DData struct {
	Translation mgl32.Vec2
	Rotation    float32 // radians
	Scaling     mgl32.Vec2
}

// Transform3DData is the local 3D transform of an entity.
type Transform3DData struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scaling     mgl32.Vec3
}

// MeshesData lists the meshes drawn at an entity's transform.
type MeshesData struct {
	IDs []uint32
}

var (
	Parent      = donburi.NewComponentType[ParentData]()
	Transform2D = donburi.NewComponentType[Transform2DData](Transform2DData{Scaling: mgl32.Vec2{1, 1}})
	Transform3D = donburi.NewComponentType[Transform3DData](Transform3DData{Rotation: mgl32.QuatIdent(), Scaling: mgl32.Vec3{1, 1, 1}})
	Meshes      = donburi.NewComponentType[MeshesData]()
)

// SceneOptions holds optional parameters for SceneFromWorld.
type SceneOptions struct {
	// Dimensions is 2 or 3. Zero picks 3 if any entity has a Transform3D
	// and 2 otherwise.
	Dimensions int
}

var sceneQuery = donburi.NewQuery(filter.Or(
	filter.Contains(Parent),
	filter.Contains(Transform2D),
	filter.Contains(Transform3D),
	filter.Contains(Meshes),
))

// SceneFromWorld builds a 64-bit mapped scene from every entity with a
// Parent, transform or Meshes component. Entity IDs are the object handles
// and entries are ordered by ID. The mesh field has one entry per mesh ID.
// Entities with the transform component of the other dimension fail with
// arbor.ErrDimensionMismatch.
func SceneFromWorld(world donburi.World, opts SceneOptions) (*arbor.Scene, error) {
	var entries []*donburi.Entry
	has3D := false
	sceneQuery.Each(world, func(e *donburi.Entry) {
		entries = append(entries, e)
		if e.HasComponent(Transform3D) {
			has3D = true
		}
	})
	slices.SortFunc(entries, func(a, b *donburi.Entry) int {
		return cmp.Compare(a.Entity().Id(), b.Entity().Id())
	})

	dims := opts.Dimensions
	if dims == 0 {
		dims = 2
		if has3D {
			dims = 3
		}
	}
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("arbor/ecs: SceneFromWorld: dimensions must be 2 or 3, got %d: %w", dims, arbor.ErrInvalidScene)
	}

	var (
		handles  = make([]uint64, 0, len(entries))
		parents  = make([]int64, 0, len(entries))
		trsIDs   []uint64
		meshIDs  []uint64
		meshes   []uint32
		tr2, sc2 []mgl32.Vec2
		rot2     []float32
		tr3, sc3 []mgl32.Vec3
		rot3     []mgl32.Quat
	)
	for _, e := range entries {
		h := uint64(e.Entity().Id())
		handles = append(handles, h)
		parent := int64(-1)
		if e.HasComponent(Parent) {
			if p := Parent.Get(e).Entity; world.Valid(p) {
				parent = int64(p.Id())
			}
		}
		parents = append(parents, parent)

		switch {
		case e.HasComponent(Transform2D) && dims == 2:
			t := Transform2D.Get(e)
			trsIDs = append(trsIDs, h)
			tr2 = append(tr2, t.Translation)
			rot2 = append(rot2, t.Rotation)
			sc2 = append(sc2, t.Scaling)
		case e.HasComponent(Transform3D) && dims == 3:
			t := Transform3D.Get(e)
			trsIDs = append(trsIDs, h)
			tr3 = append(tr3, t.Translation)
			rot3 = append(rot3, t.Rotation)
			sc3 = append(sc3, t.Scaling)
		case e.HasComponent(Transform2D) || e.HasComponent(Transform3D):
			return nil, fmt.Errorf("arbor/ecs: SceneFromWorld: entity %d has a transform of the wrong dimension for a %dD scene: %w",
				h, dims, arbor.ErrDimensionMismatch)
		}

		if e.HasComponent(Meshes) {
			for _, id := range Meshes.Get(e).IDs {
				meshIDs = append(meshIDs, h)
				meshes = append(meshes, id)
			}
		}
	}

	fields := []arbor.Field{
		arbor.NewField(arbor.FieldParent, handles, parents),
	}
	if dims == 2 {
		fields = append(fields,
			arbor.NewField(arbor.FieldTranslation, trsIDs, tr2),
			arbor.NewField(arbor.FieldRotation, trsIDs, rot2),
			arbor.NewField(arbor.FieldScaling, trsIDs, sc2))
	} else {
		fields = append(fields,
			arbor.NewField(arbor.FieldTranslation, trsIDs, tr3),
			arbor.NewField(arbor.FieldRotation, trsIDs, rot3),
			arbor.NewField(arbor.FieldScaling, trsIDs, sc3))
	}
	fields = append(fields, arbor.NewField(arbor.FieldMesh, meshIDs, meshes))

	scene, err := arbor.NewScene(arbor.SceneConfig{MappingType: arbor.MappingUint64, Dimensions: dims}, fields...)
	if err != nil {
		return nil, fmt.Errorf("arbor/ecs: SceneFromWorld: %w", err)
	}
	arbor.Logger().Debug("scene built from world",
		slog.Int("entities", len(handles)),
		slog.Int("meshes", len(meshes)),
		slog.Int("dimensions", dims))
	return scene, nil
}
