// Package ecs builds arbor scenes from a [Donburi] world.
//
// Entities carry [Parent], [Transform2D] or [Transform3D], and [Meshes]
// components. [SceneFromWorld] turns them into a scene whose mesh field can
// be flattened directly:
//
//	scene, err := ecs.SceneFromWorld(world, ecs.SceneOptions{})
//	if err != nil {
//		return err
//	}
//	absolute, err := arbor.FlattenHierarchy2D(scene, arbor.FieldMesh, mgl32.Ident3())
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
