// Package arbor flattens scene transformation hierarchies and batches text
// into glyph meshes, with an adapter for [Ebitengine].
//
// # Scenes
//
// A [Scene] is a fixed table of named fields over object handles. Each
// [Field] maps handles to values: a parent handle, a local translation, a
// mesh ID. Handles are 8, 16, 32 or 64 bits wide, fixed per scene.
//
//	scene, err := arbor.NewScene(arbor.SceneConfig{},
//		arbor.NewField(arbor.FieldParent, []uint8{0, 1}, []int8{-1, 0}),
//		arbor.NewField(arbor.FieldTranslation, []uint8{0, 1}, []mgl32.Vec2{{10, 0}, {1, 0}}),
//		arbor.NewMappingField(arbor.FieldMesh, []uint8{1}),
//	)
//
// # Flattening
//
// [FlattenHierarchy2D] and [FlattenHierarchy3D] compute the absolute
// transform of every entry of a field by walking the parent chain:
//
//	absolute, err := arbor.FlattenHierarchy2D(scene, arbor.FieldMesh, mgl32.Ident3())
//
// The Into variants write into a caller-owned slice and allocate only their
// working set. Cycles fail with [ErrHierarchyCycle]. Field values may be
// edited in place between passes, which is how [TweenGroup] animates them
// (via [gween]).
//
// # Text
//
// A [GlyphCache] stores rasterized glyphs of one or more fonts. Fill it with
// [OpenTypeFont.FillGlyphCache] or [BitmapFont.FillGlyphCache], then append
// text to a [Renderer]:
//
//	r, err := arbor.NewRenderer(cache, arbor.RendererConfig{})
//	r.SetAlignment(arbor.AlignMiddleCenter)
//	rect, err := r.Render(font.NewShaper(), 16, "Hello")
//
// The renderer grows its vertex and index buffers as needed and promotes
// the index type from 8 to 16 to 32 bits when the glyph count requires it.
// [RenderText] is the one-shot variant producing a [TextMesh].
//
// # Ebitengine
//
// [AtlasImage] uploads a cache layer and [DrawText] draws a renderer with a
// single DrawTriangles32 call. [GeoM] converts flattened transforms.
//
// The ecs subpackage builds scenes from a [Donburi] world.
//
// # Logging
//
// The package is silent by default. Install a logger with [SetLogger] to see
// buffer growth, index promotions and skipped glyphs at debug level.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package arbor
