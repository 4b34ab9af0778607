package arbor

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

func TestGeoM(t *testing.T) {
	tests := []struct {
		name string
		m    mgl32.Mat3
	}{
		{"identity", mgl32.Ident3()},
		{"translate", mgl32.Translate2D(3, -4)},
		{"rotate", mgl32.HomogRotate2D(mgl32.DegToRad(30))},
		{"composed", mgl32.Translate2D(5, 6).Mul3(mgl32.HomogRotate2D(1)).Mul3(mgl32.Scale2D(2, 0.5))},
	}
	points := []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {-2.5, 7}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GeoM(tt.m)
			for _, p := range points {
				want := tt.m.Mul3x1(p.Vec3(1)).Vec2()
				x, y := g.Apply(float64(p[0]), float64(p[1]))
				assertVec2(t, "applied", mgl32.Vec2{float32(x), float32(y)}, want)
			}
		})
	}
}

func TestAppendTextVertices(t *testing.T) {
	r, shaper := uniformFixture(t, RendererConfig{})
	if _, err := r.Render(shaper, 1, "a"); err != nil {
		t.Fatal(err)
	}

	opts := &TextDrawOptions{}
	opts.GeoM.Translate(10, 20)
	opts.ColorScale.Scale(0.5, 0.5, 0.5, 0.5)

	prefix := []ebiten.Vertex{{}}
	verts := AppendTextVertices(prefix, r, 4, 4, opts)
	if len(verts) != 5 {
		t.Fatalf("got %d vertices, want 5", len(verts))
	}
	// Quad (0,0)-(1,1) flipped to Y down; the cache rect sits in the
	// bottom-left texel of a 4x4 atlas.
	want := []struct{ dst, src mgl32.Vec2 }{
		{mgl32.Vec2{10, 20}, mgl32.Vec2{0, 4}},
		{mgl32.Vec2{11, 20}, mgl32.Vec2{1, 4}},
		{mgl32.Vec2{10, 19}, mgl32.Vec2{0, 3}},
		{mgl32.Vec2{11, 19}, mgl32.Vec2{1, 3}},
	}
	for i, w := range want {
		v := verts[1+i]
		assertVec2(t, "dst", mgl32.Vec2{v.DstX, v.DstY}, w.dst)
		assertVec2(t, "src", mgl32.Vec2{v.SrcX, v.SrcY}, w.src)
		assertNear(t, "alpha", v.ColorA, 0.5)
		assertNear(t, "red", v.ColorR, 0.5)
	}
}

func TestAppendTextVerticesDefaults(t *testing.T) {
	r, shaper := uniformFixture(t, RendererConfig{})
	if _, err := r.Render(shaper, 1, "aa"); err != nil {
		t.Fatal(err)
	}
	verts := AppendTextVertices(nil, r, 4, 4, nil)
	if len(verts) != 8 {
		t.Fatalf("got %d vertices, want 8", len(verts))
	}
	for _, v := range verts {
		if v.ColorR != 1 || v.ColorG != 1 || v.ColorB != 1 || v.ColorA != 1 {
			t.Fatalf("default color = %v %v %v %v", v.ColorR, v.ColorG, v.ColorB, v.ColorA)
		}
	}
	assertVec2(t, "second glyph", mgl32.Vec2{verts[4].DstX, verts[4].DstY}, mgl32.Vec2{1, 0})
}

func TestAppendTextVerticesArray(t *testing.T) {
	font := &testFont{size: 1, ascent: 1, descent: -1, lineHeight: 2, glyphs: 2}
	cache := newTestCache(t, GlyphCacheConfig{Width: 2, Height: 2, Layers: 2}, font,
		testGlyph{id: 1, layer: 1, rect: image.Rect(1, 1, 2, 2)})
	r := newTestRenderer(t, cache, RendererConfig{ArrayTextures: true})
	shaper := &testShaper{
		font:    font,
		id:      func(int) uint32 { return 1 },
		advance: func(int) mgl32.Vec2 { return mgl32.Vec2{1, 0} },
	}
	if _, err := r.Render(shaper, 1, "a"); err != nil {
		t.Fatal(err)
	}
	verts := AppendTextVertices(nil, r, 2, 2, nil)
	if len(verts) != 4 {
		t.Fatalf("got %d vertices, want 4", len(verts))
	}
	assertVec2(t, "first src", mgl32.Vec2{verts[0].SrcX, verts[0].SrcY}, mgl32.Vec2{1, 1})
	assertVec2(t, "last src", mgl32.Vec2{verts[3].SrcX, verts[3].SrcY}, mgl32.Vec2{2, 0})
}

func TestAtlasImage(t *testing.T) {
	f := loadTestFont(t)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 128, Height: 96})
	if _, err := f.FillGlyphCache(cache, []image.Image{testPage()}); err != nil {
		t.Fatal(err)
	}
	img := AtlasImage(cache, 0)
	if got := img.Bounds(); got != image.Rect(0, 0, 128, 96) {
		t.Errorf("atlas bounds = %v", got)
	}
}

func TestDrawText(t *testing.T) {
	f := loadTestFont(t)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 128, Height: 128})
	if _, err := f.FillGlyphCache(cache, []image.Image{testPage()}); err != nil {
		t.Fatal(err)
	}
	r := newTestRenderer(t, cache, RendererConfig{})
	atlas := AtlasImage(cache, 0)
	screen := ebiten.NewImage(320, 240)

	// Empty renderer is a no-op.
	DrawText(screen, r, atlas, nil)

	if _, err := r.Render(f.NewShaper(), 32, "ABC"); err != nil {
		t.Fatal(err)
	}
	opts := &TextDrawOptions{}
	opts.GeoM.Translate(16, 64)
	DrawText(screen, r, atlas, opts)
}
