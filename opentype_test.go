package arbor

import (
	"errors"
	"image"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func loadGoRegular(t *testing.T, size float32) *OpenTypeFont {
	t.Helper()
	f, err := LoadOpenTypeFont(goregular.TTF, size)
	if err != nil {
		t.Fatalf("LoadOpenTypeFont: %v", err)
	}
	return f
}

func TestLoadOpenTypeFont(t *testing.T) {
	f := loadGoRegular(t, 32)
	assertNear(t, "Size", f.Size(), 32)
	if f.Ascent() <= 0 || f.Descent() >= 0 {
		t.Errorf("ascent %v, descent %v", f.Ascent(), f.Descent())
	}
	if f.LineHeight() < f.Ascent()-f.Descent()-1 {
		t.Errorf("line height %v smaller than ascent %v - descent %v", f.LineHeight(), f.Ascent(), f.Descent())
	}
	if f.GlyphCount() < 100 {
		t.Errorf("GlyphCount = %d", f.GlyphCount())
	}
	if _, ok := f.GlyphID('A'); !ok {
		t.Error("no glyph for 'A'")
	}
}

func TestLoadOpenTypeFontErrors(t *testing.T) {
	if _, err := LoadOpenTypeFont([]byte("not a font"), 16); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadOpenTypeFont(goregular.TTF, 0); err == nil {
		t.Error("expected size error")
	}
}

func TestOpenTypeShaper(t *testing.T) {
	f := loadGoRegular(t, 32)
	s := f.NewShaper()

	ids, advances, clusters := shapeAll(s, "Hello")
	if len(ids) != 5 {
		t.Fatalf("got %d glyphs, want 5", len(ids))
	}
	for i, r := range "Hello" {
		want, _ := f.GlyphID(r)
		if ids[i] != want {
			t.Errorf("glyph %d = %d, want %d", i, ids[i], want)
		}
		if clusters[i] != uint32(i) {
			t.Errorf("cluster %d = %d", i, clusters[i])
		}
		if advances[i][0] <= 0 || advances[i][1] != 0 {
			t.Errorf("advance %d = %v", i, advances[i])
		}
	}
	// Same glyph, same advance.
	assertVec2(t, "l advance", advances[2], advances[3])
}

func TestOpenTypeShaperClustersAreByteOffsets(t *testing.T) {
	s := loadGoRegular(t, 16).NewShaper()
	text := "xaéb"
	n := s.Shape(text, 1, len(text), nil)
	if n != 3 {
		t.Fatalf("got %d glyphs, want 3", n)
	}
	clusters := make([]uint32, n)
	s.GlyphClustersInto(clusters)
	want := []uint32{1, 2, 4}
	for i := range want {
		if clusters[i] != want[i] {
			t.Errorf("clusters = %v, want %v", clusters, want)
			break
		}
	}

	if n := s.Shape(text, 2, 2, nil); n != 0 {
		t.Errorf("empty range shaped to %d glyphs", n)
	}
}

func TestOpenTypeShaperIgnoresBadFeatures(t *testing.T) {
	s := loadGoRegular(t, 16).NewShaper()
	features := []FeatureRange{
		{Feature: "kern", Value: 0},
		{Feature: "bad"},
		{Feature: "liga", Value: 1, Begin: 10, End: 20},
	}
	if n := s.Shape("AV", 0, 2, features); n != 2 {
		t.Errorf("got %d glyphs, want 2", n)
	}
}

func TestOpenTypeFontFillGlyphCache(t *testing.T) {
	f := loadGoRegular(t, 32)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 256, Height: 256, Padding: 1})

	fontID, err := f.FillGlyphCache(cache, "Hello\nworld")
	if err != nil {
		t.Fatal(err)
	}
	// H e l o w r d; spaces and newlines have no pixels.
	if cache.GlyphCount() != 7 {
		t.Errorf("cached %d glyphs, want 7", cache.GlyphCount())
	}

	id, _ := f.GlyphID('H')
	g, ok := cache.Glyph(fontID, id)
	if !ok {
		t.Fatal("'H' not cached")
	}
	if g.Offset.Y > 1 || g.Rect.Dy() < 16 {
		t.Errorf("'H' offset %v, rect %v", g.Offset, g.Rect)
	}
	img := cache.Image(g.Layer)
	var covered int
	r := cache.ImageRect(g.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.AlphaAt(x, y).A > 0 {
				covered++
			}
		}
	}
	if covered == 0 {
		t.Error("'H' has no coverage in the cache image")
	}

	// Refill is a no-op.
	if _, err := f.FillGlyphCache(cache, "Hello"); err != nil {
		t.Fatal(err)
	}
	if cache.GlyphCount() != 7 || cache.FontCount() != 1 {
		t.Errorf("refill: %d glyphs, %d fonts", cache.GlyphCount(), cache.FontCount())
	}
}

func TestOpenTypeFontFillGlyphCacheFull(t *testing.T) {
	f := loadGoRegular(t, 64)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 64, Height: 64})
	if _, err := f.FillGlyphCache(cache, "ABCDEFGH"); !errors.Is(err, ErrCacheFull) {
		t.Errorf("err = %v, want %v", err, ErrCacheFull)
	}
	if cache.GlyphCount() != 0 {
		t.Errorf("full cache got %d glyphs", cache.GlyphCount())
	}
}

func TestOpenTypeFontFillGlyphCacheInvalidID(t *testing.T) {
	f := loadGoRegular(t, 32)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 256, Height: 256})
	h, _ := f.GlyphID('H')
	ids := []uint32{h, uint32(f.GlyphCount())}
	if _, err := f.FillGlyphCacheIDs(cache, ids); !errors.Is(err, ErrInvalidGlyph) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidGlyph)
	}
	if cache.GlyphCount() != 0 {
		t.Errorf("failed fill cached %d glyphs", cache.GlyphCount())
	}
	// No packing space was consumed.
	placements, err := cache.Reserve([]image.Point{{4, 4}})
	if err != nil {
		t.Fatal(err)
	}
	if got := placements[0].Rect.Min; got != image.Pt(0, 0) {
		t.Errorf("next placement at %v, want origin", got)
	}
}

func TestOpenTypeFontRender(t *testing.T) {
	f := loadGoRegular(t, 32)
	cache := NewGlyphCache(GlyphCacheConfig{Width: 256, Height: 256})
	if _, err := f.FillGlyphCache(cache, "Hi there"); err != nil {
		t.Fatal(err)
	}
	r := newTestRenderer(t, cache, RendererConfig{Flags: RendererGlyphPositionsClusters})
	r.SetAlignment(AlignMiddleCenter)

	rect, err := r.Render(f.NewShaper(), 16, "Hi there")
	if err != nil {
		t.Fatal(err)
	}
	// The space is shaped but has no quad.
	if r.GlyphCount() != 7 {
		t.Errorf("GlyphCount = %d, want 7", r.GlyphCount())
	}
	if w := rect.Size()[0]; w <= 0 || w > 16*8 {
		t.Errorf("width = %v", w)
	}
	assertNear(t, "center x", rect.Center()[0], 0)
	assertNear(t, "center y", rect.Center()[1], 0)
	if c := r.GlyphClusters(); c[2] != 3 {
		t.Errorf("clusters = %v, want third glyph at byte 3", c)
	}
	for _, v := range r.VertexTextureCoordinates() {
		if v[0] < 0 || v[0] > 1 || v[1] < 0 || v[1] > 1 {
			t.Fatalf("texture coordinate %v outside the cache", v)
		}
	}
}
