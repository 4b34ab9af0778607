package arbor

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// OpenTypeFont is a TrueType or OpenType font opened at a fixed pixel size.
// Glyphs are rasterized with golang.org/x/image and shaped with the go-text
// HarfBuzz port; both read the same font data, so glyph IDs agree.
type OpenTypeFont struct {
	sfnt *opentype.Font
	face *gotext.Face
	size float32
	ppem fixed.Int26_6

	ascent, descent, lineHeight float32

	buf sfnt.Buffer
}

// LoadOpenTypeFont parses TTF or OTF data and opens it at size pixels per
// em.
func LoadOpenTypeFont(data []byte, size float32) (*OpenTypeFont, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arbor: LoadOpenTypeFont: invalid size %v", size)
	}
	sf, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("arbor: LoadOpenTypeFont: %w", err)
	}
	face, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("arbor: LoadOpenTypeFont: %w", err)
	}

	f := &OpenTypeFont{
		sfnt: sf,
		face: face,
		size: size,
		ppem: fixed.Int26_6(size*64 + 0.5),
	}
	m, err := sf.Metrics(&f.buf, f.ppem, 0)
	if err != nil {
		return nil, fmt.Errorf("arbor: LoadOpenTypeFont: %w", err)
	}
	f.ascent = fixedToFloat(m.Ascent)
	f.descent = -fixedToFloat(m.Descent)
	f.lineHeight = fixedToFloat(m.Height)
	return f, nil
}

// Size returns the pixel size the font was opened at.
func (f *OpenTypeFont) Size() float32 { return f.size }

// Ascent returns the distance from the baseline to the top of the line.
func (f *OpenTypeFont) Ascent() float32 { return f.ascent }

// Descent returns the distance from the baseline to the bottom of the line,
// usually negative.
func (f *OpenTypeFont) Descent() float32 { return f.descent }

// LineHeight returns the vertical distance between baselines.
func (f *OpenTypeFont) LineHeight() float32 { return f.lineHeight }

// GlyphCount returns the number of glyphs in the font.
func (f *OpenTypeFont) GlyphCount() int { return f.sfnt.NumGlyphs() }

// GlyphID returns the glyph mapped to r by the font's character map.
func (f *OpenTypeFont) GlyphID(r rune) (uint32, bool) {
	x, err := f.sfnt.GlyphIndex(&f.buf, r)
	if err != nil || x == 0 {
		return 0, false
	}
	return uint32(x), true
}

// rasterized is the coverage mask of one glyph.
type rasterized struct {
	id     uint32
	offset image.Point // Y up, relative to the pen
	mask   *image.Alpha
}

// rasterize renders glyph x into a tight coverage mask. Glyphs without
// outline, like spaces, return a nil mask.
func (f *OpenTypeFont) rasterize(rast *vector.Rasterizer, x uint32) (rasterized, error) {
	segments, err := f.sfnt.LoadGlyph(&f.buf, sfnt.GlyphIndex(x), f.ppem, nil)
	if err != nil {
		return rasterized{}, err
	}
	b := segments.Bounds()
	dr := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	if dr.Empty() {
		return rasterized{id: x}, nil
	}

	biasX := -fixed.Int26_6(dr.Min.X << 6)
	biasY := -fixed.Int26_6(dr.Min.Y << 6)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return float32(p.X+biasX) / 64, float32(p.Y+biasY) / 64
	}
	rast.Reset(dr.Dx(), dr.Dy())
	rast.DrawOp = draw.Src
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			rast.MoveTo(pt(seg.Args[0]))
		case sfnt.SegmentOpLineTo:
			rast.LineTo(pt(seg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			ax, ay := pt(seg.Args[0])
			bx, by := pt(seg.Args[1])
			rast.QuadTo(ax, ay, bx, by)
		case sfnt.SegmentOpCubeTo:
			ax, ay := pt(seg.Args[0])
			bx, by := pt(seg.Args[1])
			cx, cy := pt(seg.Args[2])
			rast.CubeTo(ax, ay, bx, by, cx, cy)
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	// Outlines have Y down; the cache offset is the bottom-left corner, Y up.
	return rasterized{id: x, offset: image.Pt(dr.Min.X, -dr.Max.Y), mask: mask}, nil
}

// FillGlyphCache rasterizes every glyph text shapes to and stores it in
// cache, registering the font first if needed. It returns the font's ID in
// the cache. Glyphs already cached are left alone. Either all new glyphs
// fit or, with ErrCacheFull, none are added.
func (f *OpenTypeFont) FillGlyphCache(cache *GlyphCache, text string) (int, error) {
	s := f.NewShaper()
	var ids []uint32
	for begin := 0; begin < len(text); {
		end := begin
		for end < len(text) && text[end] != '\n' {
			end++
		}
		if n := s.Shape(text, begin, end, nil); n > 0 {
			start := len(ids)
			ids = append(ids, make([]uint32, n)...)
			s.GlyphIDsInto(ids[start:])
		}
		begin = end + 1
	}
	return f.FillGlyphCacheIDs(cache, ids)
}

// FillGlyphCacheIDs is FillGlyphCache for explicit glyph IDs. An ID outside
// the font fails with ErrInvalidGlyph before anything is packed.
func (f *OpenTypeFont) FillGlyphCacheIDs(cache *GlyphCache, ids []uint32) (int, error) {
	fontID, ok := cache.FindFont(f)
	if !ok {
		fontID = cache.AddFont(f.GlyphCount(), f)
	}
	count := cache.FontGlyphCount(fontID)
	for _, id := range ids {
		if int(id) >= count {
			return fontID, fmt.Errorf("arbor: FillGlyphCache: glyph %d out of range for %d glyphs: %w", id, count, ErrInvalidGlyph)
		}
	}

	rast := vector.NewRasterizer(0, 0)
	seen := make(map[uint32]bool, len(ids))
	var glyphs []rasterized
	var sizes []image.Point
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, cached := cache.Glyph(fontID, id); cached {
			continue
		}
		g, err := f.rasterize(rast, id)
		if err != nil {
			return fontID, fmt.Errorf("arbor: FillGlyphCache: glyph %d: %w", id, err)
		}
		if g.mask == nil {
			continue
		}
		glyphs = append(glyphs, g)
		sizes = append(sizes, g.mask.Rect.Size())
	}

	placements, err := cache.Reserve(sizes)
	if err != nil {
		return fontID, err
	}
	for i, p := range placements {
		g := glyphs[i]
		draw.Copy(cache.Image(p.Layer), cache.ImageRect(p.Rect).Min, g.mask, g.mask.Rect, draw.Src, nil)
		if _, err := cache.AddGlyph(fontID, g.id, g.offset, p.Layer, p.Rect); err != nil {
			return fontID, err
		}
	}
	Logger().Debug("opentype glyphs cached",
		slog.Int("font", fontID),
		slog.Int("glyphs", len(placements)),
		slog.Float64("size", float64(f.size)))
	return fontID, nil
}

// NewShaper returns a HarfBuzz shaper for the font. Shapers are cheap; use
// one per goroutine.
func (f *OpenTypeFont) NewShaper() *OpenTypeShaper {
	return &OpenTypeShaper{
		font: f,
		face: gotext.NewFace(f.face.Font),
	}
}

// OpenTypeShaper shapes left-to-right text with HarfBuzz. The script is
// detected from the first rune of each shaped range. Feature ranges apply
// to a whole Shape call if they overlap its range.
type OpenTypeShaper struct {
	font     *OpenTypeFont
	face     *gotext.Face
	shaper   shaping.HarfbuzzShaper
	out      shaping.Output
	runes    []rune
	offsets  []int // byte offset of each rune in the text
	features []shaping.FontFeature
}

// Font returns the shaper's font.
func (s *OpenTypeShaper) Font() Font { return s.font }

// Shape shapes text[begin:end].
func (s *OpenTypeShaper) Shape(text string, begin, end int, features []FeatureRange) int {
	s.runes = s.runes[:0]
	s.offsets = s.offsets[:0]
	for i, r := range text[begin:end] {
		s.runes = append(s.runes, r)
		s.offsets = append(s.offsets, begin+i)
	}
	if len(s.runes) == 0 {
		s.out = shaping.Output{}
		return 0
	}

	s.features = s.features[:0]
	for _, f := range features {
		if len(f.Feature) != 4 {
			continue
		}
		if f.Begin >= end || (f.End > f.Begin && f.End <= begin) {
			continue
		}
		s.features = append(s.features, shaping.FontFeature{Tag: ot.MustNewTag(f.Feature), Value: f.Value})
	}

	s.out = s.shaper.Shape(shaping.Input{
		Text:         s.runes,
		RunStart:     0,
		RunEnd:       len(s.runes),
		Direction:    di.DirectionLTR,
		Face:         s.face,
		FontFeatures: s.features,
		Size:         s.font.ppem,
		Script:       language.LookupScript(s.runes[0]),
		Language:     language.NewLanguage("en"),
	})
	return len(s.out.Glyphs)
}

// GlyphIDsInto writes the glyph IDs of the last Shape call.
func (s *OpenTypeShaper) GlyphIDsInto(ids []uint32) {
	for i, g := range s.out.Glyphs {
		ids[i] = uint32(g.GlyphID)
	}
}

// GlyphOffsetsAdvancesInto writes the glyph offsets and advances of the last
// Shape call, in pixels with Y up.
func (s *OpenTypeShaper) GlyphOffsetsAdvancesInto(offsets, advances []mgl32.Vec2) {
	for i, g := range s.out.Glyphs {
		offsets[i] = mgl32.Vec2{fixedToFloat(g.XOffset), fixedToFloat(g.YOffset)}
		advances[i] = mgl32.Vec2{fixedToFloat(g.Advance), 0}
	}
}

// GlyphClustersInto writes the byte offset of the first rune of each
// glyph's cluster.
func (s *OpenTypeShaper) GlyphClustersInto(clusters []uint32) {
	for i, g := range s.out.Glyphs {
		r := g.ClusterIndex
		if r < 0 || r >= len(s.offsets) {
			clusters[i] = 0
			continue
		}
		clusters[i] = uint32(s.offsets[r])
	}
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
