package arbor

import "github.com/go-gl/mathgl/mgl32"

// Font provides the metrics the renderer needs for line layout. All values
// are in pixels at the font's own Size; Y grows up, so Descent is usually
// negative.
type Font interface {
	Size() float32
	Ascent() float32
	Descent() float32
	LineHeight() float32
	GlyphCount() int
}

// FeatureRange enables or disables an OpenType feature, e.g. "kern" or
// "liga", over the byte range [Begin, End) of the shaped text. End <= Begin
// means until the end of the text.
type FeatureRange struct {
	Feature string
	Value   uint32
	Begin   int
	End     int
}

// Shaper turns text into positioned glyphs of one font. A Shaper keeps the
// result of the last Shape call; the Into methods copy it out into
// caller-provided slices of at least the returned length.
type Shaper interface {
	// Font returns the font the shaper uses.
	Font() Font
	// Shape shapes text[begin:end] and returns the number of glyphs.
	Shape(text string, begin, end int, features []FeatureRange) int
	// GlyphIDsInto writes the glyph ID of each glyph.
	GlyphIDsInto(ids []uint32)
	// GlyphOffsetsAdvancesInto writes each glyph's offset from the pen and
	// the pen advance after it, in pixels at the font's size.
	GlyphOffsetsAdvancesInto(offsets, advances []mgl32.Vec2)
	// GlyphClustersInto writes the byte offset into the text of the
	// cluster each glyph belongs to.
	GlyphClustersInto(clusters []uint32)
}
