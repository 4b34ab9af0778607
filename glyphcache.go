package arbor

import (
	"fmt"
	"image"
)

// GlyphCacheConfig holds parameters for NewGlyphCache.
type GlyphCacheConfig struct {
	// Width and Height are the size of one cache layer in pixels.
	Width, Height int
	// Layers is the number of texture layers. Zero means one. A cache with
	// more than one layer is an array cache.
	Layers int
	// Padding is the empty border kept around each glyph reserved with
	// Reserve, to avoid sampling neighbors.
	Padding int
}

// CachedGlyph describes where a glyph lives in a glyph cache.
type CachedGlyph struct {
	// Offset of the rectangle's minimum corner relative to the pen
	// position, in pixels at the font's size. Y grows up.
	Offset image.Point
	// Layer is the texture layer holding the glyph.
	Layer int
	// Rect is the glyph area in cache coordinates: origin at the bottom-left
	// corner of the layer, Y growing up.
	Rect image.Rectangle
}

// Placement is a cache area handed out by Reserve.
type Placement struct {
	Layer int
	Rect  image.Rectangle
}

type cacheFont struct {
	font  Font
	first int // index of the font's glyph 0 in glyphIDs
	count int
}

// packRow is the open row of the row packer on one layer.
type packRow struct {
	x, y, height int
}

// GlyphCache stores rasterized glyphs of one or more fonts in a set of
// single-channel images and maps (font ID, glyph ID) pairs to their
// rectangles. Fonts and glyphs are only ever added.
type GlyphCache struct {
	size    image.Point
	padding int
	images  []*image.Alpha
	rows    []packRow

	fonts    []cacheFont
	glyphIDs []int32 // per font glyph, index into glyphs or -1
	glyphs   []CachedGlyph
}

// NewGlyphCache creates an empty glyph cache.
func NewGlyphCache(cfg GlyphCacheConfig) *GlyphCache {
	layers := max(cfg.Layers, 1)
	c := &GlyphCache{
		size:    image.Pt(max(cfg.Width, 0), max(cfg.Height, 0)),
		padding: max(cfg.Padding, 0),
		images:  make([]*image.Alpha, layers),
		rows:    make([]packRow, layers),
	}
	for i := range c.images {
		c.images[i] = image.NewAlpha(image.Rect(0, 0, c.size.X, c.size.Y))
	}
	return c
}

// Size returns the size of one layer in pixels.
func (c *GlyphCache) Size() image.Point { return c.size }

// Layers returns the number of texture layers.
func (c *GlyphCache) Layers() int { return len(c.images) }

// IsArray reports whether the cache has more than one layer.
func (c *GlyphCache) IsArray() bool { return len(c.images) > 1 }

// Padding returns the border kept around reserved glyphs.
func (c *GlyphCache) Padding() int { return c.padding }

// Image returns the pixels of layer. Row 0 of the image is the top of the
// layer, so cache rectangles map to image rows flipped in Y; use
// ImageRect for the conversion.
func (c *GlyphCache) Image(layer int) *image.Alpha {
	if layer < 0 || layer >= len(c.images) {
		return nil
	}
	return c.images[layer]
}

// ImageRect converts a rectangle in cache coordinates to image coordinates.
func (c *GlyphCache) ImageRect(r image.Rectangle) image.Rectangle {
	return image.Rect(r.Min.X, c.size.Y-r.Max.Y, r.Max.X, c.size.Y-r.Min.Y)
}

// AddFont registers a font with glyphCount glyphs and returns its ID. Glyph
// IDs of the font are in [0, glyphCount).
func (c *GlyphCache) AddFont(glyphCount int, font Font) int {
	glyphCount = max(glyphCount, 0)
	c.fonts = append(c.fonts, cacheFont{font: font, first: len(c.glyphIDs), count: glyphCount})
	for range glyphCount {
		c.glyphIDs = append(c.glyphIDs, -1)
	}
	return len(c.fonts) - 1
}

// FindFont returns the ID of font, if it was added.
func (c *GlyphCache) FindFont(font Font) (int, bool) {
	if font == nil {
		return -1, false
	}
	for id := range c.fonts {
		if c.fonts[id].font == font {
			return id, true
		}
	}
	return -1, false
}

// FontCount returns the number of registered fonts.
func (c *GlyphCache) FontCount() int { return len(c.fonts) }

// FontGlyphCount returns the glyph count fontID was registered with.
func (c *GlyphCache) FontGlyphCount(fontID int) int {
	if fontID < 0 || fontID >= len(c.fonts) {
		return 0
	}
	return c.fonts[fontID].count
}

// Font returns the font registered as fontID.
func (c *GlyphCache) Font(fontID int) Font {
	if fontID < 0 || fontID >= len(c.fonts) {
		return nil
	}
	return c.fonts[fontID].font
}

// GlyphCount returns the number of glyphs stored in the cache.
func (c *GlyphCache) GlyphCount() int { return len(c.glyphs) }

// AddGlyph records the cache area of glyph glyphID of font fontID and returns
// the glyph's index in the cache. The pixels are expected to be written to
// Image(layer) separately.
func (c *GlyphCache) AddGlyph(fontID int, glyphID uint32, offset image.Point, layer int, rect image.Rectangle) (int, error) {
	if fontID < 0 || fontID >= len(c.fonts) {
		return -1, fmt.Errorf("arbor: AddGlyph: font %d out of range for %d fonts: %w", fontID, len(c.fonts), ErrInvalidGlyph)
	}
	f := c.fonts[fontID]
	if int64(glyphID) >= int64(f.count) {
		return -1, fmt.Errorf("arbor: AddGlyph: glyph %d out of range for %d glyphs: %w", glyphID, f.count, ErrInvalidGlyph)
	}
	if layer < 0 || layer >= len(c.images) {
		return -1, fmt.Errorf("arbor: AddGlyph: layer %d out of range for %d layers: %w", layer, len(c.images), ErrInvalidGlyph)
	}
	if !rect.In(image.Rectangle{Max: c.size}) {
		return -1, fmt.Errorf("arbor: AddGlyph: rectangle %v out of bounds for size %v: %w", rect, c.size, ErrInvalidGlyph)
	}
	slot := f.first + int(glyphID)
	if c.glyphIDs[slot] >= 0 {
		return -1, fmt.Errorf("arbor: AddGlyph: glyph %d of font %d already added: %w", glyphID, fontID, ErrInvalidGlyph)
	}
	c.glyphIDs[slot] = int32(len(c.glyphs))
	c.glyphs = append(c.glyphs, CachedGlyph{Offset: offset, Layer: layer, Rect: rect})
	return len(c.glyphs) - 1, nil
}

// Glyph looks up a glyph by font and glyph ID.
func (c *GlyphCache) Glyph(fontID int, glyphID uint32) (CachedGlyph, bool) {
	if fontID < 0 || fontID >= len(c.fonts) {
		return CachedGlyph{}, false
	}
	f := c.fonts[fontID]
	if int64(glyphID) >= int64(f.count) {
		return CachedGlyph{}, false
	}
	i := c.glyphIDs[f.first+int(glyphID)]
	if i < 0 {
		return CachedGlyph{}, false
	}
	return c.glyphs[i], true
}

// Reserve finds free cache areas for glyphs of the given sizes, packing them
// in rows from the bottom of the first layer upwards and moving to the next
// layer when one is full. Either every size is placed or, if the cache runs
// out of space, nothing is reserved.
func (c *GlyphCache) Reserve(sizes []image.Point) ([]Placement, error) {
	rows := append([]packRow(nil), c.rows...)
	out := make([]Placement, len(sizes))
	layer := 0
	p := c.padding
	for i, s := range sizes {
		w, h := s.X+2*p, s.Y+2*p
		if s.X < 0 || s.Y < 0 || w > c.size.X || h > c.size.Y {
			return nil, fmt.Errorf("arbor: Reserve: glyph %d of size %v does not fit a %v cache: %w", i, s, c.size, ErrCacheFull)
		}
		for {
			if layer >= len(rows) {
				return nil, fmt.Errorf("arbor: Reserve: %d of %d glyphs placed: %w", i, len(sizes), ErrCacheFull)
			}
			r := &rows[layer]
			if r.x+w > c.size.X {
				r.y += r.height
				r.x, r.height = 0, 0
			}
			if r.y+h > c.size.Y {
				layer++
				continue
			}
			out[i] = Placement{Layer: layer, Rect: image.Rect(r.x+p, r.y+p, r.x+p+s.X, r.y+p+s.Y)}
			r.x += w
			r.height = max(r.height, h)
			break
		}
	}
	c.rows = rows
	return out, nil
}
