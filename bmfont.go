package arbor

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"
)

// bmGlyph is one char entry of a BMFont file. Page coordinates have Y
// growing down, as in the file.
type bmGlyph struct {
	id       rune
	x, y     int
	width    int
	height   int
	xOffset  int
	yOffset  int
	xAdvance int
	page     int
}

const asciiGlyphCount = 128

// BitmapFont is a pre-rasterized font in the BMFont text format. Glyph IDs
// are the positions of the char entries in the file.
type BitmapFont struct {
	size       float32
	lineHeight float32
	base       float32
	pageSize   image.Point

	glyphs     []bmGlyph
	asciiIndex [asciiGlyphCount]int32 // glyph ID per ASCII rune, -1 if absent
	extIndex   map[rune]int32

	kernings map[[2]rune]int
}

// LoadBitmapFont parses BMFont .fnt text-format data.
func LoadBitmapFont(fntData []byte) (*BitmapFont, error) {
	f := &BitmapFont{}
	for i := range f.asciiIndex {
		f.asciiIndex[i] = -1
	}

	scanner := bufio.NewScanner(bytes.NewReader(fntData))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tag, rest := splitTag(line)
		fields := parseFields(rest)

		switch tag {
		case "info":
			size := fieldInt(fields, "size")
			f.size = float32(max(size, -size))

		case "common":
			f.lineHeight = float32(fieldInt(fields, "lineHeight"))
			f.base = float32(fieldInt(fields, "base"))
			f.pageSize = image.Pt(fieldInt(fields, "scaleW"), fieldInt(fields, "scaleH"))

		case "char":
			g := bmGlyph{
				id:       rune(fieldInt(fields, "id")),
				x:        fieldInt(fields, "x"),
				y:        fieldInt(fields, "y"),
				width:    fieldInt(fields, "width"),
				height:   fieldInt(fields, "height"),
				xOffset:  fieldInt(fields, "xoffset"),
				yOffset:  fieldInt(fields, "yoffset"),
				xAdvance: fieldInt(fields, "xadvance"),
				page:     fieldInt(fields, "page"),
			}
			if _, ok := f.lookup(g.id); ok {
				continue
			}
			id := int32(len(f.glyphs))
			f.glyphs = append(f.glyphs, g)
			if g.id >= 0 && g.id < asciiGlyphCount {
				f.asciiIndex[g.id] = id
			} else {
				if f.extIndex == nil {
					f.extIndex = make(map[rune]int32)
				}
				f.extIndex[g.id] = id
			}

		case "kerning":
			if f.kernings == nil {
				f.kernings = make(map[[2]rune]int)
			}
			pair := [2]rune{rune(fieldInt(fields, "first")), rune(fieldInt(fields, "second"))}
			f.kernings[pair] = fieldInt(fields, "amount")
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("arbor: LoadBitmapFont: reading .fnt data: %w", err)
	}
	if f.lineHeight == 0 {
		return nil, fmt.Errorf("arbor: LoadBitmapFont: .fnt data missing common lineHeight")
	}
	if len(f.glyphs) == 0 {
		return nil, fmt.Errorf("arbor: LoadBitmapFont: .fnt data has no char definitions")
	}
	if f.size == 0 {
		f.size = f.lineHeight
	}
	return f, nil
}

// Size returns the size the font was rasterized at.
func (f *BitmapFont) Size() float32 { return f.size }

// Ascent returns the distance from the baseline to the top of the line.
func (f *BitmapFont) Ascent() float32 { return f.base }

// Descent returns the distance from the baseline to the bottom of the line,
// as a negative number.
func (f *BitmapFont) Descent() float32 { return f.base - f.lineHeight }

// LineHeight returns the vertical distance between baselines.
func (f *BitmapFont) LineHeight() float32 { return f.lineHeight }

// GlyphCount returns the number of chars in the font.
func (f *BitmapFont) GlyphCount() int { return len(f.glyphs) }

// GlyphID returns the glyph ID of r.
func (f *BitmapFont) GlyphID(r rune) (uint32, bool) {
	id, ok := f.lookup(r)
	return uint32(id), ok
}

func (f *BitmapFont) lookup(r rune) (int32, bool) {
	if r >= 0 && r < asciiGlyphCount {
		id := f.asciiIndex[r]
		return id, id >= 0
	}
	id, ok := f.extIndex[r]
	return id, ok
}

// kern returns the kerning amount for the given rune pair.
func (f *BitmapFont) kern(first, second rune) int {
	if f.kernings == nil {
		return 0
	}
	return f.kernings[[2]rune{first, second}]
}

// FillGlyphCache copies every visible glyph from the font's page images into
// cache and returns the font's ID in the cache. pages[i] is the image of
// page i. Either all glyphs are placed or, with ErrCacheFull, none are; the
// font is registered in both cases.
func (f *BitmapFont) FillGlyphCache(cache *GlyphCache, pages []image.Image) (int, error) {
	fontID, ok := cache.FindFont(f)
	if !ok {
		fontID = cache.AddFont(len(f.glyphs), f)
	}

	var ids []uint32
	var sizes []image.Point
	for id, g := range f.glyphs {
		if g.width <= 0 || g.height <= 0 {
			continue
		}
		if _, cached := cache.Glyph(fontID, uint32(id)); cached {
			continue
		}
		if g.page < 0 || g.page >= len(pages) || pages[g.page] == nil {
			return fontID, fmt.Errorf("arbor: FillGlyphCache: char %d is on page %d of %d", g.id, g.page, len(pages))
		}
		ids = append(ids, uint32(id))
		sizes = append(sizes, image.Pt(g.width, g.height))
	}

	placements, err := cache.Reserve(sizes)
	if err != nil {
		return fontID, err
	}
	for i, p := range placements {
		g := f.glyphs[ids[i]]
		page := pages[g.page]
		src := image.Rect(g.x, g.y, g.x+g.width, g.y+g.height).Add(page.Bounds().Min)
		dst := cache.ImageRect(p.Rect)
		draw.Copy(cache.Image(p.Layer), dst.Min, page, src, draw.Src, nil)

		// Glyph bottom relative to the baseline, Y up.
		offset := image.Pt(g.xOffset, int(f.base)-g.yOffset-g.height)
		if _, err := cache.AddGlyph(fontID, ids[i], offset, p.Layer, p.Rect); err != nil {
			return fontID, err
		}
	}
	Logger().Debug("bitmap font cached",
		slog.Int("font", fontID),
		slog.Int("glyphs", len(placements)))
	return fontID, nil
}

// NewShaper returns a shaper laying out text with the font's advances and
// kerning pairs. The "kern" feature is on by default.
func (f *BitmapFont) NewShaper() *BitmapShaper {
	return &BitmapShaper{font: f}
}

// BitmapShaper shapes text with a BitmapFont, one glyph per rune. Runes
// without a char map to an ID the glyph cache never holds, so they are
// skipped by renderers while still advancing by zero.
type BitmapShaper struct {
	font     *BitmapFont
	ids      []uint32
	advances []float32
	clusters []uint32
}

// Font returns the shaper's font.
func (s *BitmapShaper) Font() Font { return s.font }

// Shape shapes text[begin:end].
func (s *BitmapShaper) Shape(text string, begin, end int, features []FeatureRange) int {
	s.ids = s.ids[:0]
	s.advances = s.advances[:0]
	s.clusters = s.clusters[:0]

	var prev rune
	hasPrev := false
	for i := begin; i < end; {
		r, size := utf8.DecodeRuneInString(text[i:end])
		id, ok := s.font.GlyphID(r)
		var advance float32
		if ok {
			g := s.font.glyphs[id]
			advance = float32(g.xAdvance)
			if hasPrev && featureValue(features, "kern", i, 1) != 0 {
				s.advances[len(s.advances)-1] += float32(s.font.kern(prev, r))
			}
			prev, hasPrev = r, true
		} else {
			id = uint32(len(s.font.glyphs))
			hasPrev = false
		}
		s.ids = append(s.ids, id)
		s.advances = append(s.advances, advance)
		s.clusters = append(s.clusters, uint32(i))
		i += size
	}
	return len(s.ids)
}

// GlyphIDsInto writes the glyph IDs of the last Shape call.
func (s *BitmapShaper) GlyphIDsInto(ids []uint32) {
	copy(ids, s.ids)
}

// GlyphOffsetsAdvancesInto writes zero offsets and the horizontal advances
// of the last Shape call.
func (s *BitmapShaper) GlyphOffsetsAdvancesInto(offsets, advances []mgl32.Vec2) {
	for i, a := range s.advances {
		offsets[i] = mgl32.Vec2{}
		advances[i] = mgl32.Vec2{a, 0}
	}
}

// GlyphClustersInto writes the byte offset of each glyph's rune.
func (s *BitmapShaper) GlyphClustersInto(clusters []uint32) {
	copy(clusters, s.clusters)
}

// featureValue returns the value of feature at byte offset pos: the last
// matching range wins, def applies when none covers pos.
func featureValue(features []FeatureRange, feature string, pos int, def uint32) uint32 {
	v := def
	for _, f := range features {
		if f.Feature != feature || pos < f.Begin || (f.End > f.Begin && pos >= f.End) {
			continue
		}
		v = f.Value
	}
	return v
}

// splitTag splits a BMFont line into its tag and the rest of the line.
func splitTag(line string) (string, string) {
	idx := strings.IndexByte(line, ' ')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

// parseFields parses "key=value key=value ..." into a map.
func parseFields(s string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Fields(s) {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		// Strip quotes from values like face="Arial"
		if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
			val = val[1 : len(val)-1]
		}
		fields[key] = val
	}
	return fields
}

// fieldInt returns the integer value of key, 0 if absent or malformed.
// List values like padding=1,1,1,1 yield their first element.
func fieldInt(fields map[string]string, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	v, _, _ = strings.Cut(v, ",")
	n, _ := strconv.Atoi(v)
	return n
}

// PageSize returns the size of the font's page images.
func (f *BitmapFont) PageSize() image.Point { return f.pageSize }
