package arbor

import (
	"fmt"
	"image"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// RendererFlags enable optional per-glyph outputs of a Renderer.
type RendererFlags uint8

const (
	// RendererGlyphPositionsClusters records the pen position and the
	// source text cluster of every glyph.
	RendererGlyphPositionsClusters RendererFlags = 1 << iota
)

// RendererConfig holds parameters for NewRenderer.
type RendererConfig struct {
	Flags RendererFlags
	// IndexType is the smallest index type the renderer uses. Larger types
	// are picked automatically as the glyph capacity grows. Zero means
	// IndexUint8.
	IndexType IndexType
	// ArrayTextures allows rendering from array glyph caches, producing
	// three-component texture coordinates. Backends that cannot sample
	// array textures leave it false.
	ArrayTextures bool
}

// Mesh describes the index range to draw for some glyphs of a Renderer.
type Mesh struct {
	IndexType   IndexType
	IndexOffset int // first index to draw
	IndexCount  int
	VertexCount int // vertices referenced from the start of the buffers
}

// textLine is one finished or in-progress line of a text block.
type textLine struct {
	firstGlyph int
	endGlyph   int
	width      float32
}

// textBlock is the state of the text added since the last Render or Finish.
type textBlock struct {
	active     bool
	firstGlyph int
	pen        mgl32.Vec2
	baseline   float32 // y of the current line's baseline
	ascent     float32 // largest scaled ascent, relative to the baseline
	descent    float32 // smallest scaled descent, relative to the baseline
	lines      []textLine
}

// Renderer accumulates shaped text into quad vertex and index buffers ready
// to be uploaded by a render backend. Glyph rectangles come from a
// GlyphCache.
//
// Text is added in blocks: Add appends glyphs at an internal pen that starts
// at the cursor, and Finish (or Render, which is Add followed by Finish)
// aligns the block around the cursor. The buffers only grow; Clear empties
// them keeping their capacity, Reset releases everything.
//
// A Renderer is not safe for concurrent use. Slices returned by its view
// methods are invalidated by the next mutating call.
type Renderer struct {
	cache         *GlyphCache
	flags         RendererFlags
	baseIndexType IndexType
	minIndexType  IndexType
	array         bool

	cursor    mgl32.Vec2
	alignment Alignment

	capacity       int
	glyphCount     int
	positions      []mgl32.Vec2
	texcoords      []mgl32.Vec2
	arrayTexcoords []mgl32.Vec3
	glyphPositions []mgl32.Vec2
	glyphClusters  []uint32
	indices        indexBuffer

	bounds    Range2D
	hasBounds bool
	block     textBlock

	// shaper output scratch
	ids      []uint32
	offsets  []mgl32.Vec2
	advances []mgl32.Vec2
	clusters []uint32

	warnedSize bool
}

// NewRenderer creates a renderer drawing glyphs from cache. It fails with
// ErrArrayGlyphCacheUnsupported for an array cache unless cfg.ArrayTextures
// is set.
func NewRenderer(cache *GlyphCache, cfg RendererConfig) (*Renderer, error) {
	if cache.IsArray() && !cfg.ArrayTextures {
		return nil, fmt.Errorf("arbor: NewRenderer: cache has %d layers: %w", cache.Layers(), ErrArrayGlyphCacheUnsupported)
	}
	base := cfg.IndexType
	if base == 0 {
		base = IndexUint8
	}
	r := &Renderer{
		cache:         cache,
		flags:         cfg.Flags,
		baseIndexType: base,
		minIndexType:  base,
		array:         cfg.ArrayTextures,
	}
	r.updateIndices()
	return r, nil
}

// GlyphCache returns the cache the renderer draws from.
func (r *Renderer) GlyphCache() *GlyphCache { return r.cache }

// Flags returns the flags the renderer was created with.
func (r *Renderer) Flags() RendererFlags { return r.flags }

// Cursor returns the position text blocks are aligned to.
func (r *Renderer) Cursor() mgl32.Vec2 { return r.cursor }

// SetCursor sets the position the next text block is aligned to.
func (r *Renderer) SetCursor(c mgl32.Vec2) { r.cursor = c }

// Alignment returns the alignment applied by Finish.
func (r *Renderer) Alignment() Alignment { return r.alignment }

// SetAlignment sets the alignment applied by Finish.
func (r *Renderer) SetAlignment(a Alignment) { r.alignment = a }

// GlyphCount returns the number of glyph quads in the buffers.
func (r *Renderer) GlyphCount() int { return r.glyphCount }

// Capacity returns the number of glyphs the buffers can hold without
// growing. The index buffer always covers the whole capacity.
func (r *Renderer) Capacity() int { return r.capacity }

// IndexType returns the index type in use: the larger of the configured
// minimum and the smallest type addressing every vertex of the capacity.
func (r *Renderer) IndexType() IndexType { return r.indices.typ }

// SetIndexType sets the minimum index type. The index buffer is regenerated
// if the type in use changes.
func (r *Renderer) SetIndexType(t IndexType) {
	if t < IndexUint8 || t > IndexUint32 {
		t = IndexUint8
	}
	r.minIndexType = t
	r.updateIndices()
}

// Bounds returns the union of the rectangles of all blocks finished since
// the last Clear.
func (r *Renderer) Bounds() Range2D { return r.bounds }

// Reserve makes room for glyphCount glyphs. It never shrinks the buffers.
// If the capacity grows past what the current index type can address, the
// index type is promoted and the index buffer regenerated.
func (r *Renderer) Reserve(glyphCount int) {
	if glyphCount <= r.capacity {
		return
	}
	Logger().Debug("glyph capacity grows",
		slog.Int("from", r.capacity),
		slog.Int("to", glyphCount))
	r.capacity = glyphCount
	more := glyphCount - r.glyphCount
	r.positions = slices.Grow(r.positions, 4*more)
	if r.array {
		r.arrayTexcoords = slices.Grow(r.arrayTexcoords, 4*more)
	} else {
		r.texcoords = slices.Grow(r.texcoords, 4*more)
	}
	if r.flags&RendererGlyphPositionsClusters != 0 {
		r.glyphPositions = slices.Grow(r.glyphPositions, more)
		r.glyphClusters = slices.Grow(r.glyphClusters, more)
	}
	r.updateIndices()
}

func (r *Renderer) updateIndices() {
	typ := max(r.minIndexType, indexTypeForGlyphs(r.capacity))
	if r.indices.typ != 0 && typ != r.indices.typ {
		Logger().Debug("index type changes",
			slog.String("from", r.indices.typ.String()),
			slog.String("to", typ.String()),
			slog.Int("capacity", r.capacity))
	}
	r.indices.setup(typ, r.capacity)
}

// Clear removes all glyphs. Capacity, index type, index data and cursor are
// kept. Text added after Clear starts at the cursor.
func (r *Renderer) Clear() {
	r.glyphCount = 0
	r.positions = r.positions[:0]
	r.texcoords = r.texcoords[:0]
	r.arrayTexcoords = r.arrayTexcoords[:0]
	r.glyphPositions = r.glyphPositions[:0]
	r.glyphClusters = r.glyphClusters[:0]
	r.bounds, r.hasBounds = Range2D{}, false
	r.block = textBlock{lines: r.block.lines[:0]}
}

// Reset is Clear that also releases the buffers, drops the index type back
// to the configured one, moves the cursor to the origin and restores
// AlignLineLeft.
func (r *Renderer) Reset() {
	r.Clear()
	r.capacity = 0
	r.positions = nil
	r.texcoords = nil
	r.arrayTexcoords = nil
	r.glyphPositions = nil
	r.glyphClusters = nil
	r.indices.reset()
	r.minIndexType = r.baseIndexType
	r.updateIndices()
	r.cursor = mgl32.Vec2{}
	r.alignment = AlignLineLeft
	r.warnedSize = false
}

// Add shapes text with shaper at the given size and appends a quad for every
// glyph found in the glyph cache. Glyphs missing from the cache still move
// the pen. A '\n' starts a new line one line height lower. The glyphs are
// not aligned until Finish.
//
// Add fails with ErrFontNotInCache, without modifying the renderer, if the
// shaper's font was never added to the glyph cache.
func (r *Renderer) Add(shaper Shaper, size float32, text string, features ...FeatureRange) error {
	font := shaper.Font()
	fontID, ok := r.cache.FindFont(font)
	if !ok {
		return fmt.Errorf("arbor: Add: %w", ErrFontNotInCache)
	}
	scale := size / font.Size()
	r.beginBlock(font, scale)

	var stats batchStats
	for begin := 0; ; {
		end := strings.IndexByte(text[begin:], '\n')
		last := end < 0
		if last {
			end = len(text)
		} else {
			end += begin
		}
		if end > begin {
			r.addRun(shaper, fontID, scale, text, begin, end, features, &stats)
		}
		if last {
			break
		}
		r.newLine(font.LineHeight() * scale)
		begin = end + 1
	}
	r.debugLog(stats)
	return nil
}

// Render is Add followed by Finish. It returns the aligned rectangle of the
// block.
func (r *Renderer) Render(shaper Shaper, size float32, text string, features ...FeatureRange) (Range2D, error) {
	if err := r.Add(shaper, size, text, features...); err != nil {
		return Range2D{}, err
	}
	return r.Finish(), nil
}

func (r *Renderer) beginBlock(font Font, scale float32) {
	ascent := font.Ascent() * scale
	descent := font.Descent() * scale
	if r.block.active {
		r.block.ascent = max(r.block.ascent, ascent)
		r.block.descent = min(r.block.descent, descent)
		return
	}
	r.block = textBlock{
		active:     true,
		firstGlyph: r.glyphCount,
		pen:        r.cursor,
		baseline:   r.cursor[1],
		ascent:     ascent,
		descent:    descent,
		lines:      append(r.block.lines[:0], textLine{firstGlyph: r.glyphCount}),
	}
}

func (r *Renderer) newLine(lineHeight float32) {
	b := &r.block
	r.endLine()
	b.baseline -= lineHeight
	b.pen = mgl32.Vec2{r.cursor[0], b.baseline}
	b.lines = append(b.lines, textLine{firstGlyph: r.glyphCount})
}

func (r *Renderer) endLine() {
	line := &r.block.lines[len(r.block.lines)-1]
	line.endGlyph = r.glyphCount
	line.width = r.block.pen[0] - r.cursor[0]
}

func (r *Renderer) addRun(shaper Shaper, fontID int, scale float32, text string, begin, end int, features []FeatureRange, stats *batchStats) {
	n := shaper.Shape(text, begin, end, features)
	if n <= 0 {
		return
	}
	r.ids = slices.Grow(r.ids[:0], n)[:n]
	r.offsets = slices.Grow(r.offsets[:0], n)[:n]
	r.advances = slices.Grow(r.advances[:0], n)[:n]
	shaper.GlyphIDsInto(r.ids)
	shaper.GlyphOffsetsAdvancesInto(r.offsets, r.advances)
	withMeta := r.flags&RendererGlyphPositionsClusters != 0
	if withMeta {
		r.clusters = slices.Grow(r.clusters[:0], n)[:n]
		shaper.GlyphClustersInto(r.clusters)
	}

	r.Reserve(r.glyphCount + n)

	cacheSize := vec2(r.cache.Size())
	for i := range n {
		stats.shaped++
		g, ok := r.cache.Glyph(fontID, r.ids[i])
		if !ok {
			stats.skipped++
			r.block.pen = r.block.pen.Add(r.advances[i].Mul(scale))
			continue
		}
		pos := r.block.pen.Add(r.offsets[i].Mul(scale))
		lo := pos.Add(vec2(g.Offset).Mul(scale))
		hi := lo.Add(vec2(g.Rect.Size()).Mul(scale))
		r.positions = append(r.positions,
			mgl32.Vec2{lo[0], lo[1]},
			mgl32.Vec2{hi[0], lo[1]},
			mgl32.Vec2{lo[0], hi[1]},
			mgl32.Vec2{hi[0], hi[1]})

		t0 := divVec2(vec2(g.Rect.Min), cacheSize)
		t1 := divVec2(vec2(g.Rect.Max), cacheSize)
		if r.array {
			layer := float32(g.Layer)
			r.arrayTexcoords = append(r.arrayTexcoords,
				mgl32.Vec3{t0[0], t0[1], layer},
				mgl32.Vec3{t1[0], t0[1], layer},
				mgl32.Vec3{t0[0], t1[1], layer},
				mgl32.Vec3{t1[0], t1[1], layer})
		} else {
			r.texcoords = append(r.texcoords,
				mgl32.Vec2{t0[0], t0[1]},
				mgl32.Vec2{t1[0], t0[1]},
				mgl32.Vec2{t0[0], t1[1]},
				mgl32.Vec2{t1[0], t1[1]})
		}
		if withMeta {
			r.glyphPositions = append(r.glyphPositions, pos)
			r.glyphClusters = append(r.glyphClusters, r.clusters[i])
		}
		r.glyphCount++
		stats.appended++
		r.block.pen = r.block.pen.Add(r.advances[i].Mul(scale))
	}
}

// Finish ends the current block: every line is aligned horizontally and the
// block vertically around the cursor. It returns the aligned block
// rectangle, spanning the line advances horizontally and from the first
// line's ascent to the last line's descent vertically. Finish without a
// block in progress returns a zero rectangle.
func (r *Renderer) Finish() Range2D {
	b := &r.block
	if !b.active {
		return Range2D{}
	}
	r.endLine()

	top := b.ascent
	bottom := b.baseline - r.cursor[1] + b.descent
	var dy float32
	switch r.alignment.vertical() {
	case alignTop:
		dy = -top
	case alignMiddle:
		dy = -(top + bottom) / 2
	case alignBottom:
		dy = -bottom
	}

	rect := Range2D{
		Min: mgl32.Vec2{r.cursor[0], r.cursor[1] + bottom + dy},
		Max: mgl32.Vec2{r.cursor[0], r.cursor[1] + top + dy},
	}
	for i, line := range b.lines {
		var dx float32
		switch r.alignment.horizontal() {
		case alignCenter:
			dx = -line.width / 2
		case alignRight:
			dx = -line.width
		}
		left := r.cursor[0] + dx
		right := left + line.width
		if i == 0 {
			rect.Min[0], rect.Max[0] = min(left, right), max(left, right)
		} else {
			rect.Min[0], rect.Max[0] = min(rect.Min[0], left, right), max(rect.Max[0], left, right)
		}
		r.translateGlyphs(line.firstGlyph, line.endGlyph, mgl32.Vec2{dx, dy})
	}

	if r.hasBounds {
		r.bounds = r.bounds.Union(rect)
	} else {
		r.bounds, r.hasBounds = rect, true
	}
	r.block = textBlock{lines: b.lines[:0]}
	return rect
}

func (r *Renderer) translateGlyphs(first, end int, d mgl32.Vec2) {
	if d == (mgl32.Vec2{}) {
		return
	}
	for i := 4 * first; i < 4*end; i++ {
		r.positions[i] = r.positions[i].Add(d)
	}
	if r.flags&RendererGlyphPositionsClusters != 0 {
		for i := first; i < end; i++ {
			r.glyphPositions[i] = r.glyphPositions[i].Add(d)
		}
	}
}

// VertexPositions returns four positions per glyph in the order bottom-left,
// bottom-right, top-left, top-right.
func (r *Renderer) VertexPositions() []mgl32.Vec2 { return r.positions }

// VertexTextureCoordinates returns the texture coordinates matching
// VertexPositions, normalized to the cache size. It returns nil for a
// renderer using array textures.
func (r *Renderer) VertexTextureCoordinates() []mgl32.Vec2 {
	if r.array {
		return nil
	}
	return r.texcoords
}

// VertexTextureArrayCoordinates returns texture coordinates with the cache
// layer in the third component. It returns nil unless the renderer was
// configured with ArrayTextures.
func (r *Renderer) VertexTextureArrayCoordinates() []mgl32.Vec3 {
	if !r.array {
		return nil
	}
	return r.arrayTexcoords
}

// GlyphPositions returns the aligned pen position of every glyph, or nil
// without RendererGlyphPositionsClusters.
func (r *Renderer) GlyphPositions() []mgl32.Vec2 {
	if r.flags&RendererGlyphPositionsClusters == 0 {
		return nil
	}
	return r.glyphPositions
}

// GlyphClusters returns the source text cluster of every glyph, or nil
// without RendererGlyphPositionsClusters.
func (r *Renderer) GlyphClusters() []uint32 {
	if r.flags&RendererGlyphPositionsClusters == 0 {
		return nil
	}
	return r.glyphClusters
}

// IndicesUint8 returns the indices of all glyphs if the index type is
// IndexUint8, nil otherwise.
func (r *Renderer) IndicesUint8() []uint8 {
	if r.indices.typ != IndexUint8 {
		return nil
	}
	return r.indices.u8[:6*r.glyphCount]
}

// IndicesUint16 returns the indices of all glyphs if the index type is
// IndexUint16, nil otherwise.
func (r *Renderer) IndicesUint16() []uint16 {
	if r.indices.typ != IndexUint16 {
		return nil
	}
	return r.indices.u16[:6*r.glyphCount]
}

// IndicesUint32 returns the indices of all glyphs if the index type is
// IndexUint32, nil otherwise.
func (r *Renderer) IndicesUint32() []uint32 {
	if r.indices.typ != IndexUint32 {
		return nil
	}
	return r.indices.u32[:6*r.glyphCount]
}

// IndexData returns the indices of all glyphs as little-endian bytes of the
// current index type.
func (r *Renderer) IndexData() []byte {
	return r.indices.bytes(make([]byte, 0, 6*r.glyphCount*r.indices.typ.Size()), r.glyphCount)
}

// AppendIndicesUint32 appends the indices of all glyphs to dst as uint32.
func (r *Renderer) AppendIndicesUint32(dst []uint32) []uint32 {
	return r.indices.appendUint32(dst, r.glyphCount)
}

// Mesh describes a draw of every glyph.
func (r *Renderer) Mesh() Mesh {
	m, _ := r.MeshRange(0, r.glyphCount)
	return m
}

// MeshRange describes a draw of count glyphs starting at glyph offset. It
// fails with ErrDrawOffsetOutOfBounds if the range exceeds the glyph count.
func (r *Renderer) MeshRange(offset, count int) (Mesh, error) {
	if offset < 0 || count < 0 || offset+count > r.glyphCount {
		return Mesh{}, fmt.Errorf("arbor: MeshRange: glyphs %d+%d out of range for %d glyphs: %w",
			offset, count, r.glyphCount, ErrDrawOffsetOutOfBounds)
	}
	return Mesh{
		IndexType:   r.indices.typ,
		IndexOffset: 6 * offset,
		IndexCount:  6 * count,
		VertexCount: 4 * (offset + count),
	}, nil
}

func vec2(p image.Point) mgl32.Vec2 {
	return mgl32.Vec2{float32(p.X), float32(p.Y)}
}

func divVec2(a, b mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{a[0] / b[0], a[1] / b[1]}
}
