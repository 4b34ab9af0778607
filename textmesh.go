package arbor

import "slices"

// TextMesh is a self-contained mesh of one rendered text block, with
// interleaved x, y, u, v vertices and the smallest index type that addresses
// every vertex.
type TextMesh struct {
	Vertices    []float32 // 4 floats per vertex, 4 vertices per glyph
	Indices     []byte    // little-endian, IndexType.Size() bytes each
	IndexType   IndexType
	IndexCount  int
	VertexCount int
}

// GlyphCount returns the number of glyph quads in the mesh.
func (m TextMesh) GlyphCount() int { return m.VertexCount / 4 }

// RenderText shapes and aligns text in one go, returning a mesh sized
// exactly for the glyphs found in cache and the aligned block rectangle.
// It is meant for static text; use a Renderer to build text incrementally.
func RenderText(shaper Shaper, cache *GlyphCache, size float32, text string, alignment Alignment, features ...FeatureRange) (TextMesh, Range2D, error) {
	r, err := NewRenderer(cache, RendererConfig{})
	if err != nil {
		return TextMesh{}, Range2D{}, err
	}
	r.SetAlignment(alignment)
	rect, err := r.Render(shaper, size, text, features...)
	if err != nil {
		return TextMesh{}, Range2D{}, err
	}

	glyphs := r.GlyphCount()
	positions := r.VertexPositions()
	texcoords := r.VertexTextureCoordinates()
	vertices := make([]float32, 0, 16*glyphs)
	for i := range positions {
		vertices = append(vertices, positions[i][0], positions[i][1], texcoords[i][0], texcoords[i][1])
	}

	// The renderer sized its indices for the shaped glyph count, which
	// includes glyphs missing from the cache.
	var indices indexBuffer
	indices.setup(indexTypeForGlyphs(glyphs), glyphs)

	return TextMesh{
		Vertices:    slices.Clip(vertices),
		Indices:     indices.bytes(make([]byte, 0, 6*glyphs*indices.typ.Size()), glyphs),
		IndexType:   indices.typ,
		IndexCount:  6 * glyphs,
		VertexCount: 4 * glyphs,
	}, rect, nil
}
