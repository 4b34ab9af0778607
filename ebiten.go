package arbor

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// TextDrawOptions controls DrawText and AppendTextVertices. The zero value
// draws white text with the baseline origin at the target's top-left corner.
type TextDrawOptions struct {
	// GeoM is applied after the Y-up text positions are flipped to screen
	// space.
	GeoM ebiten.GeoM
	// ColorScale tints the glyphs. It is premultiplied, as in ebiten.
	ColorScale ebiten.ColorScale
	// Blend is the blend mode. The zero value is source-over.
	Blend ebiten.Blend
}

// AtlasImage uploads one layer of a glyph cache to a new ebiten image. The
// coverage is stored as premultiplied white, so glyphs take the vertex color.
// Upload again after adding glyphs to the cache.
func AtlasImage(cache *GlyphCache, layer int) *ebiten.Image {
	src := cache.Image(layer)
	size := cache.Size()
	pix := make([]byte, 4*size.X*size.Y)
	for i, a := range src.Pix[:size.X*size.Y] {
		pix[4*i+0] = a
		pix[4*i+1] = a
		pix[4*i+2] = a
		pix[4*i+3] = a
	}
	img := ebiten.NewImage(size.X, size.Y)
	img.WritePixels(pix)
	return img
}

// AppendTextVertices appends one ebiten vertex per renderer vertex to dst.
// Positions are flipped from Y up to Y down and transformed by opts.GeoM;
// texture coordinates are scaled to an atlas of atlasW by atlasH pixels
// uploaded with AtlasImage. For array renderers the layer is dropped.
func AppendTextVertices(dst []ebiten.Vertex, r *Renderer, atlasW, atlasH float32, opts *TextDrawOptions) []ebiten.Vertex {
	if opts == nil {
		opts = &TextDrawOptions{}
	}
	cr, cg, cb, ca := opts.ColorScale.R(), opts.ColorScale.G(), opts.ColorScale.B(), opts.ColorScale.A()

	texcoords := r.VertexTextureCoordinates()
	arrayTexcoords := r.VertexTextureArrayCoordinates()
	for i, p := range r.VertexPositions() {
		var uv mgl32.Vec2
		if texcoords != nil {
			uv = texcoords[i]
		} else {
			uv = arrayTexcoords[i].Vec2()
		}
		dx, dy := opts.GeoM.Apply(float64(p[0]), float64(-p[1]))
		dst = append(dst, ebiten.Vertex{
			DstX:   float32(dx),
			DstY:   float32(dy),
			SrcX:   uv[0] * atlasW,
			SrcY:   (1 - uv[1]) * atlasH,
			ColorR: cr,
			ColorG: cg,
			ColorB: cb,
			ColorA: ca,
		})
	}
	return dst
}

// DrawText draws every glyph of r onto target with a single DrawTriangles32
// call, sampling atlas. The renderer must not use array textures unless all
// glyphs sit on the layer atlas holds.
func DrawText(target *ebiten.Image, r *Renderer, atlas *ebiten.Image, opts *TextDrawOptions) {
	if r.GlyphCount() == 0 {
		return
	}
	if opts == nil {
		opts = &TextDrawOptions{}
	}
	b := atlas.Bounds()
	verts := AppendTextVertices(make([]ebiten.Vertex, 0, 4*r.GlyphCount()), r, float32(b.Dx()), float32(b.Dy()), opts)
	inds := r.AppendIndicesUint32(make([]uint32, 0, 6*r.GlyphCount()))

	var triOp ebiten.DrawTrianglesOptions
	triOp.Blend = opts.Blend
	triOp.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	target.DrawTriangles32(verts, inds, atlas, &triOp)
}

// GeoM converts a flattened 2D transform to an ebiten.GeoM.
func GeoM(m mgl32.Mat3) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(m.At(0, 0)))
	g.SetElement(1, 0, float64(m.At(1, 0)))
	g.SetElement(0, 1, float64(m.At(0, 1)))
	g.SetElement(1, 1, float64(m.At(1, 1)))
	g.SetElement(0, 2, float64(m.At(0, 2)))
	g.SetElement(1, 2, float64(m.At(1, 2)))
	return g
}
