package arbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// IndexType is the integer width of mesh indices.
type IndexType uint8

const (
	IndexUint8  IndexType = iota + 1 // up to 256 vertices, 64 glyphs
	IndexUint16                      // up to 65536 vertices, 16384 glyphs
	IndexUint32                      // everything else
)

// Size returns the width of one index in bytes.
func (t IndexType) Size() int {
	switch t {
	case IndexUint8:
		return 1
	case IndexUint16:
		return 2
	case IndexUint32:
		return 4
	}
	return 0
}

// Max returns the largest vertex index representable by t.
func (t IndexType) Max() uint32 {
	switch t {
	case IndexUint8:
		return math.MaxUint8
	case IndexUint16:
		return math.MaxUint16
	case IndexUint32:
		return math.MaxUint32
	}
	return 0
}

func (t IndexType) String() string {
	switch t {
	case IndexUint8:
		return "Uint8"
	case IndexUint16:
		return "Uint16"
	case IndexUint32:
		return "Uint32"
	}
	return fmt.Sprintf("IndexType(%d)", uint8(t))
}

// IndexTypeFor returns the smallest index type able to address vertexCount
// vertices.
func IndexTypeFor(vertexCount int) IndexType {
	switch {
	case vertexCount <= math.MaxUint8+1:
		return IndexUint8
	case vertexCount <= math.MaxUint16+1:
		return IndexUint16
	}
	return IndexUint32
}

// indexTypeForGlyphs returns the smallest index type for a quad mesh of
// glyphs quads.
func indexTypeForGlyphs(glyphs int) IndexType {
	return IndexTypeFor(4 * glyphs)
}

// quadIndex is the set of element types an index buffer can hold.
type quadIndex interface {
	~uint8 | ~uint16 | ~uint32
}

// fillQuadIndices writes the two triangles of every quad from firstQuad on,
// 0 1 2 2 1 3 relative to the quad's first vertex:
//
//	2---3
//	|\  |
//	| \ |
//	|  \|
//	0---1
func fillQuadIndices[T quadIndex](dst []T, firstQuad int) {
	for q := firstQuad; 6*q+6 <= len(dst); q++ {
		base := T(4 * q)
		i := dst[6*q : 6*q+6 : 6*q+6]
		i[0] = base
		i[1] = base + 1
		i[2] = base + 2
		i[3] = base + 2
		i[4] = base + 1
		i[5] = base + 3
	}
}

// resizeQuadIndices resizes buf to hold quads quads and fills the new tail.
// The backing array grows geometrically, so repeated small increases cost
// amortized constant time per quad.
func resizeQuadIndices[T quadIndex](buf []T, quads int) []T {
	n := 6 * quads
	if n <= len(buf) {
		return buf[:n]
	}
	first := len(buf) / 6
	buf = slices.Grow(buf, n-len(buf))[:n]
	fillQuadIndices(buf, first)
	return buf
}

// indexBuffer is the index data of a quad mesh, tagged by element width.
// Only the slice matching typ is in use. Its content is a pure function of
// typ and the quad count.
type indexBuffer struct {
	typ   IndexType
	quads int
	u8    []uint8
	u16   []uint16
	u32   []uint32
}

// setup makes the buffer hold quads quads of typ indices. Switching the type
// releases the previous storage and regenerates every index.
func (b *indexBuffer) setup(typ IndexType, quads int) {
	if typ != b.typ {
		b.u8, b.u16, b.u32 = nil, nil, nil
		b.typ = typ
	}
	switch typ {
	case IndexUint8:
		b.u8 = resizeQuadIndices(b.u8, quads)
	case IndexUint16:
		b.u16 = resizeQuadIndices(b.u16, quads)
	case IndexUint32:
		b.u32 = resizeQuadIndices(b.u32, quads)
	}
	b.quads = quads
}

// reset drops all storage.
func (b *indexBuffer) reset() {
	*b = indexBuffer{}
}

// bytes appends the first quads quads of indices to dst in little-endian
// order.
func (b *indexBuffer) bytes(dst []byte, quads int) []byte {
	n := 6 * quads
	var err error
	switch b.typ {
	case IndexUint8:
		dst = append(dst, b.u8[:n]...)
	case IndexUint16:
		dst, err = binary.Append(dst, binary.LittleEndian, b.u16[:n])
	case IndexUint32:
		dst, err = binary.Append(dst, binary.LittleEndian, b.u32[:n])
	}
	if err != nil {
		// Fixed-size slices always encode.
		panic(err)
	}
	return dst
}

// appendUint32 appends the first quads quads of indices to dst, widened to
// 32 bits.
func (b *indexBuffer) appendUint32(dst []uint32, quads int) []uint32 {
	n := 6 * quads
	switch b.typ {
	case IndexUint8:
		dst = appendWidened(dst, b.u8[:n])
	case IndexUint16:
		dst = appendWidened(dst, b.u16[:n])
	case IndexUint32:
		dst = append(dst, b.u32[:n]...)
	}
	return dst
}

func appendWidened[T quadIndex](dst []uint32, src []T) []uint32 {
	for _, v := range src {
		dst = append(dst, uint32(v))
	}
	return dst
}
