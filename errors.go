package arbor

import "errors"

// Precondition failures reported by the flattener. Operations return them
// wrapped with context; test with errors.Is.
var (
	ErrFieldNotFound     = errors.New("field not found")
	ErrDimensionMismatch = errors.New("scene dimension mismatch")
	ErrMissingHierarchy  = errors.New("scene has no hierarchy")
	ErrSizeMismatch      = errors.New("bad output size")
	ErrHierarchyCycle    = errors.New("parent relation contains a cycle")
	ErrFieldType         = errors.New("unexpected field type")
	ErrInvalidScene      = errors.New("invalid scene data")
)

// Precondition failures reported by the glyph cache and the text renderer.
var (
	ErrInvalidGlyph               = errors.New("invalid glyph")
	ErrCacheFull                  = errors.New("glyph cache is full")
	ErrArrayGlyphCacheUnsupported = errors.New("array glyph caches are not supported")
	ErrFontNotInCache             = errors.New("font not found in glyph cache")
	ErrDrawOffsetOutOfBounds      = errors.New("draw range out of bounds")
)
