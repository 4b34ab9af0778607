package arbor

import "log/slog"

// debugMaxChainDepth is the parent chain length above which the flattener
// warns. Chains this deep are usually a scene built as a linked list by
// mistake.
const debugMaxChainDepth = 32

// debugCheckChainDepth warns if a flattening pass walked a chain deeper than
// debugMaxChainDepth.
func debugCheckChainDepth(op string, depth int) {
	if depth > debugMaxChainDepth {
		Logger().Warn("deep transformation hierarchy",
			slog.String("op", op),
			slog.Int("depth", depth),
			slog.Int("threshold", debugMaxChainDepth))
	}
}

// debugMaxBatchGlyphs is the glyph count above which a renderer warns once
// about a batch that keeps growing without Clear.
const debugMaxBatchGlyphs = 1 << 20

// batchStats describes one Add call on a Renderer.
type batchStats struct {
	shaped   int // glyphs returned by the shaper
	appended int // quads written
	skipped  int // glyphs missing from the cache
}

// debugLog reports add statistics and growth events at debug level.
func (r *Renderer) debugLog(stats batchStats) {
	l := Logger()
	if stats.skipped > 0 {
		l.Debug("glyphs missing from cache",
			slog.Int("skipped", stats.skipped),
			slog.Int("shaped", stats.shaped))
	}
	if r.glyphCount > debugMaxBatchGlyphs && !r.warnedSize {
		r.warnedSize = true
		l.Warn("glyph batch is very large, missing Clear?",
			slog.Int("glyphs", r.glyphCount),
			slog.Int("threshold", debugMaxBatchGlyphs))
	}
}
