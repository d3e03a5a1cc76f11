// Package crop implements cropped-region selection: translating a
// user-requested region into frame-local coordinates, widening or
// dropping it when a global modular transform would otherwise corrupt
// a partial decode, and testing per-group spatial footprints for
// inclusion.
//
// Grounded on spec.md §4.F directly (no single teacher file implements
// this; the closest analogue in the teacher is
// internal/container/parser.go's habit of inspecting format flags
// before trusting declared geometry, e.g. VP8X's canvas dimensions).
package crop

import "log/slog"

// Region is an axis-aligned rectangle in pixel coordinates.
type Region struct {
	Left, Top, Width, Height uint32
}

// Rect is an axis-aligned rectangle used for footprint/collision tests.
// Left/Top are signed 64-bit so Collides can add a width or height to
// them without overflowing.
type Rect struct {
	Left, Top     int64
	Width, Height uint32
}

// ModularFlags carries the two LF-global modular-transform flags the
// crop planner inspects (spec.md §4.F step 2).
type ModularFlags struct {
	DeltaPalette bool
	Squeeze      bool
}

// Translate moves a region from image coordinates into frame-local
// coordinates by saturating signed subtraction of the frame's crop
// offset (x0, y0), per spec.md §4.F step 1.
func Translate(region Region, x0, y0 int32) Region {
	return Region{
		Left:   satSub(region.Left, x0),
		Top:    satSub(region.Top, y0),
		Width:  region.Width,
		Height: region.Height,
	}
}

// satSub computes left - x0 as an unsigned saturating subtraction:
// negative results clamp to 0, matching Rust's
// `left.saturating_add_signed(-x0)`.
func satSub(left uint32, x0 int32) uint32 {
	v := int64(left) - int64(x0)
	if v < 0 {
		return 0
	}
	if v > int64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(v)
}

// Plan applies the delta-palette/squeeze soft fallbacks to a
// frame-local region, logging a diagnostic whenever either fires. A
// nil returned region means "decode the whole frame" (delta palette
// forces this); a non-nil returned region may have been widened
// in-place (squeeze).
func Plan(region *Region, flags ModularFlags, logger *slog.Logger) *Region {
	if logger == nil {
		logger = slog.Default()
	}

	if flags.DeltaPalette {
		if region != nil {
			logger.Warn("crop: GlobalModular has delta palette, forcing full decode")
		}
		return nil
	}

	if flags.Squeeze && region != nil {
		widened := Region{
			Left:   0,
			Top:    0,
			Width:  region.Width + region.Left,
			Height: region.Height + region.Top,
		}
		logger.Warn("crop: GlobalModular has squeeze, decoding from top-left")
		return &widened
	}

	return region
}

// Footprint computes the spatial rectangle one LF-group or pass-group
// occupies, per spec.md §4.F step 3: index idx in a grid of groupsPerRow
// columns, each cell groupDim x groupDim.
func Footprint(idx, groupsPerRow, groupDim uint32) Rect {
	col := idx % groupsPerRow
	row := idx / groupsPerRow
	return Rect{
		Left:   int64(col * groupDim),
		Top:    int64(row * groupDim),
		Width:  groupDim,
		Height: groupDim,
	}
}

// Collides reports whether two axis-aligned rectangles overlap. It
// returns false iff one rectangle lies strictly outside the other's
// extent along at least one axis (spec.md §4.F step 4 / §8).
func Collides(a, b Rect) bool {
	return a.Left < b.Left+int64(b.Width) &&
		a.Left+int64(a.Width) > b.Left &&
		a.Top < b.Top+int64(b.Height) &&
		a.Top+int64(a.Height) > b.Top
}

// RegionRect converts a Region to a Rect for use with Collides.
func RegionRect(r Region) Rect {
	return Rect{Left: int64(r.Left), Top: int64(r.Top), Width: r.Width, Height: r.Height}
}
