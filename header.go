// Package frame implements the frame decoder core: table-of-contents
// driven section dispatch (serial or parallel), cropped-region
// selection, and completion of the per-group modular sub-images into
// the frame's global modular image.
//
// Grounded on original_source/crates/jxl-frame/src/lib.rs, with the
// top-level API shape (exported constructors, typed error structs
// with an Error method) following the teacher's webp.go.
package frame

import "github.com/deepteams/jxlframe/internal/numeric"

// Encoding distinguishes the two coding paths a frame can use.
type Encoding int

const (
	EncodingModular Encoding = iota
	EncodingVarDCT
)

// PassesInfo is the subset of the frame header's progressive-pass
// declaration the loader needs: per-pass downsample factors and which
// pass is the last to touch each resolution shift.
type PassesInfo struct {
	// Downsample holds, for each shift "band", that band's downsample
	// factor (a power of two).
	Downsample []uint32
	// LastPass holds the index of the last pass that completes the
	// corresponding Downsample band.
	LastPass []uint32
	// NumPasses is the total number of progressive passes.
	NumPasses uint32
}

// Header is the subset of frame-header fields the loader, crop planner
// and scheduler branch on. A real header parser (out of scope per
// spec.md §1) would supply this; it is not a parser itself.
type Header struct {
	Width, Height        uint32
	X0, Y0                int32
	HaveCrop              bool
	Encoding              Encoding
	GroupDim, LFGroupDim  uint32
	Passes                PassesInfo
}

// NumPixels returns width * height.
func (h *Header) NumPixels() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}

// GroupsPerRow returns the number of pass-groups per row.
func (h *Header) GroupsPerRow() uint32 {
	return numeric.CeilDiv(h.Width, h.GroupDim)
}

// LfGroupsPerRow returns the number of LF-groups per row.
func (h *Header) LfGroupsPerRow() uint32 {
	return numeric.CeilDiv(h.Width, h.LFGroupDim)
}

// ImageHeader is the subset of the (out-of-scope) image header the
// loader needs: the renderer's bit depth and where the alpha channel,
// if any, lives among the modular channels.
type ImageHeader struct {
	BitDepth          uint32
	AlphaChannelIndex *int
}

// ShiftWindow is a pass's resolution shift window [MinShift, MaxShift],
// looked up by pass index (spec.md §3, "pass_idx -> (min_shift, max_shift)").
type ShiftWindow struct {
	MinShift, MaxShift int32
}

// computePassShifts derives each pass's shift window from the header's
// downsample/last-pass declaration, exactly as
// original_source/crates/jxl-frame/src/lib.rs's Frame::parse does: each
// band's last pass gets [minshift, maxshift) where minshift is that
// band's downsample's trailing-zero count, and the final pass gets
// [0, maxshift).
func computePassShifts(h *Header) map[uint32]ShiftWindow {
	shifts := make(map[uint32]ShiftWindow)
	maxShift := int32(3)
	n := len(h.Passes.Downsample)
	if len(h.Passes.LastPass) < n {
		n = len(h.Passes.LastPass)
	}
	for i := 0; i < n; i++ {
		downsample := h.Passes.Downsample[i]
		lastPass := h.Passes.LastPass[i]
		minShift := int32(trailingZeros32(downsample))
		shifts[lastPass] = ShiftWindow{MinShift: minShift, MaxShift: maxShift}
		maxShift = minShift
	}
	if h.Passes.NumPasses > 0 {
		shifts[h.Passes.NumPasses-1] = ShiftWindow{MinShift: 0, MaxShift: maxShift}
	}
	return shifts
}

func trailingZeros32(x uint32) int {
	if x == 0 {
		return 32
	}
	n := 0
	for x&1 == 0 {
		x >>= 1
		n++
	}
	return n
}
