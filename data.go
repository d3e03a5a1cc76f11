package frame

import (
	"github.com/deepteams/jxlframe/crop"
	"github.com/deepteams/jxlframe/spline"
)

// LfGlobal is the parsed "lf_global" section: it is always the first
// section completely parsed for a frame and carries the flags the crop
// planner inspects, the decorative splines this frame carries (if any),
// the base colour correlation those splines dequantise against, and the
// low-frequency modular image every LF-group and pass-group tile
// eventually gets copied into.
type LfGlobal struct {
	Flags       crop.ModularFlags
	Splines     *spline.Splines
	Correlation *spline.ColorCorrelation
	Image       *ModularImage
}

// DequantizedSpline pairs one spline's dequantised control points and
// DCT coefficients with the unit-length-resampled arc samples a
// downstream renderer walks to paint it; producing the arcs is this
// decoder's job, painting them is not (spec.md's glossary).
type DequantizedSpline struct {
	Spline spline.Spline
	Arcs   []spline.SplineArc
}

// LfGroup is one LF-group's decoded tile.
type LfGroup struct {
	Tile ModularTile
}

// HfGlobal is the opaque VarDCT "hf_global" section. Per the resolved
// open question (SPEC_FULL.md §9), this decoder does not parse
// VarDCT-specific contents; it stores the section's raw bytes so a
// VarDCT-capable collaborator can parse them later, and so its mere
// presence can still satisfy pass-group dependencies.
type HfGlobal struct {
	Raw []byte
}

// PassGroup is one (pass, group) pair's decoded tile.
type PassGroup struct {
	Tile ModularTile
}

// PassGroupKey identifies a pass-group by its pass and spatial group
// index; it is the map key FrameData and the parallel scheduler use.
type PassGroupKey struct {
	Pass  uint32
	Group uint32
}

// FrameData accumulates the sections read off the bitstream (or off
// the parallel scheduler's result maps) until Complete assembles them.
type FrameData struct {
	LfGlobal *LfGlobal
	LfGroup  map[uint32]LfGroup

	// hfGlobalRead models Option<Option<HfGlobal>>: false means the
	// section has not been read yet; true with HfGlobal == nil means it
	// was read and is absent by design (a Modular-only frame never has
	// a VarDCT hf_global section).
	hfGlobalRead bool
	HfGlobal     *HfGlobal

	GroupPass map[PassGroupKey]PassGroup

	// Splines holds lf_global's decorative splines, dequantised against
	// Correlation and arc-sampled, once Complete has run. Empty when
	// lf_global carried none.
	Splines []DequantizedSpline
	// SplineEstimatedArea is the running total of every spline's
	// estimated render cost (spec.md §4.C); the caller is expected to
	// compare it against a format-defined budget.
	SplineEstimatedArea uint64
}

func newFrameData(header *Header) *FrameData {
	fd := &FrameData{
		LfGroup:   make(map[uint32]LfGroup),
		GroupPass: make(map[PassGroupKey]PassGroup),
	}
	if header.Encoding != EncodingVarDCT {
		fd.hfGlobalRead = true
	}
	return fd
}

func (fd *FrameData) setHfGlobal(hg *HfGlobal) {
	fd.hfGlobalRead = true
	fd.HfGlobal = hg
}

// complete drains every buffered LF-group and pass-group tile into the
// frame's modular image and applies the frame's inverse modular
// transform, per original_source/crates/jxl-frame/src/lib.rs's
// FrameData::complete. It fails if lf_global never arrived.
func (fd *FrameData) complete(header *Header) error {
	if fd.LfGlobal == nil {
		return &ErrIncompleteFrameData{Field: "lf_global"}
	}
	if fd.LfGlobal.Image == nil {
		return &ErrIncompleteFrameData{Field: "lf_global.image"}
	}

	for _, lg := range fd.LfGroup {
		lg.Tile.CopyInto(fd.LfGlobal.Image)
	}
	fd.LfGroup = make(map[uint32]LfGroup)

	for _, pg := range fd.GroupPass {
		pg.Tile.CopyInto(fd.LfGlobal.Image)
	}
	fd.GroupPass = make(map[PassGroupKey]PassGroup)

	fd.LfGlobal.Image.ApplyInverseModularTransform()

	if fd.LfGlobal.Splines != nil {
		quant := fd.LfGlobal.Splines
		fd.Splines = make([]DequantizedSpline, len(quant.QuantSplines))
		for i := range quant.QuantSplines {
			sp := quant.QuantSplines[i].Dequant(quant.QuantAdjust, fd.LfGlobal.Correlation, &fd.SplineEstimatedArea)
			fd.Splines[i] = DequantizedSpline{Spline: sp, Arcs: sp.Samples()}
		}
	}
	return nil
}
