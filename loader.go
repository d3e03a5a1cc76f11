package frame

import (
	"github.com/deepteams/jxlframe/crop"
	"github.com/deepteams/jxlframe/internal/bitio"
	"github.com/deepteams/jxlframe/internal/toc"
)

// LoadAll serially loads every section of the frame's table of
// contents.
func (f *Frame) LoadAll(r bitio.BitReader) error {
	return f.loadCropped(r, nil)
}

// LoadCropped serially loads only the sections whose spatial footprint
// can contribute to region, once lf_global's modular flags are known.
// A nil region behaves exactly like LoadAll.
func (f *Frame) LoadCropped(r bitio.BitReader, region *crop.Region) error {
	return f.loadCropped(r, region)
}

type bufferedGroup struct {
	group toc.Group
	buf   []byte
}

func (f *Frame) loadCropped(r bitio.BitReader, region *crop.Region) error {
	if f.toc.IsSingleEntry() {
		return f.readGroup(r, f.toc.LfGlobalEntry())
	}

	translated := region
	if region != nil && f.header.HaveCrop {
		t := crop.Translate(*region, f.header.X0, f.header.Y0)
		translated = &t
	}

	groups := f.toc.IterBitstreamOrder()

	// Buffer every section that precedes lf_global in bitstream order —
	// it cannot be crop-filtered yet, since the flags that decide
	// whether crop applies at all live inside lf_global itself.
	var early []bufferedGroup
	idx := 0
	for ; idx < len(groups); idx++ {
		g := groups[idx]
		if g.Kind.Kind == toc.KindLfGlobal {
			if err := f.readGroup(r, g); err != nil {
				return err
			}
			idx++
			break
		}
		if err := r.SkipToBookmark(g.Offset); err != nil {
			return err
		}
		buf := make([]byte, g.Size)
		if err := r.ReadBytesAligned(buf); err != nil {
			return err
		}
		early = append(early, bufferedGroup{group: g, buf: buf})
	}

	if f.data.LfGlobal == nil {
		return &ErrIncompleteFrameData{Field: "lf_global"}
	}

	translated = crop.Plan(translated, f.data.LfGlobal.Flags, f.logger)

	handle := func(g toc.Group, buf []byte) error {
		if translated != nil && !f.groupInCrop(g.Kind, *translated) {
			return nil
		}
		if buf != nil {
			return f.readGroupWithBuf(g, buf)
		}
		return f.readGroup(r, g)
	}

	for _, b := range early {
		if err := handle(b.group, b.buf); err != nil {
			return err
		}
	}
	for ; idx < len(groups); idx++ {
		if err := handle(groups[idx], nil); err != nil {
			return err
		}
	}
	return nil
}

// groupInCrop reports whether kind's spatial footprint collides with
// region. Kinds without a spatial footprint (lf_global, hf_global, the
// single-entry "all" kind) always pass.
func (f *Frame) groupInCrop(kind toc.GroupKind, region crop.Region) bool {
	switch kind.Kind {
	case toc.KindLfGroup:
		fp := crop.Footprint(kind.LfGroupIdx, f.header.LfGroupsPerRow(), f.header.LFGroupDim)
		return crop.Collides(crop.RegionRect(region), fp)
	case toc.KindGroupPass:
		fp := crop.Footprint(kind.GroupIdx, f.header.GroupsPerRow(), f.header.GroupDim)
		return crop.Collides(crop.RegionRect(region), fp)
	default:
		return true
	}
}
