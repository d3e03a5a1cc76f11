package frame

import (
	"sync"

	"github.com/deepteams/jxlframe/crop"
	"github.com/deepteams/jxlframe/internal/bitio"
	"github.com/deepteams/jxlframe/internal/toc"
	"github.com/deepteams/jxlframe/internal/workpool"
)

// LoadAllParallel loads every section of the frame's table of contents,
// parsing independent LF-groups and pass-groups on a worker pool while
// the calling goroutine keeps advancing the bitstream.
func (f *Frame) LoadAllParallel(r bitio.BitReader) error {
	return f.loadCroppedParallel(r, nil)
}

// LoadCroppedParallel is LoadAllParallel restricted to groups whose
// footprint can contribute to region.
func (f *Frame) LoadCroppedParallel(r bitio.BitReader, region *crop.Region) error {
	return f.loadCroppedParallel(r, region)
}

func (f *Frame) loadCroppedParallel(r bitio.BitReader, region *crop.Region) error {
	if f.toc.IsSingleEntry() {
		return f.readGroup(r, f.toc.LfGlobalEntry())
	}

	translated := region
	if region != nil && f.header.HaveCrop {
		t := crop.Translate(*region, f.header.X0, f.header.Y0)
		translated = &t
	}

	lfQueue := workpool.NewQueue[uint32, LfGroup]()
	passQueue := workpool.NewQueue[PassGroupKey, PassGroup]()

	groups := f.toc.IterBitstreamOrder()

	// Drain groups on the main goroutine until both lf_global and (for
	// VarDCT frames) hf_global have arrived — everything spatial is
	// fanned out to the queues as it's read, since its own eligibility
	// is resolved later by the worker, not by read order.
	idx := 0
	for ; idx < len(groups); idx++ {
		if f.data.LfGlobal != nil && f.data.hfGlobalRead {
			break
		}
		g := groups[idx]
		if err := r.SkipToBookmark(g.Offset); err != nil {
			return err
		}
		buf := make([]byte, g.Size)
		if err := r.ReadBytesAligned(buf); err != nil {
			return err
		}
		switch g.Kind.Kind {
		case toc.KindLfGlobal:
			lg, err := f.parsers.LfGlobal(buf, f.header, f.imageHeader)
			if err != nil {
				return err
			}
			f.data.LfGlobal = lg
		case toc.KindHfGlobal:
			hg, err := f.parsers.HfGlobal(buf, f.header)
			if err != nil {
				return err
			}
			f.data.setHfGlobal(hg)
		case toc.KindLfGroup:
			lfQueue.Send(g.Kind.LfGroupIdx, buf)
		case toc.KindGroupPass:
			passQueue.Send(PassGroupKey{Pass: g.Kind.PassIdx, Group: g.Kind.GroupIdx}, buf)
		default:
			return &ErrUnexpectedGroupKind{Kind: g.Kind.Kind.String()}
		}
	}

	if f.data.LfGlobal == nil {
		lfQueue.Close()
		passQueue.Close()
		return &ErrIncompleteFrameData{Field: "lf_global"}
	}

	translated = crop.Plan(translated, f.data.LfGlobal.Flags, f.logger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lfQueue.Run(func(idx uint32) bool {
			if translated == nil {
				return true
			}
			fp := crop.Footprint(idx, f.header.LfGroupsPerRow(), f.header.LFGroupDim)
			return crop.Collides(crop.RegionRect(*translated), fp)
		}, func(idx uint32, buf []byte) (LfGroup, error) {
			lg, err := f.parsers.LfGroup(buf, f.header, f.data.LfGlobal, idx)
			if err != nil {
				return LfGroup{}, err
			}
			return *lg, nil
		})
	}()
	go func() {
		defer wg.Done()
		passQueue.Run(func(key PassGroupKey) bool {
			if translated == nil {
				return true
			}
			fp := crop.Footprint(key.Group, f.header.GroupsPerRow(), f.header.GroupDim)
			return crop.Collides(crop.RegionRect(*translated), fp)
		}, func(key PassGroupKey, buf []byte) (PassGroup, error) {
			shift := f.passShifts[key.Pass]
			pg, err := f.parsers.PassGroup(buf, f.header, f.data.LfGlobal, f.data.HfGlobal, key.Pass, key.Group, shift)
			if err != nil {
				return PassGroup{}, err
			}
			return *pg, nil
		})
	}()

	// Even if a worker later reports an error, the remaining TOC still
	// needs draining to advance the bitstream for whatever comes after
	// this frame; only an I/O failure on our own reads stops early.
	var ioErr error
	for ; idx < len(groups); idx++ {
		g := groups[idx]
		if err := r.SkipToBookmark(g.Offset); err != nil {
			ioErr = err
			break
		}
		buf := make([]byte, g.Size)
		if err := r.ReadBytesAligned(buf); err != nil {
			ioErr = err
			break
		}
		switch g.Kind.Kind {
		case toc.KindLfGroup:
			lfQueue.Send(g.Kind.LfGroupIdx, buf)
		case toc.KindGroupPass:
			passQueue.Send(PassGroupKey{Pass: g.Kind.PassIdx, Group: g.Kind.GroupIdx}, buf)
		default:
			ioErr = &ErrUnexpectedGroupKind{Kind: g.Kind.Kind.String()}
		}
	}
	lfQueue.Close()
	passQueue.Close()
	wg.Wait()

	lfResults, lfErr := lfQueue.Collect()
	passResults, passErr := passQueue.Collect()

	if ioErr != nil {
		return ioErr
	}
	if lfErr != nil {
		return lfErr
	}
	if passErr != nil {
		return passErr
	}

	f.data.LfGroup = lfResults
	f.data.GroupPass = passResults
	return nil
}
