package frame

import (
	"log/slog"

	"github.com/deepteams/jxlframe/internal/bitio"
	"github.com/deepteams/jxlframe/internal/toc"
)

// LfGlobalParseFunc parses the "lf_global" section's bytes. Parsing the
// actual modular sub-image wire format is the modular sub-image
// decoder's job (out of scope per spec.md §1); Frame only needs the
// result.
type LfGlobalParseFunc func(data []byte, header *Header, imageHeader *ImageHeader) (*LfGlobal, error)

// LfGroupParseFunc parses one LF-group's bytes.
type LfGroupParseFunc func(data []byte, header *Header, lfGlobal *LfGlobal, lfGroupIdx uint32) (*LfGroup, error)

// HfGlobalParseFunc parses the "hf_global" section's bytes. It may
// return a nil *HfGlobal with a nil error for a Modular-only frame that
// unexpectedly carries an empty section.
type HfGlobalParseFunc func(data []byte, header *Header) (*HfGlobal, error)

// PassGroupParseFunc parses one (pass, group) pass-group's bytes.
type PassGroupParseFunc func(data []byte, header *Header, lfGlobal *LfGlobal, hfGlobal *HfGlobal, passIdx, groupIdx uint32, shift ShiftWindow) (*PassGroup, error)

// AllParseFunc parses a single-entry TOC's one group, which linearly
// packs lf_global, lf_group 0, hf_global (if any) and pass-group (0,0)
// with no separate offsets between them. Because only this function
// knows where one sub-section ends and the next begins, it owns that
// sequential walk itself; Frame only orchestrates the result.
type AllParseFunc func(data []byte, header *Header, imageHeader *ImageHeader) (lfGlobal *LfGlobal, lfGroup *LfGroup, hfGlobal *HfGlobal, passGroup *PassGroup, err error)

// Parsers is the set of external collaborators Frame dispatches
// section bytes to. Every field is required except HfGlobal, which is
// only invoked for VarDCT-encoded frames.
type Parsers struct {
	LfGlobal  LfGlobalParseFunc
	LfGroup   LfGroupParseFunc
	HfGlobal  HfGlobalParseFunc
	PassGroup PassGroupParseFunc
	All       AllParseFunc
}

// Frame is the frame decoder core: it owns the table of contents, the
// section dispatch logic (serial or parallel), and the accumulated
// FrameData, but delegates every section's actual bitstream parsing to
// the injected Parsers.
type Frame struct {
	imageHeader *ImageHeader
	header      *Header
	toc         *toc.Table
	data        *FrameData
	passShifts  map[uint32]ShiftWindow
	pending     map[toc.GroupKind][]byte
	parsers     Parsers
	logger      *slog.Logger
}

// New builds a Frame ready to load sections for the given header and
// table of contents. logger may be nil, in which case slog.Default()
// is used, matching the teacher's diagnostics convention.
func New(imageHeader *ImageHeader, header *Header, table *toc.Table, parsers Parsers, logger *slog.Logger) *Frame {
	if logger == nil {
		logger = slog.Default()
	}
	return &Frame{
		imageHeader: imageHeader,
		header:      header,
		toc:         table,
		data:        newFrameData(header),
		passShifts:  computePassShifts(header),
		pending:     make(map[toc.GroupKind][]byte),
		parsers:     parsers,
		logger:      logger,
	}
}

// Data returns the frame's accumulated section data. It is only safe
// to read once loading has finished (serial: the loader call returned;
// parallel: the loader call returned).
func (f *Frame) Data() *FrameData {
	return f.data
}

// Complete drains every buffered group tile into the frame's modular
// image and applies the frame's inverse modular transform.
func (f *Frame) Complete() error {
	return f.data.complete(f.header)
}

// readGroup seeks to g's bookmark, reads its bytes, and dispatches them
// by kind. It is the single generic section dispatcher both the serial
// and parallel loaders' "read directly off the bitstream" paths funnel
// through.
func (f *Frame) readGroup(r bitio.BitReader, g toc.Group) error {
	if err := r.SkipToBookmark(g.Offset); err != nil {
		return err
	}
	buf := make([]byte, g.Size)
	if err := r.ReadBytesAligned(buf); err != nil {
		return err
	}

	if g.Kind.Kind == toc.KindAll {
		lfGlobal, lfGroup, hfGlobal, passGroup, err := f.parsers.All(buf, f.header, f.imageHeader)
		if err != nil {
			return err
		}
		f.data.LfGlobal = lfGlobal
		if lfGroup != nil {
			f.data.LfGroup[0] = *lfGroup
		}
		f.data.setHfGlobal(hfGlobal)
		if passGroup != nil {
			f.data.GroupPass[PassGroupKey{Pass: 0, Group: 0}] = *passGroup
		}
		return nil
	}

	return f.readGroupWithBuf(g, buf)
}

// readGroupWithBuf dispatches already-read section bytes by kind,
// parking LfGroup/GroupPass sections whose dependency (lf_global, or
// lf_global+hf_global) has not yet arrived into f.pending rather than
// failing outright — out-of-order sections are expected, not an error
// (spec.md §4.E, end-to-end scenario 5).
func (f *Frame) readGroupWithBuf(g toc.Group, buf []byte) error {
	switch g.Kind.Kind {
	case toc.KindLfGlobal:
		lg, err := f.parsers.LfGlobal(buf, f.header, f.imageHeader)
		if err != nil {
			return err
		}
		f.data.LfGlobal = lg
		return f.tryPendingBlocks()

	case toc.KindLfGroup:
		if f.data.LfGlobal == nil {
			f.pending[g.Kind] = buf
			return nil
		}
		lg, err := f.parsers.LfGroup(buf, f.header, f.data.LfGlobal, g.Kind.LfGroupIdx)
		if err != nil {
			return err
		}
		f.data.LfGroup[g.Kind.LfGroupIdx] = *lg
		return nil

	case toc.KindHfGlobal:
		hg, err := f.parsers.HfGlobal(buf, f.header)
		if err != nil {
			return err
		}
		f.data.setHfGlobal(hg)
		return f.tryPendingBlocks()

	case toc.KindGroupPass:
		if f.data.LfGlobal == nil || !f.data.hfGlobalRead {
			f.pending[g.Kind] = buf
			return nil
		}
		shift := f.passShifts[g.Kind.PassIdx]
		pg, err := f.parsers.PassGroup(buf, f.header, f.data.LfGlobal, f.data.HfGlobal, g.Kind.PassIdx, g.Kind.GroupIdx, shift)
		if err != nil {
			return err
		}
		f.data.GroupPass[PassGroupKey{Pass: g.Kind.PassIdx, Group: g.Kind.GroupIdx}] = *pg
		return nil

	default:
		return &ErrUnexpectedGroupKind{Kind: g.Kind.Kind.String()}
	}
}

// tryPendingBlocks re-scans f.pending after every dependency arrival
// (lf_global, hf_global) and dispatches whatever is now eligible,
// repeating to a fixpoint since draining one pending LfGroup can never
// newly satisfy another pending entry, but draining is still cheap
// insurance against a pending GroupPass that became eligible only once
// both lf_global and hf_global are in.
func (f *Frame) tryPendingBlocks() error {
	for {
		progressed := false
		for k, buf := range f.pending {
			ready := false
			switch k.Kind {
			case toc.KindLfGroup:
				ready = f.data.LfGlobal != nil
			case toc.KindGroupPass:
				ready = f.data.LfGlobal != nil && f.data.hfGlobalRead
			}
			if !ready {
				continue
			}
			delete(f.pending, k)
			if err := f.readGroupWithBuf(toc.Group{Kind: k}, buf); err != nil {
				return err
			}
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}
