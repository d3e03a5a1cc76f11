package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deepteams/jxlframe/crop"
	"github.com/deepteams/jxlframe/internal/bitio"
	"github.com/deepteams/jxlframe/internal/geom"
	"github.com/deepteams/jxlframe/internal/toc"
	"github.com/deepteams/jxlframe/spline"
)

// fakeSplineReader replays a fixed sequence of varints per call; it
// exists so testParsers' lf_global parser can exercise spline.Decode
// without assembling a real entropy-coded byte stream, mirroring
// spline_test.go's fakeEntropyReader.
type fakeSplineReader struct {
	values []uint32
	pos    int
}

func (f *fakeSplineReader) ReadVarint(ctx int) (uint32, error) {
	if f.pos >= len(f.values) {
		return 0, errSplineReaderEOF
	}
	v := f.values[f.pos]
	f.pos++
	return v, nil
}

var errSplineReaderEOF = errors.New("fakeSplineReader: out of values")

func splineZigzag(v int32) uint32 {
	if v >= 0 {
		return uint32(v) * 2
	}
	return uint32(-v)*2 - 1
}

// oneSplineSinglePoint builds the varint sequence for one spline with a
// single (10, 20) absolute start point, zero quant_adjust and every DCT
// coefficient zero — the same fixture shape as spline_test.go's
// TestSingleSplineSinglePoint.
func oneSplineSinglePoint() []uint32 {
	values := []uint32{
		0,      // num_splines - 1 = 0 -> one spline
		10, 20, // start point: the first spline's start is read raw, not
		// zigzag-unpacked (spline.Decode only unpacks i != 0 points)
		splineZigzag(0), // quant_adjust
		0,                // num_points = 0
	}
	for c := 0; c < 3*32+32; c++ {
		values = append(values, splineZigzag(0))
	}
	return values
}

// section is one test fixture's raw bytes plus its TOC kind, used to
// build both the toc.Table and the backing buffer.
type section struct {
	kind toc.GroupKind
	data []byte
}

func buildBitstream(sections []section) ([]byte, *toc.Table) {
	var buf bytes.Buffer
	groups := make([]toc.Group, len(sections))
	for i, s := range sections {
		offsetBits := uint64(buf.Len()) * 8
		buf.Write(s.data)
		groups[i] = toc.Group{Kind: s.kind, Offset: offsetBits, Size: uint64(len(s.data))}
	}
	return buf.Bytes(), toc.New(false, groups)
}

func testHeader(encoding Encoding) *Header {
	return &Header{
		Width: 512, Height: 512,
		GroupDim: 256, LFGroupDim: 512,
		Encoding: encoding,
		Passes:   PassesInfo{Downsample: []uint32{1}, LastPass: []uint32{0}, NumPasses: 1},
	}
}

func fillTile(left, top, width, height uint32, marker byte) ModularTile {
	ch := make([]byte, int(width)*int(height))
	for i := range ch {
		ch[i] = marker
	}
	return ModularTile{Left: left, Top: top, Width: width, Height: height, Channels: [][]byte{ch}}
}

func testParsers() Parsers {
	return Parsers{
		LfGlobal: func(data []byte, header *Header, imageHeader *ImageHeader) (*LfGlobal, error) {
			splines, err := spline.Decode(&fakeSplineReader{values: oneSplineSinglePoint()}, header.NumPixels())
			if err != nil {
				return nil, err
			}
			return &LfGlobal{
				Image:       NewModularImage(header.Width, header.Height, 1),
				Splines:     splines,
				Correlation: &spline.ColorCorrelation{CorrX: 0, CorrB: 1},
			}, nil
		},
		LfGroup: func(data []byte, header *Header, lfGlobal *LfGlobal, idx uint32) (*LfGroup, error) {
			t := fillTile(0, 0, header.Width, header.Height, data[0])
			return &LfGroup{Tile: t}, nil
		},
		HfGlobal: func(data []byte, header *Header) (*HfGlobal, error) {
			return &HfGlobal{Raw: data}, nil
		},
		PassGroup: func(data []byte, header *Header, lfGlobal *LfGlobal, hfGlobal *HfGlobal, passIdx, groupIdx uint32, shift ShiftWindow) (*PassGroup, error) {
			perRow := header.GroupsPerRow()
			col, row := groupIdx%perRow, groupIdx/perRow
			t := fillTile(col*header.GroupDim, row*header.GroupDim, header.GroupDim, header.GroupDim, data[0])
			return &PassGroup{Tile: t}, nil
		},
	}
}

func TestSerialLoadAllModularDispatch(t *testing.T) {
	sections := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}},
		{toc.GroupPass(0, 1), []byte{0x11}},
		{toc.GroupPass(0, 2), []byte{0x12}},
		{toc.GroupPass(0, 3), []byte{0x13}},
	}
	buf, table := buildBitstream(sections)
	fr := New(&ImageHeader{}, testHeader(EncodingModular), table, testParsers(), nil)

	r := bitio.NewAlignedReader(buf)
	if err := fr.LoadAll(r); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if fr.Data().LfGlobal == nil {
		t.Fatalf("lf_global not populated")
	}
	if len(fr.Data().LfGroup) != 1 {
		t.Fatalf("len(LfGroup) = %d, want 1", len(fr.Data().LfGroup))
	}
	if len(fr.Data().GroupPass) != 4 {
		t.Fatalf("len(GroupPass) = %d, want 4", len(fr.Data().GroupPass))
	}
	if err := fr.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !fr.Data().LfGlobal.Image.InverseTransformApplied() {
		t.Fatalf("inverse transform not applied")
	}
}

// TestCompleteDequantizesSplines covers the lf_global -> spline.Decode ->
// Complete path end to end: the parsed (still-quantised) splines and
// their correlation must survive into FrameData as dequantised, arc-
// sampled splines once Complete runs.
func TestCompleteDequantizesSplines(t *testing.T) {
	sections := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}},
		{toc.GroupPass(0, 1), []byte{0x11}},
		{toc.GroupPass(0, 2), []byte{0x12}},
		{toc.GroupPass(0, 3), []byte{0x13}},
	}
	buf, table := buildBitstream(sections)
	fr := New(&ImageHeader{}, testHeader(EncodingModular), table, testParsers(), nil)

	if err := fr.LoadAll(bitio.NewAlignedReader(buf)); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if fr.Data().LfGlobal.Splines == nil || len(fr.Data().LfGlobal.Splines.QuantSplines) != 1 {
		t.Fatalf("lf_global splines not populated")
	}

	if err := fr.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(fr.Data().Splines) != 1 {
		t.Fatalf("len(Splines) = %d, want 1", len(fr.Data().Splines))
	}
	got := fr.Data().Splines[0]
	if len(got.Spline.Points) != 1 || got.Spline.Points[0] != geom.New(10, 20) {
		t.Fatalf("dequantised points = %v, want [(10,20)]", got.Spline.Points)
	}
	if len(got.Arcs) != 1 || got.Arcs[0].Point != geom.New(10, 20) || got.Arcs[0].Length != 1 {
		t.Fatalf("arcs = %+v", got.Arcs)
	}
}

// TestOutOfOrderLfGroupBeforeLfGlobal covers end-to-end scenario 5
// literally: LF-group 0 appears before lf_global in bitstream order.
// The serial loader must buffer its raw bytes and parse it once
// lf_global arrives, yielding FrameData identical to an in-order load.
func TestOutOfOrderLfGroupBeforeLfGlobal(t *testing.T) {
	outOfOrder := []section{
		{toc.LfGroup(0), []byte{0x01}},
		{toc.LfGlobal, []byte{0xAA}},
		{toc.GroupPass(0, 0), []byte{0x10}},
	}
	buf, table := buildBitstream(outOfOrder)
	fr := New(&ImageHeader{}, testHeader(EncodingModular), table, testParsers(), nil)
	if err := fr.LoadAll(bitio.NewAlignedReader(buf)); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	inOrder := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}},
	}
	buf2, table2 := buildBitstream(inOrder)
	ref := New(&ImageHeader{}, testHeader(EncodingModular), table2, testParsers(), nil)
	if err := ref.LoadAll(bitio.NewAlignedReader(buf2)); err != nil {
		t.Fatalf("LoadAll (reference): %v", err)
	}

	lg, ok := fr.Data().LfGroup[0]
	if !ok {
		t.Fatalf("LF-group 0 never parsed")
	}
	refLg := ref.Data().LfGroup[0]
	if !bytes.Equal(lg.Tile.Channels[0], refLg.Tile.Channels[0]) {
		t.Fatalf("out-of-order LF-group content diverges from in-order reference")
	}
	if len(fr.Data().GroupPass) != len(ref.Data().GroupPass) {
		t.Fatalf("group-pass count diverges: %d vs %d", len(fr.Data().GroupPass), len(ref.Data().GroupPass))
	}
}

// TestOutOfOrderHfGlobalParksPendingPassGroup covers a second out-of-order
// shape: a pass-group that arrives before the hf_global section it
// depends on is parked, then drained once hf_global arrives.
func TestOutOfOrderHfGlobalParksPendingPassGroup(t *testing.T) {
	sections := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}}, // before hf_global: must park
		{toc.HfGlobal, []byte{0xFF}},
		{toc.GroupPass(0, 1), []byte{0x11}},
	}
	buf, table := buildBitstream(sections)
	fr := New(&ImageHeader{}, testHeader(EncodingVarDCT), table, testParsers(), nil)

	r := bitio.NewAlignedReader(buf)
	if err := fr.LoadAll(r); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(fr.Data().GroupPass) != 2 {
		t.Fatalf("len(GroupPass) = %d, want 2 (pending group-pass not drained)", len(fr.Data().GroupPass))
	}
	if _, ok := fr.Data().GroupPass[PassGroupKey{Pass: 0, Group: 0}]; !ok {
		t.Fatalf("pass-group (0,0) never drained from pending")
	}
	if fr.Data().HfGlobal == nil {
		t.Fatalf("hf_global not populated")
	}
}

func TestCompleteFailsWithoutLfGlobal(t *testing.T) {
	fr := New(&ImageHeader{}, testHeader(EncodingModular), toc.New(true, []toc.Group{{Kind: toc.All, Offset: 0, Size: 1}}), testParsers(), nil)
	err := fr.Complete()
	if err == nil {
		t.Fatalf("expected ErrIncompleteFrameData")
	}
	if _, ok := err.(*ErrIncompleteFrameData); !ok {
		t.Fatalf("err = %T, want *ErrIncompleteFrameData", err)
	}
}

func TestCroppedLoadSkipsNonCollidingGroups(t *testing.T) {
	sections := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}}, // footprint (0,0,256,256)
		{toc.GroupPass(0, 1), []byte{0x11}}, // footprint (256,0,256,256)
		{toc.GroupPass(0, 2), []byte{0x12}}, // footprint (0,256,256,256)
		{toc.GroupPass(0, 3), []byte{0x13}}, // footprint (256,256,256,256)
	}
	buf, table := buildBitstream(sections)
	fr := New(&ImageHeader{}, testHeader(EncodingModular), table, testParsers(), nil)

	region := crop.Region{Left: 10, Top: 10, Width: 5, Height: 5} // only touches group 0
	r := bitio.NewAlignedReader(buf)
	if err := fr.LoadCropped(r, &region); err != nil {
		t.Fatalf("LoadCropped: %v", err)
	}
	if len(fr.Data().GroupPass) != 1 {
		t.Fatalf("len(GroupPass) = %d, want 1", len(fr.Data().GroupPass))
	}
	if _, ok := fr.Data().GroupPass[PassGroupKey{Pass: 0, Group: 0}]; !ok {
		t.Fatalf("expected only pass-group (0,0) to be decoded")
	}
}

// TestParallelMatchesSerial covers end-to-end scenario 6: the parallel
// loader must produce the same accumulated data as the serial loader
// for the same bitstream.
func TestParallelMatchesSerial(t *testing.T) {
	sections := []section{
		{toc.LfGlobal, []byte{0xAA}},
		{toc.LfGroup(0), []byte{0x01}},
		{toc.GroupPass(0, 0), []byte{0x10}},
		{toc.GroupPass(0, 1), []byte{0x11}},
		{toc.GroupPass(0, 2), []byte{0x12}},
		{toc.GroupPass(0, 3), []byte{0x13}},
	}
	buf, table := buildBitstream(sections)

	serial := New(&ImageHeader{}, testHeader(EncodingModular), table, testParsers(), nil)
	if err := serial.LoadAll(bitio.NewAlignedReader(buf)); err != nil {
		t.Fatalf("serial LoadAll: %v", err)
	}

	buf2, table2 := buildBitstream(sections)
	parallel := New(&ImageHeader{}, testHeader(EncodingModular), table2, testParsers(), nil)
	if err := parallel.LoadAllParallel(bitio.NewAlignedReader(buf2)); err != nil {
		t.Fatalf("parallel LoadAllParallel: %v", err)
	}

	if len(serial.Data().GroupPass) != len(parallel.Data().GroupPass) {
		t.Fatalf("group-pass count mismatch: serial=%d parallel=%d", len(serial.Data().GroupPass), len(parallel.Data().GroupPass))
	}
	for k, v := range serial.Data().GroupPass {
		pv, ok := parallel.Data().GroupPass[k]
		if !ok {
			t.Fatalf("parallel missing group-pass %+v", k)
		}
		if !bytes.Equal(v.Tile.Channels[0], pv.Tile.Channels[0]) {
			t.Fatalf("group-pass %+v tile mismatch", k)
		}
	}
}
