package frame

// ModularImage is the frame's assembled modular sub-image: one flat
// per-channel pixel buffer sized Width*Height. Decoding the channels'
// actual pixel values is the modular sub-image decoder's job (out of
// scope per spec.md §1); this type only models the buffer Complete
// assembles per-group tiles into and the one inverse transform
// Complete applies afterwards.
type ModularImage struct {
	Width, Height uint32
	Channels      [][]byte

	inverseTransformApplied bool
}

// NewModularImage allocates a zeroed image with the given channel count.
func NewModularImage(width, height uint32, numChannels int) *ModularImage {
	channels := make([][]byte, numChannels)
	for i := range channels {
		channels[i] = make([]byte, int(width)*int(height))
	}
	return &ModularImage{Width: width, Height: height, Channels: channels}
}

// InverseTransformApplied reports whether ApplyInverseModularTransform
// has run on this image.
func (m *ModularImage) InverseTransformApplied() bool {
	return m.inverseTransformApplied
}

// ApplyInverseModularTransform undoes the frame's declared modular
// transform (squeeze, delta palette, ...) on the assembled image. The
// transform math itself lives with the modular sub-image decoder;
// this hook only marks the image complete so callers downstream (final
// RGBA assembly, also out of scope) know the buffer is ready to read.
func (m *ModularImage) ApplyInverseModularTransform() {
	m.inverseTransformApplied = true
}

// ModularTile is one group's decoded modular sub-image: a rectangular
// patch of one or more channels plus its placement within the frame's
// full ModularImage.
type ModularTile struct {
	Left, Top     uint32
	Width, Height uint32
	Channels      [][]byte
}

// CopyInto blits this tile into dst at its recorded placement, one row
// at a time per channel. Channel counts and dst's bounds are assumed
// consistent with how the tile was produced; this is an internal
// assembly step, not a validated public API.
func (t ModularTile) CopyInto(dst *ModularImage) {
	for c := range t.Channels {
		if c >= len(dst.Channels) {
			break
		}
		src := t.Channels[c]
		for y := uint32(0); y < t.Height; y++ {
			srcRow := src[y*t.Width : (y+1)*t.Width]
			dstOff := (t.Top+y)*dst.Width + t.Left
			copy(dst.Channels[c][dstOff:dstOff+t.Width], srcRow)
		}
	}
}
