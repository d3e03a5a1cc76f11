package bitio

import "fmt"

// Decoder implements EntropyReader over a fixed set of symbol contexts.
// It is constructed the way the format's real prefix/ANS decoder is
// ("declared number of contexts", then Begin(data) before any reads),
// but the actual per-context tables are a simplified Elias-gamma-style
// bit code: this module does not own the real entropy tables (spec.md
// §1 places the entropy layer out of scope), so it provides a concrete
// stand-in with the same call shape for the rest of the module to
// exercise and test against.
type Decoder struct {
	numContexts int
	pull        *bitPull
}

// NewDecoder declares a decoder with the given number of symbol
// contexts. It must be followed by Begin before any ReadVarint call.
func NewDecoder(numContexts int) *Decoder {
	return &Decoder{numContexts: numContexts}
}

// Begin attaches the decoder to the byte buffer to read symbols from.
func (d *Decoder) Begin(data []byte) error {
	d.pull = newBitPull(data)
	return nil
}

// ReadVarint reads one entropy-coded unsigned integer from the given
// symbol context.
func (d *Decoder) ReadVarint(ctx int) (uint32, error) {
	if ctx < 0 || ctx >= d.numContexts {
		return 0, fmt.Errorf("bitio: context %d out of range [0,%d)", ctx, d.numContexts)
	}
	if d.pull == nil {
		return 0, fmt.Errorf("bitio: ReadVarint before Begin")
	}

	// Elias-gamma: unary prefix gives the bit length of the payload,
	// then that many raw bits give the payload; value = (1<<n - 1) + payload.
	n := 0
	for {
		bit, err := d.pull.readBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		n++
		if n > 32 {
			return 0, fmt.Errorf("bitio: varint prefix too long")
		}
	}
	if n == 0 {
		return 0, nil
	}
	payload, err := d.pull.readBits(n)
	if err != nil {
		return 0, err
	}
	return (uint32(1)<<uint(n) - 1) + payload, nil
}

// UnpackSigned zig-zag decodes an unsigned integer into a signed one:
// even values map to +u/2, odd values map to -(u+1)/2.
func UnpackSigned(u uint32) int32 {
	if u%2 == 0 {
		return int32(u / 2)
	}
	return -int32((u + 1) / 2)
}
