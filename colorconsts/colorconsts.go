// Package colorconsts exposes the colour-space constants the renderer
// needs downstream of the frame decoder: standard illuminant
// chromaticities and primary sets. The decoder core itself does not
// interpret these; it only surfaces them, the same way sharpyuv/csp.go
// in the teacher exposes named BT601/BT709 colour-space tables for its
// callers without doing colour management itself.
package colorconsts

// Illuminant is a standard illuminant's xy chromaticity.
type Illuminant struct {
	X, Y float32
}

// Standard illuminants.
var (
	IlluminantD65 = Illuminant{X: 0.3127, Y: 0.329}
	IlluminantE   = Illuminant{X: 1.0 / 3.0, Y: 1.0 / 3.0}
	IlluminantDCI = Illuminant{X: 0.314, Y: 0.351}

	// IlluminantD50's xy value is chosen so that the derived
	// chromatic-adaptation tag matches a specific reference
	// implementation (see original_source/crates/jxl-color/src/consts.rs).
	IlluminantD50 = Illuminant{X: 0.345669, Y: 0.358496}
)

// Chromaticity is the xy chromaticity of one colour primary.
type Chromaticity struct {
	X, Y float32
}

// Primaries holds the red/green/blue chromaticities of a colour gamut.
type Primaries struct {
	R, G, B Chromaticity
}

// Standard primary sets.
var (
	PrimariesSRGB = Primaries{
		R: Chromaticity{0.639998686, 0.330010138},
		G: Chromaticity{0.300003784, 0.600003357},
		B: Chromaticity{0.150002046, 0.059997204},
	}

	PrimariesBT2100 = Primaries{
		R: Chromaticity{0.708, 0.292},
		G: Chromaticity{0.170, 0.797},
		B: Chromaticity{0.131, 0.046},
	}

	PrimariesP3 = Primaries{
		R: Chromaticity{0.680, 0.320},
		G: Chromaticity{0.265, 0.690},
		B: Chromaticity{0.150, 0.060},
	}
)
