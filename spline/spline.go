// Package spline decodes, dequantises, upsamples and arc-length
// resamples the decorative splines a frame may carry: delta-coded
// quantised control points plus 32-coefficient continuous-IDCT
// representations of XYB colour and width (sigma).
//
// Grounded throughout on original_source/crates/jxl-frame/src/data/spline.rs.
package spline

import (
	"errors"
	"fmt"
	"math"

	"github.com/deepteams/jxlframe/internal/bitio"
	"github.com/deepteams/jxlframe/internal/geom"
	"github.com/deepteams/jxlframe/internal/numeric"
)

const (
	maxNumSplines        = 1 << 24
	maxNumControlPoints  = 1 << 20
	numSplineDctChannels = 3
	numDctCoeffs         = 32
)

// ErrTooManySplines is returned when the spline count exceeds
// min(maxNumSplines, numPixels/4).
type ErrTooManySplines struct{ N int }

func (e *ErrTooManySplines) Error() string {
	return fmt.Sprintf("spline: too many splines (%d)", e.N)
}

// ErrTooManySplinePoints is returned when one spline's point count
// exceeds min(maxNumControlPoints, numPixels/2).
type ErrTooManySplinePoints struct{ N int }

func (e *ErrTooManySplinePoints) Error() string {
	return fmt.Sprintf("spline: too many spline points (%d)", e.N)
}

// QuantSpline holds one spline's on-wire (quantised) representation:
// an absolute-or-delta start point, second-difference-coded point
// deltas, and quantised XYB/sigma DCT coefficients.
type QuantSpline struct {
	StartPoint   [2]int32
	PointsDeltas [][2]int32
	XYBDct       [numSplineDctChannels][numDctCoeffs]int32
	SigmaDct     [numDctCoeffs]int32
}

// Splines is the decoded (still-quantised) collection read from the
// entropy stream.
type Splines struct {
	QuantAdjust int32
	QuantSplines []QuantSpline
}

// Spline is one spline's fully dequantised form: floating-point control
// points plus dequantised XYB/sigma DCT coefficients.
type Spline struct {
	Points   []geom.Point
	XYBDct   [numSplineDctChannels][numDctCoeffs]float32
	SigmaDct [numDctCoeffs]float32
}

// SplineArc is one arc-length sample: a point on the spline's path and
// the accumulated length since the previously emitted arc (1 for every
// arc except possibly the last, whose residual length is below 1).
type SplineArc struct {
	Point  geom.Point
	Length float32
}

// ColorCorrelation carries the base (corr_x, corr_b) cross-channel
// correlation the dequantiser applies to the X/B DCT coefficients. A
// nil pointer means "absent", defaulting to (0, 1) per spec.md §4.C.
type ColorCorrelation struct {
	CorrX, CorrB float32
}

// Decode reads the spline count (stored minus one), that many
// control-point starts, a shared
// quant_adjust, and then per-spline point deltas and DCT coefficients
// from r, exactly in the order spec.md §4.C specifies. numPixels is
// width*height of the frame, used to cap both the spline count and
// each spline's point count.
func Decode(r bitio.EntropyReader, numPixels uint64) (*Splines, error) {
	numSplinesU32, err := r.ReadVarint(2)
	if err != nil {
		return nil, err
	}
	numSplines := int(numSplinesU32) + 1

	maxSplines := maxNumSplines
	if cap64 := numPixels / 4; cap64 < uint64(maxSplines) {
		maxSplines = int(cap64)
	}
	if numSplines > maxSplines {
		return nil, &ErrTooManySplines{N: numSplines}
	}

	startPoints := make([][2]int32, numSplines)
	for i := 0; i < numSplines; i++ {
		xu, err := r.ReadVarint(1)
		if err != nil {
			return nil, err
		}
		yu, err := r.ReadVarint(1)
		if err != nil {
			return nil, err
		}
		x := int32(xu)
		y := int32(yu)
		if i != 0 {
			x = bitio.UnpackSigned(xu) + startPoints[i-1][0]
			y = bitio.UnpackSigned(yu) + startPoints[i-1][1]
		}
		startPoints[i] = [2]int32{x, y}
	}

	qau, err := r.ReadVarint(0)
	if err != nil {
		return nil, err
	}
	quantAdjust := bitio.UnpackSigned(qau)

	splines := make([]QuantSpline, numSplines)
	for i := range splines {
		splines[i].StartPoint = startPoints[i]
		if err := splines[i].decode(r, numPixels); err != nil {
			return nil, err
		}
	}

	return &Splines{QuantAdjust: quantAdjust, QuantSplines: splines}, nil
}

func (s *QuantSpline) decode(r bitio.EntropyReader, numPixels uint64) error {
	numPointsU32, err := r.ReadVarint(3)
	if err != nil {
		return err
	}
	numPoints := int(numPointsU32)

	maxPoints := maxNumControlPoints
	if cap64 := numPixels / 2; cap64 < uint64(maxPoints) {
		maxPoints = int(cap64)
	}
	if numPoints > maxPoints {
		return &ErrTooManySplinePoints{N: numPoints}
	}

	s.PointsDeltas = make([][2]int32, numPoints)
	for i := range s.PointsDeltas {
		dxu, err := r.ReadVarint(4)
		if err != nil {
			return err
		}
		dyu, err := r.ReadVarint(4)
		if err != nil {
			return err
		}
		s.PointsDeltas[i] = [2]int32{bitio.UnpackSigned(dxu), bitio.UnpackSigned(dyu)}
	}

	for c := 0; c < numSplineDctChannels; c++ {
		for i := 0; i < numDctCoeffs; i++ {
			vu, err := r.ReadVarint(5)
			if err != nil {
				return err
			}
			s.XYBDct[c][i] = bitio.UnpackSigned(vu)
		}
	}
	for i := 0; i < numDctCoeffs; i++ {
		vu, err := r.ReadVarint(5)
		if err != nil {
			return err
		}
		s.SigmaDct[i] = bitio.UnpackSigned(vu)
	}
	return nil
}

// channelWeights are the per-channel dequantisation weights for X, Y, B
// and sigma, in that order.
var channelWeights = [4]float32{0.0042, 0.075, 0.07, 0.3333}

// Dequant reconstructs this spline's floating-point control points and
// dequantised DCT coefficients. corr supplies the base XB colour
// correlation (nil defaults to (0, 1)); estimatedArea accumulates this
// spline's contribution to the conformance area budget spec.md §4.C
// describes.
func (s *QuantSpline) Dequant(quantAdjust int32, corr *ColorCorrelation, estimatedArea *uint64) Spline {
	var manhattan uint64
	points := make([]geom.Point, 0, len(s.PointsDeltas)+1)

	curValue := s.StartPoint
	points = append(points, geom.New(float32(curValue[0]), float32(curValue[1])))
	var curDelta [2]int32
	for _, d := range s.PointsDeltas {
		curDelta[0] += d[0]
		curDelta[1] += d[1]
		manhattan += uint64(abs32(curDelta[0])) + uint64(abs32(curDelta[1]))
		curValue[0] += curDelta[0]
		curValue[1] += curDelta[1]
		points = append(points, geom.New(float32(curValue[0]), float32(curValue[1])))
	}

	qa := float32(quantAdjust)
	var invertedQA float32
	if qa >= 0 {
		invertedQA = 1.0 / (1.0 + qa/8.0)
	} else {
		invertedQA = 1.0 - qa/8.0
	}

	var xybDct [numSplineDctChannels][numDctCoeffs]float32
	for c := 0; c < numSplineDctChannels; c++ {
		for i := 0; i < numDctCoeffs; i++ {
			xybDct[c][i] = float32(s.XYBDct[c][i]) * channelWeights[c] * invertedQA
		}
	}

	corrX, corrB := float32(0), float32(1)
	if corr != nil {
		corrX, corrB = corr.CorrX, corr.CorrB
	}
	for i := 0; i < numDctCoeffs; i++ {
		xybDct[0][i] += corrX * xybDct[1][i]
		xybDct[2][i] += corrB * xybDct[1][i]
	}

	// Conformance bookkeeping only: tracks the estimated render cost of
	// this spline so callers can enforce the format's area budget.
	var colorXYB [numSplineDctChannels]uint64
	for c := 0; c < numSplineDctChannels; c++ {
		for i := 0; i < numDctCoeffs; i++ {
			colorXYB[c] += uint64(math.Ceil(float64(abs32(s.XYBDct[c][i])) * float64(invertedQA)))
		}
	}
	colorXYB[0] += uint64(math.Ceil(float64(abs32f(corrX)))) * colorXYB[1]
	colorXYB[2] += uint64(math.Ceil(float64(abs32f(corrB)))) * colorXYB[1]
	maxColor := colorXYB[0]
	if colorXYB[1] > maxColor {
		maxColor = colorXYB[1]
	}
	if colorXYB[2] > maxColor {
		maxColor = colorXYB[2]
	}
	logColor := uint64(numeric.Log2Ceil(1 + maxColor))
	if logColor < 1 {
		logColor = 1
	}

	var sigmaDct [numDctCoeffs]float32
	var widthEstimate uint64
	for i := 0; i < numDctCoeffs; i++ {
		sigmaDct[i] = float32(s.SigmaDct[i]) * channelWeights[3] * invertedQA
		weight := uint64(math.Ceil(float64(abs32(s.SigmaDct[i])) * float64(invertedQA)))
		if weight < 1 {
			weight = 1
		}
		widthEstimate += weight * weight * logColor
	}

	*estimatedArea += widthEstimate * manhattan

	return Spline{Points: points, XYBDct: xybDct, SigmaDct: sigmaDct}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func abs32f(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// ErrDuplicatePoint names the condition of two consecutive control
// points coinciding, which gives a zero knot interval. Samples and
// upsampledPoints do not return it: they clamp a zero knot interval to
// a small positive value and carry on.
var ErrDuplicatePoint = errors.New("spline: duplicate consecutive control point")
