package spline

import (
	"math"

	"github.com/deepteams/jxlframe/internal/geom"
)

// upsampledPoints applies a centripetal Catmull-Rom upsample to the
// spline's control points, extending the sequence at both ends by
// mirroring the second/penultimate point about the first/last so the
// natural tangent of the curve is preserved at the endpoints.
//
// The single-point case returns the point unchanged. Otherwise every
// 4-tuple of consecutive extended points contributes 16 samples (the
// second point of the tuple plus 15 interpolated steps), and the final
// original control point is appended once at the end.
func (s *Spline) upsampledPoints() []geom.Point {
	pts := s.Points
	if len(pts) == 1 {
		return []geom.Point{pts[0]}
	}

	extended := make([]geom.Point, 0, len(pts)+2)
	extended = append(extended, pts[1].Mirror(pts[0]))
	extended = append(extended, pts...)
	extended = append(extended, pts[len(pts)-2].Mirror(pts[len(pts)-1]))

	upsampled := make([]geom.Point, 0, 16*(len(extended)-3)+1)

	for i := 0; i+3 < len(extended); i++ {
		p := [4]geom.Point{extended[i], extended[i+1], extended[i+2], extended[i+3]}
		var t [4]float32
		var a [4]geom.Point
		var b [3]geom.Point

		upsampled = append(upsampled, p[1])
		t[0] = 0
		for k := 1; k < 4; k++ {
			t[k] = t[k-1] + centripetalKnotDelta(p[k], p[k-1])
		}

		for step := 1; step < 16; step++ {
			knot := t[1] + (float32(step)/16.0)*(t[2]-t[1])
			for k := 0; k < 3; k++ {
				a[k] = lerpKnots(p[k], p[k+1], t[k], t[k+1], knot)
			}
			for k := 0; k < 2; k++ {
				b[k] = lerpKnots(a[k], a[k+1], t[k], t[k+2], knot)
			}
			upsampled = append(upsampled, lerpKnots(b[0], b[1], t[1], t[2], knot))
		}
	}
	upsampled = append(upsampled, pts[len(pts)-1])
	return upsampled
}

// centripetalKnotDelta returns ||p - q||^0.5, the centripetal
// parameterisation's knot-spacing contribution, guarding against a
// zero interval (which the format's delta encoding forbids but which
// an implementation should not divide by regardless, per spec.md §4.C).
func centripetalKnotDelta(p, q geom.Point) float32 {
	d := float64(p.Sub(q).NormSquared())
	v := float32(math.Pow(d, 0.25))
	if v == 0 {
		return 1e-6
	}
	return v
}

// lerpKnots linearly interpolates between p0 (at knot t0) and p1 (at
// knot t1), evaluated at knot, clamping the denominator away from zero.
func lerpKnots(p0, p1 geom.Point, t0, t1, knot float32) geom.Point {
	denom := t1 - t0
	if denom == 0 {
		denom = 1e-6
	}
	return p0.Add(p1.Sub(p0).Scale((knot - t0) / denom))
}
