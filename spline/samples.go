package spline

// Samples arc-length resamples the spline's upsampled polyline,
// emitting one SplineArc per unit of accumulated length plus a final
// arc for any residual. The first emitted arc always carries length 1
// at the first upsampled point, seeding the downstream renderer's
// error-function falloff.
func (s *Spline) Samples() []SplineArc {
	upsampled := s.upsampledPoints()

	current := upsampled[0]
	nextIdx := 0
	samples := []SplineArc{{Point: current, Length: 1}}

	for nextIdx < len(upsampled) {
		prev := current
		var arclen float32

		for {
			if nextIdx >= len(upsampled) {
				if arclen > 0 {
					samples = append(samples, SplineArc{Point: prev, Length: arclen})
				}
				break
			}
			next := upsampled[nextIdx]
			toNext := next.Sub(prev).Norm()
			if arclen+toNext >= 1.0 {
				current = prev.Add(next.Sub(prev).Scale((1.0 - arclen) / toNext))
				samples = append(samples, SplineArc{Point: current, Length: 1})
				break
			}
			arclen += toNext
			prev = next
			nextIdx++
		}
	}

	return samples
}
