// Package filter implements the IIR filters applied to waveforms before
// plotting.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/station-dayplot/internal/seismic"
)

// TypeLowpass is the only supported filter type.
const TypeLowpass = "lowpass"

var (
	// ErrUnsupportedFilter is returned for filter types other than lowpass.
	ErrUnsupportedFilter = errors.New("unsupported filter type")
	errBadParams         = errors.New("invalid filter parameters")
)

// Butterworth applies causal Butterworth filters as cascaded biquads.
type Butterworth struct{}

// NewButterworth creates a new Butterworth filter.
func NewButterworth() *Butterworth {
	return &Butterworth{}
}

// Apply filters every trace and returns a new stream; st is left untouched.
func (b *Butterworth) Apply(st seismic.Stream, p seismic.FilterParams) (seismic.Stream, error) {
	if p.Type != TypeLowpass {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, p.Type)
	}
	if p.Corners < 1 || p.Freq <= 0 {
		return nil, fmt.Errorf("%w: freq=%g corners=%d", errBadParams, p.Freq, p.Corners)
	}

	out := make(seismic.Stream, len(st))
	for i, tr := range st {
		if tr.SampleRate <= 0 {
			return nil, fmt.Errorf("%w: trace %s has sample rate %g", errBadParams, tr.ID(), tr.SampleRate)
		}
		sections := lowpassSections(p.Freq, tr.SampleRate, p.Corners)

		filtered := tr
		filtered.Samples = make([]float64, len(tr.Samples))
		copy(filtered.Samples, tr.Samples)
		for _, sec := range sections {
			sec.run(filtered.Samples)
		}
		out[i] = filtered
	}
	return out, nil
}

// biquad holds normalized coefficients (a0 == 1) in direct form II transposed.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (q biquad) run(x []float64) {
	var z1, z2 float64
	for i, in := range x {
		out := q.b0*in + z1
		z1 = q.b1*in - q.a1*out + z2
		z2 = q.b2*in - q.a2*out
		x[i] = out
	}
}

// lowpassSections designs an order-n Butterworth low-pass via the bilinear
// transform with frequency prewarping. A corner at or above Nyquist is
// clamped just below it.
func lowpassSections(freq, sampleRate float64, order int) []biquad {
	nyquist := sampleRate / 2
	if freq >= nyquist {
		freq = nyquist * 0.999
	}
	k := math.Tan(math.Pi * freq / sampleRate)
	k2 := k * k

	var sections []biquad
	for i := 0; i < order/2; i++ {
		theta := math.Pi * float64(2*i+1) / float64(2*order)
		invQ := 2 * math.Sin(theta)
		norm := 1 / (1 + k*invQ + k2)
		b0 := k2 * norm
		sections = append(sections, biquad{
			b0: b0,
			b1: 2 * b0,
			b2: b0,
			a1: 2 * (k2 - 1) * norm,
			a2: (1 - k*invQ + k2) * norm,
		})
	}
	if order%2 == 1 {
		norm := 1 / (1 + k)
		sections = append(sections, biquad{
			b0: k * norm,
			b1: k * norm,
			a1: (k - 1) * norm,
		})
	}
	return sections
}

var _ seismic.Filter = (*Butterworth)(nil)
