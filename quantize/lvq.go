// Package quantize implements LVQ (locally-adaptive vector quantization)
// and LeanVec dimensionality reduction. The one-level scalar quantizer
// generalizes the teacher's adaptive scalar quantizer (per-dimension
// scale and shift, symmetric int8 range) to a configurable bit width and
// a shared centroid table, so the quantization constants travel with
// each code relative to a selected reference vector rather than the
// vector's own absolute range; the two-level variant layers a residual
// codebook on top, in the same encode/compute-approx-distance shape the
// teacher's product quantizer uses.
package quantize

import (
	"math"

	annerrors "github.com/vecdb/annindex/errors"
)

// LVQ1 is a one-level locally-adaptive scalar quantizer. Encoding finds
// the nearest centroid in Centroids, quantizes the residual against it
// with a per-vector affine range, and stores the selector alongside the
// scale/bias so decode can add the centroid back in. A nil Centroids is
// the degenerate "quantize the vector directly" case (residual against
// an implicit zero vector), which is what a bare LVQ1{Bits: n} gives you
// without fitting or wiring a table.
type LVQ1 struct {
	Bits      int // 4 or 8
	Centroids *CentroidTable
}

// EncodedVector is one LVQ1-quantized vector: which centroid it's
// relative to, the per-vector affine range for the residual, and the
// quantized codes.
type EncodedVector struct {
	Selector int
	Scale    float32
	Bias     float32
	Codes    []uint8
}

func levels(bits int) float32 {
	return float32((1 << uint(bits)) - 1)
}

// Encode finds the nearest centroid c, forms the residual r = v - c, and
// quantizes r to Bits-wide codes using r's own min/max as the affine
// range.
func (q LVQ1) Encode(v []float32) EncodedVector {
	selector, centroid := q.Centroids.nearest(v)
	r := v
	if centroid != nil {
		r = make([]float32, len(v))
		for i := range v {
			r[i] = v[i] - centroid[i]
		}
	}

	min, max := r[0], r[0]
	for _, x := range r {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	scale := (max - min) / levels(q.Bits)
	if scale == 0 {
		scale = 1
	}
	codes := make([]uint8, len(r))
	for i, x := range r {
		c := (x - min) / scale
		codes[i] = uint8(clampF(c, 0, levels(q.Bits)) + 0.5)
	}
	return EncodedVector{Selector: selector, Scale: scale, Bias: min, Codes: codes}
}

// Decode reconstructs centroid[selector] + scale*code + bias per
// dimension.
func (q LVQ1) Decode(e EncodedVector) []float32 {
	centroid := q.Centroids.at(e.Selector)
	out := make([]float32, len(e.Codes))
	for i, c := range e.Codes {
		val := e.Bias + float32(c)*e.Scale
		if centroid != nil {
			val += centroid[i]
		}
		out[i] = val
	}
	return out
}

// ReconstructionError returns the mean squared error between v and its
// round-tripped quantization, used by tests to check the bound spec §8
// places on LVQ fidelity.
func (q LVQ1) ReconstructionError(v []float32) float64 {
	decoded := q.Decode(q.Encode(v))
	var sum float64
	for i := range v {
		d := float64(v[i] - decoded[i])
		sum += d * d
	}
	return sum / float64(len(v))
}

// LVQ2 layers a second quantization pass over the LVQ1 residual,
// trading extra storage for tighter reconstruction error. The residual
// codes are signed (stored as the two's-complement byte of an int8) and
// scaled relative to the primary level's own scale, per spec's
// scale_residual = scale_primary / (2^residual_bits - 1).
type LVQ2 struct {
	Primary  LVQ1
	Residual LVQ1
}

type EncodedVector2 struct {
	Primary  EncodedVector
	Residual EncodedVector
}

func (q LVQ2) Encode(v []float32) EncodedVector2 {
	primary := q.Primary.Encode(v)
	decoded := q.Primary.Decode(primary)
	residual := make([]float32, len(v))
	for i := range v {
		residual[i] = v[i] - decoded[i]
	}

	rbits := q.Residual.Bits
	scaleResidual := primary.Scale / levels(rbits)
	if scaleResidual == 0 {
		scaleResidual = 1
	}
	half := float32(int32(1) << uint(rbits-1))
	codes := make([]uint8, len(residual))
	for i, x := range residual {
		c := roundF(clampF(x/scaleResidual, -half, half-1))
		codes[i] = uint8(int8(c))
	}
	return EncodedVector2{Primary: primary, Residual: EncodedVector{Scale: scaleResidual, Codes: codes}}
}

func (q LVQ2) Decode(e EncodedVector2) []float32 {
	primary := q.Primary.Decode(e.Primary)
	out := make([]float32, len(primary))
	for i := range out {
		out[i] = primary[i] + float32(int8(e.Residual.Codes[i]))*e.Residual.Scale
	}
	return out
}

// Turbo validates that a (primary bits, residual bits) pair is one of
// the layouts the pinned Turbo<16,8> packing supports. Only these pairs
// are implemented: the exact interleave schedule for other widths isn't
// specified closely enough in the source material to implement without
// guessing at an undocumented shuffle.
func Turbo(primaryBits, residualBits int) error {
	switch {
	case primaryBits == 4 && (residualBits == 0 || residualBits == 8):
		return nil
	case primaryBits == 8 && (residualBits == 0 || residualBits == 8):
		return nil
	default:
		return annerrors.NewOther("unsupported turbo packing bit combination", nil)
	}
}

func clampF(v, lo, hi float32) float32 {
	return float32(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}

func roundF(v float32) float32 {
	return float32(math.Round(float64(v)))
}
