package quantize

import annerrors "github.com/vecdb/annindex/errors"

// PackSequential packs bits-wide codes lsb-first into bytes, row-major:
// the spec's "Sequential" strategy, and the simplest of the two byte
// layouts LVQ codes can be stored in.
func PackSequential(codes []uint8, bits int) []byte {
	out := make([]byte, (len(codes)*bits+7)/8)
	bitPos := 0
	for _, c := range codes {
		v := uint32(c)
		for b := 0; b < bits; b++ {
			if v&(1<<uint(b)) != 0 {
				out[bitPos/8] |= 1 << uint(bitPos%8)
			}
			bitPos++
		}
	}
	return out
}

// UnpackSequential is PackSequential's inverse: n is the number of codes
// to recover.
func UnpackSequential(data []byte, n, bits int) []uint8 {
	out := make([]uint8, n)
	bitPos := 0
	for i := 0; i < n; i++ {
		var v uint32
		for b := 0; b < bits; b++ {
			if data[bitPos/8]&(1<<uint(bitPos%8)) != 0 {
				v |= 1 << uint(b)
			}
			bitPos++
		}
		out[i] = uint8(v)
	}
	return out
}

// PackTurboBatch lays out codes from a batch of vectors, in blocks of 16
// vectors, in the Turbo<16,8> gather-free layout: within a block, for
// each dimension the 16 vectors' codes at that dimension sit
// contiguously, so a single SIMD load can pull one byte from 16
// different vectors' codes without a gather. A last block with fewer
// than 16 vectors is zero-padded to 16 lanes. Only
// 8-bit (byte-aligned) codes are supported; pack 4-bit codes per vector
// with PackSequential instead, since the open question the source
// material leaves about the sub-byte interleave schedule means any
// choice there would be a guess rather than a documented layout.
func PackTurboBatch(vectorCodes [][]uint8, bits int) ([]byte, error) {
	if err := Turbo(bits, 0); err != nil {
		return nil, err
	}
	if bits != 8 {
		return nil, annerrors.NewOther("turbo batch interleaving is only defined for 8-bit codes; pack 4-bit codes per vector with PackSequential", nil)
	}
	if len(vectorCodes) == 0 {
		return nil, nil
	}
	dims := len(vectorCodes[0])
	n := len(vectorCodes)
	out := make([]byte, ((n+15)/16)*16*dims)
	for lane := 0; lane < n; lane++ {
		block, laneInBlock := lane/16, lane%16
		for j := 0; j < dims; j++ {
			out[block*16*dims+j*16+laneInBlock] = vectorCodes[lane][j]
		}
	}
	return out, nil
}

// UnpackTurboBatch is PackTurboBatch's inverse.
func UnpackTurboBatch(data []byte, n, dims int) [][]uint8 {
	out := make([][]uint8, n)
	for lane := 0; lane < n; lane++ {
		block, laneInBlock := lane/16, lane%16
		out[lane] = make([]uint8, dims)
		for j := 0; j < dims; j++ {
			out[lane][j] = data[block*16*dims+j*16+laneInBlock]
		}
	}
	return out
}
