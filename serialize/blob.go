package serialize

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/google/uuid"

	annerrors "github.com/vecdb/annindex/errors"
)

func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }

// Blob headers use a small fixed set of magic tags, one per payload
// kind, checked on load so a vector-blob file can never be
// misinterpreted as a graph-blob file even if the manifest pointed at
// the wrong one.
var (
	MagicVectors = [8]byte{'S', 'V', 'C', 'V', 'E', 'C', '0', '1'}
	MagicGraph   = [8]byte{'S', 'V', 'C', 'G', 'R', 'P', '0', '1'}
)

// headerLength is the padded header size every blob file reserves
// before its payload begins, matching spec §6's fixed-size-header
// requirement so blobs can be mapped or seeked without parsing a
// variable-length preamble.
const headerLength = 64

// BlobHeader is the fixed-size preamble written at the start of every
// binary blob file.
type BlobHeader struct {
	Magic      [8]byte
	UUID       [16]byte
	NumVectors uint64
	Dimensions uint64
}

func (h BlobHeader) encode() []byte {
	buf := make([]byte, headerLength)
	copy(buf[0:8], h.Magic[:])
	copy(buf[8:24], h.UUID[:])
	binary.LittleEndian.PutUint64(buf[24:32], h.NumVectors)
	binary.LittleEndian.PutUint64(buf[32:40], h.Dimensions)
	return buf
}

func decodeHeader(buf []byte) BlobHeader {
	var h BlobHeader
	copy(h.Magic[:], buf[0:8])
	copy(h.UUID[:], buf[8:24])
	h.NumVectors = binary.LittleEndian.Uint64(buf[24:32])
	h.Dimensions = binary.LittleEndian.Uint64(buf[32:40])
	return h
}

// WriteVectorBlob writes a fixed-dimension float32 dataset to path as a
// header followed by row-major float32 data.
func WriteVectorBlob(path string, objUUID string, vectors [][]float32) error {
	f, err := os.Create(path)
	if err != nil {
		return annerrors.NewOther("creating blob file", err)
	}
	defer f.Close()

	id, err := uuid.Parse(objUUID)
	if err != nil {
		return annerrors.NewOther("parsing object uuid", err)
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	header := BlobHeader{Magic: MagicVectors, NumVectors: uint64(len(vectors)), Dimensions: uint64(dims)}
	copy(header.UUID[:], id[:])

	if _, err := f.Write(header.encode()); err != nil {
		return annerrors.NewOther("writing blob header", err)
	}

	row := make([]byte, dims*4)
	for _, v := range vectors {
		if len(v) != dims {
			return annerrors.NewDimensionMismatch(dims, len(v))
		}
		for i, x := range v {
			binary.LittleEndian.PutUint32(row[i*4:i*4+4], float32bits(x))
		}
		if _, err := f.Write(row); err != nil {
			return annerrors.NewOther("writing blob row", err)
		}
	}
	return nil
}

// ReadVectorBlob reads back a file written by WriteVectorBlob, validating
// the magic tag before trusting the rest of the header.
func ReadVectorBlob(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, annerrors.NewOther("opening blob file", err)
	}
	defer f.Close()

	headerBuf := make([]byte, headerLength)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return nil, annerrors.NewOther("reading blob header", err)
	}
	header := decodeHeader(headerBuf)
	if header.Magic != MagicVectors {
		return nil, annerrors.NewMagicMismatch("vector", MagicVectors, header.Magic)
	}

	dims := int(header.Dimensions)
	vectors := make([][]float32, header.NumVectors)
	row := make([]byte, dims*4)
	for i := range vectors {
		if _, err := io.ReadFull(f, row); err != nil {
			return nil, annerrors.NewOther("reading blob row", err)
		}
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32frombits(binary.LittleEndian.Uint32(row[j*4 : j*4+4]))
		}
		vectors[i] = v
	}
	return vectors, nil
}
