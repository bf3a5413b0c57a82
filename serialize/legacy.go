package serialize

import (
	"encoding/binary"
	"io"
	"os"

	annerrors "github.com/vecdb/annindex/errors"
)

// ReadFvecs reads the legacy .fvecs format: each vector is stored as a
// little-endian int32 dimension count followed by that many float32
// values, repeated until EOF.
func ReadFvecs(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, annerrors.NewOther("opening fvecs file", err)
	}
	defer f.Close()

	var vectors [][]float32
	for {
		var dim int32
		if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
			if err == io.EOF {
				break
			}
			return nil, annerrors.NewOther("reading fvecs dimension", err)
		}
		v := make([]float32, dim)
		if err := binary.Read(f, binary.LittleEndian, &v); err != nil {
			return nil, annerrors.NewOther("reading fvecs row", err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

// ReadIvecs reads the legacy .ivecs format, identical in layout to
// .fvecs but with int32 rather than float32 payload values (typically
// ground-truth neighbor ID lists).
func ReadIvecs(path string) ([][]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, annerrors.NewOther("opening ivecs file", err)
	}
	defer f.Close()

	var rows [][]int32
	for {
		var dim int32
		if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
			if err == io.EOF {
				break
			}
			return nil, annerrors.NewOther("reading ivecs dimension", err)
		}
		v := make([]int32, dim)
		if err := binary.Read(f, binary.LittleEndian, &v); err != nil {
			return nil, annerrors.NewOther("reading ivecs row", err)
		}
		rows = append(rows, v)
	}
	return rows, nil
}

// ReadBvecs reads the legacy .bvecs format: a little-endian int32
// dimension count followed by that many single-byte unsigned values,
// typically raw uint8 feature vectors.
func ReadBvecs(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, annerrors.NewOther("opening bvecs file", err)
	}
	defer f.Close()

	var rows [][]byte
	for {
		var dim int32
		if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
			if err == io.EOF {
				break
			}
			return nil, annerrors.NewOther("reading bvecs dimension", err)
		}
		v := make([]byte, dim)
		if _, err := io.ReadFull(f, v); err != nil {
			return nil, annerrors.NewOther("reading bvecs row", err)
		}
		rows = append(rows, v)
	}
	return rows, nil
}
