package serialize

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	annerrors "github.com/vecdb/annindex/errors"
)

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{
		SchemaVersion: CurrentSchemaVersion,
		Kind:          "vamana",
		Objects: []ManifestObject{
			{Name: "dataset", UUID: NewObjectUUID(), BlobFile: "dataset.bin", NumVectors: 10, Dimensions: 4},
		},
	}
	require.NoError(t, WriteManifest(dir, m))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, m.Kind, got.Kind)
	require.Len(t, got.Objects, 1)

	obj, err := FindObject(got, m.Objects[0].UUID)
	require.NoError(t, err)
	require.Equal(t, uint64(10), obj.NumVectors)

	_, err = FindObject(got, "does-not-exist")
	require.Error(t, err)
}

func TestManifestSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{SchemaVersion: "0.9", Kind: "vamana"}
	require.NoError(t, WriteManifest(dir, m))

	_, err := ReadManifest(dir)
	require.Error(t, err)
	_, ok := err.(*annerrors.SchemaMismatch)
	require.True(t, ok)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")
	vectors := [][]float32{{1, 2, 3}, {4, 5, 6}}

	require.NoError(t, WriteVectorBlob(path, NewObjectUUID(), vectors))

	got, err := ReadVectorBlob(path)
	require.NoError(t, err)
	require.Equal(t, vectors, got)
}

func TestVectorBlobMagicMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.bin")
	require.NoError(t, WriteVectorBlob(path, NewObjectUUID(), [][]float32{{1, 2}}))

	// Corrupt the magic bytes.
	raw, err := readAll(path)
	require.NoError(t, err)
	raw[0] = 'X'
	require.NoError(t, writeAll(path, raw))

	_, err = ReadVectorBlob(path)
	require.Error(t, err)
}
