// Package serialize implements the on-disk save/load format: a
// directory holding a TOML manifest plus one binary blob file per stored
// object. The manifest format is grounded on BurntSushi/toml (pack-wide
// dependency, see DESIGN.md); the blob header layout and UUID handling
// follow spec §6, with UUID semantics confirmed against the original's
// lib/uuid.h (standard version-4/variant-1, 16 bytes) and implemented
// with google/uuid directly rather than a hand-rolled type.
package serialize

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	annerrors "github.com/vecdb/annindex/errors"
)

const manifestFileName = "svs_config.toml"

// Manifest is the root TOML document describing every object persisted
// alongside it in the same directory.
type Manifest struct {
	SchemaVersion string           `toml:"schema_version"`
	Kind          string           `toml:"kind"`
	Objects       []ManifestObject `toml:"object"`
}

// ManifestObject records one blob's identity, kind and shape.
type ManifestObject struct {
	Name       string `toml:"name"`
	UUID       string `toml:"uuid"`
	BlobFile   string `toml:"blob_file"`
	NumVectors uint64 `toml:"num_vectors"`
	Dimensions uint64 `toml:"dimensions"`
}

const CurrentSchemaVersion = "1.0"

// WriteManifest encodes m as svs_config.toml inside dir.
func WriteManifest(dir string, m Manifest) error {
	path := filepath.Join(dir, manifestFileName)
	f, err := os.Create(path)
	if err != nil {
		return annerrors.NewOther("creating manifest file", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return annerrors.NewOther("encoding manifest", err)
	}
	return nil
}

// ReadManifest decodes svs_config.toml from dir and validates its
// schema version.
func ReadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return m, annerrors.NewOther("decoding manifest", err)
	}
	if m.SchemaVersion != CurrentSchemaVersion {
		return m, annerrors.NewSchemaMismatch(CurrentSchemaVersion, m.SchemaVersion)
	}
	return m, nil
}

// FindObject looks up a manifest object by UUID, returning UuidNotFound
// if absent.
func FindObject(m Manifest, id string) (ManifestObject, error) {
	for _, obj := range m.Objects {
		if obj.UUID == id {
			return obj, nil
		}
	}
	return ManifestObject{}, annerrors.NewUuidNotFound(id)
}

// NewObjectUUID returns a fresh version-4 UUID string for a new
// manifest object.
func NewObjectUUID() string {
	return uuid.New().String()
}
