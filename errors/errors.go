// Package errors defines the typed failure tags surfaced by save/load,
// schema validation and dynamic index mutation. Each tag is a distinct
// struct implementing error, following the same shape as infrastructure
// error packages elsewhere in the codebase: one struct per category, a
// constructor, and an Error() method that renders a human message.
package errors

import "fmt"

// SchemaMismatch is returned when a manifest's recorded schema version
// does not match what the running code understands.
type SchemaMismatch struct {
	Expected string
	Found    string
}

func NewSchemaMismatch(expected, found string) *SchemaMismatch {
	return &SchemaMismatch{Expected: expected, Found: found}
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("schema mismatch: expected %q, found %q", e.Expected, e.Found)
}

// MagicMismatch is returned when a binary blob's leading magic bytes do
// not match the expected value for its declared kind.
type MagicMismatch struct {
	Kind     string
	Expected [8]byte
	Found    [8]byte
}

func NewMagicMismatch(kind string, expected, found [8]byte) *MagicMismatch {
	return &MagicMismatch{Kind: kind, Expected: expected, Found: found}
}

func (e *MagicMismatch) Error() string {
	return fmt.Sprintf("magic mismatch in %s blob: expected % x, found % x", e.Kind, e.Expected[:], e.Found[:])
}

// DimensionMismatch is returned whenever a vector's length disagrees
// with the dimensionality an index or dataset was built against.
type DimensionMismatch struct {
	Expected int
	Found    int
}

func NewDimensionMismatch(expected, found int) *DimensionMismatch {
	return &DimensionMismatch{Expected: expected, Found: found}
}

func (e *DimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Found)
}

// UuidNotFound is returned when a manifest references an object UUID
// that has no corresponding blob file in the directory.
type UuidNotFound struct {
	UUID string
}

func NewUuidNotFound(uuid string) *UuidNotFound {
	return &UuidNotFound{UUID: uuid}
}

func (e *UuidNotFound) Error() string {
	return fmt.Sprintf("no blob found for uuid %s", e.UUID)
}

// OutOfRangeId is returned when an external ID passed to a lookup,
// delete, or update operation has no live mapping in the translator.
type OutOfRangeId struct {
	ID int64
}

func NewOutOfRangeId(id int64) *OutOfRangeId {
	return &OutOfRangeId{ID: id}
}

func (e *OutOfRangeId) Error() string {
	return fmt.Sprintf("id %d is not present in the index", e.ID)
}

// Unconvergent is returned when an iterative algorithm (flat k-means)
// exhausts its iteration budget without meeting its convergence
// tolerance.
type Unconvergent struct {
	Algorithm  string
	Iterations int
}

func NewUnconvergent(algorithm string, iterations int) *Unconvergent {
	return &Unconvergent{Algorithm: algorithm, Iterations: iterations}
}

func (e *Unconvergent) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations", e.Algorithm, e.Iterations)
}

// Other wraps a failure that does not fit one of the pinned tags above,
// while still carrying enough context to route through WrapDomainError.
type Other struct {
	Message string
	Cause   error
}

func NewOther(message string, cause error) *Other {
	return &Other{Message: message, Cause: cause}
}

func (e *Other) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Other) Unwrap() error { return e.Cause }

// WrapDomainError normalizes an arbitrary error into one of the typed
// tags above, falling back to Other when none apply. Call sites that
// already produce a typed tag get it back unchanged.
func WrapDomainError(err error) error {
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *SchemaMismatch, *MagicMismatch, *DimensionMismatch,
		*UuidNotFound, *OutOfRangeId, *Unconvergent, *Other:
		return err
	default:
		return NewOther("unclassified failure", err)
	}
}
