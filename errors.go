package postcodes

import (
	"errors"
	"fmt"

	"github.com/hupe1980/postcodes/blobstore"
	"github.com/hupe1980/postcodes/internal/container"
	"github.com/hupe1980/postcodes/internal/section"
)

var (
	// ErrUnsupportedVersion is returned when the section header version is unknown.
	ErrUnsupportedVersion = section.ErrUnsupportedVersion
	// ErrInvalidVersion is returned when asked to write an undefined version.
	ErrInvalidVersion = section.ErrInvalidVersion
	// ErrCorruptIndex is returned for structurally invalid index data.
	ErrCorruptIndex = section.ErrCorruptIndex
	// ErrCorruptContainer is returned when the surrounding container is invalid.
	ErrCorruptContainer = container.ErrCorrupt
	// ErrSectionNotFound is returned when the container lacks the postcode section.
	ErrSectionNotFound = container.ErrSectionNotFound
	// ErrDigestMismatch is returned when section verification fails.
	ErrDigestMismatch = container.ErrDigestMismatch
	// ErrNotFound is returned when a region file does not exist.
	ErrNotFound = blobstore.ErrNotFound
	// ErrClosed is returned when using a closed Catalog.
	ErrClosed = errors.New("catalog closed")
)

// RegionError reports a failure of one region in a catalog lookup.
//
// The original underlying error can be accessed via errors.Unwrap.
type RegionError struct {
	Region string
	cause  error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %q: %v", e.Region, e.cause)
}

func (e *RegionError) Unwrap() error { return e.cause }

// translateError folds the container's magic check into ErrCorruptContainer
// so callers only need one sentinel per failure class.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, container.ErrInvalidMagic) && !errors.Is(err, container.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorruptContainer, err)
	}
	return err
}
