package section

import "errors"

var (
	// ErrUnsupportedVersion is returned when a section header carries a
	// version this reader does not understand.
	ErrUnsupportedVersion = errors.New("unsupported postcode points version")
	// ErrInvalidVersion is returned when asked to write an undefined version.
	ErrInvalidVersion = errors.New("invalid postcode points version")
	// ErrCorruptIndex is returned when the index data is structurally invalid:
	// bad header ranges, a malformed trie or a dangling point reference.
	ErrCorruptIndex = errors.New("corrupt postcode index")
	// ErrOutOfBounds is returned when a view would exceed its parent.
	ErrOutOfBounds = errors.New("section: range out of bounds")
)
