package section

import "fmt"

type span struct {
	name      string
	off, size uint64
}

func (s span) end() uint64 { return s.off + s.size }

// Resolve validates the header ranges against r and returns views of the
// trie and the point table. Ranges must lie within r, must not overlap each
// other and, when non-empty, must not overlap the header itself.
func Resolve(r *Reader, h Header) (trie, points *Reader, err error) {
	total := uint64(r.Size())
	spans := [2]span{
		{"trie", uint64(h.TrieOffset), uint64(h.TrieSize)},
		{"points", uint64(h.PointsOffset), uint64(h.PointsSize)},
	}

	for _, s := range spans {
		if s.end() > total {
			return nil, nil, fmt.Errorf("%w: %s range [%d,%d) exceeds section of %d bytes", ErrCorruptIndex, s.name, s.off, s.end(), total)
		}
		if s.size > 0 && s.off < HeaderSize {
			return nil, nil, fmt.Errorf("%w: %s range [%d,%d) overlaps the header", ErrCorruptIndex, s.name, s.off, s.end())
		}
	}

	a, b := spans[0], spans[1]
	if a.size > 0 && b.size > 0 && a.off < b.end() && b.off < a.end() {
		return nil, nil, fmt.Errorf("%w: trie [%d,%d) overlaps points [%d,%d)", ErrCorruptIndex, a.off, a.end(), b.off, b.end())
	}

	trie, err = r.Sub(int64(a.off), int64(a.size))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	points, err = r.Sub(int64(b.off), int64(b.size))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return trie, points, nil
}
