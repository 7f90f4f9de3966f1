package model

import (
	"fmt"
	"math"
	"strings"
)

// PointID is a dense, section-local identifier of a point table entry.
type PointID uint32

// Point is a geographic coordinate in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lon, p.Lat)
}

// AlmostEqual reports whether both components differ by at most eps.
func (p Point) AlmostEqual(o Point, eps float64) bool {
	return math.Abs(p.Lon-o.Lon) <= eps && math.Abs(p.Lat-o.Lat) <= eps
}

// Less orders points by longitude, then latitude.
func (p Point) Less(o Point) bool {
	if p.Lon != o.Lon {
		return p.Lon < o.Lon
	}
	return p.Lat < o.Lat
}

// ComparePoints is a cmp-style comparator for slices.SortFunc.
func ComparePoints(a, b Point) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// TokenSlice is an ordered sequence of normalized query tokens.
//
// Only the last token can be a prefix: it is matched against every edge
// label it starts, which is what incremental (type-ahead) search needs.
type TokenSlice struct {
	tokens       []string
	lastIsPrefix bool
}

// NewTokenSlice creates a TokenSlice. The tokens slice is retained.
func NewTokenSlice(tokens []string, lastIsPrefix bool) TokenSlice {
	return TokenSlice{tokens: tokens, lastIsPrefix: lastIsPrefix}
}

// Len returns the number of tokens.
func (s TokenSlice) Len() int { return len(s.tokens) }

// Empty reports whether the slice holds no tokens.
func (s TokenSlice) Empty() bool { return len(s.tokens) == 0 }

// Token returns the i-th token.
func (s TokenSlice) Token(i int) string { return s.tokens[i] }

// Tokens returns the underlying tokens. Callers must not modify them.
func (s TokenSlice) Tokens() []string { return s.tokens }

// IsPrefix reports whether the i-th token should be prefix-matched.
func (s TokenSlice) IsPrefix(i int) bool {
	return s.lastIsPrefix && i == len(s.tokens)-1
}

// LastIsPrefix reports whether the final token is a prefix.
func (s TokenSlice) LastIsPrefix() bool { return s.lastIsPrefix }

// String implements fmt.Stringer.
func (s TokenSlice) String() string {
	q := strings.Join(s.tokens, " ")
	if s.lastIsPrefix {
		return q + "*"
	}
	return q
}
