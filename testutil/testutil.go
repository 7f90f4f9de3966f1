package testutil

import (
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/postcodes/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint32 returns a pseudo-random uint32.
func (r *RNG) Uint32() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint32()
}

// Point returns a uniformly distributed point over the valid coordinate range.
func (r *RNG) Point() model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return model.Point{
		Lon: r.rand.Float64()*360 - 180,
		Lat: r.rand.Float64()*180 - 90,
	}
}

const (
	letters = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
)

// Postcode returns a random UK-shaped postcode split into outward and inward
// codes, already normalized (lower case).
func (r *RNG) Postcode() (outward, inward string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for range 1 + r.rand.Intn(2) {
		b.WriteByte(letters[r.rand.Intn(len(letters))])
	}
	for range 1 + r.rand.Intn(2) {
		b.WriteByte(digits[r.rand.Intn(len(digits))])
	}
	outward = b.String()

	b.Reset()
	b.WriteByte(digits[r.rand.Intn(len(digits))])
	for range 2 {
		b.WriteByte(letters[r.rand.Intn(len(letters))])
	}
	return outward, b.String()
}

// Oracle is a brute-force reference for postcode token matching.
type Oracle struct {
	keys [][]string
	ids  []model.PointID
}

// NewOracle creates an empty oracle.
func NewOracle() *Oracle {
	return &Oracle{}
}

// Add associates a token key with a point id.
func (o *Oracle) Add(key []string, id model.PointID) {
	o.keys = append(o.keys, slices.Clone(key))
	o.ids = append(o.ids, id)
}

// Match returns the sorted ids whose key is matched by tokens.
//
// All tokens but the last must match exactly; the last one matches exactly or
// as a prefix. A single-token query matches every key below the matched
// first token.
func (o *Oracle) Match(tokens []string, lastIsPrefix bool) []model.PointID {
	if len(tokens) == 0 {
		return nil
	}
	var out []model.PointID
	for i, key := range o.keys {
		if matchKey(key, tokens, lastIsPrefix) {
			out = append(out, o.ids[i])
		}
	}
	slices.Sort(out)
	return out
}

func matchKey(key, tokens []string, lastIsPrefix bool) bool {
	if len(key) < len(tokens) {
		return false
	}
	last := len(tokens) - 1
	for i := range last {
		if key[i] != tokens[i] {
			return false
		}
	}
	if lastIsPrefix {
		if !strings.HasPrefix(key[last], tokens[last]) {
			return false
		}
	} else if key[last] != tokens[last] {
		return false
	}
	// Multi-token queries only match the explicit path.
	return len(tokens) == 1 || len(key) == len(tokens)
}
