package tokenize

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AA11 0AB", "aa11 0ab"},
		{"Çà1", "ca1"},
		{"ÄÖÜ", "aou"},
		{"", ""},
		{"sw1a 1aa", "sw1a 1aa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"aa11", "0"}, Split("aa11 0"))
	assert.Equal(t, []string{"aa11", "0ab"}, Split("  aa11,\t0ab  "))
	assert.Equal(t, []string{"aa11", "0"}, Split("aa11-0"))
	assert.Empty(t, Split(" ,.- "))
}

func TestQuery(t *testing.T) {
	tests := []struct {
		in     string
		tokens []string
		prefix bool
	}{
		{"AA1", []string{"aa1"}, true},
		{"AA11 0", []string{"aa11", "0"}, true},
		{"AA11 ", []string{"aa11"}, false},
		{"aa11 0ab.", []string{"aa11", "0ab"}, false},
		{"Àa11", []string{"aa11"}, true},
		{"", nil, false},
		{"   ", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Query(tt.in)
			if len(tt.tokens) == 0 {
				assert.True(t, got.Empty())
				assert.False(t, got.LastIsPrefix())
				return
			}
			assert.Equal(t, tt.tokens, got.Tokens())
			assert.Equal(t, tt.prefix, got.LastIsPrefix())
		})
	}
}

func TestExact(t *testing.T) {
	got := Exact("AA11 0")
	assert.Equal(t, []string{"aa11", "0"}, got.Tokens())
	assert.False(t, got.LastIsPrefix())
	assert.True(t, Exact("-").Empty())
}

func TestQuery_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Equal(t, []string{"aa11", "0"}, Query("ÀA11 0").Tokens())
			}
		}()
	}
	wg.Wait()
}
