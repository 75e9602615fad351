package mocks

import (
	"strings"

	"github.com/mcoot/proplatform/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
	fallbacks     int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom that returns the given strings in order
func NewMockRandom(results ...string) *MockRandom {
	return &MockRandom{StringResults: results}
}

// String returns the next queued result. Once the queue is exhausted it counts
// upward in the alphabet (AAAA, AAAB, ...) so later draws never repeat.
func (r *MockRandom) String(length int, alphabet string) string {
	if r.stringIndex < len(r.StringResults) {
		result := r.StringResults[r.stringIndex]
		r.stringIndex++
		return result
	}
	if alphabet == "" || length <= 0 {
		return ""
	}

	n := r.fallbacks
	r.fallbacks++

	out := []byte(strings.Repeat(alphabet[:1], length))
	for i := length - 1; i >= 0 && n > 0; i-- {
		out[i] = alphabet[n%len(alphabet)]
		n /= len(alphabet)
	}
	return string(out)
}
