package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+$`)

func TestNew(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		s, err := New()
		require.NoError(t, err)
		assert.Len(t, s, Length)
		assert.Regexp(t, slugRe, s)
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, 200)
}

func TestNewToken(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, tok, TokenLength)
	assert.Regexp(t, slugRe, tok)
}

func TestRandom_Empty(t *testing.T) {
	s, err := Random(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
