package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func expectedCount(n, c, o int) int {
	if n == 0 {
		return 0
	}
	if n <= c {
		return 1
	}
	stride := c - o
	return (n - o + stride - 1) / stride
}

func TestSplit_Counts(t *testing.T) {
	cases := []struct {
		n, c, o int
	}{
		{0, 400, 80},
		{1, 400, 80},
		{80, 400, 80},
		{400, 400, 80},
		{401, 400, 80},
		{720, 400, 80},
		{721, 400, 80},
		{1000, 100, 20},
		{10, 3, 0},
		{10, 3, 2},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d c=%d o=%d", tc.n, tc.c, tc.o), func(t *testing.T) {
			chunks, err := Split(words(tc.n), tc.c, tc.o)
			require.NoError(t, err)
			assert.Len(t, chunks, expectedCount(tc.n, tc.c, tc.o))
		})
	}
}

func TestSplit_WindowsOverlap(t *testing.T) {
	chunks, err := Split(words(10), 4, 1)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	assert.Equal(t, "w0 w1 w2 w3", chunks[0])
	assert.Equal(t, "w3 w4 w5 w6", chunks[1])
	assert.Equal(t, "w6 w7 w8 w9", chunks[2])
}

func TestSplit_LastWindowReachesEnd(t *testing.T) {
	chunks, err := Split(words(1000), 100, 20)
	require.NoError(t, err)

	last := strings.Fields(chunks[len(chunks)-1])
	assert.Equal(t, "w999", last[len(last)-1])
}

func TestSplit_CollapsesWhitespace(t *testing.T) {
	chunks, err := Split("  alpha\n\nbeta\tgamma  ", DefaultChunkWords, DefaultOverlapWords)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha beta gamma"}, chunks)
}

func TestSplit_EmptyInput(t *testing.T) {
	chunks, err := Split(" \n\t ", DefaultChunkWords, DefaultOverlapWords)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_InvalidConfiguration(t *testing.T) {
	for _, tc := range []struct{ c, o int }{
		{80, 80},
		{50, 80},
		{0, 0},
		{10, -1},
	} {
		_, err := Split(words(100), tc.c, tc.o)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, "chunk=%d overlap=%d", tc.c, tc.o)
	}
}
