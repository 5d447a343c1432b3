package random_test

import (
	"testing"

	"github.com/ivargas/misterio/internal/random"
	"github.com/stretchr/testify/require"
)

func TestLetters(t *testing.T) {
	tests := []struct {
		name string
		n    uint
	}{
		{name: "empty", n: 0},
		{name: "single", n: 1},
		{name: "database id length", n: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := random.Letters(tt.n)
			require.NoError(t, err)
			require.Len(t, s, int(tt.n))
			for _, r := range s {
				require.True(t, (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'), "unexpected rune %q", r)
			}
		})
	}
}

func TestLetters_unique(t *testing.T) {
	a, err := random.Letters(20)
	require.NoError(t, err)
	b, err := random.Letters(20)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
