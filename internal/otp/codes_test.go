package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GenerateCode(CodeLength)
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9', "digit expected, got %q", c)
		}
		seen[code] = true
	}
	// 20 draws from a million-value space colliding down to one value would
	// mean a broken source.
	assert.Greater(t, len(seen), 1)
}

func TestGenerateCodeDefaultLength(t *testing.T) {
	code, err := GenerateCode(0)
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)
}

func TestHashAndVerifyCode(t *testing.T) {
	hash, err := HashCode("482910")
	require.NoError(t, err)
	assert.NotEqual(t, "482910", hash)

	assert.True(t, VerifyCode("482910", hash))
	assert.False(t, VerifyCode("482911", hash))
}
