package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePassword_LengthAndAlphabet(t *testing.T) {
	for _, n := range []int{ApprovalPasswordLength, AdminPasswordLength, 32} {
		pw, err := GeneratePassword(n)
		require.NoError(t, err)
		assert.Len(t, pw, n)
		for _, r := range pw {
			assert.True(t, strings.ContainsRune(PasswordAlphabet, r), "unexpected rune %q", r)
		}
	}
}

func TestGeneratePassword_RejectsShortLength(t *testing.T) {
	_, err := GeneratePassword(8)
	assert.Error(t, err)
}

func TestGeneratePassword_NoRepeatsInPractice(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		pw, err := GeneratePassword(ApprovalPasswordLength)
		require.NoError(t, err)
		assert.False(t, seen[pw])
		seen[pw] = true
	}
}

func TestPasswordAlphabet_ExcludesAmbiguousRunes(t *testing.T) {
	assert.NotContains(t, PasswordAlphabet, "I")
	assert.NotContains(t, PasswordAlphabet, "O")
	assert.NotContains(t, PasswordAlphabet, "l")
	assert.NotContains(t, PasswordAlphabet, "0")
	assert.NotContains(t, PasswordAlphabet, "1")
}
