package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeText(t *testing.T) {
	assert.Equal(t, "a b c", SafeText("  a\n\tb   c  "))
	assert.Equal(t, "", SafeText("   "))
	assert.Equal(t, "nul stripped", SafeText("nul\x00 stripped"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "abc", TruncateText("abc", 5))
	assert.Equal(t, "abcde", TruncateText("abcdefgh", 5))
	// Rune-based, not byte-based.
	assert.Equal(t, "héllo", TruncateText("héllo wörld", 5))
	assert.Equal(t, "", TruncateText("", 5))
}

func TestCleanToValidUTF8(t *testing.T) {
	assert.Equal(t, "ok", CleanToValidUTF8("ok"))
	assert.Equal(t, "ab", CleanToValidUTF8("a\x00b"))
	cleaned := CleanToValidUTF8("bad\xff\xfebytes")
	assert.True(t, strings.HasPrefix(cleaned, "bad"))
	assert.True(t, strings.HasSuffix(cleaned, "bytes"))
}

func TestDaysSince(t *testing.T) {
	start := time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysSince(start, start, 90))
	assert.Equal(t, 1, DaysSince(start, start.AddDate(0, 0, 1), 90))
	assert.Equal(t, 45, DaysSince(start, start.Add(45*24*time.Hour), 90))
	// Clamped at both ends.
	assert.Equal(t, 90, DaysSince(start, start.AddDate(1, 0, 0), 90))
	assert.Equal(t, 0, DaysSince(start, start.AddDate(0, 0, -3), 90))
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}
