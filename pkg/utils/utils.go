package utils

import (
	"context"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"golang-stock-advisor/pkg/logger"
)

// GoSafe runs fn in a goroutine and recovers panics so a single bad
// item cannot take down the whole service.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.PrintStack()
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Info("Context cancelled, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes.
func CleanToValidUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// SafeText collapses repeated whitespace so article bodies store compactly.
func SafeText(s string) string {
	return strings.Join(strings.Fields(CleanToValidUTF8(s)), " ")
}

// TruncateText bounds s to max runes, the input limit of the sentiment classifier.
func TruncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// ContainsString reports whether list contains s.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
