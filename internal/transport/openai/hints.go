package openai

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// retryPattern matches the "Please try again in 20s" / "in 1.5 seconds" hint
// the API embeds in rate-limit error messages.
var retryPattern = regexp.MustCompile(`(?i)try again in\s+([0-9]+(?:\.[0-9]+)?)\s*(ms|s|seconds?)`)

// retryAfterHint extracts a suggested retry delay from a rate-limit message.
// Returns 0 when the service provided none.
func retryAfterHint(message string) time.Duration {
	m := retryPattern.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	unit := time.Second
	if strings.EqualFold(m[2], "ms") {
		unit = time.Millisecond
	}
	return time.Duration(value * float64(unit))
}

func containsAny(code, message string, needles ...string) bool {
	haystack := strings.ToLower(code + " " + message)
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
