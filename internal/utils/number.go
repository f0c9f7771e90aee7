package utils

import (
	"strconv"

	"github.com/nexusclub/member-gate/internal/model"
)

// maxDigits bounds sanitized input length; PoolMax is five digits.
const maxDigits = 5

// SanitizeDigits strips every non-digit character from raw input and
// truncates the result to five characters.  Keystroke input arrives with
// whatever the soft keyboard produced; only the digits matter.
func SanitizeDigits(raw string) string {
	out := make([]byte, 0, maxDigits)
	for i := 0; i < len(raw) && len(out) < maxDigits; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			out = append(out, c)
		}
	}
	return string(out)
}

// ParseMemberNumber parses sanitized input into a membership number.  The
// boolean is false when the input does not parse to an integer in
// [1, model.PoolMax].
func ParseMemberNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > model.PoolMax {
		return 0, false
	}
	return n, true
}
