package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/tiptoe/pkg/domain"
)

var (
	// DefaultMaxLineSize is 4KB, far above any legitimate protocol line.
	DefaultMaxLineSize = 4096
	// EnvMaxLineSize is the environment variable to override the default.
	EnvMaxLineSize = "TIPTOE_MAX_LINE_SIZE"
)

// SanitizeLine enforces the size limit, validates UTF-8 and strips control
// characters (tabs are kept as token separators).
func SanitizeLine(line string) (string, error) {
	limit := maxLineSize()
	if len(line) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", domain.ErrLineTooLarge, len(line), limit)
	}

	if !utf8.ValidString(line) {
		return "", domain.ErrInvalidUTF8
	}

	clean := true
	for _, r := range line {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return line, nil
	}

	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\t' || r == '\r' || r == '\n'
}

func maxLineSize() int {
	if val := os.Getenv(EnvMaxLineSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxLineSize
}
