// Package literal decodes PHP string and number literals from their source text.
package literal

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors for literal decoding.
var (
	// ErrCodePointRange is returned for a \u{...} escape above U+10FFFF.
	ErrCodePointRange = errors.New("unicode escape out of range")
	// ErrInvalidEscape is returned for a malformed \u{...} escape.
	ErrInvalidEscape = errors.New("invalid escape sequence")
	// ErrNotQuoted is returned when DecodeQuoted receives unquoted text.
	ErrNotQuoted = errors.New("literal is not quoted")
	// ErrInvalidNumber is returned for numeric text that is not a PHP number.
	ErrInvalidNumber = errors.New("invalid numeric literal")
)

// Delimiter selects the escape rules applied by Unescape.
type Delimiter byte

// Delimiters.
const (
	// Heredoc bodies honour double-quote escapes except \".
	Heredoc Delimiter = 0
	// DoubleQuote is a "..." string.
	DoubleQuote Delimiter = '"'
	// Backtick is a `...` shell command string.
	Backtick Delimiter = '`'
)

const (
	maxCodePoint   = 0x10FFFF
	maxHexDigits   = 2
	maxOctalDigits = 3
	byteMask       = 0xFF
	escapeChar     = 0x1B
)

// DecodeQuoted strips the delimiters (and an optional b/B prefix) from a
// single- or double-quoted literal and decodes its escapes.
func DecodeQuoted(raw string) (string, error) {
	if raw != "" && (raw[0] == 'b' || raw[0] == 'B') {
		raw = raw[1:]
	}

	if len(raw) < 2 || raw[len(raw)-1] != raw[0] {
		return "", fmt.Errorf("%w: %q", ErrNotQuoted, raw)
	}

	body := raw[1 : len(raw)-1]

	switch raw[0] {
	case '\'':
		return UnescapeSingle(body), nil
	case '"':
		return Unescape(body, DoubleQuote)
	case '`':
		return Unescape(body, Backtick)
	default:
		return "", fmt.Errorf("%w: %q", ErrNotQuoted, raw)
	}
}

// UnescapeSingle applies single-quote rules: only \\ and \' are escapes.
func UnescapeSingle(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && (body[i+1] == '\\' || body[i+1] == '\'') {
			i++
		}

		sb.WriteByte(body[i])
	}

	return sb.String()
}

// Unescape decodes the escape sequences of an interpolated string segment.
// Unknown escapes are kept verbatim, backslash included.
func Unescape(body string, delim Delimiter) (string, error) {
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)

			continue
		}

		next := body[i+1]

		if simple, ok := simpleEscape(next, delim); ok {
			sb.WriteByte(simple)

			i++

			continue
		}

		switch {
		case next == 'x' || next == 'X':
			v, n := scanDigits(body[i+2:], 16, maxHexDigits)
			if n == 0 {
				sb.WriteByte(c)

				continue
			}

			sb.WriteByte(byte(v))

			i += 1 + n
		case next >= '0' && next <= '7':
			v, n := scanDigits(body[i+1:], 8, maxOctalDigits)
			sb.WriteByte(byte(v & byteMask))

			i += n
		case next == 'u' && i+2 < len(body) && body[i+2] == '{':
			end := strings.IndexByte(body[i+3:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated \\u{", ErrInvalidEscape)
			}

			digits := body[i+3 : i+3+end]

			cp, err := strconv.ParseUint(digits, 16, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				return "", fmt.Errorf("%w: \\u{%s}", ErrInvalidEscape, digits)
			}

			if err != nil || cp > maxCodePoint {
				return "", fmt.Errorf("%w: U+%X", ErrCodePointRange, cp)
			}

			appendUTF8(&sb, uint32(cp))

			i += 3 + end
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String(), nil
}

func simpleEscape(c byte, delim Delimiter) (byte, bool) {
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'f':
		return '\f', true
	case 'v':
		return '\v', true
	case 'e':
		return escapeChar, true
	case '\\':
		return '\\', true
	case '$':
		return '$', true
	case '"', '`':
		if delim != Heredoc && Delimiter(c) == delim {
			return c, true
		}
	}

	return 0, false
}

func scanDigits(s string, base, limit int) (value, n int) {
	for n < len(s) && n < limit {
		d := digitValue(s[n])
		if d < 0 || d >= base {
			break
		}

		value = value*base + d
		n++
	}

	return value, n
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// appendUTF8 encodes a code point without rejecting surrogates, matching
// the byte sequences PHP produces for \u{D800}.
func appendUTF8(sb *strings.Builder, cp uint32) {
	switch {
	case cp < 0x80:
		sb.WriteByte(byte(cp))
	case cp < 0x800:
		sb.WriteByte(byte(0xC0 | cp>>6))
		sb.WriteByte(byte(0x80 | cp&0x3F))
	case cp < 0x10000:
		sb.WriteByte(byte(0xE0 | cp>>12))
		sb.WriteByte(byte(0x80 | cp>>6&0x3F))
		sb.WriteByte(byte(0x80 | cp&0x3F))
	default:
		sb.WriteByte(byte(0xF0 | cp>>18))
		sb.WriteByte(byte(0x80 | cp>>12&0x3F))
		sb.WriteByte(byte(0x80 | cp>>6&0x3F))
		sb.WriteByte(byte(0x80 | cp&0x3F))
	}
}

// ParseNumber converts an integer or float literal to int64 or float64.
// Integers that overflow int64 become float64, as PHP does.
func ParseNumber(text string) (any, error) {
	clean := strings.ReplaceAll(text, "_", "")
	if clean == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}

	lower := strings.ToLower(clean)

	base, digits := 10, lower

	switch {
	case strings.HasPrefix(lower, "0x"):
		base, digits = 16, lower[2:]
	case strings.HasPrefix(lower, "0b"):
		base, digits = 2, lower[2:]
	case strings.HasPrefix(lower, "0o"):
		base, digits = 8, lower[2:]
	case len(lower) > 1 && lower[0] == '0' && !strings.ContainsAny(lower, ".e"):
		base, digits = 8, lower[1:]
	case strings.ContainsAny(lower, ".e"):
		return parseFloat(text, lower)
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err == nil {
		return v, nil
	}

	if errors.Is(err, strconv.ErrRange) {
		u, uerr := strconv.ParseUint(digits, base, 64)
		if uerr == nil {
			return float64(u), nil
		}

		if base == 10 {
			return parseFloat(text, lower)
		}

		return overflowFloat(digits, base), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
}

func parseFloat(text, clean string) (any, error) {
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}

	return f, nil
}

func overflowFloat(digits string, base int) float64 {
	var f float64

	for i := range len(digits) {
		f = f*float64(base) + float64(digitValue(digits[i]))
	}

	if math.IsInf(f, 0) {
		return math.Inf(1)
	}

	return f
}

// StripIndent removes indent from the start of every line of s. When
// atLineStart is false, s continues a line begun elsewhere and its first
// line is left untouched.
func StripIndent(s, indent string, atLineStart bool) string {
	if indent == "" {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i == 0 && !atLineStart {
			continue
		}

		lines[i] = strings.TrimPrefix(line, indent)
	}

	return strings.Join(lines, "\n")
}
