// Package normalize strips source comments and measures what is left.
package normalize

import "strings"

const (
	stateCode = iota
	stateString
	stateLineComment
	stateBlockComment
)

// Normalize removes // line comments and /* */ block comments that appear
// outside of string literals. Lines that held nothing but a comment are
// dropped; blank lines that were already present are kept. It returns the
// stripped text and its line count (the number of "\n"-separated segments).
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, int) {
	text := Strip(raw)
	return text, CountLines(text)
}

// CountLines counts "\n"-separated segments; the empty string has one.
func CountLines(text string) int {
	return strings.Count(text, "\n") + 1
}

// Strip is the comment-removal half of Normalize.
func Strip(raw string) string {
	src := strings.ReplaceAll(raw, "\r\n", "\n")

	var (
		out        strings.Builder
		line       strings.Builder
		state      = stateCode
		quote      byte
		hadComment bool
		wrote      bool
	)
	out.Grow(len(src))

	flush := func(final bool) {
		l := line.String()
		line.Reset()
		if hadComment {
			l = strings.TrimRight(l, " \t")
			hadComment = false
			if strings.TrimSpace(l) == "" {
				if final && wrote {
					// Drop the separator that would otherwise leave a trailing empty line.
					s := strings.TrimSuffix(out.String(), "\n")
					out.Reset()
					out.WriteString(s)
				}
				return
			}
		}
		out.WriteString(l)
		if !final {
			out.WriteByte('\n')
		}
		wrote = true
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		var next byte
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case c == '/' && next == '/':
				state = stateLineComment
				hadComment = true
				i++
			case c == '/' && next == '*':
				state = stateBlockComment
				hadComment = true
				i++
			case c == '"' || c == '\'' || c == '`':
				state = stateString
				quote = c
				line.WriteByte(c)
			case c == '\n':
				flush(false)
			default:
				line.WriteByte(c)
			}

		case stateString:
			switch {
			case c == '\\' && next != 0 && next != '\n':
				line.WriteByte(c)
				line.WriteByte(next)
				i++
			case c == quote:
				state = stateCode
				line.WriteByte(c)
			case c == '\n':
				// Only template literals span lines; anything else was not a string.
				if quote != '`' {
					state = stateCode
				}
				flush(false)
			default:
				line.WriteByte(c)
			}

		case stateLineComment:
			if c == '\n' {
				state = stateCode
				flush(false)
			}

		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateCode
				i++
			}
		}
	}
	flush(true)

	return out.String()
}
