package bsl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/bslcheck/pkg/safeconv"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
)

type tokKind uint8

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokPunct
)

// token is one lexeme of a single line. Start is an absolute byte offset
// into the module source; for string tokens Text is the unquoted content
// while the span still covers the quotes.
type token struct {
	kind  tokKind
	text  string
	start uint32
	width uint32
}

func (t token) span() source.Span {
	return source.NewSpan(t.start, t.width)
}

func (t token) fold() string {
	return strings.ToLower(t.text)
}

func (t token) isPunct(s string) bool {
	return t.kind == tokPunct && t.text == s
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// lexLine tokenizes one line. base is the byte offset of the line within the
// module source. A // comment terminates the token stream.
func lexLine(line string, base uint32) []token {
	var toks []token
	i := 0

	abs := func(at int) uint32 {
		return base + safeconv.MustIntToUint32(at)
	}

	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])

		switch {
		case r == ' ' || r == '\t' || r == '\r':
			i += size
		case r == '/' && strings.HasPrefix(line[i:], "//"):
			return toks
		case isIdentStart(r):
			start := i
			for i < len(line) {
				rr, sz := utf8.DecodeRuneInString(line[i:])
				if !isIdentPart(rr) {
					break
				}
				i += sz
			}
			toks = append(toks, token{kind: tokIdent, text: line[start:i], start: abs(start), width: uint32(i - start)})
		case r >= '0' && r <= '9':
			start := i
			for i < len(line) && (line[i] >= '0' && line[i] <= '9' || line[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: line[start:i], start: abs(start), width: uint32(i - start)})
		case r == '"':
			start := i
			i++
			var sb strings.Builder
			for i < len(line) {
				if line[i] == '"' {
					if i+1 < len(line) && line[i+1] == '"' {
						sb.WriteByte('"')
						i += 2

						continue
					}
					i++

					break
				}
				sb.WriteByte(line[i])
				i++
			}
			toks = append(toks, token{kind: tokString, text: sb.String(), start: abs(start), width: uint32(i - start)})
		case r == '<' || r == '>':
			start := i
			i += size
			if i < len(line) && (line[i] == '=' || (r == '<' && line[i] == '>')) {
				i++
			}
			toks = append(toks, token{kind: tokPunct, text: line[start:i], start: abs(start), width: uint32(i - start)})
		default:
			toks = append(toks, token{kind: tokPunct, text: line[i : i+size], start: abs(i), width: uint32(size)})
			i += size
		}
	}

	return toks
}
