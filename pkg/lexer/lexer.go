// Package lexer tokenizes ardan source text. It keeps the teacher's
// (nooga-paserati) readChar/peekChar scanning idiom and byte-offset
// position tracking, stripped of the TypeScript-only token kinds
// (generics, type annotations) that package's lexer also recognizes.
package lexer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/ardan-lang/ardan/pkg/token"
)

// Lexer scans a single source string into a token stream.
type Lexer struct {
	input        string
	position     int  // current byte offset (points to ch)
	readPosition int  // next byte offset to read
	ch           byte // current byte under examination, 0 at EOF
	line         int
	column       int
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) newToken(tt token.Type, lit string, line, col int) token.Token {
	return token.Token{Type: tt, Literal: lit, Line: line, Column: col}
}

// NextToken scans and returns the next token in the input.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	line, col := l.line, l.column

	switch l.ch {
	case 0:
		return l.newToken(token.EOF, "", line, col)
	case '+':
		if l.peekChar() == '+' {
			l.readChar()
			l.readChar()
			return l.newToken(token.INCREMENT, "++", line, col)
		}
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.PLUS_EQ, "+=", line, col)
		}
		l.readChar()
		return l.newToken(token.PLUS, "+", line, col)
	case '-':
		if l.peekChar() == '-' {
			l.readChar()
			l.readChar()
			return l.newToken(token.DECREMENT, "--", line, col)
		}
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.MINUS_EQ, "-=", line, col)
		}
		l.readChar()
		return l.newToken(token.MINUS, "-", line, col)
	case '*':
		if l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			return l.newToken(token.STAR_STAR, "**", line, col)
		}
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.STAR_EQ, "*=", line, col)
		}
		l.readChar()
		return l.newToken(token.STAR, "*", line, col)
	case '/':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.SLASH_EQ, "/=", line, col)
		}
		l.readChar()
		return l.newToken(token.SLASH, "/", line, col)
	case '%':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.PERCENT_EQ, "%=", line, col)
		}
		l.readChar()
		return l.newToken(token.PERCENT, "%", line, col)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				l.readChar()
				return l.newToken(token.SEQ, "===", line, col)
			}
			l.readChar()
			return l.newToken(token.EQ, "==", line, col)
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return l.newToken(token.ARROW, "=>", line, col)
		}
		l.readChar()
		return l.newToken(token.ASSIGN, "=", line, col)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				l.readChar()
				return l.newToken(token.SNEQ, "!==", line, col)
			}
			l.readChar()
			return l.newToken(token.NOT_EQ, "!=", line, col)
		}
		l.readChar()
		return l.newToken(token.BANG, "!", line, col)
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.LT_EQ, "<=", line, col)
		}
		l.readChar()
		return l.newToken(token.LT, "<", line, col)
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return l.newToken(token.GT_EQ, ">=", line, col)
		}
		l.readChar()
		return l.newToken(token.GT, ">", line, col)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return l.newToken(token.AND, "&&", line, col)
		}
		l.readChar()
		return l.newToken(token.ILLEGAL, "&", line, col)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return l.newToken(token.OR, "||", line, col)
		}
		l.readChar()
		return l.newToken(token.ILLEGAL, "|", line, col)
	case '?':
		if l.peekChar() == '?' {
			l.readChar()
			l.readChar()
			return l.newToken(token.NULLISH, "??", line, col)
		}
		if l.peekChar() == '.' {
			l.readChar()
			l.readChar()
			return l.newToken(token.OPTIONAL, "?.", line, col)
		}
		l.readChar()
		return l.newToken(token.QUESTION, "?", line, col)
	case '.':
		if l.peekChar() == '.' && l.hasDotDotAfterPeek() {
			l.readChar()
			l.readChar()
			l.readChar()
			return l.newToken(token.SPREAD, "...", line, col)
		}
		l.readChar()
		return l.newToken(token.DOT, ".", line, col)
	case ':':
		l.readChar()
		return l.newToken(token.COLON, ":", line, col)
	case ',':
		l.readChar()
		return l.newToken(token.COMMA, ",", line, col)
	case ';':
		l.readChar()
		return l.newToken(token.SEMICOLON, ";", line, col)
	case '(':
		l.readChar()
		return l.newToken(token.LPAREN, "(", line, col)
	case ')':
		l.readChar()
		return l.newToken(token.RPAREN, ")", line, col)
	case '{':
		l.readChar()
		return l.newToken(token.LBRACE, "{", line, col)
	case '}':
		l.readChar()
		return l.newToken(token.RBRACE, "}", line, col)
	case '[':
		l.readChar()
		return l.newToken(token.LBRACKET, "[", line, col)
	case ']':
		l.readChar()
		return l.newToken(token.RBRACKET, "]", line, col)
	case '"', '\'':
		str := l.readString(l.ch)
		return l.newToken(token.STRING, str, line, col)
	case '`':
		str := l.readTemplateRaw()
		return l.newToken(token.TEMPLATE_STRING, str, line, col)
	}

	if isDigit(l.ch) {
		lit := l.readNumber()
		return l.newToken(token.NUMBER, lit, line, col)
	}
	if l.canStartIdentifier() {
		lit := l.readIdentifier()
		return l.newToken(token.LookupIdent(lit), lit, line, col)
	}

	ch := string(l.ch)
	l.readChar()
	return l.newToken(token.ILLEGAL, ch, line, col)
}

func (l *Lexer) hasDotDotAfterPeek() bool {
	idx := l.readPosition + 1
	return idx < len(l.input) && l.input[idx] == '.'
}

func (l *Lexer) canStartIdentifier() bool {
	if isLetter(l.ch) || l.ch == '_' || l.ch == '$' {
		return true
	}
	return l.ch >= 0x80
}

// readIdentifier consumes an identifier and NFC-normalizes it, so that
// `café` and its decomposed-accent spelling intern to the same constant
// pool string (SPEC_FULL.md §B).
func (l *Lexer) readIdentifier() string {
	start := l.position
	for l.canStartIdentifier() || isDigit(l.ch) {
		l.readChar()
	}
	raw := l.input[start:l.position]
	if !norm.NFC.IsNormalString(raw) {
		return norm.NFC.String(raw)
	}
	return raw
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := l.position
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if isDigit(l.ch) {
			for isDigit(l.ch) {
				l.readChar()
			}
		} else {
			l.position = save
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readString(quote byte) string {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			sb.WriteByte(unescape(l.ch))
			l.readChar()
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	return sb.String()
}

// readTemplateRaw reads the raw body between backticks, leaving
// interpolation splitting to the parser's template-parsing helper.
func (l *Lexer) readTemplateRaw() string {
	l.readChar()
	start := l.position
	depth := 0
	for l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == '`' && depth == 0 {
			break
		}
		if l.ch == '$' && l.peekChar() == '{' {
			depth++
			l.readChar()
			l.readChar()
			continue
		}
		if l.ch == '}' && depth > 0 {
			depth--
		}
		l.readChar()
	}
	raw := l.input[start:l.position]
	l.readChar()
	return raw
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isLetter(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// RuneIsIdentStart reports whether r can start an identifier; kept for
// callers built on top of this lexer that decode multi-byte runes
// explicitly rather than driving NextToken directly.
func RuneIsIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}
