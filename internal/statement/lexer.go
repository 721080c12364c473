package statement

type tokenType int

const (
	tokenWord tokenType = iota
	tokenPlaceholder
	tokenQuoted
	tokenParenOpen
	tokenParenClose
	tokenSemicolon
	tokenOther
	tokenUnterminated
	tokenEOF
)

type token struct {
	typ   tokenType
	value string
	pos   int
}

// lexer splits SQL text into the few token classes needed to classify a
// statement and find its parameters. It does not parse SQL.
type lexer struct {
	sql          string
	position     int
	readPosition int
	ch           byte
}

func newLexer(sql string) *lexer {
	l := &lexer{sql: sql}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPosition >= len(l.sql) {
		l.ch = 0
	} else {
		l.ch = l.sql[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *lexer) peekChar() byte {
	if l.readPosition >= len(l.sql) {
		return 0
	}
	return l.sql[l.readPosition]
}

func (l *lexer) atEnd() bool {
	return l.position >= len(l.sql)
}

func (l *lexer) nextToken() token {
	l.skipWhitespaceAndComments()

	start := l.position
	if l.atEnd() {
		return token{typ: tokenEOF, pos: start}
	}

	switch ch := l.ch; {
	case ch == '\'' || ch == '"' || ch == '`':
		return l.readQuoted(ch, ch)
	case ch == '[':
		return l.readQuoted('[', ']')
	case ch == '(':
		l.readChar()
		return token{typ: tokenParenOpen, value: "(", pos: start}
	case ch == ')':
		l.readChar()
		return token{typ: tokenParenClose, value: ")", pos: start}
	case ch == ';':
		l.readChar()
		return token{typ: tokenSemicolon, value: ";", pos: start}
	case ch == '?':
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		return token{typ: tokenPlaceholder, value: l.sql[start:l.position], pos: start}
	case (ch == ':' || ch == '@' || ch == '$') && isWordChar(l.peekChar()):
		l.readChar()
		for isWordChar(l.ch) {
			l.readChar()
		}
		return token{typ: tokenPlaceholder, value: l.sql[start:l.position], pos: start}
	case isWordChar(ch):
		for isWordChar(l.ch) {
			l.readChar()
		}
		return token{typ: tokenWord, value: l.sql[start:l.position], pos: start}
	default:
		l.readChar()
		return token{typ: tokenOther, value: l.sql[start:l.position], pos: start}
	}
}

func (l *lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for !l.atEnd() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			// SQLite closes an unterminated block comment at end of input
			for !l.atEnd() && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if !l.atEnd() {
				l.readChar()
				l.readChar()
			}
		default:
			return
		}
	}
}

// readQuoted consumes a string literal or quoted identifier.
// A doubled closing quote is an escaped quote.
func (l *lexer) readQuoted(open, close byte) token {
	start := l.position
	l.readChar()
	for !l.atEnd() {
		if l.ch == close {
			if open != '[' && l.peekChar() == close {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return token{typ: tokenQuoted, value: l.sql[start:l.position], pos: start}
		}
		l.readChar()
	}
	return token{typ: tokenUnterminated, value: l.sql[start:], pos: start}
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordChar(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || isDigit(ch) || ch == '_' || ch >= 0x80
}
