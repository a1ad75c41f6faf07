package template

import "unicode/utf8"

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText TokenType = iota // Literal text
	TokenName                  // Name between delimiters, e.g. PROBLEM in @PROBLEM@
	TokenEOF                   // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenName:
		return "NAME"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer splits a template into text and name tokens.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens ending with TokenEOF.
// Adjacent text is merged, so text and name tokens alternate.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token

	for {
		tok := l.nextToken()
		if tok.Type == TokenText && len(tokens) > 0 && tokens[len(tokens)-1].Type == TokenText {
			tokens[len(tokens)-1].Value += tok.Value
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) nextToken() Token {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}
	}

	if n := l.nameLength(); n > 0 {
		return l.scanName(n)
	}

	return l.scanText()
}

// scanText consumes at least one rune and stops before the next delimiter.
func (l *Lexer) scanText() Token {
	l.markStart()
	start := l.pos

	l.advance()
	for l.pos < len(l.input) && l.peek() != Delimiter {
		l.advance()
	}

	return Token{
		Type:  TokenText,
		Value: l.input[start:l.pos],
		Pos:   l.startPosition(),
	}
}

// scanName consumes @NAME@, where n is the length of NAME.
func (l *Lexer) scanName(n int) Token {
	l.markStart()
	name := l.input[l.pos+1 : l.pos+1+n]

	// Names never contain newlines, so columns advance by byte count.
	l.pos += n + 2
	l.col += n + 2

	return Token{
		Type:  TokenName,
		Value: name,
		Pos:   l.startPosition(),
	}
}

// nameLength returns the length of NAME if the input at the current position
// is @NAME@, or 0.
func (l *Lexer) nameLength() int {
	if l.input[l.pos] != Delimiter {
		return 0
	}
	rest := l.input[l.pos+1:]
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case c == Delimiter:
			return i
		case isNameStart(c):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return 0
		}
	}
	return 0
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}
