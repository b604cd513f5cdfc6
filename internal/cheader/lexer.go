// Copyright 2024 The maxsat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cheader

import (
	"strconv"
	"strings"
)

type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tNumber
	tChar
	tString
	tPunct
)

type token struct {
	kind tokKind
	text string
	pos  Pos
	sys  bool // from a system header
}

func (t token) String() string {
	if t.kind == tEOF {
		return "end of input"
	}
	return strconv.Quote(t.text)
}

// macro is an object-like #define seen in the input.
type macro struct {
	name  string
	body  string
	pos   Pos
	sys   bool
	order int // index of the token that follows the definition
	seq   int
}

var puncts = []string{
	"...", "<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=", "##",
}

// lexer splits preprocessor output into tokens. It consumes linemarkers and
// #define/#undef lines itself.
type lexer struct {
	src  []byte
	i    int
	file string
	line int
	sys  bool
	skip bool // inside <built-in> or <command-line>
	bol  bool

	macros map[string]*macro
	ntok   int // tokens produced so far; orders macros among declarations
	seq    int
	err    *Error
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, bol: true, macros: make(map[string]*macro)}
}

func (l *lexer) pos() Pos {
	return Pos{File: l.file, Line: l.line}
}

func (l *lexer) fail(format string, args ...any) {
	if l.err == nil {
		l.err = errorf(l.pos(), format, args...)
	}
}

// tokens lexes the whole input.
func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		l.ntok = len(toks)
		t := l.next()
		if l.err != nil {
			return nil, l.err
		}
		toks = append(toks, t)
		if t.kind == tEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() token {
	for {
		l.skipSpace()
		if l.i >= len(l.src) {
			return token{kind: tEOF, pos: l.pos(), sys: l.sys}
		}
		if l.bol && l.src[l.i] == '#' {
			l.directive()
			continue
		}
		if l.skip {
			l.skipLine()
			continue
		}
		l.bol = false
		return l.lex()
	}
}

func (l *lexer) skipSpace() {
	for l.i < len(l.src) {
		switch c := l.src[l.i]; {
		case c == '\n':
			l.line++
			l.bol = true
			l.i++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.i++
		case c == '\\' && l.i+1 < len(l.src) && l.src[l.i+1] == '\n':
			l.i += 2
			l.line++
		case c == '/' && l.i+1 < len(l.src) && l.src[l.i+1] == '/':
			for l.i < len(l.src) && l.src[l.i] != '\n' {
				l.i++
			}
		case c == '/' && l.i+1 < len(l.src) && l.src[l.i+1] == '*':
			end := strings.Index(string(l.src[l.i+2:]), "*/")
			if end < 0 {
				l.fail("unterminated comment")
				l.i = len(l.src)
				return
			}
			l.line += strings.Count(string(l.src[l.i:l.i+2+end]), "\n")
			l.i += end + 4
		default:
			return
		}
	}
}

func (l *lexer) skipLine() {
	for l.i < len(l.src) && l.src[l.i] != '\n' {
		l.i++
	}
}

// directive handles one '#' line: linemarkers, #line, #define and #undef.
// Anything else (#pragma, #ident) is ignored.
func (l *lexer) directive() {
	start := l.i + 1
	for l.i < len(l.src) && l.src[l.i] != '\n' {
		if l.src[l.i] == '\\' && l.i+1 < len(l.src) && l.src[l.i+1] == '\n' {
			l.i++
			l.line++
		}
		l.i++
	}
	text := strings.ReplaceAll(string(l.src[start:l.i]), "\\\n", " ")
	pos := l.pos()
	text = strings.TrimSpace(text)
	word, rest := cutWord(text)
	switch {
	case word == "line":
		word, rest = cutWord(rest)
		fallthrough
	case word != "" && word[0] >= '0' && word[0] <= '9':
		l.linemarker(word, rest)
	case word == "define":
		if !l.skip {
			l.define(rest, pos)
		}
	case word == "undef":
		name, _ := cutWord(rest)
		delete(l.macros, name)
	}
}

func (l *lexer) linemarker(num, rest string) {
	n, err := strconv.Atoi(num)
	if err != nil {
		l.fail("bad linemarker %q", num)
		return
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		end := closingQuote(rest)
		name, err := unescapeC(rest[1:end])
		if err != nil {
			l.fail("bad linemarker file name %s", rest)
			return
		}
		l.file = name
		rest = rest[end+1:]
		l.sys = false
		for _, flag := range strings.Fields(rest) {
			if flag == "3" {
				l.sys = true
			}
		}
	}
	l.skip = l.file == "<built-in>" || l.file == "<command-line>"
	// The newline ending this directive advances to line n.
	l.line = n - 1
}

func (l *lexer) define(rest string, pos Pos) {
	name, body := cutIdent(rest)
	if name == "" {
		return
	}
	if strings.HasPrefix(body, "(") {
		delete(l.macros, name) // function-like
		return
	}
	l.seq++
	l.macros[name] = &macro{name: name, body: strings.TrimSpace(body), pos: pos, sys: l.sys, order: l.ntok, seq: l.seq}
}

func (l *lexer) lex() token {
	t := token{pos: l.pos(), sys: l.sys}
	start := l.i
	c := l.src[l.i]
	switch {
	case isIdentStart(c):
		for l.i < len(l.src) && isIdentChar(l.src[l.i]) {
			l.i++
		}
		word := string(l.src[start:l.i])
		if (word == "L" || word == "u" || word == "U" || word == "u8") && l.i < len(l.src) && (l.src[l.i] == '"' || l.src[l.i] == '\'') {
			q := l.src[l.i]
			l.quoted(q)
			t.kind = tString
			if q == '\'' {
				t.kind = tChar
			}
			t.text = string(l.src[start:l.i])
			return t
		}
		t.kind, t.text = tIdent, word
	case isDigit(c) || (c == '.' && l.i+1 < len(l.src) && isDigit(l.src[l.i+1])):
		for l.i < len(l.src) {
			ch := l.src[l.i]
			if (ch == '+' || ch == '-') && strings.ContainsRune("eEpP", rune(l.src[l.i-1])) {
				l.i++
				continue
			}
			if !isIdentChar(ch) && ch != '.' {
				break
			}
			l.i++
		}
		t.kind, t.text = tNumber, string(l.src[start:l.i])
	case c == '"' || c == '\'':
		l.quoted(c)
		t.kind = tString
		if c == '\'' {
			t.kind = tChar
		}
		t.text = string(l.src[start:l.i])
	default:
		t.kind = tPunct
		for _, p := range puncts {
			if strings.HasPrefix(string(l.src[l.i:min(l.i+3, len(l.src))]), p) {
				l.i += len(p)
				t.text = p
				return t
			}
		}
		l.i++
		t.text = string(c)
	}
	return t
}

// quoted consumes a string or character literal starting at the quote.
func (l *lexer) quoted(q byte) {
	l.i++
	for l.i < len(l.src) {
		switch l.src[l.i] {
		case '\\':
			l.i += 2
			continue
		case '\n':
			l.fail("unterminated literal")
			return
		case q:
			l.i++
			return
		}
		l.i++
	}
	l.fail("unterminated literal")
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func cutWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func cutIdent(s string) (ident, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	if i == 0 || isDigit(s[0]) {
		return "", s
	}
	return s[:i], s[i:]
}

// closingQuote returns the index of the quote closing the literal that
// opens at s[0].
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case s[0]:
			return i
		}
	}
	return len(s) - 1
}

// unescapeC decodes the body of a C string or character literal.
func unescapeC(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", strconv.ErrSyntax
		}
		switch c = s[i]; c {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case 'e':
			b.WriteByte(0x1b)
		case '\\', '\'', '"', '?':
			b.WriteByte(c)
		case 'x':
			j := i + 1
			for j < len(s) && strings.IndexByte("0123456789abcdefABCDEF", s[j]) >= 0 {
				j++
			}
			if j == i+1 {
				return "", strconv.ErrSyntax
			}
			v, err := strconv.ParseUint(s[i+1:j], 16, 64)
			if err != nil || v > 0xff {
				return "", strconv.ErrRange
			}
			b.WriteByte(byte(v))
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && '0' <= s[j] && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 64)
			if v > 0xff {
				return "", strconv.ErrRange
			}
			b.WriteByte(byte(v))
			i = j - 1
		default:
			return "", strconv.ErrSyntax
		}
	}
	return b.String(), nil
}
