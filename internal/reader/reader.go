// Package reader is minimal CLI/test scaffolding: a textual
// S-expression reader that turns source text directly into
// value.Value trees. It is explicitly not a core component (spec.md
// §1's Non-goals exclude the reader/printer); its lexer/parser
// structure is grounded on the teacher's pkg/sexp/parser.go
// rune-indexed token scanner.
package reader

import (
	"fmt"
	"strconv"

	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/symbol"
	"github.com/corelisp/corelisp/pkg/value"
)

// SyntaxError reports a malformed input at a rune offset, mirroring the
// teacher's span-tagged parse errors in spirit (without carrying a full
// source-span type, which this scaffolding has no other use for).
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("reader: %s (at offset %d)", e.Msg, e.Offset)
}

// Reader turns source text into value.Value forms, allocating cons
// cells and strings in blk and interning symbols through symbols.
type Reader struct {
	text    []rune
	index   int
	symbols *symbol.Table
	blk     *heap.Block
}

// New constructs a Reader over text.
func New(text string, symbols *symbol.Table, blk *heap.Block) *Reader {
	return &Reader{text: []rune(text), symbols: symbols, blk: blk}
}

// ReadAll reads every top-level form in the source text.
func ReadAll(text string, symbols *symbol.Table, blk *heap.Block) ([]value.Value, error) {
	r := New(text, symbols, blk)
	var out []value.Value
	for {
		v, ok, err := r.Read()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Read reads one top-level form, reporting ok=false at end of input.
func (r *Reader) Read() (value.Value, bool, error) {
	r.skipAtmosphere()
	if r.atEOF() {
		return value.Nil, false, nil
	}
	v, err := r.readForm()
	if err != nil {
		return value.Nil, false, err
	}
	return v, true, nil
}

func (r *Reader) atEOF() bool { return r.index >= len(r.text) }

func (r *Reader) peek() rune { return r.text[r.index] }

func (r *Reader) skipAtmosphere() {
	for !r.atEOF() {
		c := r.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.index++
		case c == ';':
			for !r.atEOF() && r.peek() != '\n' {
				r.index++
			}
		default:
			return
		}
	}
}

func (r *Reader) readForm() (value.Value, error) {
	r.skipAtmosphere()
	if r.atEOF() {
		return value.Nil, &SyntaxError{Offset: r.index, Msg: "unexpected end of input"}
	}
	switch c := r.peek(); {
	case c == '(':
		return r.readList()
	case c == ')':
		return value.Nil, &SyntaxError{Offset: r.index, Msg: "unexpected )"}
	case c == '\'':
		r.index++
		inner, err := r.readForm()
		if err != nil {
			return value.Nil, err
		}
		quote := r.symbols.Intern("quote")
		return r.blk.NewCons(quote, r.blk.NewCons(inner, value.Nil)), nil
	case c == '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *Reader) readList() (value.Value, error) {
	r.index++ // consume '('
	var elems []value.Value
	for {
		r.skipAtmosphere()
		if r.atEOF() {
			return value.Nil, &SyntaxError{Offset: r.index, Msg: "unterminated list"}
		}
		if r.peek() == ')' {
			r.index++
			break
		}
		v, err := r.readForm()
		if err != nil {
			return value.Nil, err
		}
		elems = append(elems, v)
	}
	result := value.Nil
	for i := len(elems) - 1; i >= 0; i-- {
		result = r.blk.NewCons(elems[i], result)
	}
	return result, nil
}

func (r *Reader) readString() (value.Value, error) {
	start := r.index
	r.index++ // consume opening quote
	var runes []rune
	for {
		if r.atEOF() {
			return value.Nil, &SyntaxError{Offset: start, Msg: "unterminated string"}
		}
		c := r.text[r.index]
		if c == '"' {
			r.index++
			break
		}
		if c == '\\' && r.index+1 < len(r.text) {
			r.index++
			runes = append(runes, r.text[r.index])
			r.index++
			continue
		}
		runes = append(runes, c)
		r.index++
	}
	return r.blk.NewString(string(runes)), nil
}

func isDelimiter(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == ';' || c == '"' || c == '\''
}

func (r *Reader) readAtom() (value.Value, error) {
	start := r.index
	for !r.atEOF() && !isDelimiter(r.peek()) {
		r.index++
	}
	token := string(r.text[start:r.index])
	if token == "" {
		return value.Nil, &SyntaxError{Offset: start, Msg: "empty atom"}
	}
	switch token {
	case "nil":
		return value.Nil, nil
	case "t":
		return value.True, nil
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return value.FromInt(n), nil
	}
	return r.symbols.Intern(token), nil
}
