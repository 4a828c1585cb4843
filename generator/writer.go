package generator

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// writer accumulates C# source with brace-driven indentation.
type writer struct {
	b      strings.Builder
	indent int
}

func newWriter(indent int) *writer {
	return &writer{indent: indent}
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.b.WriteByte('\n')
		return
	}
	for i := 0; i < w.indent; i++ {
		w.b.WriteString(indentUnit)
	}
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

func (w *writer) lines(stmts []string) {
	for _, s := range stmts {
		if s == "" {
			w.blank()
			continue
		}
		w.line("%s", s)
	}
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

// open writes a header line followed by an opening brace and indents.
func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.line("{")
	w.indent++
}

// openBrace opens a block whose header was already written.
func (w *writer) openBrace() {
	w.line("{")
	w.indent++
}

func (w *writer) close() {
	w.indent--
	w.line("}")
}

// raw appends pre-rendered text as is.
func (w *writer) raw(s string) {
	w.b.WriteString(s)
}

func (w *writer) len() int {
	return w.b.Len()
}

func (w *writer) String() string {
	return w.b.String()
}

// csString quotes s as a regular C# string literal.
func csString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
