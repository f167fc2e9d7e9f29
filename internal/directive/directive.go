// Package directive scans composedoc directives from Go doc comments.
//
// Directives are line comments in the form:
//
//	//compose:get /orders/{id}
//	//compose:field "Shipping" ShippingInfo
//	//compose:response 404 ErrorBody
//	//compose:default-response ErrorBody
//	//compose:param name=id required type=int source=Path
//
// Only the closed set of kinds below is recognized. Scanning is purely
// lexical: type expressions and status codes are returned as text and
// resolved by the caller.
package directive

import (
	"go/ast"
	"go/token"
	"strings"
)

// Prefix starts every directive comment.
const Prefix = "//compose:"

// Kind is the directive verb.
type Kind string

const (
	KindGet             Kind = "get"
	KindField           Kind = "field"
	KindResponse        Kind = "response"
	KindDefaultResponse Kind = "default-response"
	KindParam           Kind = "param"
)

// Known reports whether k is one of the recognized kinds.
func (k Kind) Known() bool {
	switch k {
	case KindGet, KindField, KindResponse, KindDefaultResponse, KindParam:
		return true
	}
	return false
}

// Directive is one scanned directive.
type Directive struct {
	Kind Kind
	Args []string       // arguments split by Split
	Text string         // raw argument text, trimmed
	Pos  token.Position // location of the comment
}

// Scan returns the directives found in doc, in source order.
// Directives with unknown kinds are returned too; use Kind.Known to filter.
// A nil doc yields nil.
func Scan(fset *token.FileSet, doc *ast.CommentGroup) []Directive {
	if doc == nil {
		return nil
	}

	var directives []Directive
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Prefix) {
			continue
		}

		text := strings.TrimPrefix(c.Text, Prefix)
		verb, rest := text, ""
		if i := strings.IndexAny(text, " \t"); i >= 0 {
			verb, rest = text[:i], text[i+1:]
		}
		if verb == "" {
			continue
		}

		rest = strings.TrimSpace(rest)
		directives = append(directives, Directive{
			Kind: Kind(verb),
			Args: Split(rest),
			Text: rest,
			Pos:  fset.Position(c.Pos()),
		})
	}
	return directives
}

// Filter returns the directives of kind k, preserving order.
func Filter(directives []Directive, k Kind) []Directive {
	var out []Directive
	for _, d := range directives {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}

// Split splits directive arguments on whitespace.
// Double-quoted and back-quoted strings are kept whole (quotes included), and
// whitespace nested inside (), [] or {} does not split. An argument ending in
// ']' or '*' is continued by the next one, so type expressions such as
// map[string] int or [] *User stay in one argument, joined by one space.
func Split(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		depth   int
		quote   rune
		esc     bool
		pending bool // a separator is owed before the next rune
	)

	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
		pending = false
	}

	for _, r := range s {
		if quote != 0 {
			cur.WriteRune(r)
			switch {
			case esc:
				esc = false
			case r == '\\' && quote == '"':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}

		if (r == ' ' || r == '\t') && depth == 0 {
			if continues(cur.String()) {
				pending = true
			} else {
				flush()
			}
			continue
		}
		if pending {
			cur.WriteByte(' ')
			pending = false
		}

		switch r {
		case '"', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
		cur.WriteRune(r)
	}
	flush()

	return args
}

// continues reports whether arg is an incomplete type expression that
// expects an element type next.
func continues(arg string) bool {
	return strings.HasSuffix(arg, "]") || strings.HasSuffix(arg, "*")
}
