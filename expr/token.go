// Package expr implements the whitelisted JavaScript-expression evaluator
// operators use for the "script" built-in: a recursive-descent parser and
// tree-walking evaluator over a restricted grammar, with a compiled-script
// LRU cache and a cooperative per-evaluation deadline. No ecosystem
// JS-sandbox library appears anywhere in the retrieved corpus, so this is
// hand-rolled (see DESIGN.md).
package expr

// tokenKind classifies one lexical token of an expression.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokTrue
	tokFalse
	tokNull
	tokPunct
)

// token is one lexed unit: its kind, its text (for strings, the unescaped
// value), and for numbers the parsed value.
type token struct {
	kind tokenKind
	text string
	num  float64
}
