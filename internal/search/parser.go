package search

import (
	"strings"
	"unicode"
)

// joinMode tracks which term set the pending operator selects.
type joinMode int

const (
	joinMust joinMode = iota
	joinShould
	joinMustNot
)

// ParsedQuery is the structured form of a raw query: terms that must all
// match, terms where one suffices, and terms that exclude. Every
// normalized term from the raw query lands in exactly one set.
type ParsedQuery struct {
	Must    []string
	Should  []string
	MustNot []string
}

// IsEmpty reports whether no terms were parsed at all.
func (q ParsedQuery) IsEmpty() bool {
	return len(q.Must) == 0 && len(q.Should) == 0 && len(q.MustNot) == 0
}

// HasPositiveTerms reports whether any must or should term exists.
// A query with only must-not terms matches nothing on its own.
func (q ParsedQuery) HasPositiveTerms() bool {
	return len(q.Must) > 0 || len(q.Should) > 0
}

// Terms returns all terms across the three sets, positives first.
func (q ParsedQuery) Terms() []string {
	out := make([]string, 0, len(q.Must)+len(q.Should)+len(q.MustNot))
	out = append(out, q.Must...)
	out = append(out, q.Should...)
	out = append(out, q.MustNot...)
	return out
}

// Parse turns raw query text into a ParsedQuery. Tokens split on
// whitespace; double-quoted phrases stay single tokens. AND, OR and NOT
// (case-insensitive, unquoted) set the join mode for the following term;
// bare terms join must. Consecutive operators collapse, a trailing
// operator is dropped, and a leading NOT is a legal global negation.
func Parse(raw string) ParsedQuery {
	var q ParsedQuery

	mode := joinMust
	for _, tok := range tokenize(raw) {
		if tok.quoted {
			q.add(mode, normalize(tok.text))
			mode = joinMust
			continue
		}

		switch strings.ToUpper(tok.text) {
		case "AND":
			mode = joinMust
		case "OR":
			mode = joinShould
		case "NOT":
			mode = joinMustNot
		default:
			q.add(mode, normalize(tok.text))
			mode = joinMust
		}
	}
	return q
}

// add appends a term to the set selected by mode, skipping empties and
// terms already placed in any set.
func (q *ParsedQuery) add(mode joinMode, term string) {
	if term == "" || q.contains(term) {
		return
	}
	switch mode {
	case joinShould:
		q.Should = append(q.Should, term)
	case joinMustNot:
		q.MustNot = append(q.MustNot, term)
	default:
		q.Must = append(q.Must, term)
	}
}

func (q *ParsedQuery) contains(term string) bool {
	for _, set := range [][]string{q.Must, q.Should, q.MustNot} {
		for _, t := range set {
			if t == term {
				return true
			}
		}
	}
	return false
}

// token is one raw token; quoted phrases never act as operators.
type token struct {
	text   string
	quoted bool
}

// tokenize splits on whitespace while keeping double-quoted phrases
// intact. An unterminated quote runs to the end of input.
func tokenize(raw string) []token {
	var tokens []token
	var current strings.Builder
	inQuote := false
	wasQuoted := false

	flush := func() {
		if current.Len() > 0 || wasQuoted {
			tokens = append(tokens, token{text: current.String(), quoted: wasQuoted})
		}
		current.Reset()
		wasQuoted = false
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inQuote {
				inQuote = false
				flush()
			} else {
				flush()
				inQuote = true
				wasQuoted = true
			}
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
