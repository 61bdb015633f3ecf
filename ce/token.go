package ce

import (
	"strings"
)

// literalTypeName is the sentinel type naming an untyped literal value slot.
const literalTypeName = "value"

// token is one lexical unit of a CE sentence. Quoted tokens carry the
// unescaped literal content; the quotes themselves are consumed.
type token struct {
	text   string
	quoted bool
}

// is reports a case-insensitive match against an unquoted keyword.
func (t token) is(word string) bool {
	return !t.quoted && strings.EqualFold(t.text, word)
}

// tokenize splits a sentence into tokens. Single-quoted literals become
// one quoted token regardless of internal spaces or the word "and";
// backslash-escaped quotes inside literals are unescaped. A tilde is
// always its own token. An unterminated quote swallows the rest of the
// sentence as a literal.
func tokenize(s string) []token {
	var tokens []token
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, token{text: current.String()})
			current.Reset()
		}
	}

	runes := []rune(s)
	for pos := 0; pos < len(runes); pos++ {
		r := runes[pos]
		switch {
		case r == '\'':
			flush()
			var lit strings.Builder
			pos++
			for pos < len(runes) {
				if runes[pos] == '\\' && pos+1 < len(runes) && runes[pos+1] == '\'' {
					lit.WriteRune('\'')
					pos += 2
					continue
				}
				if runes[pos] == '\'' {
					break
				}
				lit.WriteRune(runes[pos])
				pos++
			}
			tokens = append(tokens, token{text: lit.String(), quoted: true})
		case r == '~':
			flush()
			tokens = append(tokens, token{text: "~"})
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// splitFacts divides a token stream into facts on the standalone word
// "and". Quoted literals are single tokens by construction, so a literal
// containing "and" can never introduce a fact boundary.
func splitFacts(tokens []token) [][]token {
	var facts [][]token
	start := 0
	for pos, t := range tokens {
		if t.is("and") {
			if pos > start {
				facts = append(facts, tokens[start:pos])
			}
			start = pos + 1
		}
	}
	if start < len(tokens) {
		facts = append(facts, tokens[start:])
	}
	return facts
}

// escapeLiteral backslash-escapes single quotes for embedding in a CE
// quoted literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

// EscapeLiteral escapes a string for embedding in a CE quoted literal.
// Collaborators use it when synthesizing sentences (card contents,
// guessed facts) from untrusted text.
func EscapeLiteral(s string) string { return escapeLiteral(s) }

// unescapeLiteral reverses escapeLiteral.
func unescapeLiteral(s string) string {
	return strings.ReplaceAll(s, `\'`, "'")
}

// foldLabel normalizes a label or name for case-insensitive, space-folded
// comparison.
func foldLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// joinTokens renders a token range back to text, used for error messages
// and greedy name matching.
func joinTokens(tokens []token) string {
	parts := make([]string, len(tokens))
	for n, t := range tokens {
		parts[n] = t.text
	}
	return strings.Join(parts, " ")
}

// indexOfWord finds the first unquoted occurrence of a keyword, or -1.
func indexOfWord(tokens []token, word string) int {
	for pos, t := range tokens {
		if t.is(word) {
			return pos
		}
	}
	return -1
}
