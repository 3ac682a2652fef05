package command

import (
	"strings"
	"unicode"
)

type token struct {
	text  string
	start int
}

// tokenize splits line on whitespace. Single or double quotes group a
// token and are removed; there are no escapes inside quotes.
func tokenize(line string) ([]token, error) {
	var (
		toks  []token
		cur   strings.Builder
		quote rune
		start = -1
	)
	flush := func() {
		if start >= 0 {
			toks = append(toks, token{text: cur.String(), start: start})
		}
		cur.Reset()
		start = -1
	}
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			if start < 0 {
				start = i
			}
			quote = r
		case unicode.IsSpace(r):
			flush()
		default:
			if start < 0 {
				start = i
			}
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, ErrBadArguments.Withf("unterminated %c quote", quote)
	}
	flush()
	return toks, nil
}

// Args are the tokens after the command name.
type Args struct {
	line string
	toks []token
}

func (a Args) Len() int { return len(a.toks) }

func (a Args) At(i int) string {
	if i >= len(a.toks) {
		return ""
	}
	return a.toks[i].text
}

// Rest returns everything from token i to the end of the line as typed,
// so free text keeps its spacing. A single quoted token is unquoted.
func (a Args) Rest(i int) string {
	switch {
	case i >= len(a.toks):
		return ""
	case i == len(a.toks)-1:
		return a.toks[i].text
	}
	return strings.TrimSpace(a.line[a.toks[i].start:])
}

// From returns the unquoted tokens from i on.
func (a Args) From(i int) []string {
	if i >= len(a.toks) {
		return nil
	}
	out := make([]string, 0, len(a.toks)-i)
	for _, t := range a.toks[i:] {
		out = append(out, t.text)
	}
	return out
}
