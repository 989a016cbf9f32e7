package store

import (
	"strconv"
	"strings"
)

// walkCode calls visit for every byte of query that is plain SQL code, skipping
// quoted literals, quoted identifiers, comments and dollar-quoted bodies.
func walkCode(query string, visit func(i int)) {
	scan(query, visit, nil)
}

// scan is walkCode that also reports every quoted or dollar-quoted region as
// the inclusive byte range [start, end].
func scan(query string, visit func(i int), quoted func(start, end int)) {
	n := len(query)
	region := func(start, end int) {
		if quoted != nil {
			quoted(start, end)
		}
	}
	for i := 0; i < n; i++ {
		c := query[i]
		switch {
		case c == '\'' && escapePrefix(query, i):
			end := skipEscaped(query, i)
			region(i, end)
			i = end
		case c == '\'' || c == '"':
			end := skipQuoted(query, i, c)
			region(i, end)
			i = end
		case c == '-' && i+1 < n && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				return
			}
			i += end
		case c == '/' && i+1 < n && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				return
			}
			i += 2 + end + 1
		case c == '$':
			tag, ok := dollarTag(query, i)
			if !ok {
				visit(i)
				continue
			}
			end := strings.Index(query[i+len(tag):], tag)
			if end < 0 {
				region(i, n-1)
				return
			}
			last := i + len(tag) + end + len(tag) - 1
			region(i, last)
			i = last
		default:
			visit(i)
		}
	}
}

// skipQuoted returns the index of the closing quote of the region opened at
// query[start]. A doubled quote is an escaped quote.
func skipQuoted(query string, start int, quote byte) int {
	for j := start + 1; j < len(query); j++ {
		if query[j] != quote {
			continue
		}
		if j+1 < len(query) && query[j+1] == quote {
			j++
			continue
		}
		return j
	}
	return len(query) - 1
}

// escapePrefix reports whether the quote at query[i] opens a postgres escape
// string (E'...'), where a backslash escapes the next byte.
func escapePrefix(query string, i int) bool {
	if i == 0 || (query[i-1] != 'E' && query[i-1] != 'e') {
		return false
	}
	return i == 1 || !isTagChar(query[i-2])
}

func skipEscaped(query string, start int) int {
	for j := start + 1; j < len(query); j++ {
		switch query[j] {
		case '\\':
			j++
		case '\'':
			if j+1 < len(query) && query[j+1] == '\'' {
				j++
				continue
			}
			return j
		}
	}
	return len(query) - 1
}

// dollarTag reports the opening tag ($$ or $name$) of a dollar-quoted body at query[i].
// Positional parameters such as $1 are not tags.
func dollarTag(query string, i int) (string, bool) {
	j := i + 1
	if j < len(query) && query[j] >= '0' && query[j] <= '9' {
		return "", false
	}
	for j < len(query) && isTagChar(query[j]) {
		j++
	}
	if j >= len(query) || query[j] != '$' {
		return "", false
	}
	return query[i : j+1], true
}

func isTagChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Rebind rewrites the `?` placeholders of query into the syntax of the given
// dialect. Postgres gets $1..$n in order; sqlite text is returned untouched.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	last, n := 0, 0
	walkCode(query, func(i int) {
		if query[i] != '?' {
			return
		}
		if n == 0 {
			b.Grow(len(query) + 8)
		}
		n++
		b.WriteString(query[last:i])
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		last = i + 1
	})
	if n == 0 {
		return query
	}
	b.WriteString(query[last:])
	return b.String()
}

// CountPlaceholders returns how many `?` placeholders query carries outside of
// literals and comments.
func CountPlaceholders(query string) int {
	n := 0
	walkCode(query, func(i int) {
		if query[i] == '?' {
			n++
		}
	})
	return n
}

// SplitStatements splits a script on top-level semicolons. Empty statements are dropped.
func SplitStatements(script string) []string {
	var out []string
	last := 0
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" && !onlyComments(s) {
			out = append(out, s)
		}
	}
	walkCode(script, func(i int) {
		if script[i] == ';' {
			add(script[last:i])
			last = i + 1
		}
	})
	add(script[last:])
	return out
}

func onlyComments(s string) bool {
	code := false
	walkCode(s, func(i int) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
		default:
			code = true
		}
	})
	return !code
}

// hasKeyword reports whether kw appears as a word in the code part of query.
func hasKeyword(query, kw string) bool {
	var b strings.Builder
	walkCode(query, func(i int) { b.WriteByte(query[i]) })
	for _, f := range strings.FieldsFunc(strings.ToUpper(b.String()), func(r rune) bool {
		return !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) {
		if f == kw {
			return true
		}
	}
	return false
}

// leadingKeyword returns the first word of the statement, upper-cased.
func leadingKeyword(query string) string {
	start, end := -1, -1
	walkCode(query, func(i int) {
		if end >= 0 {
			return
		}
		c := query[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		switch {
		case start < 0 && letter:
			start = i
		case start >= 0 && !letter:
			end = i
		}
	})
	if start < 0 {
		return ""
	}
	if end < 0 {
		end = len(query)
	}
	return strings.ToUpper(query[start:end])
}

// withReturning appends clause after the last SQL token of query, dropping
// trailing semicolons and comments so the clause is never swallowed by them.
func withReturning(query, clause string) string {
	last := -1
	scan(query, func(i int) {
		switch query[i] {
		case ' ', '\t', '\n', '\r', ';':
		default:
			last = i
		}
	}, func(_, end int) {
		last = end
	})
	return query[:last+1] + " " + clause
}
