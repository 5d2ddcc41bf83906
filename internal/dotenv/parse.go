// Package dotenv reads and updates KEY=value environment files.
//
// Parsing is deliberately literal: no export prefixes, no inline comments,
// no escape sequences. A value loses exactly one outer pair of matching
// quotes and nothing else.
package dotenv

import (
	"bufio"
	"strings"
)

// Pair is one KEY=value line.
type Pair struct {
	Key   string
	Value string
}

// Parse returns the pairs declared in content, in line order. Duplicate keys
// are kept as separate entries.
func Parse(content string) []Pair {
	var pairs []Pair
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if pair, ok := parseLine(scanner.Text()); ok {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

func parseLine(line string) (Pair, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Pair{}, false
	}
	key, value, found := strings.Cut(trimmed, "=")
	if !found {
		return Pair{}, false
	}
	return Pair{
		Key:   strings.TrimSpace(key),
		Value: Unquote(strings.TrimSpace(value)),
	}, true
}

// Unquote strips one matching pair of outer double or single quotes.
func Unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' || first == '\'') && first == last {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ToMap collapses pairs with last-wins semantics.
func ToMap(pairs []Pair) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, p := range pairs {
		m[p.Key] = p.Value
	}
	return m
}
