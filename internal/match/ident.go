package match

import (
	"strings"
	"unicode"
)

// Tokens splits an identifier at separators and case changes:
//   - "OrderID" -> ["Order", "ID"]
//   - "created_at" -> ["created", "at"]
//   - "XMLParser" -> ["XML", "Parser"]
//   - "pet-names" -> ["pet", "names"]
func Tokens(s string) []string {
	var (
		tokens  []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			tokens = append(tokens, string(current))
			current = current[:0]
		}
	}

	runes := []rune(s)

	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsToken(runes, i) {
			flush()
		}

		current = append(current, r)
	}

	flush()

	return tokens
}

// Normalize folds an identifier to lowercase without separators, so that
// "createdAt", "created_at" and "Created-At" compare equal.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(Tokens(s), ""))
}

// SnakeCase renders an identifier as lower snake_case: "createdAt" -> "created_at".
func SnakeCase(s string) string {
	tokens := Tokens(s)
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}

	return strings.Join(tokens, "_")
}

// CamelCase renders an identifier as lower camelCase: "created_at" -> "createdAt".
func CamelCase(s string) string {
	tokens := Tokens(s)

	var sb strings.Builder

	for i, t := range tokens {
		lower := strings.ToLower(t)
		if i == 0 {
			sb.WriteString(lower)
			continue
		}

		r := []rune(lower)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}

	return sb.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]

	if isSeparator(prev) || !unicode.IsUpper(r) {
		return false
	}

	// "orderID": lower to upper
	if !unicode.IsUpper(prev) {
		return true
	}

	// "XMLParser": the last capital of an acronym starts the next word
	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
