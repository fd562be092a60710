package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultLabeler turns a model or field identifier into space separated
// words: "InvoiceLine" and "invoice_line" both become "Invoice Line".
func DefaultLabeler(name string) string {
	words := splitWords(name)
	for i, word := range words {
		words[i] = Capitalize(strings.ToLower(word))
	}
	return strings.Join(words, " ")
}

// FieldLabel returns the declared label or a derived one.
func FieldLabel(field Field) string {
	if label := strings.TrimSpace(field.Label); label != "" {
		return label
	}
	return DefaultLabeler(field.Name)
}

// Capitalize upper-cases the first rune and leaves the rest untouched.
func Capitalize(value string) string {
	if value == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(value)
	return string(unicode.ToUpper(r)) + value[size:]
}

func splitWords(name string) []string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(strings.TrimSpace(name))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			flush()
		case i > 0 && unicode.IsDigit(r) != unicode.IsDigit(runes[i-1]):
			flush()
		}
		current = append(current, r)
	}
	flush()
	return words
}
