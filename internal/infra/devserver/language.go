package devserver

import (
	"strings"
	"unicode"
)

var spanishIndicators = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"qué", "cómo", "cuál", "cuándo", "dónde", "quién", "porqué",
		"el", "la", "los", "las", "un", "una", "es", "son", "está",
		"de", "del", "para", "con", "sin", "sobre", "entre",
		"yo", "tú", "él", "ella", "nosotros", "ustedes",
		"explica", "explicar", "dime", "cuéntame", "ayuda",
	} {
		spanishIndicators[w] = struct{}{}
	}
}

// DetectLanguage returns "es" when the text carries any Spanish marker
// (indicator word, ¿ or ¡, ñ) and "en" otherwise. Matching is per word, so
// "yes" or "class" do not count as Spanish.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	if strings.ContainsAny(lower, "¿¡ñ") {
		return "es"
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for i, w := range words {
		if _, ok := spanishIndicators[w]; ok {
			return "es"
		}
		if w == "por" && i+1 < len(words) && words[i+1] == "qué" {
			return "es"
		}
	}
	return "en"
}
