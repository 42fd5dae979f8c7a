package devserver

import (
	"fmt"
	"strings"

	"smart-study-buddy/internal/domain/model"
)

const (
	DefaultPrompt = "Explain recursion in simple steps."
	noInfoAnswer  = "I couldn't find enough reliable information to answer that."

	solvePrompt = "Read the attached problem. Reply with JSON only, no prose, using exactly these keys: " +
		`{"ocr_text": "<the text you read>", "parsed_expression": "<the math expression>", "result": "<the solution>"}`
)

// BuildPrompt numbers the retrieved sources so the model can cite them as [n].
func BuildPrompt(question, lang string, sources []model.Source) string {
	var b strings.Builder
	if len(sources) > 0 {
		b.WriteString("=== CURRENT WEB SOURCES (Use this information to answer) ===\n")
		for i, s := range sources {
			fmt.Fprintf(&b, "\n[%d] %s\nURL: %s\n", i+1, s.Title, s.URL)
			if snip := strings.TrimSpace(s.Snippet); snip != "" {
				fmt.Fprintf(&b, "Content: %s\n", snip)
			}
		}
		b.WriteString("\n=== END OF SOURCES ===\n\n")
	}
	b.WriteString("IMPORTANT INSTRUCTIONS:\n" +
		"- You are a helpful AI tutor answering questions for students\n" +
		"- Be clear, educational, and step-by-step\n")
	if len(sources) > 0 {
		b.WriteString("- The sources above are current; prefer them over general knowledge for recent events\n" +
			"- Cite sources using [1], [2], [3] etc.\n")
	}
	if lang == "es" {
		b.WriteString("- Answer in Spanish\n")
	}
	fmt.Fprintf(&b, "\nStudent Question: %s\n\nYour Answer:", question)
	return b.String()
}
