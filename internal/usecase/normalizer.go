package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
)

// FallbackAnswer is shown when a success response carries no recognizable answer.
const FallbackAnswer = "Sorry, I couldn't parse the answer."

const previewBytes = 120

// answerExtractor is one total match over the parsed payload.
type answerExtractor struct {
	name string
	fn   func(gjson.Result) (string, bool)
}

// answerChain is tried in order; the first match wins.
var answerChain = []answerExtractor{
	{name: "string", fn: bareString},
	{name: "answer", fn: answerField},
	{name: "provider", fn: providerText},
}

func bareString(r gjson.Result) (string, bool) {
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

func answerField(r gjson.Result) (string, bool) {
	if !r.IsObject() {
		return "", false
	}
	return scalarText(r.Get("answer"))
}

func providerText(r gjson.Result) (string, bool) {
	if !r.IsObject() {
		return "", false
	}
	return scalarText(r.Get("output.content.0.text"))
}

// scalarText renders numbers and booleans as written; null, objects and arrays do not match.
func scalarText(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		return v.Str, true
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw, true
	}
	return "", false
}

// extractAnswer runs the chain and reports which extractor matched ("fallback" when none did).
func extractAnswer(r gjson.Result) (string, string) {
	for _, ex := range answerChain {
		if s, ok := ex.fn(r); ok {
			return s, ex.name
		}
	}
	return FallbackAnswer, "fallback"
}

// NormalizeAnswer maps a chat endpoint payload to the canonical answer.
// It fails only when the payload is not JSON, or is JSON that is neither a string nor an object.
func NormalizeAnswer(raw []byte) (model.NormalizedAnswer, error) {
	r, err := parse(raw)
	if err != nil {
		return model.NormalizedAnswer{}, err
	}
	if r.Type != gjson.String && !r.IsObject() {
		return model.NormalizedAnswer{}, fmt.Errorf("%w: expected a string or an object, got %s", domain.ErrUnparsableResponse, r.Type)
	}

	content, _ := extractAnswer(r)
	out := model.NormalizedAnswer{Content: content}
	if !r.IsObject() {
		return out, nil
	}
	out.Sources = extractSources(r.Get("sources"))
	if lang := r.Get("language"); lang.Type == gjson.String {
		out.Language = strings.ToLower(strings.TrimSpace(lang.Str))
	}
	out.Metadata = extractMetadata(r.Get("metadata"))
	return out, nil
}

// NormalizeSolve maps a solve endpoint payload to the result triple.
// A non-empty "error" field wins over everything else.
func NormalizeSolve(raw []byte) (model.SolveResult, error) {
	r, err := parse(raw)
	if err != nil {
		return model.SolveResult{}, err
	}
	if !r.IsObject() {
		return model.SolveResult{}, fmt.Errorf("%w: expected an object, got %s", domain.ErrUnparsableResponse, r.Type)
	}
	if e := r.Get("error"); e.Exists() && e.Type != gjson.Null {
		msg := strings.TrimSpace(e.String())
		if e.Type != gjson.String {
			msg = e.Raw
		}
		if msg != "" && msg != "false" {
			return model.SolveResult{}, &domain.UpstreamError{Message: msg}
		}
	}
	return model.SolveResult{
		OCRText:          r.Get("ocr_text").String(),
		ParsedExpression: r.Get("parsed_expression").String(),
		Result:           r.Get("result").String(),
	}, nil
}

func parse(raw []byte) (gjson.Result, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return gjson.Result{}, fmt.Errorf("%w: empty body", domain.ErrUnparsableResponse)
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("%w: body is not JSON: %s", domain.ErrUnparsableResponse, preview(raw))
	}
	return gjson.ParseBytes(raw), nil
}

// Absent and empty lists are treated the same: nil.
func extractSources(v gjson.Result) []model.Source {
	if !v.IsArray() {
		return nil
	}
	var out []model.Source
	v.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		s := model.Source{
			Title:   item.Get("title").String(),
			URL:     item.Get("url").String(),
			Kind:    item.Get("type").String(),
			Snippet: item.Get("snippet").String(),
		}
		switch src := item.Get("source"); {
		case src.Type == gjson.String:
			s.SourceName = src.Str
		case src.IsObject():
			s.SourceName = src.Get("name").String()
		}
		if s.Title == "" {
			s.Title = s.URL
		}
		if s.Title == "" {
			s.Title = "Source"
		}
		out = append(out, s)
		return true
	})
	return out
}

// Only numeric entries are counters; anything else is ignored.
func extractMetadata(v gjson.Result) map[string]int64 {
	if !v.IsObject() {
		return nil
	}
	var out map[string]int64
	v.ForEach(func(k, val gjson.Result) bool {
		if val.Type != gjson.Number {
			return true
		}
		if out == nil {
			out = make(map[string]int64)
		}
		out[k.String()] = val.Int()
		return true
	})
	return out
}

// preview cuts at most previewBytes, backing up to a rune start so the
// result stays valid UTF-8.
func preview(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) <= previewBytes {
		return s
	}
	cut := previewBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
