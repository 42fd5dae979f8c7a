package render

import (
	"fmt"
	"strings"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/i18n"
)

const newsKind = "news"

// Renderer turns transcript entries into text for a front-end. Labels come
// from the catalog entry matching the answer's language.
type Renderer struct {
	cat *i18n.Catalog
}

func New(cat *i18n.Catalog) *Renderer {
	return &Renderer{cat: cat}
}

// Badge is empty when the answer carries no language.
func (r *Renderer) Badge(m model.Message) string {
	if m.Language == "" {
		return ""
	}
	return r.cat.For(m.Language).T("language_badge")
}

// MetadataLine is shown only when at least one counter is positive.
func (r *Renderer) MetadataLine(m model.Message) string {
	web, news := m.Counter("web_sources_found"), m.Counter("news_articles_found")
	if web <= 0 && news <= 0 {
		return ""
	}
	return r.cat.For(m.Language).T("metadata_line", web, news)
}

// Markdown renders an entry with numbered links for its sources.
func (r *Renderer) Markdown(m model.Message) string {
	return r.render(m, true)
}

// Plain renders an entry for chat clients without markup.
func (r *Renderer) Plain(m model.Message) string {
	return r.render(m, false)
}

func (r *Renderer) render(m model.Message, md bool) string {
	var b strings.Builder
	b.WriteString(m.Content)
	if m.Role != model.RoleAssistant {
		return b.String()
	}

	tr := r.cat.For(m.Language)
	if len(m.Sources) > 0 {
		b.WriteString("\n\n")
		if md {
			b.WriteString("**" + tr.T("sources_label") + "**\n")
		} else {
			b.WriteString(tr.T("sources_label") + "\n")
		}
		for i, s := range m.Sources {
			b.WriteString(sourceLine(i+1, s, md, tr.T("news_marker")))
			b.WriteString("\n")
		}
	}
	if line := r.MetadataLine(m); line != "" {
		if len(m.Sources) == 0 {
			b.WriteString("\n")
		}
		b.WriteString("\n" + line)
	}
	if badge := r.Badge(m); badge != "" {
		b.WriteString("\n" + badge)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sourceLine(n int, s model.Source, md bool, marker string) string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = s.URL
	}
	var line string
	switch {
	case md && s.URL != "":
		line = fmt.Sprintf("%d. [%s](%s)", n, title, s.URL)
	case s.URL != "" && s.URL != title:
		line = fmt.Sprintf("%d. %s - %s", n, title, s.URL)
	default:
		line = fmt.Sprintf("%d. %s", n, title)
	}
	if s.Kind == newsKind {
		line = strings.Replace(line, ". ", ". "+marker+" ", 1)
	}
	if s.SourceName != "" {
		line += " (" + s.SourceName + ")"
	}
	return line
}
