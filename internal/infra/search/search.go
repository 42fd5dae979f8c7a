package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/logging"
)

const (
	DefaultTavilyURL = "https://api.tavily.com/search"
	DefaultNewsURL   = "https://newsapi.org/v2/everything"

	webSnippetMax  = 400
	newsSnippetMax = 300
)

// WebResult is what a web search contributes to a prompt.
type WebResult struct {
	Sources []model.Source
	Answer  string // the provider's own short answer, used as a last-resort reply
}

// Tavily queries the Tavily search API.
type Tavily struct {
	client *resty.Client
	url    string
	key    string
	log    *zerolog.Logger
}

func NewTavily(key, url string, timeout time.Duration, log *zerolog.Logger) *Tavily {
	if url == "" {
		url = DefaultTavilyURL
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Tavily{client: newClient(timeout), url: url, key: key, log: log}
}

func (t *Tavily) Enabled() bool { return t != nil && t.key != "" }

func (t *Tavily) Close() error { return t.client.Close() }

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search prefers Spanish-language domains when lang is "es".
func (t *Tavily) Search(ctx context.Context, query, lang string, max int) (WebResult, error) {
	if !t.Enabled() {
		return WebResult{}, nil
	}
	body := map[string]any{
		"api_key":        t.key,
		"query":          query,
		"search_depth":   "advanced",
		"max_results":    max,
		"include_answer": true,
		"include_images": false,
		"topic":          "general",
	}
	if lang == "es" {
		body["include_domains"] = []string{"es.wikipedia.org", ".es", ".mx", ".ar", ".co", ".cl"}
	}

	out := &tavilyResponse{}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(out).
		Post(t.url)
	if err := check(resp, err); err != nil {
		return WebResult{}, fmt.Errorf("tavily: %w", err)
	}

	res := WebResult{Answer: strings.TrimSpace(out.Answer)}
	for _, r := range out.Results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		if title == "" {
			title = "Source"
		}
		res.Sources = append(res.Sources, model.Source{
			Kind:    "web",
			Title:   title,
			URL:     r.URL,
			Snippet: truncate(r.Content, webSnippetMax),
		})
	}
	t.log.Debug().Str("lang", lang).Int("results", len(res.Sources)).Msg("tavily search")
	return res, nil
}

// News queries NewsAPI for recent articles.
type News struct {
	client *resty.Client
	url    string
	key    string
	log    *zerolog.Logger
}

func NewNews(key, url string, timeout time.Duration, log *zerolog.Logger) *News {
	if url == "" {
		url = DefaultNewsURL
	}
	if log == nil {
		log = logging.Nop()
	}
	return &News{client: newClient(timeout), url: url, key: key, log: log}
}

func (n *News) Enabled() bool { return n != nil && n.key != "" }

func (n *News) Close() error { return n.client.Close() }

type newsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *News) Search(ctx context.Context, query string, max int) ([]model.Source, error) {
	if !n.Enabled() {
		return nil, nil
	}
	out := &newsResponse{}
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        query,
			"apiKey":   n.key,
			"sortBy":   "publishedAt",
			"pageSize": strconv.Itoa(max),
			"language": "en",
		}).
		SetResult(out).
		Get(n.url)
	if err := check(resp, err); err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}

	var srcs []model.Source
	for i, a := range out.Articles {
		if i >= max {
			break
		}
		title := a.Title
		if title == "" {
			title = "Article"
		}
		name := a.Source.Name
		if name == "" {
			name = "Unknown"
		}
		srcs = append(srcs, model.Source{
			Kind:       "news",
			Title:      title,
			URL:        a.URL,
			Snippet:    truncate(a.Description, newsSnippetMax),
			SourceName: name,
		})
	}
	n.log.Debug().Int("articles", len(srcs)).Msg("news search")
	return srcs, nil
}

func newClient(timeout time.Duration) *resty.Client {
	c := resty.New().SetRetryCount(0)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return errors.New("http " + strconv.Itoa(resp.StatusCode()))
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
