//go:build !integration

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTavily_Search(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"short","results":[
			{"title":"Recursión","url":"https://es.wikipedia.org/wiki/R","content":"` + strings.Repeat("a", 500) + `"},
			{"title":"","url":"https://x.example","content":"c"}]}`))
	}))
	defer srv.Close()

	tv := NewTavily("key", srv.URL, time.Second, nil)
	defer tv.Close()
	res, err := tv.Search(context.Background(), "qué es la recursión", "es", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got["api_key"] != "key" || got["include_domains"] == nil {
		t.Fatalf("request body = %v", got)
	}
	if res.Answer != "short" || len(res.Sources) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if len([]rune(res.Sources[0].Snippet)) != webSnippetMax || res.Sources[0].Kind != "web" {
		t.Errorf("first source = %+v", res.Sources[0])
	}
	if res.Sources[1].Title != "https://x.example" {
		t.Errorf("title fallback = %q", res.Sources[1].Title)
	}
}

func TestTavily_DisabledAndErrors(t *testing.T) {
	t.Parallel()
	res, err := NewTavily("", "", 0, nil).Search(context.Background(), "q", "en", 5)
	if err != nil || res.Sources != nil {
		t.Fatalf("disabled search = %+v, %v", res, err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	if _, err := NewTavily("bad", srv.URL, time.Second, nil).Search(context.Background(), "q", "en", 5); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected http 401 error, got %v", err)
	}
}

func TestNews_Search(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apiKey") != "nk" || q.Get("pageSize") != "2" || q.Get("q") != "mars rover" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"articles":[
			{"title":"Rover lands","url":"https://n.example/1","description":"d","source":{"name":"Space Daily"}},
			{"title":"","url":"https://n.example/2","description":"","source":{}},
			{"title":"extra","url":"https://n.example/3"}]}`))
	}))
	defer srv.Close()

	srcs, err := NewNews("nk", srv.URL, time.Second, nil).Search(context.Background(), "mars rover", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("expected max 2 articles, got %d", len(srcs))
	}
	if srcs[0].Kind != "news" || srcs[0].SourceName != "Space Daily" {
		t.Errorf("first = %+v", srcs[0])
	}
	if srcs[1].Title != "Article" || srcs[1].SourceName != "Unknown" {
		t.Errorf("defaults = %+v", srcs[1])
	}
}
