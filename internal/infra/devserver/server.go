package devserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"smart-study-buddy/internal/config"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/adapters/ai"
	"smart-study-buddy/internal/infra/encoder"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
	"smart-study-buddy/internal/infra/search"
)

const maxBodyBytes = 15 << 20

type WebSearcher interface {
	Enabled() bool
	Search(ctx context.Context, query, lang string, max int) (search.WebResult, error)
}

type NewsSearcher interface {
	Enabled() bool
	Search(ctx context.Context, query string, max int) ([]model.Source, error)
}

type Options struct {
	Config   config.DevServerConfig
	Provider adapter.AnswerProvider
	Web      WebSearcher  // optional
	News     NewsSearcher // optional
	Tokens   TokenCounter // optional, defaults to WordCounter
	Timeout  time.Duration
}

// Server is a local stand-in for the hosted chat and solve endpoints.
type Server struct {
	router   *chi.Mux
	cfg      config.DevServerConfig
	provider adapter.AnswerProvider
	web      WebSearcher
	news     NewsSearcher
	tokens   TokenCounter
	log      *zerolog.Logger
}

func NewServer(opts Options, log *zerolog.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	if opts.Tokens == nil {
		opts.Tokens = WordCounter{}
	}
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      opts.Config,
		provider: opts.Provider,
		web:      opts.Web,
		news:     opts.News,
		tokens:   opts.Tokens,
		log:      log,
	}

	s.router.Use(TraceID, Recover(log), RequestLog(log))
	s.router.Use(cors.Handler(cors.Options{
		AllowOriginFunc:  s.allowOrigin,
		AllowedMethods:   []string{"OPTIONS", "POST", "GET"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(Timeout(opts.Timeout))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/", s.handleChat)
	s.router.Post("/chat", s.handleChat)
	s.router.Post("/solve", s.handleSolve)
	metrics.Mount(s.router)
}

func (s *Server) Router() http.Handler { return s.router }

// allowOrigin accepts localhost, configured origins and Vercel preview deployments.
func (s *Server) allowOrigin(_ *http.Request, origin string) bool {
	if strings.HasPrefix(origin, "http://localhost") || strings.HasPrefix(origin, "http://127.0.0.1") {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".vercel.app")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	provider := "none"
	if s.provider != nil {
		provider = s.provider.Name()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": provider,
		"web":      s.web != nil && s.web.Enabled(),
		"news":     s.news != nil && s.news.Enabled(),
	})
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Answer   string           `json:"answer"`
	Sources  []model.Source   `json:"sources"`
	Language string           `json:"language"`
	Metadata map[string]int64 `json:"metadata"`
	Trace    map[string]bool  `json:"trace"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	// A missing or malformed body falls back to the default prompt.
	var req chatRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}
	lang := DetectLanguage(prompt)
	l.Info().Str("lang", lang).Str("prompt", logging.Redact(prompt, false)).Msg("chat request")

	web, news := s.retrieve(ctx, prompt, lang)
	sources := append(append([]model.Source{}, web.Sources...), news...)
	full := BuildPrompt(prompt, lang, sources)

	if s.provider == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "no answer provider configured"})
		return
	}
	answer, usage, err := s.provider.Answer(ctx, full)
	if err != nil {
		l.Error().Err(err).Msg("provider failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: fmt.Sprintf("%s error: %v", s.provider.Name(), err)})
		return
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || answer == "{}" {
		answer = web.Answer
	}
	if answer == "" {
		answer = noInfoAnswer
	}

	meta := map[string]int64{
		"web_sources_found":   int64(len(web.Sources)),
		"news_articles_found": int64(len(news)),
		"prompt_tokens":       int64(s.tokens.Count(full)),
	}
	if usage.CompletionTokens > 0 {
		meta["completion_tokens"] = int64(usage.CompletionTokens)
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Answer:   answer,
		Sources:  sources,
		Language: lang,
		Metadata: meta,
		Trace:    map[string]bool{"kb_used": false, "web_used": len(sources) > 0},
	})
}

// retrieve runs web and news search side by side. Failures only cost sources.
func (s *Server) retrieve(ctx context.Context, prompt, lang string) (search.WebResult, []model.Source) {
	var (
		web  search.WebResult
		news []model.Source
	)
	l := logging.With(ctx, s.log)
	g, gctx := errgroup.WithContext(ctx)
	if s.web != nil && s.web.Enabled() {
		g.Go(func() error {
			res, err := s.web.Search(gctx, prompt, lang, s.cfg.MaxWebResults)
			if err != nil {
				l.Warn().Err(err).Msg("web search failed")
				return nil
			}
			web = res
			return nil
		})
	}
	if s.news != nil && s.news.Enabled() {
		g.Go(func() error {
			res, err := s.news.Search(gctx, prompt, s.cfg.MaxNewsResults)
			if err != nil {
				l.Warn().Err(err).Msg("news search failed")
				return nil
			}
			news = res
			return nil
		})
	}
	_ = g.Wait()
	return web, news
}

type solveRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type solveResponse struct {
	OCRText          string `json:"ocr_text"`
	ParsedExpression string `json:"parsed_expression"`
	Result           string `json:"result"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := logging.With(ctx, s.log)

	var req solveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.ImageBase64) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "image_base64 is required"})
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "image_base64 is not valid base64"})
		return
	}
	mimeType := encoder.DetectMIME(data)
	if !encoder.Accepts(mimeType) {
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody{Error: "unsupported file type " + mimeType})
		return
	}
	if s.provider == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "no answer provider configured"})
		return
	}

	text, err := s.provider.Describe(ctx, solvePrompt, adapter.Image{MIMEType: mimeType, Data: data})
	if err != nil {
		if errors.Is(err, ai.ErrVisionUnsupported) {
			writeJSON(w, http.StatusNotImplemented, errorBody{Error: "solving needs a vision-capable provider (set GEMINI_API_KEY or OPENAI_API_KEY)"})
			return
		}
		l.Error().Err(err).Msg("solve failed")
		writeJSON(w, http.StatusBadGateway, errorBody{Error: fmt.Sprintf("solve failed: %v", err)})
		return
	}
	l.Info().Str("mime", mimeType).Int("bytes", len(data)).Msg("solve ok")
	writeJSON(w, http.StatusOK, parseSolve(text))
}

// parseSolve reads the model's JSON reply; anything else becomes the result verbatim.
func parseSolve(text string) solveResponse {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	t = strings.TrimSpace(t)
	if !gjson.Valid(t) || !gjson.Parse(t).IsObject() {
		return solveResponse{Result: strings.TrimSpace(text)}
	}
	r := gjson.Parse(t)
	return solveResponse{
		OCRText:          r.Get("ocr_text").String(),
		ParsedExpression: r.Get("parsed_expression").String(),
		Result:           r.Get("result").String(),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
