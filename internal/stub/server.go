// Package stub serves a canned analysis endpoint for local runs and tests.
package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jask/pathoscreen/internal/logx"
	"github.com/jask/pathoscreen/internal/screening"
)

const maxUpload = 32 << 20

// Options shape the canned behaviour.
type Options struct {
	// Variants limits accepted model tags. Empty accepts any tag.
	Variants []string
	// Token, when set, is required as a bearer token.
	Token string
	// Delay is added before every analysis response.
	Delay time.Duration
	// Result overrides the canned result.
	Result *screening.AnalysisResult
}

type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type server struct {
	opts     Options
	variants map[string]bool
}

// NewRouter returns the stub's handler.
func NewRouter(opts Options) http.Handler {
	s := &server{opts: opts, variants: map[string]bool{}}
	for _, v := range opts.Variants {
		s.variants[strings.ToUpper(strings.TrimSpace(v))] = true
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Post("/analyze", s.wrap(s.handleAnalyze))
	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			var he *httpError
			if errors.As(err, &he) {
				logx.Info().Str("request_id", r.Header.Get("X-Request-ID")).Int("status", he.status).Msg(he.msg)
				http.Error(w, he.msg, he.status)
				return
			}
			logx.Error().Err(err).Msg("stub analyze")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /analyze
// multipart: model, organ, clinical_context, image
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	if s.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
		return &httpError{status: http.StatusUnauthorized, msg: "invalid token"}
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return badRequest("parse form: %v", err)
	}

	model := strings.TrimSpace(r.FormValue("model"))
	organ := strings.TrimSpace(r.FormValue("organ"))
	if model == "" {
		return badRequest("model is required")
	}
	if len(s.variants) > 0 && !s.variants[strings.ToUpper(model)] {
		return badRequest("unknown model %q", model)
	}
	if organ == "" {
		return badRequest("organ is required")
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return badRequest("image is required")
	}
	defer file.Close()
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("sniff image: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return badRequest("image has type %s", mt.String())
	}
	// drain so large uploads are fully consumed before replying
	_, _ = io.Copy(io.Discard, file)

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-r.Context().Done():
			return r.Context().Err()
		}
	}

	res := cannedResult(model, organ, r.FormValue("clinical_context"))
	if s.opts.Result != nil {
		res = *s.opts.Result
	}
	logx.Info().
		Str("request_id", r.Header.Get("X-Request-ID")).
		Str("model", model).
		Str("organ", organ).
		Msg("stub analysis")

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(res)
}

func cannedResult(model, organ, clinical string) screening.AnalysisResult {
	obs := fmt.Sprintf("%s tissue with preserved overall architecture. No atypical mitoses identified in the sampled fields.", organ)
	if c := strings.TrimSpace(clinical); c != "" {
		obs += " Clinical note considered: " + c + "."
	}
	confidence := "Moderate"
	if strings.EqualFold(model, "SR") {
		confidence = "Moderate to high"
	}
	return screening.AnalysisResult{
		Observations: obs,
		Diagnosis:    "No definitive malignancy identified (stub response)",
		Confidence:   confidence,
		Disclaimer:   "This is an AI-assisted preliminary screening and must be reviewed by a qualified pathologist.",
	}
}
