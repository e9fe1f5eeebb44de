package swagger

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/okian/tourney/pkg/logger"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
)

// DefaultRedocURL is the ReDoc bundle the docs page loads.
const DefaultRedocURL = "https://cdn.redoc.ly/redoc/v2.1.5/bundles/redoc.standalone.js"

type options struct {
	Title    string
	RedocURL string
}

// Option configures the docs routes.
type Option func(*options)

// WithTitle sets the docs page title.
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.Title = title
		}
	}
}

// WithRedocURL points the docs page at another ReDoc bundle.
func WithRedocURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.RedocURL = url
		}
	}
}

// Register attaches the API docs routes to mux.
//
//	GET /api-docs      -> ReDoc HTML
//	GET /openapi.yaml  -> embedded OpenAPI document
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}
	o := options{Title: "Tourney API", RedocURL: DefaultRedocURL}
	for _, opt := range opts {
		opt(&o)
	}

	mux.HandleFunc("GET /api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, o); err != nil {
			logger.Named("swagger").Error(r.Context(), "render docs page", logger.Error(errors.Join(ErrServe, err)))
		}
	})

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexTemplate = template.Must(template.New("docs").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc id="redoc-container"></redoc>
    <script src="{{.RedocURL}}"></script>
    <script>Redoc.init('/openapi.yaml', { suppressWarnings: true }, document.getElementById('redoc-container'));</script>
  </body>
</html>`))
