package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/riskmatrix/pkg/service/report"
	"github.com/secmon-lab/riskmatrix/pkg/usecase"
	"github.com/secmon-lab/riskmatrix/pkg/utils/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	router        *chi.Mux
	store         *usecase.RiskStore
	reportOptions []report.Option
	tracer        trace.TracerProvider
}

type Options func(*Server)

// WithReportOptions sets the options passed to report formatters
func WithReportOptions(opts ...report.Option) Options {
	return func(s *Server) {
		s.reportOptions = append(s.reportOptions, opts...)
	}
}

// WithTracerProvider sets the provider of request spans. The global
// provider is used when unset.
func WithTracerProvider(tp trace.TracerProvider) Options {
	return func(s *Server) {
		s.tracer = tp
	}
}

func New(store *usecase.RiskStore, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		store:  store,
		tracer: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(otelhttp.NewMiddleware("riskmatrix",
		otelhttp.WithTracerProvider(s.tracer),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(storeMiddleware(store))

	r.Route("/api", func(r chi.Router) {
		r.Route("/risks", func(r chi.Router) {
			r.Get("/", listRisksHandler)
			r.Put("/", replaceRisksHandler)
			r.Delete("/", clearRisksHandler)
			r.Delete("/{id}", deleteRiskHandler)
			r.Post("/{id}/edit", beginEditHandler)
		})
		r.Route("/draft", func(r chi.Router) {
			r.Get("/", getDraftHandler)
			r.Patch("/", patchDraftHandler)
			r.Post("/commit", commitDraftHandler)
			r.Post("/cancel", cancelDraftHandler)
		})
		r.Get("/statistics", statisticsHandler)
		r.Get("/matrix", matrixHandler)
		r.Get("/levels", levelsHandler)
		r.Get("/export", exportHandler(s.reportOptions))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// storeMiddleware binds the session store to every request context
func storeMiddleware(store *usecase.RiskStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := usecase.WithStore(r.Context(), store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
