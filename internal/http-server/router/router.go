package router

import (
	"net/http"

	"verification-service/internal/http-server/handler/verification"
	"verification-service/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	VerificationHandler *verification.VerificationHandler
}

// SetupRouter wires the HTTP surface. Authentication runs before the rate
// limiter; both run before any request body is read.
func SetupRouter(h *Handler, verifier middleware.TokenVerifier, uploadLimiter *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(verifier))

			r.With(middleware.RateLimit(uploadLimiter)).
				Post("/upload-verification", h.VerificationHandler.UploadVerification)
			r.Post("/review-submission", h.VerificationHandler.ReviewSubmission)
			r.Get("/project-submissions", h.VerificationHandler.ListProjectSubmissions)
		})
	})

	return r
}
