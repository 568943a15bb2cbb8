package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moodsync/server/internal/domain"
	httpmw "github.com/moodsync/server/internal/transport/http/middleware"
	"github.com/moodsync/server/pkg/httputil"
)

type Deps struct {
	Auth          AuthAPI
	Professionals ProfessionalAPI
	Sentiment     SentimentAPI
	WS            http.HandlerFunc
	DB            Pinger

	AllowedOrigins   []string
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
	MaxUploadBytes   int64
	RevealResetToken bool
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(httputil.MiddlewareRequestID)
	r.Use(httputil.MiddlewareLogging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(d.DB))

	// websocket: no compression or timeout, the connection outlives the request
	if d.WS != nil {
		r.Get("/ws/{room_id}", d.WS)
	}

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Compress(5))
		gr.Use(middleware.Timeout(d.RequestTimeout))

		sh := &SentimentHandlers{Sentiment: d.Sentiment, MaxBodyBytes: d.MaxBodyBytes}
		gr.Get("/", sh.Root)
		gr.Post("/predict/", sh.Predict)

		gr.Route("/api", func(api chi.Router) {
			api.Post("/predict", sh.Predict)

			ah := &AuthHandlers{Auth: d.Auth, MaxBodyBytes: d.MaxBodyBytes, RevealResetToken: d.RevealResetToken}
			api.Route("/auth", func(ar chi.Router) {
				ar.Post("/register", ah.Register)
				ar.Post("/login", ah.Login)
				ar.Post("/refresh", ah.Refresh)
				ar.Post("/logout", ah.Logout)
				ar.Post("/forgot-password", ah.ForgotPassword)
				ar.Post("/reset-password", ah.ResetPassword)
				ar.Get("/verify-email/{token}", ah.VerifyEmail)
				ar.With(httpmw.Authenticate(d.Auth)).Get("/me", ah.Me)
			})

			ph := &ProfessionalHandlers{Professionals: d.Professionals, MaxUploadBytes: d.MaxUploadBytes}
			api.Route("/professionals", func(pr chi.Router) {
				pr.Use(httpmw.Authenticate(d.Auth))
				pr.Use(httpmw.RequireRole(domain.RoleAdmin))
				pr.Post("/", ph.Create)
				pr.Get("/", ph.List)
			})
		})
	})

	return r
}
