package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"fridge/internal/auth"
	"fridge/internal/blob"
	"fridge/internal/config"
	"fridge/internal/db"
	"fridge/internal/intake"
	"fridge/internal/provider"
	"fridge/internal/session"
	"fridge/internal/ws"
)

type Server struct {
	router *chi.Mux
	config *config.Config
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	assets *blob.Service,
	hub *ws.Hub,
	sessions *session.Manager,
	providerClient *provider.Client,
	profileRepo *db.ProfileRepository,
	donationRepo *db.DonationRepository,
	volunteerRepo *db.VolunteerRepository,
	donations *intake.DonationPipeline,
	volunteers *intake.VolunteerPipeline,
	avatars *intake.AvatarWorkflow,
) *Server {
	verifier := auth.NewVerifier(cfg.Provider.JWTSecret)
	authMiddleware := NewAuthMiddleware(verifier)

	authHandler := NewAuthHandler(sessions)
	intakeHandler := NewIntakeHandler(donations, volunteers)
	profileHandler := NewProfileHandler(profileRepo, donationRepo, volunteerRepo, avatars, assets, sessions)
	webhookHandler := NewWebhookHandler(cfg.Provider.WebhookSecret, providerClient, profileRepo)
	mediaHandler := NewMediaHandler(assets)
	wsHandler := NewWebSocketHandler(hub, verifier)
	healthHandler := NewHealthHandler(database)

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signin/oauth", authHandler.SignInWithOAuth)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Post("/signout", authHandler.SignOut)
			})
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
			r.Use(authMiddleware.RequireAuth)
			r.Use(httprate.LimitByIP(20, time.Minute))
			r.Post("/donations", intakeHandler.SubmitDonation)
			r.Post("/volunteers", intakeHandler.SubmitVolunteer)
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)

			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
				r.Get("/", profileHandler.GetMe)
				r.Delete("/", profileHandler.DeleteAccount)
				r.Delete("/avatar", profileHandler.RemoveAvatar)
			})

			// The avatar upload carries the image itself, so it gets a
			// larger body cap than the JSON endpoints.
			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(cfg.Storage.AvatarMaxBytes + (1 << 20)))
				r.Post("/avatar", profileHandler.UploadAvatar)
			})
		})

		r.Route("/hooks", func(r chi.Router) {
			r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
			r.Post("/auth-event", webhookHandler.HandleAuthEvent)
		})
	})

	r.Get("/media/avatars/{userID}/{filename}", mediaHandler.GetAvatar)

	r.With(httprate.LimitByIP(10, time.Minute)).Get("/ws", wsHandler.ServeWS)

	return &Server{
		router: r,
		config: cfg,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
