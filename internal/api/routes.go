package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mclemoreauction/neighbor-letters/internal/auth"
)

// SetupRoutes builds the router. authManager may be nil (auth disabled in
// development); the QR redirect and health check are always public.
func SetupRoutes(h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://tools.mclemoreauction.com", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	// Public scan redirect: recipients hitting a QR code have no session.
	r.Get("/qr/{auctionCode}", h.QRRedirect)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
	}

	r.Route("/api", func(r chi.Router) {
		if authManager != nil {
			r.Use(authManager.Middleware)
		}

		r.Route("/letters", func(r chi.Router) {
			r.Post("/process", h.ProcessCSV)

			r.Route("/{auctionCode}", func(r chi.Router) {
				r.Get("/template", h.GetTemplate)
				r.Post("/template", h.SaveTemplate)
				r.Get("/preview", h.Preview)
				r.Post("/send", h.SendLetters)
				r.Get("/history", h.SendHistory)
				r.Get("/download", h.DownloadCSV)
			})
		})

		r.Get("/auctions/{auctionCode}", h.GetAuction)
		r.Get("/labels/{auctionCode}", h.LabelSheet)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})

	return r
}
