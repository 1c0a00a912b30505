package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/testprep-labs/testprep/internal/api/http"
	"github.com/testprep-labs/testprep/internal/audit"
	"github.com/testprep-labs/testprep/internal/auth"
	authmw "github.com/testprep-labs/testprep/internal/auth/middleware"
	"github.com/testprep-labs/testprep/internal/bank"
	"github.com/testprep-labs/testprep/internal/config"
	"github.com/testprep-labs/testprep/internal/db"
	"github.com/testprep-labs/testprep/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := session.NewSQLStore(dbh)

	// --- Question bank ---
	qb, err := bank.Load(cfg.BankPath)
	if err != nil {
		log.Fatalf("question bank: %v", err)
	}

	// --- Engine ---
	eng := session.NewEngine(store, qb)
	eng.SetEvents(audit.NewLog(dbh))
	defer eng.Close()

	// --- Auth ---
	authSvc := authmw.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableGuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(authSvc))
	}

	r.Group(func(pr chi.Router) {
		if cfg.EnableGuestAuth {
			pr.Use(authmw.JWTMiddleware(authSvc))
		}

		pr.Route("/api", func(ar chi.Router) {
			ar.Post("/session", api.StartSessionHandler(eng))
			ar.Get("/session", api.GetSessionHandler(eng))
			ar.Delete("/session", api.AbandonHandler(eng))
			ar.Post("/session/answers", api.SelectAnswerHandler(eng))
			ar.Post("/session/navigate", api.NavigateHandler(eng))
			ar.Post("/session/finish", api.FinishHandler(eng))

			ar.Get("/history", api.ListHistoryHandler(store))
			ar.Get("/history/{resultID}", api.GetResultHandler(store))
			ar.Delete("/history", api.ClearHistoryHandler(store, audit.NewLog(dbh)))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s, bank=%d questions)",
		cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, qb.Size())
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
