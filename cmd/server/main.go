package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/option"

	"github.com/jredh-dev/foodbridge/config"
	"github.com/jredh-dev/foodbridge/internal/auth"
	"github.com/jredh-dev/foodbridge/internal/lifecycle"
	"github.com/jredh-dev/foodbridge/internal/metrics"
	"github.com/jredh-dev/foodbridge/internal/notify"
	"github.com/jredh-dev/foodbridge/internal/store"
	"github.com/jredh-dev/foodbridge/internal/token"
	"github.com/jredh-dev/foodbridge/internal/web/handlers"
	"github.com/jredh-dev/foodbridge/pkg/identity"
	"github.com/jredh-dev/foodbridge/pkg/models"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("foodbridge-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWT.SigningKey == "" {
		log.Println("WARNING: JWT_SIGNING_KEY is empty, generating an ephemeral key (tokens will not survive restarts)")
		key, err := token.GenerateSigningKey()
		if err != nil {
			log.Fatalf("Failed to generate signing key: %v", err)
		}
		cfg.JWT.SigningKey = key
	}

	var st store.Store
	switch cfg.Store.Driver {
	case "memory":
		log.Println("WARNING: using in-memory store, all data is lost on restart")
		st = store.NewMemory()
	case "firestore":
		fs, err := store.NewFirestore(ctx, cfg.Firestore.ProjectID, cfg.Firestore.Database, cfg.Firestore.CredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firestore: %v", err)
		}
		defer fs.Close()
		st = fs
	default:
		log.Fatalf("Unknown store driver %q", cfg.Store.Driver)
	}

	// Firebase ID-token exchange is enabled only when credentials are set.
	var authClient *firebaseauth.Client
	if cfg.Firebase.CredentialsPath != "" {
		app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
		if err != nil {
			log.Fatalf("Failed to initialize Firebase app: %v", err)
		}
		authClient, err = app.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase auth client: %v", err)
		}
		log.Println("Firebase ID-token exchange enabled")
	}

	tokens := token.New(cfg.JWT.SigningKey, cfg.JWT.Issuer, time.Duration(cfg.JWT.TTLHours)*time.Hour, authClient)
	authService := auth.New(st, tokens, time.Duration(cfg.Auth.ResetTokenTTLMinutes)*time.Minute)
	lifecycleService := lifecycle.New(st, st, st)
	notifyService := notify.New(st, st)

	seedAdminUser(ctx, st, cfg)

	metrics.Init()

	// Initialize router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(handlers.MetricsMiddleware)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	h := handlers.New(authService, lifecycleService, notifyService, tokens)

	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/firebase", h.FirebaseLogin)
		r.Post("/auth/password-reset", h.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", h.ResetPassword)

		// Everything below requires a resolved identity.
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(tokens))

			r.Get("/donations", h.ListDonations)
			r.With(handlers.RequireRole(models.RoleNgo, models.RoleAdmin)).
				Get("/donations/available", h.AvailableDonations)
			r.Get("/donations/{id}", h.GetDonation)
			r.With(handlers.RequireRole(models.RoleDonor)).
				Post("/donations", h.CreateDonation)
			r.With(handlers.RequireRole(models.RoleNgo)).
				Post("/donations/claim", h.ClaimDonation)
			r.With(handlers.RequireRole(models.RoleNgo)).
				Post("/donations/assign", h.AssignVolunteer)
			r.Put("/donations/{id}/status", h.UpdateDonationStatus)
			r.Delete("/donations/{id}", h.DeleteDonation)

			r.With(handlers.RequireRole(models.RoleNgo)).
				Get("/volunteers", h.ListVolunteers)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications", h.SendNotification)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)

			// Admin moderation
			r.Group(func(r chi.Router) {
				r.Use(handlers.RequireRole(models.RoleAdmin))
				r.Get("/admin/users", h.AdminListUsers)
				r.Post("/admin/users/{id}/approve", h.AdminApproveUser)
				r.Post("/admin/users/{id}/unapprove", h.AdminUnapproveUser)
				r.Delete("/admin/users/{id}", h.AdminDeleteUser)
			})
		})
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("FoodBridge server starting on %s (env: %s, store: %s)", addr, cfg.Server.Env, cfg.Store.Driver)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

// seedAdminUser ensures the configured admin account exists and is approved.
// Skipped when ADMIN_EMAIL is unset.
func seedAdminUser(ctx context.Context, users store.UserStore, cfg *config.Config) {
	if cfg.Admin.Email == "" {
		return
	}
	if cfg.Admin.Password == "" {
		log.Println("ADMIN_EMAIL set without ADMIN_PASSWORD; skipping admin seed")
		return
	}

	existing, err := users.UserByEmailHash(ctx, identity.EmailHash(cfg.Admin.Email))
	if err != nil {
		log.Printf("Error looking up admin user: %v", err)
		return
	}
	if existing != nil {
		return
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.New().String(),
		Email:        cfg.Admin.Email,
		EmailHash:    identity.EmailHash(cfg.Admin.Email),
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		Approved:     true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		log.Printf("Admin user skipped (may already exist): %v", err)
		return
	}
	log.Printf("Seeded admin user: %s (%s)", admin.Email, admin.ID)
}
