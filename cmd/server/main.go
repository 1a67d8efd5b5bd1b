package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lulus/backend/internal/config"
	"github.com/lulus/backend/internal/handlers"
	appMiddleware "github.com/lulus/backend/internal/middleware"
	"github.com/lulus/backend/internal/services"
)

func main() {
	cfg := config.Load()

	// Firebase Auth (server-side verification of ID tokens). nil client
	// means local JWT auth.
	authClient, err := appMiddleware.NewFirebaseAuthClient(
		context.Background(),
		appMiddleware.FirebaseAuthConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
		},
	)
	if err != nil {
		log.Printf("Warning: failed to initialize Firebase Auth client: %v", err)
	}

	var (
		participantService services.ParticipantService
		galleryService     services.GalleryService
	)
	if cfg.MongoURI != "" {
		mongoParticipants, err := services.NewMongoParticipantService(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect participant store: %v", err)
		}
		defer mongoParticipants.Close(context.Background())

		mongoGallery, err := services.NewMongoGalleryService(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect gallery store: %v", err)
		}
		defer mongoGallery.Close(context.Background())

		participantService = mongoParticipants
		galleryService = mongoGallery
	} else {
		fileParticipants, err := services.NewFileParticipantService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open participant store: %v", err)
		}
		fileGallery, err := services.NewFileGalleryService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open gallery store: %v", err)
		}
		participantService = fileParticipants
		galleryService = fileGallery
	}

	photoService := services.NewPhotoService(cfg.UploadDir)

	participantHandler := handlers.NewParticipantHandler(participantService, cfg.JWTSecret, cfg.EditTokenTTL)
	galleryHandler := handlers.NewGalleryHandler(galleryService, photoService)
	photoHandler := handlers.NewPhotoHandler(photoService, galleryService, participantService, cfg.MaxUploadSizeMB)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Local auth fallback when Firebase is not configured.
		if authClient == nil {
			userService, err := services.NewUserService(cfg.DataDir)
			if err != nil {
				log.Fatalf("Failed to open user store: %v", err)
			}
			authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.JWTExpiration)

			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.Auth(authClient, cfg.JWTSecret))
				r.Get("/auth/me", authHandler.Me)
			})
		}

		// Readable without an account; a token, when present, personalizes
		// the like stats.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.OptionalAuth(authClient, cfg.JWTSecret))

			r.Get("/participants", participantHandler.List)
			r.Get("/participants/next-birthday", participantHandler.NextBirthday)
			r.Get("/participants/stats", participantHandler.Stats)
			r.Get("/participants/{id}", participantHandler.Get)
			r.Get("/participants/edit/{token}", participantHandler.GetByEditToken)
			r.Put("/participants/edit/{token}", participantHandler.UpdateByEditToken)

			r.Get("/gallery", galleryHandler.List)
			r.Get("/gallery/{photoId}/comments", galleryHandler.ListComments)
		})

		// Requires a logged-in user.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Auth(authClient, cfg.JWTSecret))

			r.Post("/gallery/{photoId}/like", galleryHandler.Like)
			r.Delete("/gallery/{photoId}/like", galleryHandler.Unlike)
			r.Post("/gallery/{photoId}/comments", galleryHandler.AddComment)
			r.Put("/gallery/{photoId}/comments/{commentId}", galleryHandler.EditComment)
			r.Delete("/gallery/{photoId}/comments/{commentId}", galleryHandler.DeleteComment)

			r.Post("/upload", photoHandler.Upload)
			r.Delete("/upload/{uploadId}", photoHandler.Delete)

			// Admin-only roster and gallery management.
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAdmin)

				r.Post("/participants", participantHandler.Create)
				r.Put("/participants/{id}", participantHandler.Update)
				r.Delete("/participants/{id}", participantHandler.Delete)
				r.Post("/participants/{id}/edit-token", participantHandler.IssueEditToken)
				r.Post("/participants/{id}/photo", photoHandler.UploadParticipantPhoto)

				r.Delete("/gallery/photo", galleryHandler.DeletePhoto)
			})
		})
	})

	// Serve uploaded files.
	workDir, _ := os.Getwd()
	filesDir := http.Dir(workDir + "/" + cfg.UploadDir)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesDir)))

	log.Printf("🎂 Lulus API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
