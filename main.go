package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rogeriocsilva/kompletionist/api"
	"github.com/rogeriocsilva/kompletionist/config"
	"github.com/rogeriocsilva/kompletionist/handlers"
	"github.com/rogeriocsilva/kompletionist/internal/database"
	"github.com/rogeriocsilva/kompletionist/models"
	"github.com/rogeriocsilva/kompletionist/services/manifest"
	"github.com/rogeriocsilva/kompletionist/services/metadata"
	"github.com/rogeriocsilva/kompletionist/services/overseerr"
	"github.com/rogeriocsilva/kompletionist/services/posters"
	"github.com/rogeriocsilva/kompletionist/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[startup] configuration error: %v", err)
	}

	if cfg.LogPath != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}))
	}

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[startup] database error: %v", err)
	}
	defer db.Close()
	repo := database.NewMediaRepository(db.Connection())

	httpc := &http.Client{Timeout: 30 * time.Second}

	posterCache, err := posters.NewCache(cfg.ImageCacheDir, httpc)
	if err != nil {
		log.Fatalf("[startup] poster cache error: %v", err)
	}

	enrichment := metadata.NewService(metadata.Options{
		TMDBAPIKey: cfg.TMDBAPIKey,
		TVDBAPIKey: cfg.TVDBAPIKey,
		TVDBPin:    cfg.TVDBPin,
		HTTPClient: httpc,
	}, repo, posterCache)

	// Parse, seed, and enrich in the background so serving starts
	// immediately; /health reports when the first pass has finished.
	go runPipeline(cfg, repo, enrichment)

	router := utils.NewRouter()
	router.Use(api.RequestLogMiddleware)

	health := handlers.NewHealthHandler(enrichment)
	router.HandleFunc("/health", health.GetHealth).Methods(http.MethodGet)

	media := handlers.NewMediaHandler(repo)
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/search", media.Search).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies", media.GetMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/shows", media.GetShows).Methods(http.MethodGet)
	apiRouter.HandleFunc("/categories/", media.GetCategories).Methods(http.MethodGet)
	apiRouter.HandleFunc("/categories/{name}", media.GetCategory).Methods(http.MethodGet)

	if cfg.OverseerrEnabled() {
		request := handlers.NewRequestHandler(overseerr.NewClient(cfg.OverseerrURL, cfg.OverseerrAPIKey, httpc))
		apiRouter.HandleFunc("/request", request.RequestMedia).Methods(http.MethodPost)
		log.Printf("[startup] overseerr requests enabled url=%s", cfg.OverseerrURL)
	}

	router.Handle("/images/{filename}", handlers.NewImagesHandler(posterCache.Dir())).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("[startup] listening addr=%s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("[startup] server error: %v", err)
	}
}

// runPipeline executes one parse → seed → enrich pass. Rerunning it is
// always safe: seeding preserves existing details and enrichment only fills
// rows that are still pending.
func runPipeline(cfg config.Config, repo *database.MediaRepository, enrichment *metadata.Service) {
	parser := manifest.NewParser(afero.NewOsFs())
	movies, shows := parser.Parse(cfg.DataDirectory)
	log.Printf("[startup] parsed manifests movies=%d shows=%d dir=%s", len(movies), len(shows), cfg.DataDirectory)

	if err := repo.UpsertSeed(models.KindMovie, movies); err != nil {
		log.Printf("[startup] seeding movies failed err=%v", err)
		return
	}
	if err := repo.UpsertSeed(models.KindShow, shows); err != nil {
		log.Printf("[startup] seeding shows failed err=%v", err)
		return
	}

	if err := enrichment.Run(context.Background()); err != nil {
		log.Printf("[startup] enrichment pass failed err=%v", err)
	}
}
