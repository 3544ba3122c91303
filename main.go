package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"classifieds-service/internal/config"
	"classifieds-service/internal/handler"
	"classifieds-service/internal/middleware"
	"classifieds-service/internal/notify"
	"classifieds-service/internal/policy"
	"classifieds-service/internal/repository"
	"classifieds-service/internal/service"
	"classifieds-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}

	mongoClient, err := storage.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongo connect error: %v", err)
	}
	photos := storage.NewPhotoStore(mongoClient, cfg.MongoDB)

	listingRepo := repository.NewListingRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	submitLimiter := policy.NewWindowLimiter(cfg.SubmitLimit, cfg.SubmitWindow)
	cooldown := policy.NewCooldown(cfg.CooldownDays)
	indexer := notify.NewIndexingClient(cfg.IndexingEndpoint)

	listingSvc := service.NewListingService(
		listingRepo, statsRepo, photos, indexer,
		submitLimiter, cooldown, cfg.BaseURL, cfg.CleanupBatch,
	)
	searchSvc := service.NewSearchService(listingRepo, cfg.SparseThreshold, cfg.SectionCap)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go submitLimiter.Janitor(ctx, time.Minute)
	go runCleanupSweeper(ctx, listingSvc, cfg.CleanupInterval)

	r := gin.Default()
	r.Use(middleware.RateLimit(cfg.EdgeRate))

	api := r.Group("/api")
	(&handler.ListingHandler{Service: listingSvc, Search: searchSvc}).RegisterRoutes(api)
	(&handler.ImageHandler{Service: listingSvc}).RegisterRoutes(api)

	srv := &http.Server{Addr: cfg.Host + ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("Classifieds service running on :%s …", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down …")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	db.Close()
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}
}

// runCleanupSweeper is the janitorial sweep for expired listings. Each tick
// removes one bounded batch; leftovers wait for the next tick.
func runCleanupSweeper(ctx context.Context, svc *service.ListingService, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			removed, err := svc.CleanupExpired(ctx)
			if err != nil {
				log.Printf("[cleanup] sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[cleanup] removed %d expired listings", removed)
			}
		}
	}
}
