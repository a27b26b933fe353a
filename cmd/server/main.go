package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/notify"
	"github.com/iliyamo/restaurant-reservation/internal/queue"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
	"github.com/iliyamo/restaurant-reservation/internal/router"
	queue_publisher "github.com/iliyamo/restaurant-reservation/internal/service"
	"github.com/iliyamo/restaurant-reservation/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis backs the response cache, the rate limiter and the draft
	// store.  All three degrade gracefully when it is absent.
	rdb := config.NewRedisClient()
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rlMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	drafts := store.NewDraftStore(rdb, cfg.DraftTTL)

	accounts := repository.NewAccountRepo(db)
	codes := repository.NewCodeRepo(db)
	sessions := repository.NewSessionRepo(db)
	reservations := repository.NewReservationRepo(db)
	menu := repository.NewMenuRepo(db)

	if err := menu.SeedDefault(ctx); err != nil {
		log.Printf("menu seed: %v", err)
	}

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	authH := handler.NewAuthHandler(cfg, accounts, codes, sessions, mailer)
	oauthH := handler.NewOAuthHandler(cfg, accounts, authH)
	resH := handler.NewReservationHandler(reservations)
	resH.Publish = queue_publisher.PublishReservationConfirmed
	pendingH := handler.NewPendingHandler(drafts, resH)
	menuH := handler.NewMenuHandler(menu)

	// Consumer keeps its own connection and reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterMenu(e, menuH, cacheMW)
	router.RegisterAuth(e, authH, oauthH, rlMW)
	router.RegisterReservations(e, resH, pendingH, cfg.JWTSecret, cacheMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
