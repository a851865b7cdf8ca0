package main

import (
	"github.com/redis/go-redis/v9"

	authservice "github.com/gensosanso/financecorner/internal/application/auth"
	"github.com/gensosanso/financecorner/internal/application/ledger"
	"github.com/gensosanso/financecorner/internal/events"
	"github.com/gensosanso/financecorner/internal/infrastructure/database"
	"github.com/gensosanso/financecorner/internal/repositories/lendingrepo"
	"github.com/gensosanso/financecorner/internal/repositories/profilerepo"
	"github.com/gensosanso/financecorner/internal/repositories/txnrepo"
	"github.com/gensosanso/financecorner/internal/repositories/walletrepo"
	"github.com/gensosanso/financecorner/internal/server"
	"github.com/gensosanso/financecorner/internal/server/websocket"
	"github.com/gensosanso/financecorner/pkg/config"
	"github.com/gensosanso/financecorner/pkg/logger"
)

func main() {
	logger := logger.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.ShutDown()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	walletRepo := walletrepo.New(db, logger)
	transactionRepo := txnrepo.New(db, logger)
	lendingRepo := lendingrepo.New(db, logger)
	profileRepo := profilerepo.New(db, logger)

	hub := websocket.NewWsHub(logger)
	go hub.Run()

	publisher := events.NewPublisher(redisClient)
	notifier := events.NewNotifier(publisher, hub, logger)

	authService := authservice.NewAuthService(cfg, logger)

	ledgerService := ledger.New(
		db,
		walletRepo,
		transactionRepo,
		lendingRepo,
		profileRepo,
		notifier,
		cfg.Ledger,
		logger,
	)

	srv := server.New(cfg, ledgerService, authService, logger, hub)
	srv.Start()
}
