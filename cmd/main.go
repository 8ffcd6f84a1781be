package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"baduk_arena/internal/adapters"
	"baduk_arena/internal/ai"
	"baduk_arena/internal/bootstrap"
	gameDelivery "baduk_arena/internal/delivery/game"
	ownMiddleware "baduk_arena/internal/middleware"
	repo "baduk_arena/internal/repository"
	sessionuc "baduk_arena/internal/usecase/session"
)

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.mongoAdapter.Close(ctx)
	defer databaseAdapters.redisAdapter.Close(ctx)

	sessionRepo := repo.NewSessionRepository(*cfg, logger, databaseAdapters.redisAdapter.GetClient(), databaseAdapters.mongoAdapter.Database)
	identity := repo.NewIdentityStorage(databaseAdapters.redisAdapter.GetClient(), logger)

	registry := sessionuc.NewRegistry(sessionRepo, logger)
	machine := sessionuc.NewMachine(logger)
	hub := gameDelivery.NewHub(logger)
	bot := ai.NewBotAdapter(cfg, logger)
	service := sessionuc.NewService(registry, machine, hub, bot, logger)

	sweepPeriod := time.Second
	if cfg.SweepPeriodSec > 0 {
		sweepPeriod = time.Duration(cfg.SweepPeriodSec) * time.Second
	}
	go service.RunSweep(ctx, sweepPeriod)

	gameHandler := gameDelivery.NewGameHandler(*cfg, logger, service, sessionRepo, identity, hub)

	r := chi.NewRouter()
	router(r, gameHandler, cfg.IsLocalCors)

	port := cfg.ServerPort
	if port == "" {
		port = ":8080"
	}
	logger.Infof("Server is running on port %s", port)
	if err := http.ListenAndServe(port, r); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func router(r *chi.Mux, h *gameDelivery.GameHandler, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/NewGame", h.HandleNewGame)
	r.Post("/JoinGame", h.HandleJoinGame)
	r.Get("/startGame", h.HandleStartGame)
	r.Post("/getGameById", h.GetGameById)
	r.Get("/listGames", h.HandleListGames)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize MongoDB", zap.Error(err))
	}

	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize Redis", zap.Error(err))
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
	time.Sleep(1 * time.Second)
}
