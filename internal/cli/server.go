package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/config"
	"quiz-platform-service/internal/infra/memory"
	"quiz-platform-service/internal/infra/postgres"
	infraredis "quiz-platform-service/internal/infra/redis"
	"quiz-platform-service/internal/logger"
	transport "quiz-platform-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// storage is the set of repositories backing the services.
type storage struct {
	users       app.UserRepository
	quizzes     app.QuizRepository
	submissions app.SubmissionRepository
	reports     app.ReportRepository
	papers      memory.PaperLoader
	close       func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret not configured: set JWT_SECRET or auth.jwt_secret")
	}
	gin.SetMode(cfg.Server.Mode)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	paperTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var papers app.PaperRepository
	var feeds app.FeedRegistry
	if redisClient != nil {
		papers = infraredis.NewPaperCache(redisClient, store.papers, paperTTL, log)
		registry := infraredis.NewFeedRegistry(redisClient, redisTTL)
		go registry.KeepAlive(ctx)
		feeds = registry
	} else {
		papers = memory.NewPaperCache(store.papers, paperTTL)
		feeds = memory.NewFeedRegistry()
	}

	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
	scorer := app.NewScorer(app.WithUnansweredInTotal(cfg.Scoring.CountUnanswered))
	services := transport.Services{
		Auth:        app.NewAuthService(store.users, cfg.Auth.JWTSecret, tokenTTL, cfg.Auth.BcryptCost),
		Users:       app.NewUserService(store.users),
		Authoring:   app.NewAuthoringService(store.quizzes, papers),
		Submissions: app.NewSubmissionService(store.submissions, store.quizzes, scorer, feeds, log),
		Reports:     app.NewReportService(store.reports),
	}
	router := transport.NewRouter(services, transport.RouterConfig{AllowOrigins: cfg.CORS.AllowOrigins}, log)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the results websocket is long-lived.
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting quiz service", "port", finalPort, "postgres", cfg.Postgres.URL != "", "redis", redisClient != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		log.Error("failed to start server", "error", err)
		return fmt.Errorf("serve on port %s: %w", finalPort, err)
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage uses Postgres when configured and falls back to the in-memory store.
func openStorage(ctx context.Context, cfg config.Config, log *logger.Logger) (storage, error) {
	if cfg.Postgres.URL == "" {
		log.Warn("postgres url not configured, using in-memory store")
		store := memory.NewStore()
		return storage{
			users:       store,
			quizzes:     store,
			submissions: store,
			reports:     store,
			papers:      store,
			close:       func() {},
		}, nil
	}

	db := postgres.OpenDB(cfg.Postgres.URL)
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		_ = db.Close()
		return storage{}, fmt.Errorf("connect postgres: %w", err)
	}
	store := postgres.NewStore(db)
	return storage{
		users:       store,
		quizzes:     store,
		submissions: store,
		reports:     postgres.NewReportReader(pool),
		papers:      postgres.NewPaperLoader(pool),
		close: func() {
			pool.Close()
			_ = db.Close()
		},
	}, nil
}
