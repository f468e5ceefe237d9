package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"terrace/internal/adapters/geo"
	"terrace/internal/adapters/realtime"
	"terrace/internal/adapters/repo"
	"terrace/internal/adapters/web"
	"terrace/internal/domain"
	"terrace/internal/infra/cache"
	"terrace/internal/infra/config"
	"terrace/internal/infra/db"
	infrahttp "terrace/internal/infra/http"
	applog "terrace/internal/infra/log"
	"terrace/internal/infra/metrics"
	"terrace/internal/infra/queue"
	"terrace/internal/usecase/chat"
	"terrace/internal/usecase/feed"
	"terrace/internal/usecase/leaderboard"
	"terrace/internal/usecase/polls"
	"terrace/internal/usecase/predictions"
	"terrace/internal/usecase/profile"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
	}
	cancel()
	defer redisClient.Close()

	repoAdapter := repo.NewPostgres(pool)
	redisCache := cache.NewRedis(redisClient)
	bus := realtime.NewBus(redisClient, logger.With().Str("component", "bus").Logger())
	presence := realtime.NewPresence(redisClient, bus, logger.With().Str("component", "presence").Logger())
	var gradeQueue domain.GradeQueue = queue.NewRedisGradeQueue(redisClient, cfg.Queues.Grade)
	if cfg.Queues.AMQPURL != "" {
		rabbitQueue, err := queue.NewRabbitGradeQueue(cfg.Queues.AMQPURL, cfg.Queues.AMQPMgmtURL, cfg.Queues.Grade)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: неверная конфигурация RabbitMQ")
		}
		gradeQueue = rabbitQueue
	}
	geocoder := geo.NewNominatim(cfg.Geo.BaseURL, cfg.Geo.UserAgent, cfg.Geo.Timeout)

	chatService := chat.NewService(repoAdapter, repoAdapter, bus, logger.With().Str("component", "chat").Logger())
	feedService := feed.NewService(repoAdapter, repoAdapter, bus, logger.With().Str("component", "feed").Logger())
	pollsService := polls.NewService(repoAdapter, logger.With().Str("component", "polls").Logger())
	predictionsService := predictions.NewService(repoAdapter, logger.With().Str("component", "predictions").Logger())
	leaderboardService := leaderboard.NewService(repoAdapter, repoAdapter, logger.With().Str("component", "leaderboard").Logger())
	profileService := profile.NewService(repoAdapter, repoAdapter, repoAdapter, geocoder, logger.With().Str("component", "profile").Logger())

	sessions := infrahttp.NewSessions(cfg.Session.Secret, redisCache, cfg.Session.TTL)
	gateway := web.NewGateway(bus, presence, chatService, feedService, repoAdapter, logger.With().Str("component", "gateway").Logger())
	handler := web.NewHandler(
		chatService,
		feedService,
		pollsService,
		predictionsService,
		leaderboardService,
		profileService,
		gradeQueue,
		sessions,
		gateway,
		cfg.Admin.Token,
		logger.With().Str("component", "web").Logger(),
	)

	server := infrahttp.NewServer(logger.With().Str("component", "http").Logger())
	handler.Register(server.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), fmt.Sprintf(":%d", cfg.MetricsPort))

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: ошибка остановки сервера")
	}
}
