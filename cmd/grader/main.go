package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"terrace/internal/adapters/repo"
	"terrace/internal/domain"
	"terrace/internal/infra/cache"
	"terrace/internal/infra/config"
	"terrace/internal/infra/db"
	applog "terrace/internal/infra/log"
	"terrace/internal/infra/metrics"
	"terrace/internal/infra/queue"
	"terrace/internal/usecase/grading"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("grader: нет подключения к БД")
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("grader: нет подключения к Redis")
	}
	cancel()
	defer redisClient.Close()

	repoAdapter := repo.NewPostgres(pool)
	redisCache := cache.NewRedis(redisClient)
	var gradeQueue domain.GradeQueue = queue.NewRedisGradeQueue(redisClient, cfg.Queues.Grade)
	if cfg.Queues.AMQPURL != "" {
		rabbitQueue, err := queue.NewRabbitGradeQueue(cfg.Queues.AMQPURL, cfg.Queues.AMQPMgmtURL, cfg.Queues.Grade)
		if err != nil {
			logger.Fatal().Err(err).Msg("grader: неверная конфигурация RabbitMQ")
		}
		gradeQueue = rabbitQueue
	}
	gradingService := grading.NewService(repoAdapter, repoAdapter, repoAdapter, redisCache, logger.With().Str("component", "grading").Logger())

	logger.Info().Str("queue", cfg.Queues.Grade).Msg("grader: старт")
	for {
		job, err := gradeQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			logger.Error().Err(err).Msg("grader: ошибка чтения очереди")
			continue
		}
		if err := gradingService.Grade(ctx, job); err != nil {
			logger.Error().Err(err).Str("match", job.Result.MatchID).Msg("grader: не удалось оценить матч")
		}
	}
	logger.Info().Msg("grader: остановка")
}
