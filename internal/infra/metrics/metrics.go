package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	MessagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Отправленные сообщения чатов",
	}, []string{"scope_kind"})

	PostsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Созданные посты ленты",
	})

	VotesCastTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "votes_cast_total",
		Help: "Учтённые голоса в опросах",
	})

	PredictionsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "predictions_submitted_total",
		Help: "Отправленные прогнозы счёта",
	})

	GradeJobSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grade_job_seconds",
		Help:    "Время оценки прогнозов одного матча",
		Buckets: prometheus.DefBuckets,
	})

	RealtimeConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Открытые websocket-соединения",
	}, []string{"view"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		MessagesSentTotal,
		PostsCreatedTotal,
		VotesCastTotal,
		PredictionsSubmittedTotal,
		GradeJobSeconds,
		RealtimeConnections,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncMessageSent учитывает отправленное сообщение.
func IncMessageSent(scope string) {
	kind := "club"
	if scope == "global" {
		kind = "global"
	}
	MessagesSentTotal.WithLabelValues(kind).Inc()
}
