// Package predictions принимает прогнозы счёта на предстоящие матчи.
package predictions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

var (
	// ErrMatchClosed — матч уже начался или не найден среди предстоящих.
	ErrMatchClosed = errors.New("приём прогнозов на матч закрыт")
)

// Service управляет прогнозами пользователя.
type Service struct {
	predictions domain.PredictionRepo
	log         zerolog.Logger
	now         func() time.Time
}

// NewService создаёт сервис прогнозов.
func NewService(predictions domain.PredictionRepo, logger zerolog.Logger) *Service {
	return &Service{predictions: predictions, log: logger, now: time.Now}
}

// Upcoming возвращает матчи, на которые ещё принимаются прогнозы.
func (s *Service) Upcoming(ctx context.Context) ([]domain.Match, error) {
	matches, err := s.predictions.ListUpcomingMatches(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("список матчей: %w", err)
	}
	return matches, nil
}

// Mine возвращает прогнозы пользователя, сведённые по матчу.
func (s *Service) Mine(ctx context.Context, userID string) (map[string]domain.Prediction, error) {
	preds, err := s.predictions.ListUserPredictions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("прогнозы пользователя: %w", err)
	}
	byMatch := make(map[string]domain.Prediction, len(preds))
	for _, pred := range preds {
		byMatch[pred.MatchID] = pred
	}
	return byMatch, nil
}

// Submit сохраняет прогноз счёта. Повторная отправка по тому же матчу
// перезаписывает прежний прогноз, счёт зажимается в допустимый диапазон.
func (s *Service) Submit(ctx context.Context, userID, matchID string, homeScore, awayScore int) (domain.Prediction, error) {
	matches, err := s.predictions.ListUpcomingMatches(ctx, s.now())
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("список матчей: %w", err)
	}
	open := false
	for _, match := range matches {
		if match.ID == matchID {
			open = true
			break
		}
	}
	if !open {
		return domain.Prediction{}, ErrMatchClosed
	}

	pred := domain.Prediction{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		UserID:    userID,
		HomeScore: clampScore(homeScore),
		AwayScore: clampScore(awayScore),
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	saved, err := s.predictions.UpsertPrediction(ctx, pred)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("сохранение прогноза: %w", err)
	}
	metrics.PredictionsSubmittedTotal.Inc()
	s.log.Debug().
		Str("user_id", userID).
		Str("match_id", matchID).
		Int("home", saved.HomeScore).
		Int("away", saved.AwayScore).
		Msg("прогноз сохранён")
	return saved, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > domain.ScoreMax {
		return domain.ScoreMax
	}
	return score
}
