// Package grading начисляет очки за прогнозы по итоговому счёту матча.
package grading

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

const (
	// PointsExact — очки за точный счёт.
	PointsExact = 3
	// PointsOutcome — очки за верный исход при неточном счёте.
	PointsOutcome = 1

	gradeOnceTTL = 24 * time.Hour
)

// PointsFor возвращает очки за прогноз относительно итогового счёта.
func PointsFor(pred domain.Prediction, result domain.MatchResult) int {
	if pred.HomeScore == result.HomeScore && pred.AwayScore == result.AwayScore {
		return PointsExact
	}
	guess := domain.MatchResult{HomeScore: pred.HomeScore, AwayScore: pred.AwayScore}
	if guess.Outcome() == result.Outcome() {
		return PointsOutcome
	}
	return 0
}

// Service оценивает прогнозы завершившегося матча.
type Service struct {
	predictions domain.PredictionRepo
	profiles    domain.ProfileRepo
	standings   domain.StandingRepo
	cache       domain.Cache
	log         zerolog.Logger
}

// NewService создаёт сервис оценки.
func NewService(
	predictions domain.PredictionRepo,
	profiles domain.ProfileRepo,
	standings domain.StandingRepo,
	cache domain.Cache,
	logger zerolog.Logger,
) *Service {
	return &Service{
		predictions: predictions,
		profiles:    profiles,
		standings:   standings,
		cache:       cache,
		log:         logger,
	}
}

// Grade оценивает все неоценённые прогнозы матча. Повторная задача по тому же
// матчу игнорируется: начисления не должны задвоиться при ретрае очереди.
func (s *Service) Grade(ctx context.Context, job domain.GradeJob) error {
	key := fmt.Sprintf("grade:%s", job.Result.MatchID)
	return s.cache.Once(key, gradeOnceTTL, func() error {
		return s.grade(ctx, job.Result)
	})
}

func (s *Service) grade(ctx context.Context, result domain.MatchResult) error {
	defer func(start time.Time) {
		metrics.GradeJobSeconds.Observe(time.Since(start).Seconds())
	}(time.Now())

	preds, err := s.predictions.ListMatchPredictions(ctx, result.MatchID)
	if err != nil {
		return fmt.Errorf("прогнозы матча: %w", err)
	}

	graded := 0
	for _, pred := range preds {
		if pred.Graded {
			continue
		}
		points := PointsFor(pred, result)
		correct := points > 0
		if err := s.predictions.MarkGraded(ctx, pred.ID, correct, points); err != nil {
			return fmt.Errorf("отметка прогноза %s: %w", pred.ID, err)
		}
		if err := s.award(ctx, pred.UserID, correct, points); err != nil {
			return err
		}
		graded++
	}

	s.log.Info().
		Str("match_id", result.MatchID).
		Int("graded", graded).
		Int("home", result.HomeScore).
		Int("away", result.AwayScore).
		Msg("матч оценён")
	return nil
}

// award начисляет очки профилю и его клубу и двигает серию:
// верный прогноз продлевает серию на день, неверный обнуляет.
func (s *Service) award(ctx context.Context, userID string, correct bool, points int) error {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("профиль %s: %w", userID, err)
	}

	if points > 0 {
		if err := s.profiles.AddPoints(ctx, userID, points); err != nil {
			return fmt.Errorf("начисление очков %s: %w", userID, err)
		}
		if profile.ClubID != "" {
			if err := s.standings.AddClubPoints(ctx, profile.ClubID, points); err != nil {
				return fmt.Errorf("очки клуба %s: %w", profile.ClubID, err)
			}
		}
	}

	streak := 0
	if correct {
		streak = profile.Streak + 1
	}
	if err := s.profiles.SetStreak(ctx, userID, streak); err != nil {
		return fmt.Errorf("серия %s: %w", userID, err)
	}
	return nil
}
