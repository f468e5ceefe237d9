package predictions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

type stubPredictionRepo struct {
	matches []domain.Match
	preds   map[string]domain.Prediction // ключ — матч+пользователь
}

func newStubPredictionRepo(matches ...domain.Match) *stubPredictionRepo {
	return &stubPredictionRepo{matches: matches, preds: make(map[string]domain.Prediction)}
}

func (s *stubPredictionRepo) UpsertPrediction(ctx context.Context, pred domain.Prediction) (domain.Prediction, error) {
	key := pred.MatchID + "/" + pred.UserID
	if existing, ok := s.preds[key]; ok {
		existing.HomeScore = pred.HomeScore
		existing.AwayScore = pred.AwayScore
		existing.UpdatedAt = pred.UpdatedAt
		s.preds[key] = existing
		return existing, nil
	}
	s.preds[key] = pred
	return pred, nil
}

func (s *stubPredictionRepo) ListUserPredictions(ctx context.Context, userID string) ([]domain.Prediction, error) {
	var out []domain.Prediction
	for _, pred := range s.preds {
		if pred.UserID == userID {
			out = append(out, pred)
		}
	}
	return out, nil
}

func (s *stubPredictionRepo) ListMatchPredictions(ctx context.Context, matchID string) ([]domain.Prediction, error) {
	var out []domain.Prediction
	for _, pred := range s.preds {
		if pred.MatchID == matchID {
			out = append(out, pred)
		}
	}
	return out, nil
}

func (s *stubPredictionRepo) MarkGraded(ctx context.Context, id string, correct bool, points int) error {
	return nil
}

func (s *stubPredictionRepo) ListUpcomingMatches(ctx context.Context, from time.Time) ([]domain.Match, error) {
	var out []domain.Match
	for _, match := range s.matches {
		if match.KickoffAt.After(from) {
			out = append(out, match)
		}
	}
	return out, nil
}

func upcoming(id string, in time.Duration) domain.Match {
	return domain.Match{ID: id, HomeTeam: "Arsenal", AwayTeam: "Chelsea", KickoffAt: time.Now().Add(in)}
}

func TestSubmitOverwritesPrevious(t *testing.T) {
	repo := newStubPredictionRepo(upcoming("m1", time.Hour))
	svc := NewService(repo, zerolog.Nop())

	first, err := svc.Submit(context.Background(), "u1", "m1", 2, 1)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	second, err := svc.Submit(context.Background(), "u1", "m1", 0, 3)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("повторная отправка должна перезаписывать прогноз, а не плодить новый")
	}
	if second.HomeScore != 0 || second.AwayScore != 3 {
		t.Fatalf("ожидали счёт 0:3, получили %d:%d", second.HomeScore, second.AwayScore)
	}
	if len(repo.preds) != 1 {
		t.Fatalf("ожидали один прогноз на пару (матч, пользователь)")
	}
}

func TestSubmitClampsScores(t *testing.T) {
	repo := newStubPredictionRepo(upcoming("m1", time.Hour))
	svc := NewService(repo, zerolog.Nop())

	pred, err := svc.Submit(context.Background(), "u1", "m1", -4, 25)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if pred.HomeScore != 0 || pred.AwayScore != domain.ScoreMax {
		t.Fatalf("счёт должен зажиматься в [0,%d], получили %d:%d",
			domain.ScoreMax, pred.HomeScore, pred.AwayScore)
	}
}

func TestSubmitClosedMatch(t *testing.T) {
	repo := newStubPredictionRepo(upcoming("m1", -time.Hour))
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.Submit(context.Background(), "u1", "m1", 1, 1); !errors.Is(err, ErrMatchClosed) {
		t.Fatalf("прогноз на начавшийся матч должен отклоняться, получили %v", err)
	}
	if _, err := svc.Submit(context.Background(), "u1", "нет-такого", 1, 1); !errors.Is(err, ErrMatchClosed) {
		t.Fatalf("прогноз на неизвестный матч должен отклоняться, получили %v", err)
	}
}

func TestMineKeyedByMatch(t *testing.T) {
	repo := newStubPredictionRepo(upcoming("m1", time.Hour), upcoming("m2", 2*time.Hour))
	svc := NewService(repo, zerolog.Nop())
	_, _ = svc.Submit(context.Background(), "u1", "m1", 1, 0)
	_, _ = svc.Submit(context.Background(), "u1", "m2", 2, 2)
	_, _ = svc.Submit(context.Background(), "u2", "m1", 0, 0)

	mine, err := svc.Mine(context.Background(), "u1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("ожидали два прогноза, получили %d", len(mine))
	}
	if mine["m2"].AwayScore != 2 {
		t.Fatalf("прогнозы должны быть сведены по матчу")
	}
}
