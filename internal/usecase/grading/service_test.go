package grading

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

type stubCache struct {
	done map[string]bool
}

func newStubCache() *stubCache { return &stubCache{done: make(map[string]bool)} }

func (c *stubCache) Once(key string, ttl time.Duration, fn func() error) error {
	if c.done[key] {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	c.done[key] = true
	return nil
}

func (c *stubCache) Set(key string, value []byte, ttl time.Duration) error { return nil }
func (c *stubCache) Get(key string) ([]byte, error)                        { return nil, nil }

type stubPredictionRepo struct {
	preds map[string]domain.Prediction
}

func (s *stubPredictionRepo) UpsertPrediction(ctx context.Context, pred domain.Prediction) (domain.Prediction, error) {
	s.preds[pred.ID] = pred
	return pred, nil
}

func (s *stubPredictionRepo) ListUserPredictions(ctx context.Context, userID string) ([]domain.Prediction, error) {
	return nil, nil
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
	pred := s.preds[id]
	pred.Graded = true
	pred.Correct = correct
	pred.AwardedPoints = points
	s.preds[id] = pred
	return nil
}

func (s *stubPredictionRepo) ListUpcomingMatches(ctx context.Context, from time.Time) ([]domain.Match, error) {
	return nil, nil
}

type stubProfileRepo struct {
	profiles map[string]domain.Profile
}

func (s *stubProfileRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	s.profiles[p.ID] = p
	return p, nil
}

func (s *stubProfileRepo) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubProfileRepo) UpdateName(ctx context.Context, id, fullName string) (domain.Profile, error) {
	p := s.profiles[id]
	p.FullName = fullName
	s.profiles[id] = p
	return p, nil
}

func (s *stubProfileRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return nil
}

func (s *stubProfileRepo) AddPoints(ctx context.Context, id string, delta int) error {
	p := s.profiles[id]
	p.Points += delta
	s.profiles[id] = p
	return nil
}

func (s *stubProfileRepo) SetStreak(ctx context.Context, id string, streak int) error {
	p := s.profiles[id]
	p.Streak = streak
	s.profiles[id] = p
	return nil
}

func (s *stubProfileRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Profile, error) {
	return nil, nil
}

type stubStandingRepo struct {
	points map[string]int
}

func (s *stubStandingRepo) ListStandings(ctx context.Context) ([]domain.ClubStanding, error) {
	return nil, nil
}

func (s *stubStandingRepo) AddClubPoints(ctx context.Context, clubID string, delta int) error {
	s.points[clubID] += delta
	return nil
}

func (s *stubStandingRepo) AddClubMember(ctx context.Context, clubID, clubName string) error {
	return nil
}

func (s *stubStandingRepo) RemoveClubMember(ctx context.Context, clubID string) error {
	return nil
}

func TestPointsFor(t *testing.T) {
	result := domain.MatchResult{MatchID: "m1", HomeScore: 2, AwayScore: 1}
	cases := []struct {
		name string
		home int
		away int
		want int
	}{
		{"точный счёт", 2, 1, 3},
		{"верный исход", 3, 0, 1},
		{"неверный исход", 1, 1, 0},
		{"обратный исход", 0, 2, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred := domain.Prediction{HomeScore: tc.home, AwayScore: tc.away}
			if got := PointsFor(pred, result); got != tc.want {
				t.Fatalf("прогноз %d:%d при счёте 2:1 — ожидали %d очков, получили %d",
					tc.home, tc.away, tc.want, got)
			}
		})
	}
}

func fixture() (*Service, *stubPredictionRepo, *stubProfileRepo, *stubStandingRepo, *stubCache) {
	preds := &stubPredictionRepo{preds: make(map[string]domain.Prediction)}
	profiles := &stubProfileRepo{profiles: make(map[string]domain.Profile)}
	standings := &stubStandingRepo{points: make(map[string]int)}
	cache := newStubCache()
	svc := NewService(preds, profiles, standings, cache, zerolog.Nop())
	return svc, preds, profiles, standings, cache
}

func TestGradeAwardsPointsAndStreaks(t *testing.T) {
	svc, preds, profiles, standings, _ := fixture()
	profiles.profiles["u1"] = domain.Profile{ID: "u1", ClubID: "t3", Points: 100, Streak: 4}
	profiles.profiles["u2"] = domain.Profile{ID: "u2", ClubID: "t8", Points: 50, Streak: 7}
	preds.preds["p1"] = domain.Prediction{ID: "p1", MatchID: "m1", UserID: "u1", HomeScore: 2, AwayScore: 0}
	preds.preds["p2"] = domain.Prediction{ID: "p2", MatchID: "m1", UserID: "u2", HomeScore: 0, AwayScore: 3}

	job := domain.GradeJob{Result: domain.MatchResult{MatchID: "m1", HomeScore: 2, AwayScore: 0}}
	if err := svc.Grade(context.Background(), job); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	// Точный счёт: +3 очка, серия продлена.
	if got := profiles.profiles["u1"]; got.Points != 103 || got.Streak != 5 {
		t.Fatalf("ожидали 103 очка и серию 5, получили %d и %d", got.Points, got.Streak)
	}
	// Неверный исход: очки не меняются, серия обнуляется.
	if got := profiles.profiles["u2"]; got.Points != 50 || got.Streak != 0 {
		t.Fatalf("ожидали 50 очков и серию 0, получили %d и %d", got.Points, got.Streak)
	}
	if standings.points["t3"] != 3 || standings.points["t8"] != 0 {
		t.Fatalf("очки клубов начислены неверно: %+v", standings.points)
	}
	if !preds.preds["p1"].Graded || !preds.preds["p2"].Graded {
		t.Fatalf("оба прогноза должны быть отмечены оценёнными")
	}
}

func TestGradeIdempotent(t *testing.T) {
	svc, preds, profiles, _, _ := fixture()
	profiles.profiles["u1"] = domain.Profile{ID: "u1", ClubID: "t3"}
	preds.preds["p1"] = domain.Prediction{ID: "p1", MatchID: "m1", UserID: "u1", HomeScore: 1, AwayScore: 1}

	job := domain.GradeJob{Result: domain.MatchResult{MatchID: "m1", HomeScore: 1, AwayScore: 1}}
	if err := svc.Grade(context.Background(), job); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	// Ретрай очереди: повторная задача не должна задвоить начисления.
	if err := svc.Grade(context.Background(), job); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := profiles.profiles["u1"]; got.Points != 3 || got.Streak != 1 {
		t.Fatalf("ожидали 3 очка и серию 1, получили %d и %d", got.Points, got.Streak)
	}
}

func TestGradeSkipsAlreadyGraded(t *testing.T) {
	svc, preds, profiles, _, cache := fixture()
	profiles.profiles["u1"] = domain.Profile{ID: "u1", Streak: 2}
	preds.preds["p1"] = domain.Prediction{
		ID: "p1", MatchID: "m1", UserID: "u1",
		HomeScore: 1, AwayScore: 0, Graded: true, AwardedPoints: 3,
	}
	// Ключ идемпотентности истёк, но прогноз уже отмечен в хранилище.
	delete(cache.done, "grade:m1")

	job := domain.GradeJob{Result: domain.MatchResult{MatchID: "m1", HomeScore: 1, AwayScore: 0}}
	if err := svc.Grade(context.Background(), job); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got := profiles.profiles["u1"]; got.Points != 0 || got.Streak != 2 {
		t.Fatalf("оценённый прогноз не должен начисляться повторно: %+v", got)
	}
}
