package leaderboard

import (
	"context"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

type stubProfileRepo struct {
	profiles []domain.Profile
}

func (s *stubProfileRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return p, nil
}

func (s *stubProfileRepo) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (s *stubProfileRepo) UpdateName(ctx context.Context, id, fullName string) (domain.Profile, error) {
	return domain.Profile{}, nil
}

func (s *stubProfileRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return nil
}

func (s *stubProfileRepo) AddPoints(ctx context.Context, id string, delta int) error { return nil }
func (s *stubProfileRepo) SetStreak(ctx context.Context, id string, streak int) error {
	return nil
}

func (s *stubProfileRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Profile, error) {
	sorted := append([]domain.Profile(nil), s.profiles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Points > sorted[j].Points })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

type stubStandingRepo struct {
	standings []domain.ClubStanding
}

func (s *stubStandingRepo) ListStandings(ctx context.Context) ([]domain.ClubStanding, error) {
	return append([]domain.ClubStanding(nil), s.standings...), nil
}

func (s *stubStandingRepo) AddClubPoints(ctx context.Context, clubID string, delta int) error {
	return nil
}

func (s *stubStandingRepo) AddClubMember(ctx context.Context, clubID, clubName string) error {
	return nil
}

func (s *stubStandingRepo) RemoveClubMember(ctx context.Context, clubID string) error {
	return nil
}

func TestTopPlayersDerivesViewerRank(t *testing.T) {
	profiles := &stubProfileRepo{profiles: []domain.Profile{
		{ID: "u1", FullName: "Вика", Points: 2100, Streak: 95},
		{ID: "u2", FullName: "Олег", Points: 900, Streak: 30},
		{ID: "u3", FullName: "Иван", Points: 250, Streak: 11},
	}}
	svc := NewService(profiles, &stubStandingRepo{}, zerolog.Nop())

	board, err := svc.TopPlayers(context.Background(), "u2")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("ожидали три строки, получили %d", len(board.Entries))
	}
	if board.Entries[0].Profile.ID != "u1" || board.Entries[0].Position != 1 {
		t.Fatalf("топ должен идти по убыванию очков")
	}
	if board.Entries[0].Tier.Name != "Legend" {
		t.Fatalf("2100 очков и серия 95 — это Legend, получили %s", board.Entries[0].Tier.Name)
	}
	if board.Me == nil || board.Me.Position != 2 {
		t.Fatalf("позиция зрителя должна выводиться из страницы")
	}
}

func TestTopPlayersViewerOutsidePage(t *testing.T) {
	profiles := &stubProfileRepo{profiles: []domain.Profile{{ID: "u1", Points: 10}}}
	svc := NewService(profiles, &stubStandingRepo{}, zerolog.Nop())

	board, err := svc.TopPlayers(context.Background(), "чужой")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if board.Me != nil {
		t.Fatalf("зритель вне страницы не получает позицию")
	}
}

func TestClubTableSortedByPoints(t *testing.T) {
	standings := &stubStandingRepo{standings: []domain.ClubStanding{
		{ClubID: "t3", ClubName: "Arsenal", TotalPoints: 40},
		{ClubID: "t14", ClubName: "Liverpool", TotalPoints: 120},
		{ClubID: "t8", ClubName: "Chelsea", TotalPoints: 85},
	}}
	svc := NewService(&stubProfileRepo{}, standings, zerolog.Nop())

	table, err := svc.ClubTable(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if table[0].ClubID != "t14" || table[1].ClubID != "t8" || table[2].ClubID != "t3" {
		t.Fatalf("зачёт клубов должен идти по убыванию очков: %+v", table)
	}
}
