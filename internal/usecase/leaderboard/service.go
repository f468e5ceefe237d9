// Package leaderboard собирает таблицы лидеров: топ игроков и зачёт клубов.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

// TopLimit — размер страницы топа игроков.
const TopLimit = 20

// Entry — строка топа с производным званием.
type Entry struct {
	Position int            `json:"position"`
	Profile  domain.Profile `json:"profile"`
	Tier     domain.Tier    `json:"tier"`
}

// Board — страница лидерборда. Позиция зрителя выводится из страницы:
// если его нет в топе, Me остаётся nil.
type Board struct {
	Entries []Entry `json:"entries"`
	Me      *Entry  `json:"me,omitempty"`
}

// Service читает агрегаты для страницы лидеров.
type Service struct {
	profiles  domain.ProfileRepo
	standings domain.StandingRepo
	log       zerolog.Logger
}

// NewService создаёт сервис лидерборда.
func NewService(profiles domain.ProfileRepo, standings domain.StandingRepo, logger zerolog.Logger) *Service {
	return &Service{profiles: profiles, standings: standings, log: logger}
}

// TopPlayers возвращает топ игроков по очкам со званиями.
func (s *Service) TopPlayers(ctx context.Context, viewerID string) (Board, error) {
	profiles, err := s.profiles.TopByPoints(ctx, TopLimit)
	if err != nil {
		return Board{}, fmt.Errorf("топ игроков: %w", err)
	}

	board := Board{Entries: make([]Entry, 0, len(profiles))}
	for i, profile := range profiles {
		entry := Entry{
			Position: i + 1,
			Profile:  profile,
			Tier:     domain.TierOf(profile.Points, profile.Streak),
		}
		board.Entries = append(board.Entries, entry)
		if profile.ID == viewerID {
			me := entry
			board.Me = &me
		}
	}
	return board, nil
}

// ClubTable возвращает зачёт клубов по убыванию очков.
func (s *Service) ClubTable(ctx context.Context) ([]domain.ClubStanding, error) {
	standings, err := s.standings.ListStandings(ctx)
	if err != nil {
		return nil, fmt.Errorf("зачёт клубов: %w", err)
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalPoints > standings[j].TotalPoints
	})
	return standings, nil
}
