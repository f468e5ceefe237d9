// Package profile управляет профилем болельщика: онбординг, имя,
// локация и карточка звания.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

var (
	// ErrUnknownClub — клуба нет в каталоге.
	ErrUnknownClub = errors.New("клуб не входит в каталог")
	// ErrEmptyName — имя пустое после обрезки пробелов.
	ErrEmptyName = errors.New("имя не может быть пустым")
	// ErrNameTooLong — имя длиннее допустимого.
	ErrNameTooLong = errors.New("имя слишком длинное")
)

// Stats — сводка по прогнозам профиля.
type Stats struct {
	Total    int `json:"total"`
	Correct  int `json:"correct"`
	Accuracy int `json:"accuracy"` // проценты, от 0 до 100
}

// RankCard — карточка звания: текущее, следующее и прогресс к нему.
type RankCard struct {
	Tier     domain.Tier  `json:"tier"`
	Next     *domain.Tier `json:"next,omitempty"`
	Progress int          `json:"progress"`
}

// Service управляет профилями.
type Service struct {
	profiles    domain.ProfileRepo
	predictions domain.PredictionRepo
	standings   domain.StandingRepo
	geocoder    domain.Geocoder
	log         zerolog.Logger
}

// NewService создаёт сервис профилей.
func NewService(
	profiles domain.ProfileRepo,
	predictions domain.PredictionRepo,
	standings domain.StandingRepo,
	geocoder domain.Geocoder,
	logger zerolog.Logger,
) *Service {
	return &Service{
		profiles:    profiles,
		predictions: predictions,
		standings:   standings,
		geocoder:    geocoder,
		log:         logger,
	}
}

// Get возвращает профиль по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// Onboard создаёт профиль при первом выборе клуба. Клуб берётся только
// из фиксированного каталога, членство клуба учитывается в зачёте.
// Повторный онбординг членство не задваивает, а смена клуба переносит
// его: старый клуб списывает болельщика, новый учитывает.
func (s *Service) Onboard(ctx context.Context, id, email, fullName, clubID string) (domain.Profile, error) {
	club, ok := domain.ClubByID(clubID)
	if !ok {
		return domain.Profile{}, ErrUnknownClub
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.Profile{}, ErrEmptyName
	}
	if utf8.RuneCountInString(fullName) > domain.NameMaxLen {
		return domain.Profile{}, ErrNameTooLong
	}

	prior, err := s.profiles.GetProfile(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("чтение профиля: %w", err)
	}
	existed := err == nil

	saved, err := s.profiles.UpsertProfile(ctx, domain.Profile{
		ID:       id,
		FullName: fullName,
		Email:    email,
		ClubID:   club.ID,
		ClubName: club.Name,
	})
	if err != nil {
		return domain.Profile{}, fmt.Errorf("создание профиля: %w", err)
	}

	switch {
	case !existed:
		if err := s.standings.AddClubMember(ctx, club.ID, club.Name); err != nil {
			return domain.Profile{}, fmt.Errorf("членство клуба: %w", err)
		}
		s.log.Info().Str("user_id", id).Str("club_id", club.ID).Msg("профиль создан")
	case prior.ClubID != club.ID:
		if prior.ClubID != "" {
			if err := s.standings.RemoveClubMember(ctx, prior.ClubID); err != nil {
				return domain.Profile{}, fmt.Errorf("списание членства: %w", err)
			}
		}
		if err := s.standings.AddClubMember(ctx, club.ID, club.Name); err != nil {
			return domain.Profile{}, fmt.Errorf("членство клуба: %w", err)
		}
		s.log.Info().Str("user_id", id).Str("club_id", club.ID).
			Str("prior_club_id", prior.ClubID).Msg("болельщик сменил клуб")
	}
	return saved, nil
}

// Rename меняет отображаемое имя.
func (s *Service) Rename(ctx context.Context, id, fullName string) (domain.Profile, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.Profile{}, ErrEmptyName
	}
	if utf8.RuneCountInString(fullName) > domain.NameMaxLen {
		return domain.Profile{}, ErrNameTooLong
	}
	saved, err := s.profiles.UpdateName(ctx, id, fullName)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("смена имени: %w", err)
	}
	return saved, nil
}

// DetectLocation определяет город по координатам и сохраняет его в профиле.
// Геокодер внешний и ненадёжный: его отказ не считается ошибкой операции,
// профиль просто остаётся без локации.
func (s *Service) DetectLocation(ctx context.Context, id string, lat, lon float64) domain.Location {
	loc, err := s.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("обратное геокодирование не удалось")
		return domain.Location{}
	}
	if err := s.profiles.UpdateLocation(ctx, id, loc); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("не удалось сохранить локацию")
		return domain.Location{}
	}
	return loc
}

// Stats считает сводку по прогнозам: всего, верных и точность в процентах.
func (s *Service) Stats(ctx context.Context, id string) (Stats, error) {
	preds, err := s.predictions.ListUserPredictions(ctx, id)
	if err != nil {
		return Stats{}, fmt.Errorf("прогнозы пользователя: %w", err)
	}
	stats := Stats{Total: len(preds)}
	graded := 0
	for _, pred := range preds {
		if !pred.Graded {
			continue
		}
		graded++
		if pred.Correct {
			stats.Correct++
		}
	}
	if graded > 0 {
		stats.Accuracy = int(float64(stats.Correct)/float64(graded)*100 + 0.5)
	}
	return stats, nil
}

// Rank возвращает карточку звания профиля.
func (s *Service) Rank(ctx context.Context, id string) (RankCard, error) {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return RankCard{}, fmt.Errorf("профиль %s: %w", id, err)
	}
	next := domain.NextTier(p.Points, p.Streak)
	return RankCard{
		Tier:     domain.TierOf(p.Points, p.Streak),
		Next:     next,
		Progress: domain.Progress(p.Points, p.Streak, next),
	}, nil
}
