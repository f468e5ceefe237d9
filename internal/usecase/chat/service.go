package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

var (
	ErrEmptyMessage   = errors.New("пустое сообщение")
	ErrMessageTooLong = errors.New("сообщение длиннее лимита")
	ErrScopeForbidden = errors.New("чужой клубный чат")
)

// Страницы истории: клубный чат и общий чат читают разные объёмы.
const (
	ClubHistoryLimit   = 50
	GlobalHistoryLimit = 80
)

// Service управляет клубными чатами и общим чатом.
type Service struct {
	messages domain.MessageRepo
	profiles domain.ProfileRepo
	bus      domain.EventBus
	log      zerolog.Logger
}

// NewService создаёт сервис чатов.
func NewService(messages domain.MessageRepo, profiles domain.ProfileRepo, bus domain.EventBus, logger zerolog.Logger) *Service {
	return &Service{messages: messages, profiles: profiles, bus: bus, log: logger}
}

// History возвращает хронологию скоупа, от старых к новым. Клубный чат
// читают только болельщики клуба, по тому же правилу, что и отправка.
func (s *Service) History(ctx context.Context, userID, scope string) ([]domain.Message, error) {
	if err := s.authorize(ctx, userID, scope); err != nil {
		return nil, err
	}
	limit := ClubHistoryLimit
	if scope == domain.ScopeGlobal {
		limit = GlobalHistoryLimit
	}
	return s.messages.ListMessages(ctx, scope, limit)
}

func (s *Service) authorize(ctx context.Context, userID, scope string) error {
	if scope == domain.ScopeGlobal {
		return nil
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("получение профиля: %w", err)
	}
	if scope != profile.ClubID {
		return ErrScopeForbidden
	}
	return nil
}

// Get дочитывает одно сообщение с полями автора (для подписки).
func (s *Service) Get(ctx context.Context, id string) (domain.Message, error) {
	return s.messages.GetMessage(ctx, id)
}

// Send проверяет, сохраняет и анонсирует сообщение. Возвращённая запись
// сразу пригодна для оптимистичной отрисовки.
func (s *Service) Send(ctx context.Context, authorID, scope, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > domain.MessageMaxLen {
		return domain.Message{}, ErrMessageTooLong
	}
	profile, err := s.profiles.GetProfile(ctx, authorID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("получение профиля: %w", err)
	}
	if scope != domain.ScopeGlobal && scope != profile.ClubID {
		return domain.Message{}, ErrScopeForbidden
	}

	clubName := profile.ClubName
	if clubName == "" {
		clubName = "Fan"
	}
	msg := domain.Message{
		ID:        uuid.NewString(),
		Scope:     scope,
		AuthorID:  authorID,
		ClubName:  clubName,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		Author: domain.AuthorRef{
			FullName: profile.FullName,
			Email:    profile.Email,
			ClubID:   profile.ClubID,
			ClubName: profile.ClubName,
		},
	}
	saved, err := s.messages.InsertMessage(ctx, msg)
	if err != nil {
		return domain.Message{}, fmt.Errorf("сохранение сообщения: %w", err)
	}
	metrics.IncMessageSent(saved.Scope)
	event := domain.ChangeEvent{Table: domain.TableMessages, RecordID: saved.ID, Scope: saved.Scope}
	if err := s.bus.Publish(ctx, domain.Topic(domain.TableMessages, saved.Scope), event); err != nil {
		// Сообщение уже сохранено: подписчики дочитают его при перезагрузке.
		s.log.Error().Err(err).Str("message_id", saved.ID).Msg("чат: анонс вставки не доставлен")
	}
	return saved, nil
}
