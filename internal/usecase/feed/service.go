package feed

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
	ErrEmptyPost   = errors.New("пустой пост")
	ErrPostTooLong = errors.New("пост длиннее лимита")
)

// RecentLimit — страница ленты, новые сверху.
const RecentLimit = 30

// Service управляет лентой постов.
type Service struct {
	posts    domain.PostRepo
	profiles domain.ProfileRepo
	bus      domain.EventBus
	log      zerolog.Logger
}

// NewService создаёт сервис ленты.
func NewService(posts domain.PostRepo, profiles domain.ProfileRepo, bus domain.EventBus, logger zerolog.Logger) *Service {
	return &Service{posts: posts, profiles: profiles, bus: bus, log: logger}
}

// Recent возвращает свежие посты всей ленты.
func (s *Service) Recent(ctx context.Context) ([]domain.Post, error) {
	return s.posts.ListPosts(ctx, RecentLimit)
}

// Get дочитывает один пост с полями автора (для подписки).
func (s *Service) Get(ctx context.Context, id string) (domain.Post, error) {
	return s.posts.GetPost(ctx, id)
}

// Create проверяет, сохраняет и анонсирует пост.
func (s *Service) Create(ctx context.Context, authorID, body string) (domain.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Post{}, ErrEmptyPost
	}
	if utf8.RuneCountInString(body) > domain.PostMaxLen {
		return domain.Post{}, ErrPostTooLong
	}
	profile, err := s.profiles.GetProfile(ctx, authorID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("получение профиля: %w", err)
	}

	post := domain.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		ClubID:    profile.ClubID,
		ClubName:  profile.ClubName,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		Author: domain.AuthorRef{
			FullName: profile.FullName,
			Email:    profile.Email,
			ClubID:   profile.ClubID,
			ClubName: profile.ClubName,
		},
	}
	saved, err := s.posts.InsertPost(ctx, post)
	if err != nil {
		return domain.Post{}, fmt.Errorf("сохранение поста: %w", err)
	}
	metrics.PostsCreatedTotal.Inc()
	event := domain.ChangeEvent{Table: domain.TablePosts, RecordID: saved.ID}
	if err := s.bus.Publish(ctx, domain.Topic(domain.TablePosts, ""), event); err != nil {
		s.log.Error().Err(err).Str("post_id", saved.ID).Msg("лента: анонс вставки не доставлен")
	}
	return saved, nil
}

// Like увеличивает счётчик на единицу от последнего известного значения.
// Чтение-изменение-запись без серверного инкремента: одновременные лайки
// могут терять обновления, это принятая аппроксимация, а не строгий счётчик.
func (s *Service) Like(ctx context.Context, postID string, knownLikes int) (domain.Post, error) {
	if knownLikes < 0 {
		knownLikes = 0
	}
	post, err := s.posts.SetLikes(ctx, postID, knownLikes+1)
	if err != nil {
		return domain.Post{}, fmt.Errorf("обновление лайков: %w", err)
	}
	return post, nil
}
