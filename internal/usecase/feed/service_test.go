package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

type stubPostRepo struct {
	posts map[string]domain.Post
	order []string
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[string]domain.Post)}
}

func (s *stubPostRepo) InsertPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	s.posts[post.ID] = post
	s.order = append(s.order, post.ID)
	return post, nil
}

func (s *stubPostRepo) GetPost(ctx context.Context, id string) (domain.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrRecordNotFound
	}
	return post, nil
}

func (s *stubPostRepo) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	out := make([]domain.Post, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.posts[s.order[i]])
	}
	return out, nil
}

func (s *stubPostRepo) SetLikes(ctx context.Context, id string, likes int) (domain.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return domain.Post{}, domain.ErrRecordNotFound
	}
	post.Likes = likes
	s.posts[id] = post
	return post, nil
}

type stubProfileRepo struct {
	profile domain.Profile
}

func (s *stubProfileRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return p, nil
}
func (s *stubProfileRepo) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	return s.profile, nil
}
func (s *stubProfileRepo) UpdateName(ctx context.Context, id, name string) (domain.Profile, error) {
	return s.profile, nil
}
func (s *stubProfileRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return nil
}
func (s *stubProfileRepo) AddPoints(ctx context.Context, id string, delta int) error  { return nil }
func (s *stubProfileRepo) SetStreak(ctx context.Context, id string, streak int) error { return nil }
func (s *stubProfileRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Profile, error) {
	return nil, nil
}

type nopBus struct{ published int }

func (b *nopBus) Publish(ctx context.Context, topic string, event domain.ChangeEvent) error {
	b.published++
	return nil
}
func (b *nopBus) Subscribe(ctx context.Context, topic string) (<-chan domain.ChangeEvent, func(), error) {
	return make(chan domain.ChangeEvent), func() {}, nil
}

func TestCreateValidation(t *testing.T) {
	repo := newStubPostRepo()
	svc := NewService(repo, &stubProfileRepo{profile: domain.Profile{ID: "u1", ClubID: "t3", ClubName: "Arsenal"}}, &nopBus{}, zerolog.Nop())

	if _, err := svc.Create(context.Background(), "u1", "\n\t "); !errors.Is(err, ErrEmptyPost) {
		t.Fatalf("пустой пост должен отклоняться, получили %v", err)
	}
	if _, err := svc.Create(context.Background(), "u1", strings.Repeat("ф", 281)); !errors.Is(err, ErrPostTooLong) {
		t.Fatalf("пост в 281 символ должен отклоняться, получили %v", err)
	}
	post, err := svc.Create(context.Background(), "u1", strings.Repeat("ф", 280))
	if err != nil {
		t.Fatalf("пост в 280 символов должен проходить: %v", err)
	}
	if post.ClubName != "Arsenal" {
		t.Fatalf("пост несёт денормализованный клуб автора")
	}
}

func TestLikeIncrementsFromKnownValue(t *testing.T) {
	repo := newStubPostRepo()
	_, _ = repo.InsertPost(context.Background(), domain.Post{ID: "p1", Likes: 5})
	svc := NewService(repo, &stubProfileRepo{}, &nopBus{}, zerolog.Nop())

	post, err := svc.Like(context.Background(), "p1", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.Likes != 6 {
		t.Fatalf("ожидали 6 лайков, получили %d", post.Likes)
	}

	// Два клиента с одним и тем же известным значением: потерянное
	// обновление допускается, итог 6, а не 7.
	post, err = svc.Like(context.Background(), "p1", 5)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if post.Likes != 6 {
		t.Fatalf("одновременные лайки оседают на 6, получили %d", post.Likes)
	}
}

func TestRecentOrder(t *testing.T) {
	repo := newStubPostRepo()
	_, _ = repo.InsertPost(context.Background(), domain.Post{ID: "p1"})
	_, _ = repo.InsertPost(context.Background(), domain.Post{ID: "p2"})
	svc := NewService(repo, &stubProfileRepo{}, &nopBus{}, zerolog.Nop())

	posts, err := svc.Recent(context.Background())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("лента отдаёт новые посты первыми")
	}
}
