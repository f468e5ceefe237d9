package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	"terrace/internal/usecase/chat"
	"terrace/internal/usecase/feed"
)

type stubPostRepo struct {
	listed []domain.Post
	byID   map[string]domain.Post
}

func (s *stubPostRepo) InsertPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	return post, nil
}

func (s *stubPostRepo) GetPost(ctx context.Context, id string) (domain.Post, error) {
	post, ok := s.byID[id]
	if !ok {
		return domain.Post{}, domain.ErrRecordNotFound
	}
	return post, nil
}

func (s *stubPostRepo) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	return s.listed, nil
}

func (s *stubPostRepo) SetLikes(ctx context.Context, id string, likes int) (domain.Post, error) {
	return domain.Post{}, domain.ErrRecordNotFound
}

type stubMessageRepo struct{}

func (s *stubMessageRepo) InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	return msg, nil
}

func (s *stubMessageRepo) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	return domain.Message{}, domain.ErrRecordNotFound
}

func (s *stubMessageRepo) ListMessages(ctx context.Context, scope string, limit int) ([]domain.Message, error) {
	return nil, nil
}

type stubProfileRepo struct{}

func (s *stubProfileRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return p, nil
}

func (s *stubProfileRepo) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (s *stubProfileRepo) UpdateName(ctx context.Context, id, name string) (domain.Profile, error) {
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (s *stubProfileRepo) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	return nil
}

func (s *stubProfileRepo) AddPoints(ctx context.Context, id string, delta int) error  { return nil }
func (s *stubProfileRepo) SetStreak(ctx context.Context, id string, streak int) error { return nil }

func (s *stubProfileRepo) TopByPoints(ctx context.Context, limit int) ([]domain.Profile, error) {
	return nil, nil
}

type stubPresence struct{}

func (p *stubPresence) Track(ctx context.Context, scope, userID string) error   { return nil }
func (p *stubPresence) Untrack(ctx context.Context, scope, userID string) error { return nil }
func (p *stubPresence) Count(ctx context.Context, scope string) (int, error)    { return 0, nil }

// preloadedBus отдаёт подписчику заранее заготовленные события сразу при
// подписке: так воспроизводится вставка, случившаяся в зазоре между
// открытием подписки и снапшотом.
type preloadedBus struct {
	pending []domain.ChangeEvent
}

func (b *preloadedBus) Publish(ctx context.Context, topic string, event domain.ChangeEvent) error {
	return nil
}

func (b *preloadedBus) Subscribe(ctx context.Context, topic string) (<-chan domain.ChangeEvent, func(), error) {
	ch := make(chan domain.ChangeEvent, len(b.pending)+1)
	for _, ev := range b.pending {
		ch <- ev
	}
	return ch, func() {}, nil
}

type gotFrame struct {
	Type  string        `json:"type"`
	Phase string        `json:"phase"`
	Items []domain.Post `json:"items"`
	Item  *domain.Post  `json:"item"`
}

func TestFeedSocketSnapshotComesFirst(t *testing.T) {
	posts := &stubPostRepo{
		listed: []domain.Post{{ID: "p1", Body: "старый"}},
		byID: map[string]domain.Post{
			"p1": {ID: "p1", Body: "старый"},
			"p2": {ID: "p2", Body: "свежий"},
		},
	}
	bus := &preloadedBus{pending: []domain.ChangeEvent{{Table: domain.TablePosts, RecordID: "p2"}}}
	profiles := &stubProfileRepo{}
	feedSvc := feed.NewService(posts, profiles, bus, zerolog.Nop())
	chatSvc := chat.NewService(&stubMessageRepo{}, profiles, bus, zerolog.Nop())
	gw := NewGateway(bus, &stubPresence{}, chatSvc, feedSvc, profiles, zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(gw.ServeFeed))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("не удалось подключиться: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var first gotFrame
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("не удалось прочитать первый кадр: %v", err)
	}
	// Событие уже ждало в канале при подключении, но клиент обязан
	// увидеть снапшот раньше любой дельты.
	if first.Type != "snapshot" {
		t.Fatalf("первым кадром должен идти снапшот, получили %q", first.Type)
	}
	if first.Phase != "ready" || len(first.Items) != 1 || first.Items[0].ID != "p1" {
		t.Fatalf("снапшот собран неверно: %+v", first)
	}

	var second gotFrame
	if err := wsjson.Read(ctx, conn, &second); err != nil {
		t.Fatalf("не удалось прочитать второй кадр: %v", err)
	}
	if second.Type != "append" || second.Item == nil || second.Item.ID != "p2" {
		t.Fatalf("дельта должна прийти после снапшота: %+v", second)
	}
}
