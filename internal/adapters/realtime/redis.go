// Package realtime реализует шину событий и учёт присутствия поверх Redis.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

const (
	subscriberBuffer = 16
	presenceTTL      = 5 * time.Minute
)

// Bus реализует domain.EventBus через Redis pub/sub.
type Bus struct {
	client *redis.Client
	log    zerolog.Logger
}

var _ domain.EventBus = (*Bus)(nil)

// NewBus создаёт шину событий.
func NewBus(client *redis.Client, logger zerolog.Logger) *Bus {
	return &Bus{client: client, log: logger}
}

// Publish рассылает уведомление всем подписчикам топика.
func (b *Bus) Publish(ctx context.Context, topic string, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe открывает подписку на топик. Возвращённая функция снимает
// подписку и закрывает канал; вызывать её обязан владелец подписки.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan domain.ChangeEvent, func(), error) {
	sub := b.client.Subscribe(ctx, topic)
	// Дожидаемся подтверждения подписки, чтобы не терять первые события.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan domain.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn().Err(err).Str("topic", topic).Msg("шина: сломанное событие")
				continue
			}
			select {
			case out <- event:
			default:
				// Медленный потребитель: событие дешевле уронить, чем
				// блокировать разбор всего соединения. Потребитель всё
				// равно дочитывает запись по id при следующем событии.
				b.log.Warn().Str("topic", topic).Msg("шина: подписчик не успевает, событие пропущено")
			}
		}
	}()
	unsubscribe := func() { _ = sub.Close() }
	return out, unsubscribe, nil
}

// Presence реализует учёт участников скоупа через множества с TTL.
// Каждое изменение множества объявляется на presence-топике, чтобы
// подписчики пересчитали живой счётчик.
type Presence struct {
	client *redis.Client
	bus    *Bus
	log    zerolog.Logger
}

var _ domain.Presence = (*Presence)(nil)

// NewPresence создаёт учёт присутствия.
func NewPresence(client *redis.Client, bus *Bus, logger zerolog.Logger) *Presence {
	return &Presence{client: client, bus: bus, log: logger}
}

func presenceKey(scope string) string {
	return "presence:" + scope
}

// Track регистрирует участника в скоупе.
func (p *Presence) Track(ctx context.Context, scope, userID string) error {
	key := presenceKey(scope)
	if err := p.client.SAdd(ctx, key, userID).Err(); err != nil {
		return fmt.Errorf("track %s: %w", scope, err)
	}
	// TTL страхует от участников, чей процесс умер без Untrack.
	if err := p.client.Expire(ctx, key, presenceTTL).Err(); err != nil {
		return fmt.Errorf("track %s: %w", scope, err)
	}
	p.announce(ctx, scope)
	return nil
}

// Untrack снимает регистрацию участника.
func (p *Presence) Untrack(ctx context.Context, scope, userID string) error {
	if err := p.client.SRem(ctx, presenceKey(scope), userID).Err(); err != nil {
		return fmt.Errorf("untrack %s: %w", scope, err)
	}
	p.announce(ctx, scope)
	return nil
}

// Count возвращает число участников скоупа.
func (p *Presence) Count(ctx context.Context, scope string) (int, error) {
	n, err := p.client.SCard(ctx, presenceKey(scope)).Result()
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", scope, err)
	}
	return int(n), nil
}

func (p *Presence) announce(ctx context.Context, scope string) {
	if err := p.bus.Publish(ctx, domain.Topic("presence", scope), domain.ChangeEvent{Scope: scope}); err != nil {
		p.log.Warn().Err(err).Str("scope", scope).Msg("присутствие: не удалось объявить изменение")
	}
}
