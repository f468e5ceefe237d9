package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"terrace/internal/domain"
)

// ErrAlreadyStarted — повторный Start без Close.
var ErrAlreadyStarted = errors.New("подписка уже запущена")

const defaultRetryDelay = 2 * time.Second

// Subscriber привязывает вид к топику шины событий. На каждое уведомление
// он дочитывает запись с полями автора (транспорт несёт только сырую
// строку) и добавляет её в вид; дедупликация по id защищает от гонки с
// оптимистичной вставкой. Закрытие обязано выполняться при смене скоупа
// или закрытии вида — иначе утекают канал и presence-регистрация.
type Subscriber[T any] struct {
	bus      domain.EventBus
	topic    string
	fetchOne func(ctx context.Context, id string) (T, error)
	view     *View[T]
	log      zerolog.Logger
	retry    time.Duration

	presence domain.Presence
	scope    string
	userID   string
	onPeers  func(count int)
	onApply  func(record T)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSubscriber создаёт подписчика вида на топик.
func NewSubscriber[T any](bus domain.EventBus, topic string, view *View[T], fetchOne func(ctx context.Context, id string) (T, error), logger zerolog.Logger) *Subscriber[T] {
	return &Subscriber[T]{
		bus:      bus,
		topic:    topic,
		fetchOne: fetchOne,
		view:     view,
		log:      logger,
		retry:    defaultRetryDelay,
	}
}

// WithPresence включает учёт участников скоупа: при активной подписке
// подписчик объявляет собственное присутствие, а onPeers получает живой
// счётчик при каждом изменении множества участников.
func (s *Subscriber[T]) WithPresence(presence domain.Presence, scope, userID string, onPeers func(count int)) *Subscriber[T] {
	s.presence = presence
	s.scope = scope
	s.userID = userID
	s.onPeers = onPeers
	return s
}

// WithApplied регистрирует колбэк на каждую запись, дошедшую до вида.
// Дубликаты колбэк не получают: дедупликация уже сработала.
func (s *Subscriber[T]) WithApplied(fn func(record T)) *Subscriber[T] {
	s.onApply = fn
	return s
}

// Start открывает подписку и запускает цикл доставки.
func (s *Subscriber[T]) Start(ctx context.Context) error {
	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	events, unsubscribe, err := s.bus.Subscribe(runCtx, s.topic)
	if err != nil {
		cancel()
		return err
	}

	var peerEvents <-chan domain.ChangeEvent
	var unsubscribePeers func()
	if s.presence != nil {
		peerEvents, unsubscribePeers, err = s.bus.Subscribe(runCtx, domain.Topic("presence", s.scope))
		if err != nil {
			unsubscribe()
			cancel()
			return err
		}
		if err := s.presence.Track(runCtx, s.scope, s.userID); err != nil {
			s.log.Warn().Err(err).Str("scope", s.scope).Msg("подписка: не удалось объявить присутствие")
		}
		s.reportPeers(runCtx)
	}

	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(runCtx, events, unsubscribe, peerEvents, unsubscribePeers)
	return nil
}

// Close останавливает цикл и гарантированно снимает подписку и присутствие.
func (s *Subscriber[T]) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Subscriber[T]) run(ctx context.Context, events <-chan domain.ChangeEvent, unsubscribe func(), peerEvents <-chan domain.ChangeEvent, unsubscribePeers func()) {
	defer close(s.done)
	defer func() {
		unsubscribe()
		if unsubscribePeers != nil {
			unsubscribePeers()
		}
		if s.presence != nil {
			// Снятие присутствия идёт по фоновому контексту: ctx к этому
			// моменту уже отменён.
			cleanup, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.presence.Untrack(cleanup, s.scope, s.userID); err != nil {
				s.log.Warn().Err(err).Str("scope", s.scope).Msg("подписка: не удалось снять присутствие")
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// Канал закрылся неожиданно: переподключаемся, а не
				// молча устареваем.
				events, unsubscribe = s.resubscribe(ctx, s.topic, unsubscribe)
				if events == nil {
					return
				}
				continue
			}
			s.deliver(ctx, ev)
		case _, ok := <-peerEvents:
			if !ok {
				// Канал присутствия восстанавливается тем же путём:
				// иначе счётчик участников молча застывает.
				peerEvents, unsubscribePeers = s.resubscribe(ctx, domain.Topic("presence", s.scope), unsubscribePeers)
				if peerEvents == nil {
					return
				}
				s.reportPeers(ctx)
				continue
			}
			s.reportPeers(ctx)
		}
	}
}

func (s *Subscriber[T]) deliver(ctx context.Context, ev domain.ChangeEvent) {
	if ev.RecordID == "" {
		return
	}
	// Быстрый путь: оптимистичная вставка уже отрисовала запись.
	if s.view.Contains(ev.RecordID) {
		return
	}
	record, err := s.fetchOne(ctx, ev.RecordID)
	if err != nil {
		s.log.Error().Err(err).Str("record_id", ev.RecordID).Msg("подписка: дочитывание записи не удалось")
		return
	}
	if s.view.Apply(record) && s.onApply != nil {
		s.onApply(record)
	}
}

func (s *Subscriber[T]) resubscribe(ctx context.Context, topic string, old func()) (<-chan domain.ChangeEvent, func()) {
	old()
	for {
		select {
		case <-ctx.Done():
			return nil, func() {}
		case <-time.After(s.retry):
		}
		events, unsubscribe, err := s.bus.Subscribe(ctx, topic)
		if err != nil {
			s.log.Warn().Err(err).Str("topic", topic).Msg("подписка: переподключение не удалось")
			continue
		}
		s.log.Info().Str("topic", topic).Msg("подписка: канал восстановлен")
		return events, unsubscribe
	}
}

func (s *Subscriber[T]) reportPeers(ctx context.Context) {
	if s.onPeers == nil {
		return
	}
	count, err := s.presence.Count(ctx, s.scope)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", s.scope).Msg("подписка: счётчик присутствия недоступен")
		return
	}
	s.onPeers(count)
}
