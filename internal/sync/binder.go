package sync

import (
	"context"

	"github.com/rs/zerolog"
)

// Binder выполняет первоначальную выборку вида: loading → ready|empty.
// Неудачная выборка не роняет вид — она логируется и переводит вид в
// пустую фазу, подписка продолжит наполнять его по мере событий.
type Binder[T any] struct {
	view  *View[T]
	fetch func(ctx context.Context) ([]T, error)
	log   zerolog.Logger
}

// NewBinder создаёт байндер для вида.
func NewBinder[T any](view *View[T], fetch func(ctx context.Context) ([]T, error), logger zerolog.Logger) *Binder[T] {
	return &Binder[T]{view: view, fetch: fetch, log: logger}
}

// Bind выполняет выборку и наполняет вид. Ошибка возвращается для
// оператора, вид к этому моменту уже в согласованной фазе.
func (b *Binder[T]) Bind(ctx context.Context) error {
	items, err := b.fetch(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("байндер: первоначальная выборка не удалась")
		b.view.Fail()
		return err
	}
	b.view.Reset(items)
	return nil
}
