package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrMutationInFlight — мутация уже выполняется, повторный вход запрещён.
	ErrMutationInFlight = errors.New("мутация уже выполняется")
	// ErrMutationCoolingDown — действие временно недоступно после успеха.
	ErrMutationCoolingDown = errors.New("действие временно недоступно")
)

// MutationPhase — жизненный цикл одной мутации.
type MutationPhase int

const (
	MutationIdle MutationPhase = iota
	MutationSubmitting
	MutationSettled
	MutationFailed
)

// Op описывает одну оптимистичную мутацию. Apply патчит вид немедленно,
// Write выполняет запись, Revert откатывает патч, если запись отклонена:
// вид не должен утверждать, что запись прошла, когда это не так.
type Op struct {
	Apply  func()
	Write  func(ctx context.Context) error
	Revert func()
}

// Mutator сериализует пользовательскую мутацию одного вида: булев флаг
// «в полёте» закрывает повторный вход, а кулдаун после успеха гасит
// дребезг рейт-лимитируемых действий.
type Mutator struct {
	mu        stdsync.Mutex
	phase     MutationPhase
	settledAt time.Time
	cooldown  time.Duration
	log       zerolog.Logger
}

// NewMutator создаёт мутатор. Нулевой кулдаун отключает задержку.
func NewMutator(logger zerolog.Logger, cooldown time.Duration) *Mutator {
	return &Mutator{log: logger, cooldown: cooldown}
}

// Phase возвращает фазу последней мутации.
func (m *Mutator) Phase() MutationPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Run выполняет мутацию: оптимистичный патч, запись, при ошибке — откат.
func (m *Mutator) Run(ctx context.Context, op Op) error {
	m.mu.Lock()
	if m.phase == MutationSubmitting {
		m.mu.Unlock()
		return ErrMutationInFlight
	}
	if m.cooldown > 0 && m.phase == MutationSettled && time.Since(m.settledAt) < m.cooldown {
		m.mu.Unlock()
		return ErrMutationCoolingDown
	}
	m.phase = MutationSubmitting
	m.mu.Unlock()

	if op.Apply != nil {
		op.Apply()
	}
	err := op.Write(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if op.Revert != nil {
			op.Revert()
		}
		m.phase = MutationFailed
		m.log.Error().Err(err).Msg("мутатор: запись отклонена, патч откатан")
		return err
	}
	m.phase = MutationSettled
	m.settledAt = time.Now()
	return nil
}
