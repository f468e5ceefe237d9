// Package sync реализует слой синхронизации видов: первоначальная выборка,
// realtime-подписка и оптимистичные мутации пишут в общий список записей,
// и каждая созданная запись отрисовывается ровно один раз.
package sync

import (
	stdsync "sync"
)

// Phase — жизненный цикл вида. Явные фазы вместо россыпи булевых флагов:
// нелегальные сочетания состояний непредставимы.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseEmpty
	PhaseReady
)

// Order задаёт, куда попадают новые записи вида.
type Order int

const (
	// OrderAsc — хронологический список, новые записи в конец (чат).
	OrderAsc Order = iota
	// OrderDesc — новые записи в начало (лента).
	OrderDesc
)

// View держит записи одного вида с дедупликацией по стабильному id.
// Подписчик и оптимистичный мутатор добавляют записи наперегонки; список
// никогда не пересортировывается, порядок — порядок поступления.
type View[T any] struct {
	mu    stdsync.Mutex
	id    func(T) string
	order Order
	phase Phase
	items []T
	seen  map[string]struct{}
}

// NewView создаёт вид в фазе загрузки.
func NewView[T any](order Order, id func(T) string) *View[T] {
	return &View[T]{
		id:    id,
		order: order,
		phase: PhaseLoading,
		seen:  make(map[string]struct{}),
	}
}

// Reset наполняет вид результатом первоначальной выборки.
func (v *View[T]) Reset(items []T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = make([]T, 0, len(items))
	v.seen = make(map[string]struct{}, len(items))
	for _, item := range items {
		key := v.id(item)
		if _, ok := v.seen[key]; ok {
			continue
		}
		v.seen[key] = struct{}{}
		v.items = append(v.items, item)
	}
	if len(v.items) == 0 {
		v.phase = PhaseEmpty
	} else {
		v.phase = PhaseReady
	}
}

// Fail переводит вид в пустую фазу после неудачной выборки.
// Вид остаётся рабочим: подписка и мутации продолжают наполнять его.
func (v *View[T]) Fail() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == PhaseLoading {
		v.phase = PhaseEmpty
	}
}

// Apply добавляет запись согласно порядку вида. Возвращает false, если
// запись с таким id уже отрисована — второй путь доставки пропускается.
func (v *View[T]) Apply(item T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := v.id(item)
	if _, ok := v.seen[key]; ok {
		return false
	}
	v.seen[key] = struct{}{}
	if v.order == OrderDesc {
		v.items = append([]T{item}, v.items...)
	} else {
		v.items = append(v.items, item)
	}
	v.phase = PhaseReady
	return true
}

// Contains сообщает, отрисована ли запись с данным id.
func (v *View[T]) Contains(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[id]
	return ok
}

// Patch заменяет запись по id (счётчик лайков, откат патча).
func (v *View[T]) Patch(id string, fn func(T) T) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.id(v.items[i]) == id {
			v.items[i] = fn(v.items[i])
			return true
		}
	}
	return false
}

// Remove убирает запись из вида (откат оптимистичной вставки).
func (v *View[T]) Remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[id]; !ok {
		return false
	}
	delete(v.seen, id)
	for i := range v.items {
		if v.id(v.items[i]) == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			break
		}
	}
	if len(v.items) == 0 {
		v.phase = PhaseEmpty
	}
	return true
}

// Phase возвращает текущую фазу вида.
func (v *View[T]) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Items возвращает копию списка в порядке отрисовки.
func (v *View[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}

// Len возвращает количество отрисованных записей.
func (v *View[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}
