package memory

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// Record — контракт записи обобщённого хранилища: доступ к идентификатору
// и версии плюс копирование, чтобы наружу никогда не уходили ссылки на
// внутреннее состояние.
type Record[T any] interface {
	Identity() (id, version uint64)
	WithIdentity(id, version uint64) T
	Clone() T
}

// shardCount — число сегментов хранилища; степень двойки для дешёвого
// вычисления индекса.
const shardCount = 16

type shard[T any] struct {
	mu    sync.RWMutex
	items map[uint64]T
}

// Store — сегментированное обобщённое хранилище записей с optimistic
// concurrency control. Операции над одним ключом линеаризуемы (сегмент
// держит блокировку на время всей операции), операции над разными
// сегментами друг друга не блокируют.
type Store[T Record[T]] struct {
	seq     *Sequence
	kind    Kind
	missing error
	latency func()
	shards  [shardCount]shard[T]
}

// StoreOption настраивает хранилище при создании.
type StoreOption func(*storeOptions)

type storeOptions struct {
	latency func()
}

// WithSimulatedLatency добавляет случайную задержку перед каждой операцией,
// имитируя сетевое хранилище в демо-режиме. Задержка выполняется до захвата
// блокировок и не сериализует операции над другими ключами.
func WithSimulatedLatency(min, max time.Duration) StoreOption {
	return func(opts *storeOptions) {
		if max <= min {
			max = min + time.Millisecond
		}
		opts.latency = func() {
			time.Sleep(min + time.Duration(rand.Int63n(int64(max-min))))
		}
	}
}

// NewStore создаёт хранилище для типа kind. missing — ошибка отсутствующей
// записи конкретной сущности (например, domain.ErrProductNotFound).
func NewStore[T Record[T]](seq *Sequence, kind Kind, missing error, options ...StoreOption) *Store[T] {
	var opts storeOptions
	for _, option := range options {
		option(&opts)
	}

	s := &Store[T]{
		seq:     seq,
		kind:    kind,
		missing: missing,
		latency: opts.latency,
	}
	for i := range s.shards {
		s.shards[i].items = make(map[uint64]T)
	}
	return s
}

func (s *Store[T]) shardFor(id uint64) *shard[T] {
	return &s.shards[id%shardCount]
}

func (s *Store[T]) simulateLatency() {
	if s.latency != nil {
		s.latency()
	}
}

// Insert сохраняет запись, игнорируя переданный вызывающим идентификатор:
// id выдаёт генератор последовательностей, версия принудительно равна 1.
// Возвращается сохранённая копия.
func (s *Store[T]) Insert(rec T) T {
	s.simulateLatency()

	id := s.seq.Next(s.kind)
	stored := rec.WithIdentity(id, 1).Clone()

	sh := s.shardFor(id)
	sh.mu.Lock()
	sh.items[id] = stored
	sh.mu.Unlock()

	return stored.Clone()
}

// Get возвращает копию записи или ошибку отсутствия.
func (s *Store[T]) Get(id uint64) (T, error) {
	s.simulateLatency()

	sh := s.shardFor(id)
	sh.mu.RLock()
	rec, ok := sh.items[id]
	sh.mu.RUnlock()

	if !ok {
		var zero T
		return zero, s.missing
	}
	return rec.Clone(), nil
}

// List возвращает снимок всех записей, отсортированный по id по возрастанию.
// Последующие мутации хранилища уже возвращённый срез не затрагивают.
func (s *Store[T]) List() []T {
	s.simulateLatency()

	result := make([]T, 0)
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for _, rec := range sh.items {
			result = append(result, rec.Clone())
		}
		sh.mu.RUnlock()
	}

	sort.Slice(result, func(i, j int) bool {
		li, _ := result[i].Identity()
		lj, _ := result[j].Identity()
		return li < lj
	})

	return result
}

// OptimisticUpdate атомарно сравнивает сохранённую версию с expectedVersion
// и при совпадении замещает запись newValue с версией expectedVersion+1.
// При несовпадении запись остаётся нетронутой и возвращается
// domain.ErrVersionConflict; частично применённых эффектов не бывает.
func (s *Store[T]) OptimisticUpdate(id uint64, newValue T, expectedVersion uint64) (T, error) {
	s.simulateLatency()

	var zero T

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	current, ok := sh.items[id]
	if !ok {
		return zero, s.missing
	}
	if _, version := current.Identity(); version != expectedVersion {
		return zero, domain.ErrVersionConflict
	}

	stored := newValue.WithIdentity(id, expectedVersion+1).Clone()
	sh.items[id] = stored
	return stored.Clone(), nil
}

// Delete удаляет запись. Возвращает false, если записи нет: повторное
// удаление — не ошибка.
func (s *Store[T]) Delete(id uint64) bool {
	s.simulateLatency()

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.items[id]; !ok {
		return false
	}
	delete(sh.items, id)
	return true
}
