package memory

import (
	"sync"
	"sync/atomic"
)

// Kind различает последовательности идентификаторов по типу сущности.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindProduct  Kind = "product"
	KindOrder    Kind = "order"
)

// Sequence выдаёт монотонно растущие идентификаторы отдельно для каждого
// типа сущности. Дубликаты исключены при любом числе конкурентных вызовов;
// первый выданный идентификатор каждого типа равен 1.
type Sequence struct {
	mu       sync.Mutex
	counters map[Kind]*atomic.Uint64
}

// NewSequence создаёт генератор с пустыми счётчиками.
func NewSequence() *Sequence {
	return &Sequence{counters: make(map[Kind]*atomic.Uint64)}
}

// Next возвращает следующий идентификатор для типа kind.
func (s *Sequence) Next(kind Kind) uint64 {
	return s.counter(kind).Add(1)
}

// Current возвращает последний выданный идентификатор (0, если выдач не было).
func (s *Sequence) Current(kind Kind) uint64 {
	return s.counter(kind).Load()
}

func (s *Sequence) counter(kind Kind) *atomic.Uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[kind]
	if !ok {
		c = new(atomic.Uint64)
		s.counters[kind] = c
	}
	return c
}
