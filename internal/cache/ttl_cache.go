// Пакет cache реализует короткоживущую мемоизацию результатов выборок.
// Кэш — только оптимизация: корректность выборки обязана совпадать при
// включённом, холодном и выключенном кэше.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache — потокобезопасная карта с истечением записей по фиксированному
// TTL от момента вставки. Просроченная запись ведёт себя как промах и
// удаляется лениво либо фоновым воркером очистки.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	clock func() time.Time
}

// NewTTLCache создаёт пустой кэш.
func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{
		items: make(map[string]entry[V]),
		clock: time.Now,
	}
}

// NewTTLCacheWithClock создаёт кэш с подменяемыми часами (для тестов).
func NewTTLCacheWithClock[V any](clock func() time.Time) *TTLCache[V] {
	c := NewTTLCache[V]()
	if clock != nil {
		c.clock = clock
	}
	return c
}

// Get возвращает значение по ключу; просроченная или отсутствующая
// запись — промах.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !e.expiresAt.After(c.clock()) {
		// Ленивое вытеснение: запись могла быть уже перезаписана,
		// поэтому перепроверяем срок под write-блокировкой.
		c.mu.Lock()
		if cur, exists := c.items[key]; exists && !cur.expiresAt.After(c.clock()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set сохраняет значение с истечением через ttl от текущего момента.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: c.clock().Add(ttl),
	}
}

// DeleteExpired удаляет до limit записей, истёкших не позже before.
// limit <= 0 снимает ограничение.
func (c *TTLCache[V]) DeleteExpired(before time.Time, limit int) int {
	if before.IsZero() {
		before = c.clock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.items {
		if e.expiresAt.After(before) {
			continue
		}
		delete(c.items, key)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}
	return removed
}

// Len возвращает текущее число записей, включая ещё не вытесненные
// просроченные.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
