// Package dispatch распределяет события по ключу: события одного ключа
// обрабатываются строго по очереди, разные ключи параллельно.
package dispatch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"bitid-bot/internal/metrics"
)

// Dispatcher держит очередь на каждый активный ключ и одну горутину,
// которая её разбирает. Горутина завершается, когда очередь пуста.
type Dispatcher[K comparable, T any] struct {
	ctx     context.Context
	handle  func(context.Context, T)
	sem     *semaphore.Weighted
	metrics *metrics.Metrics

	mu     sync.Mutex
	queues map[K][]T
	wg     sync.WaitGroup
}

// New создаёт диспетчер. limit ограничивает число одновременно работающих
// обработчиков по всем ключам; limit <= 0 означает без ограничения.
// ctx передаётся в каждый обработчик.
func New[K comparable, T any](ctx context.Context, limit int, handle func(context.Context, T), m *metrics.Metrics) *Dispatcher[K, T] {
	d := &Dispatcher[K, T]{
		ctx:     ctx,
		handle:  handle,
		metrics: m,
		queues:  make(map[K][]T),
	}
	if limit > 0 {
		d.sem = semaphore.NewWeighted(int64(limit))
	}
	return d
}

// Submit ставит item в очередь ключа и не блокируется.
func (d *Dispatcher[K, T]) Submit(key K, item T) {
	d.mu.Lock()
	queue, active := d.queues[key]
	d.queues[key] = append(queue, item)
	if active {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	d.metrics.AddActiveUsers(1)
	go d.drain(key)
}

// Wait ждёт, пока все очереди будут разобраны.
func (d *Dispatcher[K, T]) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher[K, T]) drain(key K) {
	defer d.wg.Done()
	defer d.metrics.AddActiveUsers(-1)

	for {
		item, ok := d.next(key)
		if !ok {
			return
		}

		if d.sem != nil {
			if err := d.sem.Acquire(d.ctx, 1); err != nil {
				dropped := d.discard(key) + 1
				zerolog.Ctx(d.ctx).Warn().Err(err).Int("dropped", dropped).Msg("dispatcher stopped, queued events dropped")
				return
			}
		}
		d.handle(d.ctx, item)
		if d.sem != nil {
			d.sem.Release(1)
		}
	}
}

// next снимает голову очереди. Ключ остаётся в карте, пока обработчик
// работает, чтобы Submit не запустил вторую горутину.
func (d *Dispatcher[K, T]) next(key K) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	queue := d.queues[key]
	if len(queue) == 0 {
		delete(d.queues, key)
		var zero T
		return zero, false
	}

	item := queue[0]
	var zero T
	queue[0] = zero
	d.queues[key] = queue[1:]
	return item, true
}

func (d *Dispatcher[K, T]) discard(key K) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.queues[key])
	delete(d.queues, key)
	return n
}
