package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/backoffice/admin-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	deleteTimeout  = 30 * time.Second
)

// ImageDeleter removes a stored image by key.
type ImageDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Dispatcher deletes orphaned product images off the request path. Keys are
// routed to a fixed set of workers by hash, so repeated deletes of the same
// key are serialised on one worker.
type Dispatcher struct {
	workers []chan string
	store   ImageDeleter
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, store ImageDeleter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close has drained their channels.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules key for deletion. It never blocks: when the worker's
// channel is full the key is dropped and counted as a cleanup error.
func (d *Dispatcher) Enqueue(key string) {
	if key == "" {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("image_key", key).Msg("image cleanup after shutdown, dropping")
		metrics.ImageCleanupErrorsTotal.Inc()
		return
	}

	idx := d.shardIndex(key)
	select {
	case d.workers[idx] <- key:
		metrics.ImageCleanupQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.log.Warn().Str("image_key", key).Int("worker_id", idx).Msg("image cleanup queue full, dropping")
		metrics.ImageCleanupErrorsTotal.Inc()
	}
}

// Close stops accepting keys and waits for queued deletions to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	depth := metrics.ImageCleanupQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.delete(ctx, id, key)
		}
	}
}

func (d *Dispatcher) delete(ctx context.Context, id int, key string) {
	// Deletions already dequeued finish even if ctx is cancelled mid-call.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()

	if err := d.store.Delete(ctx, key); err != nil {
		metrics.ImageCleanupErrorsTotal.Inc()
		d.log.Error().Err(err).
			Str("image_key", key).
			Int("worker_id", id).
			Msg("image cleanup failed")
		return
	}
	d.log.Debug().Str("image_key", key).Int("worker_id", id).Msg("image removed")
}
